package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/harunnryd/lectern/internal/pathutil"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/posflag"
	"github.com/knadh/koanf/v2"
	"github.com/spf13/cobra"
)

type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Models     ModelsConfig     `koanf:"models"`
	Generation GenerationConfig `koanf:"generation"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Session    SessionConfig    `koanf:"session"`
	Store      StoreConfig      `koanf:"store"`
	Ingest     IngestConfig     `koanf:"ingest"`
}

type ServerConfig struct {
	LogLevel string `koanf:"log_level"`
}

type ModelsConfig struct {
	Default           string          `koanf:"default"`
	Embedding         string          `koanf:"embedding"`
	RequestsPerMinute int             `koanf:"requests_per_minute"`
	Registry          []ModelRegistry `koanf:"registry"`
}

type ModelRegistry struct {
	Name           string `koanf:"name"`
	Provider       string `koanf:"provider"`
	Model          string `koanf:"model"`
	BaseURL        string `koanf:"base_url"`
	APIKey         string `koanf:"api_key"`
	RequestTimeout string `koanf:"request_timeout"`
}

// ModelID returns the provider-side model identifier, defaulting to the registry name.
func (m ModelRegistry) ModelID() string {
	if id := strings.TrimSpace(m.Model); id != "" {
		return id
	}
	return m.Name
}

type GenerationConfig struct {
	MaxToolRounds  int     `koanf:"max_tool_rounds"`
	Temperature    float64 `koanf:"temperature"`
	MaxTokens      int     `koanf:"max_tokens"`
	FallbackAnswer string  `koanf:"fallback_answer"`
	SystemPrompt   string  `koanf:"system_prompt"`
}

type RetrievalConfig struct {
	MaxResults        int    `koanf:"max_results"`
	CatalogCollection string `koanf:"catalog_collection"`
	ContentCollection string `koanf:"content_collection"`
}

type SessionConfig struct {
	MaxHistory int `koanf:"max_history"`
}

type StoreConfig struct {
	WorkspacePath            string `koanf:"workspace_path"`
	LockTimeout              string `koanf:"lock_timeout"`
	LockRetry                string `koanf:"lock_retry"`
	LockMaxRetry             int    `koanf:"lock_max_retry"`
	InboxSize                int    `koanf:"inbox_size"`
	TranscriptRotateMaxBytes int64  `koanf:"transcript_rotate_max_bytes"`
}

type IngestConfig struct {
	Concurrency int `koanf:"concurrency"`
}

const (
	DefaultWorkspaceID                   = "default"
	DefaultServerLogLevel                = "info"
	DefaultModelDefault                  = "claude-sonnet"
	DefaultModelDefaultID                = "claude-sonnet-4-20250514"
	DefaultModelEmbedding                = "openai-embedding"
	DefaultModelEmbeddingID              = "text-embedding-3-small"
	DefaultModelRequestsPerMinute        = 0
	DefaultModelRequestTimeout           = "60s"
	DefaultOpenAIBaseURL                 = "https://api.openai.com/v1"
	DefaultOllamaBaseURL                 = "http://localhost:11434/v1"
	DefaultOllamaAPIKey                  = "ollama"
	DefaultGenerationMaxToolRounds       = 2
	DefaultGenerationTemperature         = 0.0
	DefaultGenerationMaxTokens           = 800
	DefaultGenerationFallbackAnswer      = "I'm sorry, I wasn't able to generate a response. Please try rephrasing your question."
	DefaultRetrievalMaxResults           = 5
	DefaultRetrievalCatalogCollection    = "course_catalog"
	DefaultRetrievalContentCollection    = "course_content"
	DefaultSessionMaxHistory             = 2
	DefaultStoreLockTimeout              = "30s"
	DefaultStoreLockRetry                = "100ms"
	DefaultStoreLockMaxRetry             = 300
	DefaultStoreInboxSize                = 100
	DefaultStoreTranscriptRotateMaxBytes = 10 * 1024 * 1024
	DefaultIngestConcurrency             = 4
)

func Load(cmd *cobra.Command) (*Config, error) {
	k := koanf.New(".")

	// Hardcoded Defaults
	defaults := map[string]interface{}{
		"server.log_level":           DefaultServerLogLevel,
		"models.default":             DefaultModelDefault,
		"models.embedding":           DefaultModelEmbedding,
		"models.requests_per_minute": DefaultModelRequestsPerMinute,
		"models.registry": []map[string]interface{}{
			{"name": DefaultModelDefault, "provider": "anthropic", "model": DefaultModelDefaultID},
			{"name": DefaultModelEmbedding, "provider": "openai", "model": DefaultModelEmbeddingID},
			{"name": "local-llama", "provider": "ollama", "model": "llama3.1", "base_url": DefaultOllamaBaseURL},
		},
		"generation.max_tool_rounds":        DefaultGenerationMaxToolRounds,
		"generation.temperature":            DefaultGenerationTemperature,
		"generation.max_tokens":             DefaultGenerationMaxTokens,
		"generation.fallback_answer":        DefaultGenerationFallbackAnswer,
		"generation.system_prompt":          "",
		"retrieval.max_results":             DefaultRetrievalMaxResults,
		"retrieval.catalog_collection":      DefaultRetrievalCatalogCollection,
		"retrieval.content_collection":      DefaultRetrievalContentCollection,
		"session.max_history":               DefaultSessionMaxHistory,
		"store.workspace_path":              filepath.Join(os.Getenv("HOME"), ".lectern", "workspaces"),
		"store.lock_timeout":                DefaultStoreLockTimeout,
		"store.lock_retry":                  DefaultStoreLockRetry,
		"store.lock_max_retry":              DefaultStoreLockMaxRetry,
		"store.inbox_size":                  DefaultStoreInboxSize,
		"store.transcript_rotate_max_bytes": DefaultStoreTranscriptRotateMaxBytes,
		"ingest.concurrency":                DefaultIngestConcurrency,
	}
	for key, value := range defaults {
		k.Set(key, value)
	}

	// Config file loading
	configPath := ""
	if cmd != nil {
		if flag := cmd.Flags().Lookup("config"); flag != nil {
			configPath = strings.TrimSpace(flag.Value.String())
		}
	}

	if configPath != "" {
		if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
			return nil, err
		}
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			globalPath := filepath.Join(home, ".lectern", "config.yaml")
			if err := k.Load(file.Provider(globalPath), yaml.Parser()); err != nil {
				slog.Debug("Global config not found or invalid", "path", globalPath, "error", err)
			}
		}
	}

	// Environment Variables
	k.Load(env.Provider("LECTERN_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(strings.TrimPrefix(s, "LECTERN_")), "_", ".", -1)
	}), nil)

	// CLI Flags
	if cmd != nil {
		k.Load(posflag.Provider(cmd.Flags(), ".", k), nil)
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	for i, m := range cfg.Models.Registry {
		if m.Provider == "" {
			cfg.Models.Registry[i].Provider = "anthropic"
		}
	}

	normalizeLimits(&cfg)

	if err := normalizePathFields(&cfg); err != nil {
		return nil, err
	}

	// Post-Process: Inject standard Env Vars if missing
	injectAPIKey(&cfg, "anthropic", os.Getenv("ANTHROPIC_API_KEY"))
	injectAPIKey(&cfg, "openai", os.Getenv("OPENAI_API_KEY"))
	injectAPIKey(&cfg, "gemini", os.Getenv("GEMINI_API_KEY"))

	return &cfg, nil
}

// FindModel returns the registry entry with the given name.
func (c *Config) FindModel(name string) (ModelRegistry, bool) {
	for _, m := range c.Models.Registry {
		if m.Name == name {
			return m, true
		}
	}
	return ModelRegistry{}, false
}

func injectAPIKey(cfg *Config, provider, key string) {
	if key == "" {
		return
	}
	for i, m := range cfg.Models.Registry {
		if m.Provider == provider && m.APIKey == "" {
			cfg.Models.Registry[i].APIKey = key
		}
	}
}

func normalizeLimits(cfg *Config) {
	if cfg.Generation.MaxToolRounds <= 0 {
		cfg.Generation.MaxToolRounds = DefaultGenerationMaxToolRounds
	}
	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = DefaultGenerationMaxTokens
	}
	if strings.TrimSpace(cfg.Generation.FallbackAnswer) == "" {
		cfg.Generation.FallbackAnswer = DefaultGenerationFallbackAnswer
	}
	if cfg.Retrieval.MaxResults <= 0 {
		cfg.Retrieval.MaxResults = DefaultRetrievalMaxResults
	}
	if cfg.Session.MaxHistory < 0 {
		cfg.Session.MaxHistory = 0
	}
	if cfg.Ingest.Concurrency <= 0 {
		cfg.Ingest.Concurrency = DefaultIngestConcurrency
	}
}

func normalizePathFields(cfg *Config) error {
	if cfg == nil {
		return nil
	}

	workspacePath, err := expandConfiguredPath(cfg.Store.WorkspacePath)
	if err != nil {
		return err
	}
	if workspacePath != "" {
		cfg.Store.WorkspacePath = workspacePath
	}

	return nil
}

func expandConfiguredPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", nil
	}
	expanded, err := pathutil.Expand(trimmed)
	if err != nil {
		return "", err
	}
	return expanded, nil
}
