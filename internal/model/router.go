package model

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/harunnryd/lectern/internal/config"
	lecternErrors "github.com/harunnryd/lectern/internal/errors"
	"github.com/harunnryd/lectern/internal/logger"
	"github.com/harunnryd/lectern/internal/model/contract"
	anthropicProvider "github.com/harunnryd/lectern/internal/model/providers/anthropic"
	geminiProvider "github.com/harunnryd/lectern/internal/model/providers/gemini"
	openaiProvider "github.com/harunnryd/lectern/internal/model/providers/openai"

	"golang.org/x/time/rate"
)

// Router resolves registry names to providers. Requests are paced but never retried.
type Router struct {
	cfg       config.ModelsConfig
	providers map[string]Provider
	limiter   *rate.Limiter
	mu        sync.RWMutex
}

// NewRouter creates a router with a provider for every usable registry entry.
func NewRouter(cfg config.ModelsConfig) (*Router, error) {
	router := &Router{
		cfg:       cfg,
		providers: make(map[string]Provider),
		limiter:   newLimiter(cfg.RequestsPerMinute),
	}

	if err := router.initProviders(); err != nil {
		return nil, err
	}

	return router, nil
}

func newLimiter(perMinute int) *rate.Limiter {
	if perMinute <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), 1)
}

// Register adds or replaces a provider under its name.
func (r *Router) Register(p Provider) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.providers[p.Name()] = p
}

// Complete sends req to the provider named by req.Model, or the default model.
func (r *Router) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	name := req.Model
	if name == "" {
		name = r.cfg.Default
	}
	traceID := logger.GetTraceID(ctx)

	provider, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, lecternErrors.Wrap(err, "completion request cancelled")
	}

	slog.Debug("Routing completion request", "model", name, "tools", len(req.Tools), "trace_id", traceID)

	resp, err := provider.Complete(ctx, req)
	if err != nil {
		slog.Error("Completion request failed", "model", name, "error", err, "trace_id", traceID)
		return nil, lecternErrors.Wrap(err, fmt.Sprintf("model %s", name))
	}

	return resp, nil
}

// Embed embeds text with the configured embedding model.
func (r *Router) Embed(ctx context.Context, text string) ([]float32, error) {
	name := r.cfg.Embedding

	provider, err := r.resolve(name)
	if err != nil {
		return nil, err
	}

	if err := r.limiter.Wait(ctx); err != nil {
		return nil, lecternErrors.Wrap(err, "embedding request cancelled")
	}

	vec, err := provider.Embed(ctx, text)
	if err != nil {
		return nil, lecternErrors.Wrap(err, fmt.Sprintf("embedding model %s", name))
	}
	if len(vec) == 0 {
		return nil, lecternErrors.InvalidModelOutput(fmt.Sprintf("embedding model %s returned an empty vector", name))
	}
	return vec, nil
}

// ListModels returns the registered model names in sorted order.
func (r *Router) ListModels() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	models := make([]string, 0, len(r.providers))
	for name := range r.providers {
		models = append(models, name)
	}
	sort.Strings(models)

	return models
}

func (r *Router) resolve(name string) (Provider, error) {
	r.mu.RLock()
	provider, exists := r.providers[name]
	r.mu.RUnlock()

	if !exists {
		return nil, lecternErrors.NotFound(fmt.Sprintf("model %s not configured", name))
	}
	return provider, nil
}

// initProviders initializes all providers from configuration
func (r *Router) initProviders() error {
	for _, entry := range r.cfg.Registry {
		provider, err := createProvider(entry)
		if err != nil {
			slog.Warn("Failed to create provider", "provider", entry.Provider, "model", entry.Name, "error", err)
			continue
		}

		r.providers[entry.Name] = provider
		slog.Debug("Provider initialized", "name", entry.Name, "type", entry.Provider)
	}

	if len(r.providers) == 0 && len(r.cfg.Registry) > 0 {
		return lecternErrors.Internal("no providers initialized")
	}

	return nil
}

// createProvider creates a provider instance based on registry entry
func createProvider(entry config.ModelRegistry) (Provider, error) {
	timeout, err := entry.Timeout()
	if err != nil {
		return nil, lecternErrors.InvalidInput(err.Error())
	}

	adapter := &ProviderAdapter{
		name:         entry.Name,
		modelID:      entry.ModelID(),
		providerType: entry.Provider,
		timeout:      timeout,
	}

	switch entry.Provider {
	case "openai":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOpenAIBaseURL
		}

		if entry.APIKey == "" {
			return nil, lecternErrors.InvalidInput("API key required for OpenAI provider")
		}

		adapter.backend = openaiProvider.New(entry.APIKey, baseURL, "openai")

	case "ollama":
		baseURL := entry.BaseURL
		if baseURL == "" {
			baseURL = config.DefaultOllamaBaseURL
		}

		apiKey := entry.APIKey
		if apiKey == "" {
			apiKey = config.DefaultOllamaAPIKey
		}

		adapter.backend = openaiProvider.New(apiKey, baseURL, "ollama")

	case "anthropic":
		if entry.APIKey == "" {
			return nil, lecternErrors.InvalidInput("API key required for Anthropic provider")
		}

		adapter.backend = anthropicProvider.New(entry.APIKey, entry.BaseURL)

	case "gemini":
		if entry.APIKey == "" {
			return nil, lecternErrors.InvalidInput("API key required for Gemini provider")
		}

		provider, err := geminiProvider.New(entry.APIKey, entry.BaseURL)
		if err != nil {
			return nil, lecternErrors.WrapWithCategory(err, "failed to create Gemini provider", lecternErrors.ErrInternal)
		}
		adapter.backend = provider

	default:
		return nil, lecternErrors.InvalidInput(fmt.Sprintf("unknown provider type: %s", entry.Provider))
	}

	return adapter, nil
}
