package initializers

import (
	"context"
	"testing"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/model"
	"github.com/harunnryd/lectern/internal/model/contract"
	"github.com/harunnryd/lectern/internal/orchestrator"
	"github.com/harunnryd/lectern/internal/orchestrator/session"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"
)

type stubEmbedder struct{}

func (stubEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}

type stubCompleter struct{}

func (stubCompleter) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	return &contract.CompletionResponse{StopReason: contract.StopText, Content: []contract.Block{contract.TextBlock{Text: "ok"}}}, nil
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	return &config.Config{
		Store: config.StoreConfig{WorkspacePath: t.TempDir()},
		Models: config.ModelsConfig{
			Default: "local",
			Registry: []config.ModelRegistry{
				{Name: "local", Provider: "ollama", Model: "llama3.1"},
			},
		},
	}
}

func initStore(t *testing.T, cfg *config.Config) *store.Worker {
	t.Helper()
	component, err := NewStoreInitializer().Initialize(context.Background(), cfg, "test-workspace-"+t.Name())
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	worker, ok := component.(*store.Worker)
	if !ok {
		t.Fatalf("expected *store.Worker, got %T", component)
	}
	t.Cleanup(worker.Stop)
	return worker
}

func TestInitializerNamesAndDependencies(t *testing.T) {
	testCases := []struct {
		init ComponentInitializer
		name string
		deps int
	}{
		{NewStoreInitializer(), "store", 0},
		{NewModelsInitializer(), "models", 0},
		{NewRetrievalInitializer(nil, nil), "retrieval", 2},
		{NewToolsInitializer(nil), "tools", 1},
		{NewOrchestratorInitializer(nil, nil, nil, nil), "orchestrator", 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.init.Name(); got != tc.name {
				t.Errorf("Name() = %v, want %v", got, tc.name)
			}
			if got := tc.init.Dependencies(); len(got) != tc.deps {
				t.Errorf("Dependencies() = %v, want %d entries", got, tc.deps)
			}
		})
	}
}

func TestInitializersRejectNilConfig(t *testing.T) {
	inits := []ComponentInitializer{
		NewStoreInitializer(),
		NewModelsInitializer(),
		NewRetrievalInitializer(nil, nil),
		NewToolsInitializer(nil),
		NewOrchestratorInitializer(nil, nil, nil, nil),
	}
	for _, init := range inits {
		if _, err := init.Initialize(context.Background(), nil, "ws"); err == nil {
			t.Errorf("%s: expected error for nil config", init.Name())
		}
	}
}

func TestStoreInitializer_Initialize(t *testing.T) {
	worker := initStore(t, testConfig(t))
	if !worker.IsRunning() {
		t.Error("expected store worker to be running")
	}
}

func TestStoreInitializer_InvalidDuration(t *testing.T) {
	cfg := testConfig(t)
	cfg.Store.LockTimeout = "later"
	if _, err := NewStoreInitializer().Initialize(context.Background(), cfg, "ws"); err == nil {
		t.Error("expected error for invalid lock timeout")
	}
}

func TestModelsInitializer_Initialize(t *testing.T) {
	component, err := NewModelsInitializer().Initialize(context.Background(), testConfig(t), "ws")
	if err != nil {
		t.Fatalf("Initialize() failed: %v", err)
	}
	router, ok := component.(*model.Router)
	if !ok {
		t.Fatalf("expected *model.Router, got %T", component)
	}
	if models := router.ListModels(); len(models) != 1 || models[0] != "local" {
		t.Errorf("ListModels() = %v", models)
	}
}

func TestFullChain_Initialize(t *testing.T) {
	cfg := testConfig(t)
	worker := initStore(t, cfg)

	retrievalComponent, err := NewRetrievalInitializer(worker, stubEmbedder{}).Initialize(context.Background(), cfg, "ws")
	if err != nil {
		t.Fatalf("retrieval Initialize() failed: %v", err)
	}
	parts := retrievalComponent.(struct {
		Backend  *retrieval.VectorBackend
		Ingestor *retrieval.Ingestor
	})
	if parts.Backend == nil || parts.Ingestor == nil {
		t.Fatal("expected backend and ingestor")
	}

	toolsComponent, err := NewToolsInitializer(parts.Backend).Initialize(context.Background(), cfg, "ws")
	if err != nil {
		t.Fatalf("tools Initialize() failed: %v", err)
	}
	registry := toolsComponent.(*tool.Registry)
	if names := registry.Names(); len(names) != 2 {
		t.Fatalf("expected 2 built-in tools, got %v", names)
	}

	orchComponent, err := NewOrchestratorInitializer(worker, stubCompleter{}, registry, parts.Backend).Initialize(context.Background(), cfg, "ws")
	if err != nil {
		t.Fatalf("orchestrator Initialize() failed: %v", err)
	}
	orch := orchComponent.(struct {
		Sessions  *session.Manager
		Assistant *orchestrator.Assistant
	})

	answer, err := orch.Assistant.Query(context.Background(), "hello", "")
	if err != nil {
		t.Fatalf("Query() failed: %v", err)
	}
	if answer.Text != "ok" {
		t.Errorf("answer = %q, want ok", answer.Text)
	}
}
