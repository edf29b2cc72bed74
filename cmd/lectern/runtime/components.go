package runtime

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/lectern/cmd/lectern/runtime/initializers"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/model"
	"github.com/harunnryd/lectern/internal/orchestrator"
	"github.com/harunnryd/lectern/internal/orchestrator/session"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/store"
	"github.com/harunnryd/lectern/internal/tool"
)

type RuntimeComponents struct {
	Ctx    context.Context
	Cancel context.CancelFunc

	Config      *config.Config
	WorkspaceID string

	StoreWorker  *store.Worker
	Router       *model.Router
	Backend      *retrieval.VectorBackend
	Ingestor     *retrieval.Ingestor
	ToolRegistry *tool.Registry
	Sessions     *session.Manager
	Assistant    *orchestrator.Assistant
}

func NewRuntimeComponents(ctx context.Context, cfg *config.Config, workspaceID string) (*RuntimeComponents, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)

	components := &RuntimeComponents{
		Ctx:         ctx,
		Cancel:      cancel,
		Config:      cfg,
		WorkspaceID: workspaceID,
	}

	storeComponent, err := initializers.NewStoreInitializer().Initialize(ctx, cfg, workspaceID)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init store worker: %w", err)
	}
	components.StoreWorker = storeComponent.(*store.Worker)

	modelsComponent, err := initializers.NewModelsInitializer().Initialize(ctx, cfg, workspaceID)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init models: %w", err)
	}
	components.Router = modelsComponent.(*model.Router)

	retrievalComponent, err := initializers.NewRetrievalInitializer(components.StoreWorker, components.Router).Initialize(ctx, cfg, workspaceID)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init retrieval: %w", err)
	}
	retrievalStruct := retrievalComponent.(struct {
		Backend  *retrieval.VectorBackend
		Ingestor *retrieval.Ingestor
	})
	components.Backend = retrievalStruct.Backend
	components.Ingestor = retrievalStruct.Ingestor

	toolsComponent, err := initializers.NewToolsInitializer(components.Backend).Initialize(ctx, cfg, workspaceID)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init tools: %w", err)
	}
	components.ToolRegistry = toolsComponent.(*tool.Registry)

	orchComponent, err := initializers.NewOrchestratorInitializer(
		components.StoreWorker,
		components.Router,
		components.ToolRegistry,
		components.Backend,
	).Initialize(ctx, cfg, workspaceID)
	if err != nil {
		components.cleanup()
		return nil, fmt.Errorf("init orchestrator: %w", err)
	}
	orchStruct := orchComponent.(struct {
		Sessions  *session.Manager
		Assistant *orchestrator.Assistant
	})
	components.Sessions = orchStruct.Sessions
	components.Assistant = orchStruct.Assistant

	slog.Info("Runtime components initialized successfully", "workspace", workspaceID, "tools", components.ToolRegistry.Names())
	return components, nil
}

func (r *RuntimeComponents) Stop() {
	slog.Debug("Stopping runtime components...")

	r.Cancel()

	if r.StoreWorker != nil {
		r.StoreWorker.Stop()
	}

	slog.Debug("Runtime components stopped")
}

func (r *RuntimeComponents) cleanup() {
	slog.Debug("Cleaning up runtime components...")
	r.Stop()
}
