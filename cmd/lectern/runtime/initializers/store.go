package initializers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/store"
)

// StoreInitializer opens the workspace store and starts its worker. The
// returned worker holds the workspace lock until Stop.
type StoreInitializer struct{}

func NewStoreInitializer() *StoreInitializer {
	return &StoreInitializer{}
}

func (si *StoreInitializer) Name() string {
	return "store"
}

func (si *StoreInitializer) Dependencies() []string {
	return []string{}
}

func (si *StoreInitializer) Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	runtimeCfg, err := store.RuntimeConfigFrom(cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("parse store config: %w", err)
	}

	worker, err := store.NewWorker(workspaceID, cfg.Store.WorkspacePath, runtimeCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create store worker: %w", err)
	}
	worker.Start()

	slog.Debug("Store worker started", "workspace", workspaceID, "path", worker.BasePath(), "inbox", runtimeCfg.InboxSize)
	return worker, nil
}
