package initializers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/model"
)

type ModelsInitializer struct{}

func NewModelsInitializer() *ModelsInitializer {
	return &ModelsInitializer{}
}

func (mi *ModelsInitializer) Name() string {
	return "models"
}

func (mi *ModelsInitializer) Dependencies() []string {
	return []string{}
}

func (mi *ModelsInitializer) Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}

	router, err := model.NewRouter(cfg.Models)
	if err != nil {
		return nil, fmt.Errorf("model router init: %w", err)
	}
	slog.Debug("Model router initialized", "models", router.ListModels(), "default", cfg.Models.Default, "embedding", cfg.Models.Embedding)
	return router, nil
}
