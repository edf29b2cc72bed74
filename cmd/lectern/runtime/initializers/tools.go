package initializers

import (
	"context"
	"fmt"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/tool"
	_ "github.com/harunnryd/lectern/internal/tool/builtin"
)

type ToolsInitializer struct {
	backend retrieval.Backend
}

func NewToolsInitializer(backend retrieval.Backend) *ToolsInitializer {
	return &ToolsInitializer{backend: backend}
}

func (ti *ToolsInitializer) Name() string {
	return "tools"
}

func (ti *ToolsInitializer) Dependencies() []string {
	return []string{"retrieval"}
}

func (ti *ToolsInitializer) Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error) {
	_ = ctx
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if ti.backend == nil {
		return nil, fmt.Errorf("retrieval backend not initialized")
	}

	registry := tool.NewRegistry()
	if err := registry.RegisterBuiltins(tool.BuiltinOptions{Backend: ti.backend}); err != nil {
		return nil, fmt.Errorf("register built-in tools: %w", err)
	}
	return registry, nil
}
