package runtime

import (
	"context"
	"fmt"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/store"
)

// Builder collects what NewRuntimeComponents needs and validates it once.
type Builder struct {
	ctx         context.Context
	cfg         *config.Config
	workspaceID string
}

func NewRuntimeBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) WithContext(ctx context.Context) *Builder {
	b.ctx = ctx
	return b
}

func (b *Builder) WithConfig(cfg *config.Config) *Builder {
	b.cfg = cfg
	return b
}

func (b *Builder) WithWorkspace(workspaceID string) *Builder {
	b.workspaceID = workspaceID
	return b
}

func (b *Builder) Build() (*RuntimeComponents, error) {
	if b.cfg == nil {
		return nil, fmt.Errorf("config is required")
	}

	ctx := b.ctx
	if ctx == nil {
		ctx = context.Background()
	}

	workspaceID := b.workspaceID
	if workspaceID == "" {
		workspaceID = DefaultWorkspaceID
	}
	if err := store.ValidateID(workspaceID); err != nil {
		return nil, fmt.Errorf("invalid workspace %q: %w", workspaceID, err)
	}

	return NewRuntimeComponents(ctx, b.cfg, workspaceID)
}
