package initializers

import (
	"context"

	"github.com/harunnryd/lectern/internal/config"
)

// ComponentInitializer builds one runtime component. Dependencies names the
// initializers whose results must be passed to its constructor.
type ComponentInitializer interface {
	Name() string
	Dependencies() []string
	Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error)
}
