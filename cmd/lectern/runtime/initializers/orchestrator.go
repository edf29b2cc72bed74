package initializers

import (
	"context"
	"fmt"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/model"
	"github.com/harunnryd/lectern/internal/orchestrator"
	"github.com/harunnryd/lectern/internal/orchestrator/session"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/tool"
)

type OrchestratorInitializer struct {
	sessionStore session.Store
	completer    model.Completer
	registry     *tool.Registry
	backend      retrieval.Backend
}

func NewOrchestratorInitializer(sessionStore session.Store, completer model.Completer, registry *tool.Registry, backend retrieval.Backend) *OrchestratorInitializer {
	return &OrchestratorInitializer{
		sessionStore: sessionStore,
		completer:    completer,
		registry:     registry,
		backend:      backend,
	}
}

func (oi *OrchestratorInitializer) Name() string {
	return "orchestrator"
}

func (oi *OrchestratorInitializer) Dependencies() []string {
	return []string{"store", "models", "retrieval", "tools"}
}

func (oi *OrchestratorInitializer) Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if oi.sessionStore == nil {
		return nil, fmt.Errorf("store worker not initialized")
	}
	if oi.completer == nil {
		return nil, fmt.Errorf("completer not initialized")
	}
	if oi.registry == nil {
		return nil, fmt.Errorf("tool registry not initialized")
	}
	if oi.backend == nil {
		return nil, fmt.Errorf("retrieval backend not initialized")
	}

	sessions := session.NewManager(oi.sessionStore, cfg.Session)
	generator := orchestrator.NewGenerator(oi.completer, cfg.Generation, cfg.Models.Default)

	return struct {
		Sessions  *session.Manager
		Assistant *orchestrator.Assistant
	}{
		Sessions:  sessions,
		Assistant: orchestrator.NewAssistant(generator, oi.registry, sessions, oi.backend),
	}, nil
}
