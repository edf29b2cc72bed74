package orchestrator

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/harunnryd/lectern/internal/concurrency"
	"github.com/harunnryd/lectern/internal/logger"
	"github.com/harunnryd/lectern/internal/retrieval"
	"github.com/harunnryd/lectern/internal/tool"
)

const queryPrompt = "Answer this question about course materials: %s"

// SessionRecorder supplies prior conversation and records new exchanges.
type SessionRecorder interface {
	History(ctx context.Context, sessionID string) (string, error)
	AddExchange(ctx context.Context, sessionID, query, answer string) error
}

// Answer is the final response to one question.
type Answer struct {
	Text    string
	Sources []tool.Source
}

// Assistant runs the query pipeline: history, generation, sources, recording.
type Assistant struct {
	generator *Generator
	tools     *tool.Registry
	sessions  SessionRecorder
	backend   retrieval.Backend
	locks     *concurrency.SessionLocks
}

func NewAssistant(generator *Generator, tools *tool.Registry, sessions SessionRecorder, backend retrieval.Backend) *Assistant {
	return &Assistant{
		generator: generator,
		tools:     tools,
		sessions:  sessions,
		backend:   backend,
		locks:     concurrency.NewSessionLocks(),
	}
}

// Query answers one question. Each call gets its own dispatcher, so sources
// never leak between concurrent queries. Queries on the same session run one
// at a time.
func (a *Assistant) Query(ctx context.Context, query string, sessionID string) (*Answer, error) {
	ctx = logger.EnsureTraceID(ctx)
	if sessionID != "" {
		ctx = logger.WithSessionID(ctx, sessionID)
		unlock := a.locks.Lock(sessionID)
		defer unlock()
	}
	traceID := logger.GetTraceID(ctx)

	var history string
	if a.sessions != nil && sessionID != "" {
		h, err := a.sessions.History(ctx, sessionID)
		if err != nil {
			slog.Warn("Failed to load session history", "session_id", sessionID, "error", err, "trace_id", traceID)
		}
		history = h
	}

	dispatcher := a.tools.NewDispatcher()
	text, err := a.generator.Generate(ctx, fmt.Sprintf(queryPrompt, query), history, dispatcher.Definitions(), dispatcher)
	if err != nil {
		slog.Error("Generation failed", "error", err, "session_id", sessionID, "trace_id", traceID)
		return nil, err
	}

	sources := dispatcher.CollectSources()
	dispatcher.ResetSources()

	if a.sessions != nil && sessionID != "" {
		if err := a.sessions.AddExchange(ctx, sessionID, query, text); err != nil {
			slog.Warn("Failed to record exchange", "session_id", sessionID, "error", err, "trace_id", traceID)
		}
	}

	slog.Info("Query answered", "session_id", sessionID, "sources", len(sources), "trace_id", traceID)
	return &Answer{Text: text, Sources: sources}, nil
}

// Courses reports catalog analytics.
func (a *Assistant) Courses(ctx context.Context) (retrieval.Analytics, error) {
	return a.backend.Analytics(ctx)
}
