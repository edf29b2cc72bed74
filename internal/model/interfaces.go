package model

import (
	"context"

	"github.com/harunnryd/lectern/internal/model/contract"
)

// Completer is the completion service consumed by the orchestrator.
type Completer interface {
	Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
}

// Embedder turns text into a vector for similarity search.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type Provider interface {
	Completer
	Embedder
	Name() string
	Type() string
}
