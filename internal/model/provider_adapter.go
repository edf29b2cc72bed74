package model

import (
	"context"
	"time"

	"github.com/harunnryd/lectern/internal/model/contract"
)

type backend interface {
	Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error)
	Embed(ctx context.Context, model, text string) ([]float32, error)
}

// ProviderAdapter binds a provider backend to one registry entry.
type ProviderAdapter struct {
	backend      backend
	name         string
	modelID      string
	providerType string
	timeout      time.Duration
}

func (a *ProviderAdapter) Complete(ctx context.Context, req contract.CompletionRequest) (*contract.CompletionResponse, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	req.Model = a.modelID
	return a.backend.Complete(ctx, req)
}

func (a *ProviderAdapter) Embed(ctx context.Context, text string) ([]float32, error) {
	ctx, cancel := a.withTimeout(ctx)
	defer cancel()

	return a.backend.Embed(ctx, a.modelID, text)
}

func (a *ProviderAdapter) Name() string {
	return a.name
}

func (a *ProviderAdapter) Type() string {
	return a.providerType
}

func (a *ProviderAdapter) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if a.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, a.timeout)
}
