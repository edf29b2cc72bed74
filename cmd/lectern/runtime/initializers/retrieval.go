package initializers

import (
	"context"
	"fmt"

	"github.com/harunnryd/lectern/internal/config"
	"github.com/harunnryd/lectern/internal/retrieval"
)

type RetrievalInitializer struct {
	store    retrieval.Store
	embedder retrieval.Embedder
}

func NewRetrievalInitializer(s retrieval.Store, embedder retrieval.Embedder) *RetrievalInitializer {
	return &RetrievalInitializer{store: s, embedder: embedder}
}

func (ri *RetrievalInitializer) Name() string {
	return "retrieval"
}

func (ri *RetrievalInitializer) Dependencies() []string {
	return []string{"store", "models"}
}

func (ri *RetrievalInitializer) Initialize(ctx context.Context, cfg *config.Config, workspaceID string) (interface{}, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	if ri.store == nil {
		return nil, fmt.Errorf("store worker not initialized")
	}
	if ri.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	return struct {
		Backend  *retrieval.VectorBackend
		Ingestor *retrieval.Ingestor
	}{
		Backend:  retrieval.NewVectorBackend(ri.store, ri.embedder, cfg.Retrieval),
		Ingestor: retrieval.NewIngestor(ri.store, ri.embedder, cfg.Retrieval, cfg.Ingest.Concurrency),
	}, nil
}
