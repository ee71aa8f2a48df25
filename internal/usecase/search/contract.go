package search

import (
	"context"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/usecase/quantum"
)

// Store is the vector store as seen by the search pipeline.
type Store interface {
	Count(ctx context.Context) (int, error)
	Get(ctx context.Context, id string) (domdoc.Record, error)
	All(ctx context.Context, filter map[string]string) ([]domdoc.Record, error)
	SimilaritySearch(ctx context.Context, query []float32, n int, filter map[string]string) ([]result.Result, error)
}

// Embedder vectorizes the query text.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Quantum ranks a candidate pool with Grover amplification.
type Quantum interface {
	Search(ctx context.Context, query []float32, pool []domdoc.Record, p quantum.Params) (
		quantum.Outcome, []result.Result, error)
	Defaults() quantum.Params
	MaxSearchable() int
	Stats() quantum.Stats
}
