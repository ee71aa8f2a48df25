package chat

import (
	"context"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/usecase/quantum"
)

// Store is the vector store as seen by context retrieval.
type Store interface {
	Count(ctx context.Context) (int, error)
	All(ctx context.Context, filter map[string]string) ([]domdoc.Record, error)
	SimilaritySearch(ctx context.Context, query []float32, n int, filter map[string]string) ([]result.Result, error)
}

// Embedder vectorizes the user message.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Quantum ranks the context pool.
type Quantum interface {
	Search(ctx context.Context, query []float32, pool []domdoc.Record, p quantum.Params) (
		quantum.Outcome, []result.Result, error)
	Defaults() quantum.Params
	MaxSearchable() int
}

// History persists conversation turns.
type History interface {
	Append(ctx context.Context, turns ...domain.Turn) error
	Recent(ctx context.Context, sessionID string, limit int) ([]domain.Turn, error)
	List(ctx context.Context, sessionID string) ([]domain.Turn, error)
	DeleteSession(ctx context.Context, sessionID string) (int, error)
}
