package document

import (
	"context"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
)

// Repository defines the storage contract for chunk records.
type Repository interface {
	Upsert(ctx context.Context, records []domdoc.Record) error
	Get(ctx context.Context, id string) (domdoc.Record, error)
	All(ctx context.Context, filter map[string]string) ([]domdoc.Record, error)
	Delete(ctx context.Context, ids []string) (int, error)
	DeleteAll(ctx context.Context) (int, error)
	Count(ctx context.Context) (int, error)
}

// Embedder vectorizes chunk texts in bulk.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}
