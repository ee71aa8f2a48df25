package document

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/logger"
)

// DefaultMaxTextBytes caps a single ingested source.
const DefaultMaxTextBytes = 10 << 20

// Metadata keys written on every chunk.
const (
	MetaSource      = "source"
	MetaChunkID     = "chunk_id"
	MetaChunkSize   = "chunk_size"
	MetaTotalChunks = "total_chunks"
	MetaContentHash = "content_hash"
	MetaSessionID   = "session_id"
)

// Source is a text to be chunked, embedded and stored.
type Source struct {
	Name      string
	Text      string
	Metadata  map[string]string
	SessionID string
}

// IngestResult summarises one ingestion.
type IngestResult struct {
	Source      string
	ContentHash string
	DocumentIDs []string
	TotalTokens int
}

// Stats describes the vector store.
type Stats struct {
	TotalDocuments     int
	HasData            bool
	SampleMetadataKeys []string
}

// Service ingests text sources and manages stored chunks.
type Service struct {
	repo         Repository
	embedder     Embedder
	chunker      *Chunker
	maxTextBytes int
	dimensions   int
}

// New creates a document service.
func New(repo Repository, embedder Embedder, chunker *Chunker) *Service {
	return &Service{
		repo:         repo,
		embedder:     embedder,
		chunker:      chunker,
		maxTextBytes: DefaultMaxTextBytes,
	}
}

// WithMaxTextBytes overrides the ingestion size limit.
func (s *Service) WithMaxTextBytes(n int) *Service {
	if n > 0 {
		s.maxTextBytes = n
	}
	return s
}

// WithDimensions makes Ingest reject vectors of any other size.
func (s *Service) WithDimensions(d int) *Service {
	s.dimensions = d
	return s
}

// Ingest splits src into chunks, embeds them in one batch and upserts the records.
func (s *Service) Ingest(ctx context.Context, src Source) (IngestResult, error) {
	name := strings.TrimSpace(src.Name)
	if name == "" {
		return IngestResult{}, fmt.Errorf("source name is required: %w", domain.ErrInvalidRequest)
	}
	if len(src.Text) > s.maxTextBytes {
		return IngestResult{}, fmt.Errorf("text is %d bytes (max %d): %w",
			len(src.Text), s.maxTextBytes, domain.ErrPayloadTooLarge)
	}

	chunks := s.chunker.Split(src.Text)
	if len(chunks) == 0 {
		return IngestResult{}, fmt.Errorf("text is empty: %w", domain.ErrInvalidRequest)
	}

	emb, err := s.embedder.BatchEmbed(ctx, chunks)
	if err != nil {
		return IngestResult{}, fmt.Errorf("embed chunks: %w", err)
	}
	if len(emb.Embeddings) != len(chunks) {
		return IngestResult{}, fmt.Errorf("got %d vectors for %d chunks: %w",
			len(emb.Embeddings), len(chunks), domain.ErrEmbeddingProviderError)
	}
	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	sum := sha256.Sum256([]byte(src.Text))
	hash := hex.EncodeToString(sum[:])

	records := make([]domdoc.Record, len(chunks))
	ids := make([]string, len(chunks))
	for i, text := range chunks {
		vec := emb.Embeddings[i]
		if s.dimensions > 0 && len(vec) != s.dimensions {
			return IngestResult{}, domain.NewDimensionError(s.dimensions, len(vec), i)
		}

		meta := maps.Clone(src.Metadata)
		if meta == nil {
			meta = make(map[string]string, 6)
		}
		meta[MetaSource] = name
		meta[MetaChunkID] = strconv.Itoa(i)
		meta[MetaChunkSize] = strconv.Itoa(len([]rune(text)))
		meta[MetaTotalChunks] = strconv.Itoa(len(chunks))
		meta[MetaContentHash] = hash
		if src.SessionID != "" {
			meta[MetaSessionID] = src.SessionID
		}

		ids[i] = uuid.NewString()
		rec, err := domdoc.New(ids[i], text, vec, meta)
		if err != nil {
			return IngestResult{}, fmt.Errorf("chunk %d: %w: %w", i, domain.ErrInvalidRequest, err)
		}
		records[i] = rec
	}

	if err := s.repo.Upsert(ctx, records); err != nil {
		return IngestResult{}, fmt.Errorf("store chunks: %w", err)
	}

	logger.FromContext(ctx).Info("Source ingested",
		zap.String("source", name),
		zap.Int("chunks", len(records)),
		zap.Int("tokens", emb.TotalTokens),
	)

	return IngestResult{
		Source:      name,
		ContentHash: hash,
		DocumentIDs: ids,
		TotalTokens: emb.TotalTokens,
	}, nil
}

// List returns stored chunks matching filter, ordered by id.
func (s *Service) List(ctx context.Context, filter map[string]string) ([]domdoc.Record, error) {
	recs, err := s.repo.All(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return recs, nil
}

// Get retrieves a chunk by id.
func (s *Service) Get(ctx context.Context, id string) (domdoc.Record, error) {
	rec, err := s.repo.Get(ctx, id)
	if err != nil {
		return domdoc.Record{}, fmt.Errorf("get document: %w", err)
	}
	return rec, nil
}

// Delete removes chunks by id and returns how many existed.
func (s *Service) Delete(ctx context.Context, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, fmt.Errorf("no document ids: %w", domain.ErrInvalidRequest)
	}
	n, err := s.repo.Delete(ctx, ids)
	if err != nil {
		return 0, fmt.Errorf("delete documents: %w", err)
	}
	return n, nil
}

// Clear removes every stored chunk.
func (s *Service) Clear(ctx context.Context) (int, error) {
	n, err := s.repo.DeleteAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("clear documents: %w", err)
	}
	logger.FromContext(ctx).Warn("Vector store cleared", zap.Int("deleted", n))
	return n, nil
}

// Count returns the number of stored chunks.
func (s *Service) Count(ctx context.Context) (int, error) {
	n, err := s.repo.Count(ctx)
	if err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return n, nil
}

// Stats reports the store size and the metadata keys of one stored chunk.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	n, err := s.Count(ctx)
	if err != nil {
		return Stats{}, err
	}
	st := Stats{TotalDocuments: n, HasData: n > 0}
	if n == 0 {
		return st, nil
	}

	recs, err := s.repo.All(ctx, nil)
	if err != nil {
		return Stats{}, fmt.Errorf("sample documents: %w", err)
	}
	if len(recs) > 0 {
		st.SampleMetadataKeys = slices.Sorted(maps.Keys(recs[0].Metadata()))
	}
	return st, nil
}
