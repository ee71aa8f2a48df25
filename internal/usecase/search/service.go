package search

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	domdoc "github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/method"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/request"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/logger"
	"github.com/kailas-cloud/qubitchat/internal/usecase/quantum"
)

// Limits for Similar.
const (
	DefaultSimilarTopK = 5
	MaxSimilarTopK     = 10
)

// EmptyStoreMessage is returned with method "none" when nothing has been ingested.
const EmptyStoreMessage = "No documents found in vector store. Please ingest documents first."

// Response is the outcome of one query.
type Response struct {
	Query          string
	Results        []result.Result
	Method         method.Method
	Outcome        quantum.Outcome
	QuantumEnabled bool
	TotalDocuments int
	Threshold      float64
	Model          string
	Message        string
	Duration       time.Duration
}

// Settings describe the pipeline for Stats.
type Settings struct {
	Provider     string
	Model        string
	ChunkSize    int
	ChunkOverlap int
	// Threshold replaces the request default when the caller gave none.
	Threshold float64
}

// Stats combines store, quantum and pipeline information.
type Stats struct {
	TotalDocuments int
	HasData        bool
	Quantum        quantum.Stats
	Settings       Settings
	MaxTopK        int
}

// Service runs queries against the vector store, classical or quantum-enhanced.
type Service struct {
	store    Store
	embed    Embedder
	quantum  Quantum
	settings Settings
}

// New creates a search service.
func New(store Store, embed Embedder, q Quantum, settings Settings) *Service {
	return &Service{store: store, embed: embed, quantum: q, settings: settings}
}

// Search embeds the query and ranks stored chunks. The quantum path runs when the
// request asks for it and the whole store fits in the simulator's register.
func (s *Service) Search(ctx context.Context, req request.Request) (Response, error) {
	start := time.Now()
	log := logger.FromContext(ctx)

	if !req.ThresholdSet() && s.settings.Threshold > 0 {
		req = req.WithDefaultThreshold(s.settings.Threshold)
	}

	total, err := s.store.Count(ctx)
	if err != nil {
		return Response{}, fmt.Errorf("count documents: %w", err)
	}
	resp := Response{
		Query:     req.Query(),
		Threshold: req.Threshold(),
		Model:     s.settings.Model,
	}
	if total == 0 {
		resp.Method = method.None
		resp.Outcome = quantum.OutcomeEmptyPool
		resp.Results = []result.Result{}
		resp.Message = EmptyStoreMessage
		return resp, nil
	}
	resp.TotalDocuments = total
	resp.QuantumEnabled = req.UseQuantum() && total <= s.quantum.MaxSearchable()

	var (
		vec  []float32
		pool []domdoc.Record
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		emb, err := s.embed.Embed(gctx, req.Query())
		if err != nil {
			return fmt.Errorf("embed query: %w", err)
		}
		domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)
		vec = emb.Embedding
		return nil
	})
	if resp.QuantumEnabled {
		g.Go(func() error {
			recs, err := s.store.All(gctx, req.Filter())
			if err != nil {
				return fmt.Errorf("load candidates: %w", err)
			}
			pool = recs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Response{}, err //nolint:wrapcheck // wrapped inside the group
	}

	if resp.QuantumEnabled {
		p := s.quantum.Defaults()
		p.Threshold = req.Threshold()
		p.TopK = req.TopK()

		outcome, results, err := s.quantum.Search(ctx, vec, pool, p)
		if err != nil {
			return Response{}, fmt.Errorf("quantum search: %w", err)
		}
		resp.Outcome = outcome
		resp.Method = outcome.Method()
		resp.Results = results
	} else {
		results, err := s.store.SimilaritySearch(ctx, vec, req.TopK(), req.Filter())
		if err != nil {
			return Response{}, fmt.Errorf("classical search: %w", err)
		}
		resp.Method = method.Classical
		resp.Results = results
	}

	resp.Duration = time.Since(start)
	log.Info("Search completed",
		zap.String("method", string(resp.Method)),
		zap.String("outcome", string(resp.Outcome)),
		zap.Int("results", len(resp.Results)),
		zap.Int("total_documents", total),
		zap.Duration("duration", resp.Duration),
	)
	return resp, nil
}

// Similar returns the stored chunks closest to the chunk with the given id, excluding it.
func (s *Service) Similar(ctx context.Context, id string, topK int) ([]result.Result, error) {
	if topK == 0 {
		topK = DefaultSimilarTopK
	}
	if topK < 1 || topK > MaxSimilarTopK {
		return nil, fmt.Errorf("top_k must be between 1 and %d: %w", MaxSimilarTopK, domain.ErrInvalidRequest)
	}

	ref, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get reference document: %w", err)
	}

	results, err := s.store.SimilaritySearch(ctx, ref.Embedding(), topK+1, nil)
	if err != nil {
		return nil, fmt.Errorf("similarity search: %w", err)
	}

	out := make([]result.Result, 0, topK)
	for _, r := range results {
		if r.ID() == id {
			continue
		}
		out = append(out, r)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

// Stats reports the store size, quantum configuration and pipeline settings.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	total, err := s.store.Count(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("count documents: %w", err)
	}
	return Stats{
		TotalDocuments: total,
		HasData:        total > 0,
		Quantum:        s.quantum.Stats(),
		Settings:       s.settings,
		MaxTopK:        request.MaxTopK,
	}, nil
}
