package quantum

import (
	"context"
	"fmt"
	"slices"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/domain/similarity"
	"github.com/kailas-cloud/qubitchat/internal/metrics"
	"github.com/kailas-cloud/qubitchat/internal/quantum/grover"
)

// Defaults applied when Config fields are zero.
const (
	DefaultThreshold   = 0.7
	DefaultTopK        = 5
	DefaultBoostFactor = 2.0
)

// Config holds per-deployment search defaults.
type Config struct {
	Threshold   float64
	TopK        int
	BoostFactor float64
	// Simulator names the backend in Stats.
	Simulator string
}

// Params tune one search call. Start from Service.Defaults and override.
// A non-positive TopK or MaxQubits takes the configured value. Threshold and
// BoostFactor are used as given: a zero threshold marks every document and a
// zero boost ranks by classical similarity alone.
type Params struct {
	Threshold   float64
	TopK        int
	BoostFactor float64
	MaxQubits   int
}

// Service ranks a candidate pool by cosine similarity, amplified with a Grover run
// over the candidates that reach the threshold.
type Service struct {
	runner Runner
	cfg    Config
	logger *zap.Logger
}

// New creates a quantum-enhanced search service.
func New(runner Runner, cfg Config, logger *zap.Logger) *Service {
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.TopK <= 0 {
		cfg.TopK = DefaultTopK
	}
	if cfg.BoostFactor == 0 {
		cfg.BoostFactor = DefaultBoostFactor
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{runner: runner, cfg: cfg, logger: logger}
}

// Defaults returns the configured parameters.
func (s *Service) Defaults() Params {
	return Params{
		Threshold:   s.cfg.Threshold,
		TopK:        s.cfg.TopK,
		BoostFactor: s.cfg.BoostFactor,
		MaxQubits:   s.runner.Config().MaxQubits,
	}
}

// MaxSearchable returns the largest pool eligible for amplification.
func (s *Service) MaxSearchable() int { return s.runner.Config().MaxSearchable() }

// Search returns the top-k of pool for query together with the outcome that produced it.
//
// Only a failure of classical scoring (mismatched dimensions) is returned as an error.
// Every quantum-path failure degrades to classical ranking and is reported via Outcome.
func (s *Service) Search(
	ctx context.Context, query []float32, pool []document.Record, p Params,
) (outcome Outcome, results []result.Result, err error) {
	p = s.normalize(p)

	if len(pool) == 0 {
		s.observe(OutcomeEmptyPool)
		return OutcomeEmptyPool, []result.Result{}, nil
	}

	scores, err := similarity.Score(query, document.Embeddings(pool))
	if err != nil {
		return "", nil, fmt.Errorf("classical scoring: %w", err)
	}

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("Quantum search panicked, using classical ranking",
				zap.Any("panic", r),
				zap.Int("pool_size", len(pool)),
			)
			outcome, results, err = s.recoverClassical(query, pool, p.TopK)
			if err == nil {
				s.observe(outcome)
			}
		}
	}()

	outcome, results = s.rank(ctx, scores, pool, p)
	s.observe(outcome)
	return outcome, results, nil
}

func (s *Service) rank(
	ctx context.Context, scores []float64, pool []document.Record, p Params,
) (Outcome, []result.Result) {
	marked := markAbove(scores, p.Threshold)
	if len(marked) == 0 {
		return OutcomeMarkedSetEmpty, classicalTopK(scores, pool, p.TopK)
	}
	if len(pool) > 1<<p.MaxQubits {
		return OutcomePoolTooLarge, classicalTopK(scores, pool, p.TopK)
	}

	cfg := s.runner.Config()
	cfg.MaxQubits = p.MaxQubits
	plan := grover.NewPlan(len(pool), len(marked), cfg)

	start := time.Now()
	probs, err := s.runner.Run(ctx, len(pool), marked)
	metrics.QuantumSimulationDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.logger.Warn("Grover simulation failed, using classical ranking",
			zap.Int("pool_size", len(pool)),
			zap.Int("marked", len(marked)),
			zap.Error(err),
		)
		return OutcomeSimulationFailed, classicalTopK(scores, pool, p.TopK)
	}
	metrics.QuantumGroverIterations.Observe(float64(plan.Iterations))

	s.logger.Debug("Grover simulation complete",
		zap.Int("pool_size", len(pool)),
		zap.Int("marked", len(marked)),
		zap.Int("qubits", plan.Qubits),
		zap.Int("iterations", plan.Iterations),
		zap.Duration("duration", time.Since(start)),
	)

	return OutcomeAmplified, fuse(scores, probs, pool, p)
}

// recoverClassical recomputes similarity from scratch after a panic.
func (s *Service) recoverClassical(
	query []float32, pool []document.Record, topK int,
) (Outcome, []result.Result, error) {
	scores, err := similarity.Score(query, document.Embeddings(pool))
	if err != nil {
		return "", nil, fmt.Errorf("classical scoring: %w", err)
	}
	return OutcomeRecovered, classicalTopK(scores, pool, topK), nil
}

func (s *Service) normalize(p Params) Params {
	if p.TopK <= 0 {
		p.TopK = s.cfg.TopK
	}
	if p.BoostFactor < 0 {
		p.BoostFactor = 0
	}
	maxQubits := s.runner.Config().MaxQubits
	if p.MaxQubits <= 0 || p.MaxQubits > maxQubits {
		p.MaxQubits = maxQubits
	}
	return p
}

func (s *Service) observe(o Outcome) {
	metrics.QuantumSearchTotal.WithLabelValues(string(o)).Inc()
}

func markAbove(scores []float64, threshold float64) []int {
	var marked []int
	for i, sc := range scores {
		if sc >= threshold {
			marked = append(marked, i)
		}
	}
	return marked
}

// fuse scores every pool entry as classical × (1 + probability × boost).
func fuse(scores []float64, probs map[int]float64, pool []document.Record, p Params) []result.Result {
	enhanced := make([]float64, len(scores))
	for i, sc := range scores {
		enhanced[i] = sc * (1 + probs[i]*p.BoostFactor)
	}

	order := rankOrder(enhanced)
	n := min(p.TopK, len(order))
	out := make([]result.Result, 0, n)
	for _, i := range order[:n] {
		d := &pool[i]
		out = append(out, result.NewQuantumEnhanced(
			d.ID(), d.Text(), d.Metadata(), scores[i], probs[i], enhanced[i],
		))
	}
	return out
}

func classicalTopK(scores []float64, pool []document.Record, topK int) []result.Result {
	order := rankOrder(scores)
	n := min(topK, len(order))
	out := make([]result.Result, 0, n)
	for _, i := range order[:n] {
		d := &pool[i]
		out = append(out, result.NewClassical(d.ID(), d.Text(), d.Metadata(), scores[i]))
	}
	return out
}

// rankOrder returns pool indices by score descending, index ascending on ties.
func rankOrder(scores []float64) []int {
	order := make([]int, len(scores))
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		switch {
		case scores[a] > scores[b]:
			return -1
		case scores[a] < scores[b]:
			return 1
		}
		return a - b
	})
	return order
}
