package grover

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/sync/semaphore"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	"github.com/kailas-cloud/qubitchat/internal/quantum/circuit"
)

// Backend executes a circuit and returns its measurement histogram.
type Backend interface {
	Run(ctx context.Context, c *circuit.Circuit, shots int) (circuit.Counts, error)
}

// Runner builds and simulates Grover circuits. Safe for concurrent use.
type Runner struct {
	backend Backend
	cfg     Config
	sem     *semaphore.Weighted
}

// NewRunner creates a runner over backend.
func NewRunner(backend Backend, cfg Config) *Runner {
	cfg = cfg.WithDefaults()
	return &Runner{
		backend: backend,
		cfg:     cfg,
		sem:     semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// Config returns the effective configuration.
func (r *Runner) Config() Config { return r.cfg }

// Run amplifies marked among numItems candidates and returns the empirical
// probability of every measured index below the addressable item count.
//
// An empty marked set yields an empty map without simulating. Marked indices
// beyond the addressable range are ignored. Every failure, including a panic in
// the backend, is returned wrapped in domain.ErrSimulationFailed.
func (r *Runner) Run(ctx context.Context, numItems int, marked []int) (probs map[int]float64, err error) {
	if len(marked) == 0 {
		return map[int]float64{}, nil
	}

	plan := NewPlan(numItems, len(marked), r.cfg)
	inRange := make([]int, 0, len(marked))
	seen := make(map[int]struct{}, len(marked))
	for _, idx := range marked {
		if idx < 0 || idx >= plan.NumItems {
			continue
		}
		if _, dup := seen[idx]; dup {
			continue
		}
		seen[idx] = struct{}{}
		inRange = append(inRange, idx)
	}
	if len(inRange) == 0 {
		return map[int]float64{}, nil
	}
	if len(inRange) != len(marked) {
		plan = NewPlan(plan.NumItems, len(inRange), r.cfg)
	}

	defer func() {
		if p := recover(); p != nil {
			probs = nil
			err = fmt.Errorf("%w: panic: %v", domain.ErrSimulationFailed, p)
		}
	}()

	c, err := BuildCircuit(plan, inRange)
	if err != nil {
		return nil, fmt.Errorf("%w: build circuit: %w", domain.ErrSimulationFailed, err)
	}

	if r.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		defer cancel()
	}

	if err := r.sem.Acquire(ctx, 1); err != nil {
		return nil, fmt.Errorf("%w: acquire simulation slot: %w", domain.ErrSimulationFailed, err)
	}
	defer r.sem.Release(1)

	counts, err := r.backend.Run(ctx, c, r.cfg.Shots)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrSimulationFailed, err)
	}

	return Distribution(counts, r.cfg.Shots, plan.NumItems), nil
}

// BuildCircuit assembles superposition, the oracle/diffuser iterations and measurement.
func BuildCircuit(plan Plan, marked []int) (*circuit.Circuit, error) {
	c, err := circuit.New(plan.Qubits, plan.Qubits)
	if err != nil {
		return nil, err
	}
	oracle, err := circuit.BuildOracle(marked, plan.Qubits)
	if err != nil {
		return nil, err
	}
	diffuser, err := circuit.BuildDiffuser(plan.Qubits)
	if err != nil {
		return nil, err
	}

	for q := range plan.Qubits {
		c.H(q)
	}
	for range plan.Iterations {
		if err := c.Compose(oracle); err != nil {
			return nil, err
		}
		if err := c.Compose(diffuser); err != nil {
			return nil, err
		}
	}
	c.MeasureAll()
	return c, nil
}

// Distribution converts counts into probabilities keyed by basis index.
// Bitstrings that are malformed or address an index >= numItems are dropped.
func Distribution(counts circuit.Counts, shots, numItems int) map[int]float64 {
	out := make(map[int]float64, len(counts))
	if shots <= 0 {
		return out
	}
	for bitstring, n := range counts {
		idx, err := strconv.ParseUint(bitstring, 2, 63)
		if err != nil || idx >= uint64(numItems) {
			continue
		}
		out[int(idx)] = float64(n) / float64(shots)
	}
	return out
}
