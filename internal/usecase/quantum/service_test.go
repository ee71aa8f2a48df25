package quantum

import (
	"context"
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	"github.com/kailas-cloud/qubitchat/internal/domain/document"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/method"
	"github.com/kailas-cloud/qubitchat/internal/domain/search/result"
	"github.com/kailas-cloud/qubitchat/internal/metrics"
	"github.com/kailas-cloud/qubitchat/internal/quantum/grover"
	"github.com/kailas-cloud/qubitchat/internal/quantum/statevector"
)

// --- mocks ---

type mockRunner struct {
	runFn func(ctx context.Context, numItems int, marked []int) (map[int]float64, error)
	cfg   grover.Config
	calls int
}

func (m *mockRunner) Run(ctx context.Context, numItems int, marked []int) (map[int]float64, error) {
	m.calls++
	return m.runFn(ctx, numItems, marked)
}

func (m *mockRunner) Config() grover.Config { return m.cfg.WithDefaults() }

func failRunner(t *testing.T) *mockRunner {
	t.Helper()
	return &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		t.Error("runner should not be called")
		return nil, nil
	}}
}

// --- helpers ---

var query = []float32{1, 0}

// poolWithSimilarities builds records whose cosine similarity to query equals sims.
func poolWithSimilarities(sims ...float64) []document.Record {
	pool := make([]document.Record, len(sims))
	for i, s := range sims {
		vec := []float32{float32(s), float32(math.Sqrt(1 - s*s))}
		pool[i] = document.Reconstruct(
			fmt.Sprintf("doc-%d", i), fmt.Sprintf("text %d", i), vec,
			map[string]string{"source": "test.pdf"},
		)
	}
	return pool
}

func ids(results []result.Result) []string {
	out := make([]string, len(results))
	for i := range results {
		out[i] = results[i].ID()
	}
	return out
}

func params(threshold float64, topK int) Params {
	return Params{Threshold: threshold, TopK: topK, BoostFactor: 2}
}

// --- tests ---

func TestSearch_EmptyPool(t *testing.T) {
	svc := New(failRunner(t), Config{}, nil)

	outcome, results, err := svc.Search(context.Background(), query, nil, params(0.7, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeEmptyPool {
		t.Errorf("outcome = %q", outcome)
	}
	if results == nil || len(results) != 0 {
		t.Errorf("expected empty non-nil results, got %v", results)
	}
	if outcome.Method() != method.None {
		t.Errorf("Method() = %q", outcome.Method())
	}
}

func TestSearch_AmplifiesMarkedDocuments(t *testing.T) {
	runner := grover.NewRunner(statevector.New(0, 3), grover.Config{Shots: 1024})
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.9, 0.2, 0.85, 0.1)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.7, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAmplified {
		t.Fatalf("outcome = %q, want amplified", outcome)
	}
	if len(results) != 2 {
		t.Fatalf("len = %d, want 2", len(results))
	}

	got := map[string]bool{results[0].ID(): true, results[1].ID(): true}
	if !got["doc-0"] || !got["doc-2"] {
		t.Errorf("top-2 = %v, want doc-0 and doc-2", ids(results))
	}
	for i := range results {
		if results[i].Method() != method.QuantumEnhanced {
			t.Errorf("result %d method = %q", i, results[i].Method())
		}
		if _, ok := results[i].QuantumProbability(); !ok {
			t.Errorf("result %d has no quantum probability", i)
		}
	}
}

func TestSearch_BelowThresholdFallsBackToClassical(t *testing.T) {
	svc := New(failRunner(t), Config{}, nil)
	pool := poolWithSimilarities(0.5, 0.9, 0.7)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.95, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeMarkedSetEmpty {
		t.Errorf("outcome = %q", outcome)
	}

	want := []string{"doc-1", "doc-2", "doc-0"}
	if fmt.Sprint(ids(results)) != fmt.Sprint(want) {
		t.Errorf("order = %v, want %v", ids(results), want)
	}
	for i := range results {
		if results[i].Method() != method.Classical {
			t.Errorf("result %d method = %q", i, results[i].Method())
		}
		if _, ok := results[i].QuantumProbability(); ok {
			t.Errorf("classical result %d reports a quantum probability", i)
		}
		if results[i].EnhancedScore() != results[i].ClassicalSimilarity() {
			t.Errorf("classical result %d: enhanced %f != classical %f",
				i, results[i].EnhancedScore(), results[i].ClassicalSimilarity())
		}
	}
}

func TestSearch_PoolTooLarge(t *testing.T) {
	runner := failRunner(t)
	runner.cfg = grover.Config{MaxQubits: 10}
	svc := New(runner, Config{}, nil)

	sims := make([]float64, 10)
	for i := range sims {
		sims[i] = 0.99
	}
	pool := poolWithSimilarities(sims...)

	p := params(0.7, 3)
	p.MaxQubits = 2
	outcome, results, err := svc.Search(context.Background(), query, pool, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePoolTooLarge {
		t.Errorf("outcome = %q", outcome)
	}
	if len(results) != 3 || results[0].Method() != method.Classical {
		t.Errorf("unexpected results: %v", ids(results))
	}
}

func TestSearch_PoolOneOverCeiling(t *testing.T) {
	runner := failRunner(t)
	runner.cfg = grover.Config{MaxQubits: 3}
	svc := New(runner, Config{}, nil)

	sims := make([]float64, 9)
	for i := range sims {
		sims[i] = 0.8
	}
	outcome, _, err := svc.Search(context.Background(), query, poolWithSimilarities(sims...), params(0.1, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomePoolTooLarge {
		t.Errorf("outcome = %q", outcome)
	}
}

func TestSearch_SimulationFailure(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		return nil, fmt.Errorf("%w: simulator offline", domain.ErrSimulationFailed)
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.6, 0.9, 0.8)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.7, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeSimulationFailed {
		t.Errorf("outcome = %q", outcome)
	}
	if fmt.Sprint(ids(results)) != "[doc-1 doc-2]" {
		t.Errorf("order = %v", ids(results))
	}
	if results[0].Method() != method.Classical {
		t.Errorf("method = %q", results[0].Method())
	}
}

func TestSearch_PanicRecovered(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		panic("unexpected")
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.75, 0.95)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.7, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeRecovered {
		t.Errorf("outcome = %q", outcome)
	}
	if fmt.Sprint(ids(results)) != "[doc-1 doc-0]" {
		t.Errorf("order = %v", ids(results))
	}
	if results[0].Method() != method.Classical {
		t.Errorf("method = %q", results[0].Method())
	}
}

func TestSearch_DimensionMismatchIsAnError(t *testing.T) {
	svc := New(failRunner(t), Config{}, nil)
	pool := []document.Record{document.Reconstruct("a", "x", []float32{1, 0, 0}, nil)}

	_, _, err := svc.Search(context.Background(), query, pool, params(0.7, 5))
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestSearch_FusionReordersByProbability(t *testing.T) {
	runner := &mockRunner{runFn: func(_ context.Context, numItems int, marked []int) (map[int]float64, error) {
		if numItems != 3 || fmt.Sprint(marked) != "[0 1]" {
			t.Errorf("Run(%d, %v)", numItems, marked)
		}
		return map[int]float64{0: 0.1, 1: 0.5, 2: 0.4}, nil
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.8, 0.75, 0.3)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.7, 3))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAmplified {
		t.Fatalf("outcome = %q", outcome)
	}
	if fmt.Sprint(ids(results)) != "[doc-1 doc-0 doc-2]" {
		t.Fatalf("order = %v", ids(results))
	}

	wantEnhanced := []float64{0.75 * 2, 0.8 * 1.2, 0.3 * 1.8}
	wantProb := []float64{0.5, 0.1, 0.4}
	for i := range results {
		if math.Abs(results[i].EnhancedScore()-wantEnhanced[i]) > 1e-6 {
			t.Errorf("result %d enhanced = %f, want %f", i, results[i].EnhancedScore(), wantEnhanced[i])
		}
		p, _ := results[i].QuantumProbability()
		if p != wantProb[i] {
			t.Errorf("result %d probability = %f, want %f", i, p, wantProb[i])
		}
	}
}

func TestSearch_UnmeasuredIndicesKeepClassicalScore(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		return map[int]float64{}, nil
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.9, 0.4)

	_, results, err := svc.Search(context.Background(), query, pool, params(0.7, 5))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := range results {
		if math.Abs(results[i].EnhancedScore()-results[i].ClassicalSimilarity()) > 1e-12 {
			t.Errorf("result %d: enhanced %f != classical %f",
				i, results[i].EnhancedScore(), results[i].ClassicalSimilarity())
		}
	}
}

func TestSearch_TieBreakByPoolIndex(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		return map[int]float64{0: 0.25, 1: 0.25, 2: 0.25, 3: 0.25}, nil
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.8, 0.8, 0.8, 0.8)

	_, results, err := svc.Search(context.Background(), query, pool, params(0.7, 4))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fmt.Sprint(ids(results)) != "[doc-0 doc-1 doc-2 doc-3]" {
		t.Errorf("order = %v", ids(results))
	}
}

func TestSearch_EnhancedNeverBelowClassical(t *testing.T) {
	runner := grover.NewRunner(statevector.New(0, 11), grover.Config{Shots: 256})
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.95, 0.1, 0.72, 0.5, 0.88, 0.3, 0.71, 0.05, 0.6)

	outcome, results, err := svc.Search(context.Background(), query, pool, params(0.7, 20))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if outcome != OutcomeAmplified {
		t.Fatalf("outcome = %q", outcome)
	}
	if len(results) != len(pool) {
		t.Fatalf("len = %d, want %d", len(results), len(pool))
	}

	seen := make(map[string]bool)
	for i := range results {
		r := &results[i]
		if r.EnhancedScore() < r.ClassicalSimilarity() {
			t.Errorf("%s: enhanced %f < classical %f", r.ID(), r.EnhancedScore(), r.ClassicalSimilarity())
		}
		if i > 0 && results[i-1].EnhancedScore() < r.EnhancedScore() {
			t.Errorf("results not sorted at %d", i)
		}
		if seen[r.ID()] {
			t.Errorf("duplicate id %s", r.ID())
		}
		seen[r.ID()] = true
	}
}

func TestSearch_TopKContract(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		return map[int]float64{0: 1}, nil
	}}
	svc := New(runner, Config{TopK: 2}, nil)
	pool := poolWithSimilarities(0.9, 0.5, 0.4)

	tests := []struct {
		topK int
		want int
	}{
		{1, 1}, {3, 3}, {10, 3}, {0, 2},
	}
	for _, tc := range tests {
		_, results, err := svc.Search(context.Background(), query, pool, params(0.7, tc.topK))
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(results) != tc.want {
			t.Errorf("topK=%d: len = %d, want %d", tc.topK, len(results), tc.want)
		}
	}
}

func TestSearch_ZeroBoostMatchesClassical(t *testing.T) {
	runner := &mockRunner{runFn: func(context.Context, int, []int) (map[int]float64, error) {
		return map[int]float64{1: 0.9}, nil
	}}
	svc := New(runner, Config{}, nil)
	pool := poolWithSimilarities(0.9, 0.8)

	p := params(0.7, 2)
	p.BoostFactor = 0
	_, results, err := svc.Search(context.Background(), query, pool, p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].ID() != "doc-0" || results[0].EnhancedScore() != results[0].ClassicalSimilarity() {
		t.Errorf("unexpected ranking: %v", ids(results))
	}
}

func TestSearch_ZeroParams(t *testing.T) {
	var marked []int
	runner := &mockRunner{runFn: func(_ context.Context, _ int, m []int) (map[int]float64, error) {
		marked = m
		return map[int]float64{}, nil
	}}
	svc := New(runner, Config{TopK: 1}, nil)
	pool := poolWithSimilarities(0.9, 0.2, 0.05)

	_, results, err := svc.Search(context.Background(), query, pool, Params{BoostFactor: 2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(results) != 1 {
		t.Errorf("zero TopK should use the configured default, got %d results", len(results))
	}
	if fmt.Sprint(marked) != "[0 1 2]" {
		t.Errorf("zero threshold should mark every document, marked %v", marked)
	}
}

func TestSearch_CountsOutcomes(t *testing.T) {
	counter := metrics.QuantumSearchTotal.WithLabelValues(string(OutcomeMarkedSetEmpty))
	before := testutil.ToFloat64(counter)

	svc := New(failRunner(t), Config{}, nil)
	if _, _, err := svc.Search(context.Background(), query, poolWithSimilarities(0.1), params(0.7, 1)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := testutil.ToFloat64(counter) - before; got != 1 {
		t.Errorf("counter delta = %f, want 1", got)
	}
}

func TestDefaultsAndStats(t *testing.T) {
	runner := &mockRunner{cfg: grover.Config{MaxQubits: 6, Shots: 512}}
	svc := New(runner, Config{Simulator: statevector.Name}, nil)

	d := svc.Defaults()
	if d.Threshold != DefaultThreshold || d.TopK != DefaultTopK || d.BoostFactor != DefaultBoostFactor {
		t.Errorf("Defaults() = %+v", d)
	}
	if d.MaxQubits != 6 {
		t.Errorf("MaxQubits = %d", d.MaxQubits)
	}

	st := svc.Stats()
	if st.Algorithm != "grovers" || st.Status != "ready" || st.Simulator != statevector.Name {
		t.Errorf("Stats() = %+v", st)
	}
	if st.MaxSearchableItems != 64 || st.Shots != 512 {
		t.Errorf("Stats() = %+v", st)
	}
	if st.MinIterations != 1 || st.MaxIterations != 10 {
		t.Errorf("iteration bounds = [%d,%d]", st.MinIterations, st.MaxIterations)
	}
	if svc.MaxSearchable() != 64 {
		t.Errorf("MaxSearchable() = %d", svc.MaxSearchable())
	}
}

func TestOutcome_Method(t *testing.T) {
	tests := []struct {
		o        Outcome
		want     method.Method
		fallback bool
	}{
		{OutcomeAmplified, method.QuantumEnhanced, false},
		{OutcomeEmptyPool, method.None, false},
		{OutcomeMarkedSetEmpty, method.Classical, true},
		{OutcomePoolTooLarge, method.Classical, true},
		{OutcomeSimulationFailed, method.Classical, true},
		{OutcomeRecovered, method.Classical, true},
	}
	for _, tc := range tests {
		if got := tc.o.Method(); got != tc.want {
			t.Errorf("%s.Method() = %q, want %q", tc.o, got, tc.want)
		}
		if got := tc.o.Fallback(); got != tc.fallback {
			t.Errorf("%s.Fallback() = %v", tc.o, got)
		}
	}
}
