package grover

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/kailas-cloud/qubitchat/internal/domain"
	"github.com/kailas-cloud/qubitchat/internal/quantum/circuit"
	"github.com/kailas-cloud/qubitchat/internal/quantum/statevector"
)

type mockBackend struct {
	runFn func(ctx context.Context, c *circuit.Circuit, shots int) (circuit.Counts, error)
	calls int
}

func (m *mockBackend) Run(ctx context.Context, c *circuit.Circuit, shots int) (circuit.Counts, error) {
	m.calls++
	return m.runFn(ctx, c, shots)
}

func TestRun_SingleMarkedTwoQubitsIsCertain(t *testing.T) {
	r := NewRunner(statevector.New(0, 1), Config{Shots: 512})

	probs, err := r.Run(context.Background(), 4, []int{1})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs[1] != 1 {
		t.Errorf("P(1) = %f, want 1; probs = %v", probs[1], probs)
	}
}

func TestRun_AmplifiesMarkedState(t *testing.T) {
	r := NewRunner(statevector.New(0, 1), Config{Shots: 2048})

	probs, err := r.Run(context.Background(), 8, []int{5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// Two iterations over 8 states put ~94.5% of the mass on the marked state.
	if probs[5] < 0.85 {
		t.Errorf("P(5) = %f, want amplified", probs[5])
	}

	var sum float64
	for idx, p := range probs {
		if idx < 0 || idx >= 8 {
			t.Errorf("index %d out of range", idx)
		}
		sum += p
	}
	if math.Abs(sum-1) > 1e-9 {
		t.Errorf("probabilities sum to %f", sum)
	}
}

func TestRun_DiscardsIndicesBeyondItemCount(t *testing.T) {
	r := NewRunner(statevector.New(0, 1), Config{Shots: 4096})

	probs, err := r.Run(context.Background(), 3, []int{0})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := probs[3]; ok {
		t.Errorf("index 3 should be discarded for 3 items: %v", probs)
	}
}

func TestRun_EmptyMarkedSkipsSimulation(t *testing.T) {
	backend := &mockBackend{runFn: func(context.Context, *circuit.Circuit, int) (circuit.Counts, error) {
		t.Error("backend should not be called")
		return nil, nil
	}}
	r := NewRunner(backend, Config{})

	probs, err := r.Run(context.Background(), 16, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if probs == nil || len(probs) != 0 {
		t.Errorf("expected empty non-nil map, got %v", probs)
	}
}

func TestRun_DropsMarksBeyondTruncatedRange(t *testing.T) {
	var width int
	backend := &mockBackend{runFn: func(_ context.Context, c *circuit.Circuit, shots int) (circuit.Counts, error) {
		width = c.NumQubits()
		return circuit.Counts{"01": shots}, nil
	}}
	r := NewRunner(backend, Config{MaxQubits: 2})

	probs, err := r.Run(context.Background(), 10, []int{1, 7})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if width != 2 {
		t.Errorf("circuit width = %d, want 2", width)
	}
	if probs[1] != 1 {
		t.Errorf("probs = %v", probs)
	}

	backend.calls = 0
	probs, err = r.Run(context.Background(), 10, []int{7, 9})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(probs) != 0 || backend.calls != 0 {
		t.Errorf("all marks out of range: probs=%v calls=%d", probs, backend.calls)
	}
}

func TestRun_BackendError(t *testing.T) {
	backendErr := errors.New("simulator offline")
	backend := &mockBackend{runFn: func(context.Context, *circuit.Circuit, int) (circuit.Counts, error) {
		return nil, backendErr
	}}
	r := NewRunner(backend, Config{})

	probs, err := r.Run(context.Background(), 4, []int{0})
	if !errors.Is(err, domain.ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
	if !errors.Is(err, backendErr) {
		t.Errorf("expected backend error in chain, got %v", err)
	}
	if probs != nil {
		t.Errorf("expected nil probs, got %v", probs)
	}
}

func TestRun_BackendPanicIsRecovered(t *testing.T) {
	backend := &mockBackend{runFn: func(context.Context, *circuit.Circuit, int) (circuit.Counts, error) {
		panic("boom")
	}}
	r := NewRunner(backend, Config{})

	probs, err := r.Run(context.Background(), 4, []int{0})
	if !errors.Is(err, domain.ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
	if probs != nil {
		t.Errorf("expected nil probs, got %v", probs)
	}
}

func TestRun_Timeout(t *testing.T) {
	backend := &mockBackend{runFn: func(ctx context.Context, _ *circuit.Circuit, _ int) (circuit.Counts, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}}
	r := NewRunner(backend, Config{Timeout: 20 * time.Millisecond})

	_, err := r.Run(context.Background(), 4, []int{0})
	if !errors.Is(err, domain.ErrSimulationFailed) {
		t.Fatalf("expected ErrSimulationFailed, got %v", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded in chain, got %v", err)
	}
}

func TestRun_ConcurrencyLimit(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	backend := &mockBackend{runFn: func(_ context.Context, _ *circuit.Circuit, shots int) (circuit.Counts, error) {
		close(started)
		<-release
		return circuit.Counts{"00": shots}, nil
	}}
	r := NewRunner(backend, Config{MaxConcurrent: 1})

	done := make(chan error, 1)
	go func() {
		_, err := r.Run(context.Background(), 4, []int{0})
		done <- err
	}()
	<-started

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := r.Run(ctx, 4, []int{0}); !errors.Is(err, domain.ErrSimulationFailed) {
		t.Errorf("expected ErrSimulationFailed while slot is held, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Errorf("first run failed: %v", err)
	}
}

func TestBuildCircuit_Shape(t *testing.T) {
	plan := Plan{NumItems: 4, Qubits: 2, Iterations: 3}
	c, err := BuildCircuit(plan, []int{2})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var h, mcz, measure int
	for _, g := range c.Gates() {
		switch g.Kind {
		case circuit.KindH:
			h++
		case circuit.KindMCZ:
			mcz++
		case circuit.KindMeasure:
			measure++
		}
	}
	// 2 initial H + 4 per diffuser; one MCZ in each oracle and diffuser.
	if h != 2+3*4 {
		t.Errorf("H gates = %d", h)
	}
	if mcz != 3*2 {
		t.Errorf("MCZ gates = %d", mcz)
	}
	if measure != 2 {
		t.Errorf("measurements = %d", measure)
	}
	if err := c.Validate(); err != nil {
		t.Errorf("Validate() = %v", err)
	}
}

func TestDistribution(t *testing.T) {
	counts := circuit.Counts{"00": 50, "01": 25, "11": 20, "1x": 5}
	got := Distribution(counts, 100, 3)

	if len(got) != 2 {
		t.Fatalf("got %v, want indices 0 and 1 only", got)
	}
	if got[0] != 0.5 || got[1] != 0.25 {
		t.Errorf("got %v", got)
	}
	if len(Distribution(counts, 0, 3)) != 0 {
		t.Error("zero shots should yield empty distribution")
	}
}
