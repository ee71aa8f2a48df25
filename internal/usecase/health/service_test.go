package health

import (
	"context"
	"errors"
	"testing"
	"time"
)

// --- Mocks ---

type mockPinger struct {
	err error
}

func (m *mockPinger) Ping(_ context.Context) error { return m.err }

type mockProvider struct {
	err   error
	block bool
	delay time.Duration
}

func (m *mockProvider) HealthCheck(ctx context.Context) error {
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.err
}

// --- Tests ---

func TestCheck(t *testing.T) {
	down := errors.New("conn refused")

	tests := []struct {
		name       string
		store      error
		embedding  error
		history    error
		wantStatus Status
		wantFailed []string
	}{
		{"all healthy", nil, nil, nil, Healthy, nil},
		{"store down", down, nil, nil, Degraded, []string{ComponentVectorStore}},
		{"embedding down", nil, down, nil, Degraded, []string{ComponentEmbedding}},
		{"history down", nil, nil, down, Degraded, []string{ComponentHistory}},
		{"everything down", down, down, down, Unhealthy,
			[]string{ComponentVectorStore, ComponentEmbedding, ComponentHistory}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := New(&mockPinger{err: tc.store}).
				WithEmbedding(&mockProvider{err: tc.embedding}).
				WithHistory(&mockPinger{err: tc.history})

			r := svc.Check(context.Background())
			if r.Status != tc.wantStatus {
				t.Errorf("expected %q, got %q", tc.wantStatus, r.Status)
			}
			if len(r.Checks) != 3 {
				t.Errorf("expected 3 checks, got %v", r.Checks)
			}
			for _, name := range tc.wantFailed {
				if r.Checks[name] != CheckError {
					t.Errorf("expected %s %q, got %q", name, CheckError, r.Checks[name])
				}
			}
		})
	}
}

func TestCheck_OptionalComponentsSkipped(t *testing.T) {
	r := New(&mockPinger{}).WithEmbedding(nil).WithChat(nil).WithHistory(nil).Check(context.Background())

	if r.Status != Healthy {
		t.Errorf("expected %q, got %q", Healthy, r.Status)
	}
	if len(r.Checks) != 1 || r.Checks[ComponentVectorStore] != CheckOK {
		t.Errorf("unexpected checks: %v", r.Checks)
	}
}

func TestCheck_Timeout(t *testing.T) {
	svc := New(&mockPinger{}).WithChat(&mockProvider{block: true}).WithTimeout(10 * time.Millisecond)

	start := time.Now()
	r := svc.Check(context.Background())
	if time.Since(start) > time.Second {
		t.Fatal("check did not honour the timeout")
	}
	if r.Checks[ComponentChat] != CheckError || r.Status != Degraded {
		t.Errorf("unexpected report: %+v", r)
	}
}

func TestCheck_FailureDoesNotCancelOtherChecks(t *testing.T) {
	svc := New(&mockPinger{err: errors.New("conn refused")}).
		WithEmbedding(&mockProvider{delay: 20 * time.Millisecond}).
		WithChat(&mockProvider{delay: 30 * time.Millisecond})

	r := svc.Check(context.Background())
	if r.Status != Degraded {
		t.Errorf("expected %q, got %q", Degraded, r.Status)
	}
	if r.Checks[ComponentEmbedding] != CheckOK || r.Checks[ComponentChat] != CheckOK {
		t.Errorf("slow healthy checks were cut short: %v", r.Checks)
	}
}
