package grover

import "testing"

func TestQubitsFor(t *testing.T) {
	tests := []struct{ n, want int }{
		{-3, 1}, {0, 1}, {1, 1}, {2, 1}, {3, 2}, {4, 2}, {5, 3},
		{8, 3}, {9, 4}, {1024, 10}, {1025, 11},
	}
	for _, tc := range tests {
		if got := QubitsFor(tc.n); got != tc.want {
			t.Errorf("QubitsFor(%d) = %d, want %d", tc.n, got, tc.want)
		}
	}
}

func TestNewPlan(t *testing.T) {
	tests := []struct {
		name       string
		numItems   int
		marked     int
		cfg        Config
		wantItems  int
		wantQubits int
		wantIters  int
	}{
		{"four items two marked", 4, 2, Config{}, 4, 2, 1},
		{"single item floors to min", 1, 1, Config{}, 1, 1, 1},
		{"eight items one marked", 8, 1, Config{}, 8, 3, 2},
		{"three items one marked", 3, 1, Config{}, 3, 2, 1},
		{"large space clamps iterations", 1024, 1, Config{}, 1024, 10, 10},
		{"configurable ceiling", 1024, 1, Config{MaxIterations: 3}, 1024, 10, 3},
		{"configurable floor", 4, 4, Config{MinIterations: 2, MaxIterations: 5}, 4, 2, 2},
		{"truncated by max qubits", 2000, 1, Config{MaxQubits: 10}, 1024, 10, 10},
		{"truncated small register", 10, 1, Config{MaxQubits: 2}, 4, 2, 1},
		{"no marks uses min", 16, 0, Config{}, 16, 4, 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlan(tc.numItems, tc.marked, tc.cfg)
			if p.NumItems != tc.wantItems {
				t.Errorf("NumItems = %d, want %d", p.NumItems, tc.wantItems)
			}
			if p.Qubits != tc.wantQubits {
				t.Errorf("Qubits = %d, want %d", p.Qubits, tc.wantQubits)
			}
			if p.Iterations != tc.wantIters {
				t.Errorf("Iterations = %d, want %d", p.Iterations, tc.wantIters)
			}
		})
	}
}

func TestConfig_WithDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	if cfg.MaxQubits != DefaultMaxQubits || cfg.Shots != DefaultShots {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.MinIterations != 1 || cfg.MaxIterations != 10 {
		t.Errorf("iteration bounds = [%d,%d]", cfg.MinIterations, cfg.MaxIterations)
	}
	if cfg.MaxSearchable() != 1024 {
		t.Errorf("MaxSearchable() = %d", cfg.MaxSearchable())
	}

	inverted := Config{MinIterations: 5, MaxIterations: 2}.WithDefaults()
	if inverted.MaxIterations != 5 {
		t.Errorf("MaxIterations = %d, want raised to 5", inverted.MaxIterations)
	}
}
