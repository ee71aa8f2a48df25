// Package grover runs Grover amplitude amplification over a candidate index space.
package grover

import (
	"math"
	"math/bits"
	"time"
)

// Defaults for Config fields left at zero.
const (
	DefaultMaxQubits     = 10
	DefaultShots         = 1024
	DefaultMinIterations = 1
	DefaultMaxIterations = 10
	DefaultMaxConcurrent = 4
)

// Config bounds a Grover run.
type Config struct {
	MaxQubits     int
	Shots         int
	MinIterations int
	MaxIterations int
	// MaxConcurrent limits simultaneous simulations across all callers.
	MaxConcurrent int
	// Timeout caps one run. Zero means no runner-imposed deadline.
	Timeout time.Duration
}

// WithDefaults fills zero fields.
func (c Config) WithDefaults() Config {
	if c.MaxQubits <= 0 {
		c.MaxQubits = DefaultMaxQubits
	}
	if c.Shots <= 0 {
		c.Shots = DefaultShots
	}
	if c.MinIterations <= 0 {
		c.MinIterations = DefaultMinIterations
	}
	if c.MaxIterations <= 0 {
		c.MaxIterations = DefaultMaxIterations
	}
	if c.MaxIterations < c.MinIterations {
		c.MaxIterations = c.MinIterations
	}
	if c.MaxConcurrent <= 0 {
		c.MaxConcurrent = DefaultMaxConcurrent
	}
	return c
}

// MaxSearchable returns the largest pool a single run can address.
func (c Config) MaxSearchable() int { return 1 << c.MaxQubits }

// Plan is the shape of one run.
type Plan struct {
	// NumItems is the addressable item count after truncation to 2^Qubits.
	NumItems   int
	Qubits     int
	Iterations int
}

// NewPlan derives register width and iteration count for numItems with markedCount hits.
func NewPlan(numItems, markedCount int, cfg Config) Plan {
	cfg = cfg.WithDefaults()

	qubits := QubitsFor(numItems)
	if qubits > cfg.MaxQubits {
		qubits = cfg.MaxQubits
		numItems = min(numItems, 1<<qubits)
	}

	return Plan{
		NumItems:   numItems,
		Qubits:     qubits,
		Iterations: Iterations(numItems, markedCount, cfg.MinIterations, cfg.MaxIterations),
	}
}

// QubitsFor returns ceil(log2(max(n, 2))).
func QubitsFor(n int) int {
	if n < 2 {
		n = 2
	}
	return bits.Len(uint(n - 1))
}

// Iterations returns floor(π/4·sqrt(n/marked)) clamped to [lo, hi].
func Iterations(n, marked, lo, hi int) int {
	if marked <= 0 || n <= 0 {
		return lo
	}
	it := int(math.Floor(math.Pi / 4 * math.Sqrt(float64(n)/float64(marked))))
	return max(lo, min(hi, it))
}
