// Package statevector simulates circuits by evolving a dense amplitude vector.
package statevector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"sync/atomic"
	"time"

	"github.com/kailas-cloud/qubitchat/internal/quantum/circuit"
)

// Name identifies this backend in stats output.
const Name = "statevector"

// DefaultMaxQubits caps memory at 2^20 amplitudes (16 MiB).
const DefaultMaxQubits = 20

// ctxCheckEvery is how many shots are sampled between context checks.
const ctxCheckEvery = 256

var (
	// ErrTooManyQubits is returned for circuits wider than the simulator allows.
	ErrTooManyQubits = errors.New("too many qubits")
	// ErrInvalidShots is returned for a non-positive shot count.
	ErrInvalidShots = errors.New("shots must be positive")
)

// Simulator is a dense state-vector backend. Safe for concurrent use:
// every Run owns its amplitudes and RNG stream.
type Simulator struct {
	maxQubits int
	seed      uint64
	stream    atomic.Uint64
}

// New creates a simulator. A zero seed picks a time-based one.
// maxQubits <= 0 selects DefaultMaxQubits.
func New(maxQubits int, seed uint64) *Simulator {
	if maxQubits <= 0 {
		maxQubits = DefaultMaxQubits
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Simulator{maxQubits: maxQubits, seed: seed}
}

// Name returns the backend name.
func (s *Simulator) Name() string { return Name }

// MaxQubits returns the widest circuit accepted.
func (s *Simulator) MaxQubits() int { return s.maxQubits }

// Run executes c for the given number of shots and returns the measurement histogram.
func (s *Simulator) Run(ctx context.Context, c *circuit.Circuit, shots int) (circuit.Counts, error) {
	if shots <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidShots, shots)
	}
	if c.NumQubits() > s.maxQubits {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManyQubits, c.NumQubits(), s.maxQubits)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate circuit: %w", err)
	}

	state := newState(c.NumQubits())
	var measures []circuit.Gate
	for _, g := range c.Gates() {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("simulation interrupted: %w", err)
		}
		if g.Kind == circuit.KindMeasure {
			measures = append(measures, g)
			continue
		}
		state.apply(g)
	}

	rng := rand.New(rand.NewPCG(s.seed, s.stream.Add(1))) //nolint:gosec // sampling, not crypto
	return state.sample(ctx, rng, shots, measures, c.NumClbits())
}

type state struct {
	n    int
	amps []complex128
}

// newState returns |00…0⟩ over n qubits.
func newState(n int) *state {
	amps := make([]complex128, 1<<n)
	amps[0] = 1
	return &state{n: n, amps: amps}
}

// mask returns the basis-index bit for qubit q (qubit 0 = most significant).
func (s *state) mask(q int) int { return 1 << (s.n - 1 - q) }

func (s *state) apply(g circuit.Gate) {
	switch g.Kind {
	case circuit.KindH:
		m := s.mask(g.Qubits[0])
		for i := range s.amps {
			if i&m != 0 {
				continue
			}
			a, b := s.amps[i], s.amps[i|m]
			s.amps[i] = (a + b) * complex(math.Sqrt2/2, 0)
			s.amps[i|m] = (a - b) * complex(math.Sqrt2/2, 0)
		}
	case circuit.KindX:
		m := s.mask(g.Qubits[0])
		for i := range s.amps {
			if i&m == 0 {
				s.amps[i], s.amps[i|m] = s.amps[i|m], s.amps[i]
			}
		}
	case circuit.KindZ, circuit.KindMCZ:
		m := 0
		for _, q := range g.Qubits {
			m |= s.mask(q)
		}
		for i := range s.amps {
			if i&m == m {
				s.amps[i] = -s.amps[i]
			}
		}
	}
}

// probabilities returns |amplitude|^2 per basis index.
func (s *state) probabilities() []float64 {
	p := make([]float64, len(s.amps))
	for i, a := range s.amps {
		re, im := real(a), imag(a)
		p[i] = re*re + im*im
	}
	return p
}

func (s *state) sample(
	ctx context.Context,
	rng *rand.Rand,
	shots int,
	measures []circuit.Gate,
	numClbits int,
) (circuit.Counts, error) {
	cdf := s.probabilities()
	for i := 1; i < len(cdf); i++ {
		cdf[i] += cdf[i-1]
	}
	total := cdf[len(cdf)-1]

	counts := make(circuit.Counts)
	outcome := make([]byte, numClbits)
	for shot := range shots {
		if shot%ctxCheckEvery == 0 {
			if err := ctx.Err(); err != nil {
				return nil, fmt.Errorf("sampling interrupted: %w", err)
			}
		}

		r := rng.Float64() * total
		idx := sort.SearchFloat64s(cdf, r)
		if idx >= len(cdf) {
			idx = len(cdf) - 1
		}
		// SearchFloat64s returns the first entry >= r; skip zero-probability
		// states sitting on the same cumulative value.
		for idx < len(cdf)-1 && cdf[idx] <= r {
			idx++
		}

		for i := range outcome {
			outcome[i] = '0'
		}
		for _, m := range measures {
			if idx&s.mask(m.Qubits[0]) != 0 {
				outcome[m.Clbit] = '1'
			}
		}
		counts[string(outcome)]++
	}
	return counts, nil
}
