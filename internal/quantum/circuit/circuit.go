// Package circuit describes gate-level quantum circuits for amplitude amplification.
//
// Qubit 0 is the most significant bit of a basis-state index. A circuit over
// three qubits therefore addresses index 6 as |110⟩ with qubits 0 and 1 set.
package circuit

import (
	"errors"
	"fmt"
)

// Kind is a gate type.
type Kind int

// Supported gates.
const (
	KindH Kind = iota + 1
	KindX
	KindZ
	// KindMCZ flips the phase of the basis states where every listed qubit is 1.
	KindMCZ
	// KindMeasure reads one qubit into one classical bit.
	KindMeasure
)

func (k Kind) String() string {
	switch k {
	case KindH:
		return "h"
	case KindX:
		return "x"
	case KindZ:
		return "z"
	case KindMCZ:
		return "mcz"
	case KindMeasure:
		return "measure"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Gate is one operation in a circuit.
type Gate struct {
	Kind   Kind
	Qubits []int
	// Clbit is the classical bit written by a measurement.
	Clbit int
}

// Counts is a measurement histogram keyed by bitstring, classical bit 0 first.
type Counts map[string]int

// Total returns the number of recorded shots.
func (c Counts) Total() int {
	n := 0
	for _, v := range c {
		n += v
	}
	return n
}

// ErrInvalidCircuit is returned for structurally broken circuits.
var ErrInvalidCircuit = errors.New("invalid circuit")

// Circuit is an ordered gate list over a fixed register.
type Circuit struct {
	numQubits int
	numClbits int
	gates     []Gate
}

// New creates an empty circuit.
func New(numQubits, numClbits int) (*Circuit, error) {
	if numQubits < 1 {
		return nil, fmt.Errorf("%w: need at least one qubit, got %d", ErrInvalidCircuit, numQubits)
	}
	if numClbits < 0 {
		return nil, fmt.Errorf("%w: negative classical register", ErrInvalidCircuit)
	}
	return &Circuit{numQubits: numQubits, numClbits: numClbits}, nil
}

// NumQubits returns the quantum register width.
func (c *Circuit) NumQubits() int { return c.numQubits }

// NumClbits returns the classical register width.
func (c *Circuit) NumClbits() int { return c.numClbits }

// Gates returns the gate list. Callers must not modify it.
func (c *Circuit) Gates() []Gate { return c.gates }

// Len returns the number of gates.
func (c *Circuit) Len() int { return len(c.gates) }

// H appends a Hadamard on every given qubit.
func (c *Circuit) H(qubits ...int) { c.single(KindH, qubits) }

// X appends a bit flip on every given qubit.
func (c *Circuit) X(qubits ...int) { c.single(KindX, qubits) }

// Z appends a phase flip on every given qubit.
func (c *Circuit) Z(qubits ...int) { c.single(KindZ, qubits) }

// MCZ appends a multi-controlled Z across qubits (controls and target together).
func (c *Circuit) MCZ(qubits ...int) {
	c.gates = append(c.gates, Gate{Kind: KindMCZ, Qubits: append([]int(nil), qubits...)})
}

// Measure appends a measurement of qubit into clbit.
func (c *Circuit) Measure(qubit, clbit int) {
	c.gates = append(c.gates, Gate{Kind: KindMeasure, Qubits: []int{qubit}, Clbit: clbit})
}

// MeasureAll measures qubit i into classical bit i for every qubit.
func (c *Circuit) MeasureAll() {
	for q := range c.numQubits {
		c.Measure(q, q)
	}
}

// Compose appends the gates of other. Other must not be wider than c.
func (c *Circuit) Compose(other *Circuit) error {
	if other.numQubits > c.numQubits || other.numClbits > c.numClbits {
		return fmt.Errorf("%w: cannot compose %d-qubit circuit into %d qubits",
			ErrInvalidCircuit, other.numQubits, c.numQubits)
	}
	c.gates = append(c.gates, other.gates...)
	return nil
}

// Validate checks qubit and clbit ranges, duplicate operands and gate ordering.
// Unitary gates may not follow a measurement.
func (c *Circuit) Validate() error {
	measured := false
	for i, g := range c.gates {
		if err := c.validateGate(g); err != nil {
			return fmt.Errorf("%w: gate %d (%s): %w", ErrInvalidCircuit, i, g.Kind, err)
		}
		if g.Kind == KindMeasure {
			measured = true
			continue
		}
		if measured {
			return fmt.Errorf("%w: gate %d (%s) after measurement", ErrInvalidCircuit, i, g.Kind)
		}
	}
	return nil
}

func (c *Circuit) validateGate(g Gate) error {
	switch g.Kind {
	case KindH, KindX, KindZ:
		if len(g.Qubits) != 1 {
			return fmt.Errorf("expects one qubit, got %d", len(g.Qubits))
		}
	case KindMCZ:
		if len(g.Qubits) == 0 {
			return errors.New("no qubits")
		}
	case KindMeasure:
		if len(g.Qubits) != 1 {
			return fmt.Errorf("expects one qubit, got %d", len(g.Qubits))
		}
		if g.Clbit < 0 || g.Clbit >= c.numClbits {
			return fmt.Errorf("clbit %d out of range [0,%d)", g.Clbit, c.numClbits)
		}
	default:
		return errors.New("unknown gate")
	}

	seen := make(map[int]struct{}, len(g.Qubits))
	for _, q := range g.Qubits {
		if q < 0 || q >= c.numQubits {
			return fmt.Errorf("qubit %d out of range [0,%d)", q, c.numQubits)
		}
		if _, dup := seen[q]; dup {
			return fmt.Errorf("duplicate qubit %d", q)
		}
		seen[q] = struct{}{}
	}
	return nil
}

func (c *Circuit) single(kind Kind, qubits []int) {
	for _, q := range qubits {
		c.gates = append(c.gates, Gate{Kind: kind, Qubits: []int{q}})
	}
}
