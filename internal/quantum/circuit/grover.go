package circuit

import "fmt"

// BuildOracle returns a phase oracle that flips the sign of every marked basis state.
//
// Each marked index is mapped to |11…1⟩ with X gates on its zero bits, phase-flipped
// with a multi-controlled Z and mapped back. Depth therefore grows linearly with the
// number of marked indices.
func BuildOracle(marked []int, numQubits int) (*Circuit, error) {
	c, err := New(numQubits, 0)
	if err != nil {
		return nil, err
	}

	space := 1 << numQubits
	all := allQubits(numQubits)
	for _, idx := range marked {
		if idx < 0 || idx >= space {
			return nil, fmt.Errorf("%w: marked index %d outside [0,%d)", ErrInvalidCircuit, idx, space)
		}

		zeros := zeroBits(idx, numQubits)
		c.X(zeros...)
		c.phaseFlipAll(all)
		c.X(zeros...)
	}
	return c, nil
}

// BuildDiffuser returns the inversion-about-the-mean operator over numQubits.
func BuildDiffuser(numQubits int) (*Circuit, error) {
	c, err := New(numQubits, 0)
	if err != nil {
		return nil, err
	}

	all := allQubits(numQubits)
	c.H(all...)
	c.X(all...)
	c.phaseFlipAll(all)
	c.X(all...)
	c.H(all...)
	return c, nil
}

// phaseFlipAll flips the phase of |11…1⟩. One qubit degenerates to a plain Z.
func (c *Circuit) phaseFlipAll(all []int) {
	if len(all) == 1 {
		c.Z(all[0])
		return
	}
	c.MCZ(all...)
}

// zeroBits lists the qubits whose bit is 0 in idx (qubit 0 = most significant bit).
func zeroBits(idx, numQubits int) []int {
	var out []int
	for q := range numQubits {
		if idx&(1<<(numQubits-1-q)) == 0 {
			out = append(out, q)
		}
	}
	return out
}

func allQubits(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}
