package method

// Method is the retrieval strategy that produced a result list.
type Method string

// Search method constants.
const (
	// Classical ranks by cosine similarity only.
	Classical Method = "classical"
	// QuantumEnhanced ranks by cosine similarity fused with Grover-amplified probability.
	QuantumEnhanced Method = "quantum_enhanced"
	// None is reported when the store holds no documents and no search ran.
	None Method = "none"
)

// IsValid checks if the method is one of the supported values.
func (m Method) IsValid() bool {
	return m == Classical || m == QuantumEnhanced || m == None
}
