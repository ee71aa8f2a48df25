package quantum

import "github.com/kailas-cloud/qubitchat/internal/domain/search/method"

// Outcome records which rung of the fallback ladder produced a result list.
type Outcome string

// Search outcomes.
const (
	// OutcomeEmptyPool is returned for an empty candidate pool.
	OutcomeEmptyPool Outcome = "empty_pool"
	// OutcomeMarkedSetEmpty means no candidate reached the threshold.
	OutcomeMarkedSetEmpty Outcome = "marked_set_empty"
	// OutcomePoolTooLarge means the pool exceeds 2^maxQubits.
	OutcomePoolTooLarge Outcome = "pool_too_large"
	// OutcomeSimulationFailed means the Grover run returned an error.
	OutcomeSimulationFailed Outcome = "simulation_failed"
	// OutcomeAmplified means scores were fused with measured probabilities.
	OutcomeAmplified Outcome = "amplified"
	// OutcomeRecovered means a panic was caught and classical scores recomputed.
	OutcomeRecovered Outcome = "recovered"
)

// Method maps an outcome to the search method label of its results.
func (o Outcome) Method() method.Method {
	switch o {
	case OutcomeAmplified:
		return method.QuantumEnhanced
	case OutcomeEmptyPool:
		return method.None
	default:
		return method.Classical
	}
}

// Fallback reports whether the outcome downgraded to classical ranking.
func (o Outcome) Fallback() bool {
	return o != OutcomeAmplified && o != OutcomeEmptyPool
}
