package metrics

import "github.com/prometheus/client_golang/prometheus"

// Quantum search Prometheus metrics.
var (
	QuantumSearchTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "qubitchat",
			Name:      "quantum_search_total",
			Help:      "Quantum-enhanced searches by outcome",
		},
		[]string{"outcome"},
	)

	QuantumSimulationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "qubitchat",
			Name:      "quantum_simulation_duration_seconds",
			Help:      "Grover circuit simulation duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
	)

	QuantumGroverIterations = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "qubitchat",
			Name:      "quantum_grover_iterations",
			Help:      "Grover iterations per simulated search",
			Buckets:   []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 15, 20},
		},
	)
)

var quantumMetricsRegistered bool

// RegisterQuantumMetrics registers quantum search metrics. Must be called once from main.
func RegisterQuantumMetrics() {
	if quantumMetricsRegistered {
		return
	}
	prometheus.MustRegister(QuantumSearchTotal)
	prometheus.MustRegister(QuantumSimulationDuration)
	prometheus.MustRegister(QuantumGroverIterations)
	quantumMetricsRegistered = true
}
