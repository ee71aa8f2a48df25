package result

import "github.com/kailas-cloud/qubitchat/internal/domain/search/method"

// Result is a single ranked hit. Built fresh per search call and never mutated.
type Result struct {
	id         string
	text       string
	metadata   map[string]string
	classical  float64
	quantum    float64
	hasQuantum bool
	enhanced   float64
	method     method.Method
}

// NewClassical creates a classical hit. The enhanced score equals the similarity.
func NewClassical(id, text string, metadata map[string]string, similarity float64) Result {
	return Result{
		id: id, text: text, metadata: metadata,
		classical: similarity, enhanced: similarity,
		method: method.Classical,
	}
}

// NewQuantumEnhanced creates a hit ranked by the fused score.
func NewQuantumEnhanced(
	id, text string, metadata map[string]string,
	similarity, probability, enhanced float64,
) Result {
	return Result{
		id: id, text: text, metadata: metadata,
		classical: similarity, quantum: probability, hasQuantum: true, enhanced: enhanced,
		method: method.QuantumEnhanced,
	}
}

// ID returns the document identifier.
func (r *Result) ID() string { return r.id }

// Text returns the document text.
func (r *Result) Text() string { return r.text }

// Metadata returns the document metadata.
func (r *Result) Metadata() map[string]string { return r.metadata }

// ClassicalSimilarity returns the cosine similarity in [0,1].
func (r *Result) ClassicalSimilarity() float64 { return r.classical }

// QuantumProbability returns the measured probability; ok is false for classical hits.
func (r *Result) QuantumProbability() (p float64, ok bool) { return r.quantum, r.hasQuantum }

// EnhancedScore returns the ranking score.
func (r *Result) EnhancedScore() float64 { return r.enhanced }

// Method returns the strategy that produced this hit.
func (r *Result) Method() method.Method { return r.method }
