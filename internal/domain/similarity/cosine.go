// Package similarity scores embedding vectors against each other.
package similarity

import (
	"math"

	"github.com/kailas-cloud/qubitchat/internal/domain"
)

// Cosine returns the cosine similarity of a and b in [0, 1].
// A zero vector on either side scores 0. Negative alignment is floored to 0.
func Cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, domain.NewDimensionError(len(a), len(b), 0)
	}
	return cosine(a, b), nil
}

// Score computes the similarity of query to every vector in docs, in docs order.
// A single dimensionality mismatch fails the whole call.
func Score(query []float32, docs [][]float32) ([]float64, error) {
	for i, d := range docs {
		if len(d) != len(query) {
			return nil, domain.NewDimensionError(len(query), len(d), i)
		}
	}

	scores := make([]float64, len(docs))
	for i, d := range docs {
		scores[i] = cosine(query, d)
	}
	return scores, nil
}

func cosine(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		normA += x * x
		normB += y * y
	}
	if normA == 0 || normB == 0 {
		return 0
	}

	s := dot / (math.Sqrt(normA) * math.Sqrt(normB))
	switch {
	case s < 0 || math.IsNaN(s):
		return 0
	case s > 1:
		return 1
	}
	return s
}
