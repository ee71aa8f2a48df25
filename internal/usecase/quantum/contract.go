package quantum

import (
	"context"

	"github.com/kailas-cloud/qubitchat/internal/quantum/grover"
)

// Runner amplifies marked indices and reports their measured probabilities.
type Runner interface {
	Run(ctx context.Context, numItems int, marked []int) (map[int]float64, error)
	Config() grover.Config
}
