package solver

import (
	"time"

	"gonum.org/v1/gonum/stat"
)

// Progress contains metadata emitted during long-running solver operations.
type Progress struct {
	Iteration int
	InfoSets  int
	Nodes     int64
	Terminals int64
	Elapsed   time.Duration
	// RegretMean and RegretStdDev summarise the average positive regret per
	// info set, which shrinks towards zero as play approaches equilibrium.
	RegretMean   float64
	RegretStdDev float64
}

// AveragePositiveRegret returns, for each row, the positive regret summed over
// actions and divided by the iteration count.
func AveragePositiveRegret(regret map[string][]float64, iterations int) []float64 {
	if iterations <= 0 {
		iterations = 1
	}
	out := make([]float64, 0, len(regret))
	for _, row := range regret {
		sum := 0.0
		for _, r := range row {
			if r > 0 {
				sum += r
			}
		}
		out = append(out, sum/float64(iterations))
	}
	return out
}

func regretSummary(regret map[string][]float64, iterations int) (mean, std float64) {
	values := AveragePositiveRegret(regret, iterations)
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}
