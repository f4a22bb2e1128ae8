package sppt

import (
	"math"
	"sort"
)

// quantileSorted returns the empirical q-quantile of an ascending-sorted
// sample using linear interpolation between order statistics (R type 7,
// the numpy default). The caller sorts once and extracts both bounds.
func quantileSorted(sorted []float64, q float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[n-1]
	}

	pos := q * float64(n-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if below == above {
		return sorted[below]
	}

	weight := pos - float64(below)
	return sorted[below]*(1.0-weight) + sorted[above]*weight
}

// confidenceBounds extracts the (alpha/2, 1-alpha/2) quantile pair from a
// bootstrap sample, where alpha = 1 - confLevel.
func confidenceBounds(samples []float64, confLevel float64) (lower, upper float64) {
	tmp := make([]float64, len(samples))
	copy(tmp, samples)
	sort.Float64s(tmp)

	alpha := 1.0 - confLevel
	return quantileSorted(tmp, alpha/2.0), quantileSorted(tmp, 1.0-alpha/2.0)
}
