package sppt

import (
	"math"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// Indices holds the global similarity statistics.
type Indices struct {
	// SIndex is the fraction of all groups whose intervals overlap.
	SIndex float64
	// RobustSIndex restricts the fraction to groups where at least one
	// compared count is nonzero. NaN when no such group exists; that is a
	// defined "undefined" result, not an error.
	RobustSIndex float64

	TotalObs   int
	OverlapObs int
	NonZeroObs int
}

// ComputeIndices reduces the per-group overlap flags to the S-Index and
// Robust S-Index. Pure computation; console reporting lives in report.go.
func ComputeIndices(tbl *table.Table, countCols []string) (Indices, error) {
	overlap, err := tbl.Counts(OverlapCol)
	if err != nil {
		return Indices{}, err
	}

	counts := make([][]int, len(countCols))
	for i, col := range countCols {
		c, err := tbl.Counts(col)
		if err != nil {
			return Indices{}, err
		}
		counts[i] = c
	}

	total := tbl.NumRows()
	var sumOverlap, nonZero, sumOverlapNonZero int
	for row := 0; row < total; row++ {
		flag := 0
		if overlap[row] == 1 {
			flag = 1
		}
		sumOverlap += flag

		anyNonZero := false
		for _, c := range counts {
			if c[row] > 0 {
				anyNonZero = true
				break
			}
		}
		if anyNonZero {
			nonZero++
			sumOverlapNonZero += flag
		}
	}

	idx := Indices{
		TotalObs:   total,
		OverlapObs: sumOverlap,
		NonZeroObs: nonZero,
	}
	if total > 0 {
		idx.SIndex = float64(sumOverlap) / float64(total)
	}
	if nonZero > 0 {
		idx.RobustSIndex = float64(sumOverlapNonZero) / float64(nonZero)
	} else {
		idx.RobustSIndex = math.NaN()
	}
	return idx, nil
}
