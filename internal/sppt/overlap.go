package sppt

import (
	"math"

	"github.com/rotisserie/eris"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// evaluateOverlap appends the 0/1 intervals_overlap column.
//
// General policy: the intervals of all compared variables share a common
// point iff max(lower bounds) <= min(upper bounds). NaN bounds are treated
// as absent rather than as failing the test.
//
// Fixed-base policy: the base bound pair is a point estimate (L == U), and
// overlap holds iff that point falls inside the test interval. Only defined
// for exactly two variables.
func evaluateOverlap(tbl *table.Table, prefixes []string, fixBase bool) error {
	if fixBase && len(prefixes) != 2 {
		return eris.Errorf("sppt: fixed-base overlap requires exactly 2 variables, got %d", len(prefixes))
	}

	lowers := make([][]float64, len(prefixes))
	uppers := make([][]float64, len(prefixes))
	for i, p := range prefixes {
		lo, err := tbl.Floats(p + LowerSuffix)
		if err != nil {
			return err
		}
		hi, err := tbl.Floats(p + UpperSuffix)
		if err != nil {
			return err
		}
		lowers[i] = lo
		uppers[i] = hi
	}

	n := tbl.NumRows()
	overlap := make([]int, n)
	for row := 0; row < n; row++ {
		if fixBase {
			baseL := lowers[0][row]
			baseU := uppers[0][row]
			if baseL >= lowers[1][row] && baseU <= uppers[1][row] {
				overlap[row] = 1
			}
			continue
		}

		maxLower := math.NaN()
		minUpper := math.NaN()
		for i := range prefixes {
			if lo := lowers[i][row]; !math.IsNaN(lo) {
				if math.IsNaN(maxLower) || lo > maxLower {
					maxLower = lo
				}
			}
			if hi := uppers[i][row]; !math.IsNaN(hi) {
				if math.IsNaN(minUpper) || hi < minUpper {
					minUpper = hi
				}
			}
		}
		if maxLower <= minUpper { // false when either side is NaN
			overlap[row] = 1
		}
	}

	return tbl.SetInts(OverlapCol, overlap)
}

// addSignedIndex appends the SIndex_Bivariate column for the two-variable
// case: 0 where the intervals overlap, otherwise the sign of
// test - base. The comparison uses RAW counts even in percentage mode; the
// direction reflects absolute event volume while the interval test may
// have run on shares.
func addSignedIndex(tbl *table.Table, countCols []string) error {
	if len(countCols) != 2 {
		return eris.Errorf("sppt: signed index requires exactly 2 variables, got %d", len(countCols))
	}

	overlap, err := tbl.Counts(OverlapCol)
	if err != nil {
		return err
	}
	base, err := tbl.Counts(countCols[0])
	if err != nil {
		return err
	}
	test, err := tbl.Counts(countCols[1])
	if err != nil {
		return err
	}

	signed := make([]int, tbl.NumRows())
	for i := range signed {
		switch {
		case overlap[i] == 1:
			signed[i] = 0
		case test[i] > base[i]:
			signed[i] = 1
		case test[i] < base[i]:
			signed[i] = -1
		default:
			signed[i] = 0 // exact tie without overlap
		}
	}

	return tbl.SetInts(BivariateCol, signed)
}
