// Package sppt implements a bootstrap-based spatial point pattern test for
// aggregated count data. Given per-group counts for two or more variables
// it estimates confidence intervals for each group's share of each
// variable, tests the intervals for overlap, and reduces the overlap flags
// to global S-Index statistics.
package sppt

import (
	"golang.org/x/sync/errgroup"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// Result holds the augmented table and, when overlap checking ran, the
// global indices.
type Result struct {
	Table *table.Table

	// Indices is meaningful only when HasIndices is true: a
	// single-variable run has no S-Index at all, not a zero one.
	Indices    Indices
	HasIndices bool

	FixBase        bool
	UsePercentages bool
}

// variable treatments: the base variable under fix-base mode is taken as
// ground truth rather than resampled.
type treatment int

const (
	treatBootstrap treatment = iota
	treatFixed
)

// Run executes the full test: per-variable bootstrap (or fixed point
// estimate), bound merge, overlap evaluation, and index aggregation. The
// input table is not modified.
func Run(tbl *table.Table, opts Options) (*Result, error) {
	if err := opts.validate(tbl); err != nil {
		return nil, err
	}

	result := tbl.Clone()

	keys, err := result.Keys(opts.GroupCol)
	if err != nil {
		return nil, err
	}

	// Count columns are read up front so concurrent variables never touch
	// the table while bounds are merged.
	countsByVar := make([][]int, len(opts.CountCols))
	for i, col := range opts.CountCols {
		counts, err := result.Counts(col)
		if err != nil {
			return nil, err
		}
		countsByVar[i] = counts
	}

	boundsByVar := make([][]GroupBounds, len(opts.CountCols))

	var eg errgroup.Group
	for i := range opts.CountCols {
		if treatmentFor(i, opts.FixBase) == treatFixed {
			continue
		}
		eg.Go(func() error {
			var seed *int64
			if opts.Seed != nil {
				s := *opts.Seed + int64(i)
				seed = &s
			}
			bounds, err := Resample(keys, countsByVar[i], ResampleOptions{
				B:              opts.B,
				Seed:           seed,
				ConfLevel:      opts.ConfLevel,
				UsePercentages: opts.UsePercentages,
			})
			if err != nil {
				return err
			}
			boundsByVar[i] = bounds
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	// Merge in input order so output column ordering is deterministic.
	for i, prefix := range opts.Prefixes {
		if treatmentFor(i, opts.FixBase) == treatFixed {
			mergeFixed(result, prefix, countsByVar[i], opts.UsePercentages)
			continue
		}
		mergeBounds(result, prefix, keys, boundsByVar[i])
	}

	res := &Result{
		Table:          result,
		FixBase:        opts.FixBase,
		UsePercentages: opts.UsePercentages,
	}

	if opts.CheckOverlap && len(opts.CountCols) >= 2 {
		if err := evaluateOverlap(result, opts.Prefixes, opts.FixBase); err != nil {
			return nil, err
		}
		if len(opts.CountCols) == 2 {
			if err := addSignedIndex(result, opts.CountCols); err != nil {
				return nil, err
			}
		}
		idx, err := ComputeIndices(result, opts.CountCols)
		if err != nil {
			return nil, err
		}
		res.Indices = idx
		res.HasIndices = true
	}

	return res, nil
}

func treatmentFor(i int, fixBase bool) treatment {
	if fixBase && i == 0 {
		return treatFixed
	}
	return treatBootstrap
}

// mergeFixed sets both bounds of the base variable to its exact point
// value: percentage of the grand total, or the raw count.
func mergeFixed(tbl *table.Table, prefix string, counts []int, usePercentages bool) {
	vals := make([]float64, len(counts))
	if usePercentages {
		total := 0
		for _, c := range counts {
			total += c
		}
		if total > 0 {
			for i, c := range counts {
				vals[i] = float64(c) / float64(total) * 100.0
			}
		}
	} else {
		for i, c := range counts {
			vals[i] = float64(c)
		}
	}

	// Row count matches by construction.
	_ = tbl.SetFloats(prefix+LowerSuffix, vals)
	upper := make([]float64, len(vals))
	copy(upper, vals)
	_ = tbl.SetFloats(prefix+UpperSuffix, upper)
}

// mergeBounds left-joins resampled bounds onto the table by group key.
// Groups absent from the resample result get zero bounds.
func mergeBounds(tbl *table.Table, prefix string, keys []table.Key, bounds []GroupBounds) {
	byKey := make(map[table.Key]GroupBounds, len(bounds))
	for _, b := range bounds {
		byKey[b.Key] = b
	}

	lower := make([]float64, len(keys))
	upper := make([]float64, len(keys))
	for i, k := range keys {
		if b, ok := byKey[k]; ok {
			lower[i] = b.Lower
			upper[i] = b.Upper
		}
	}
	_ = tbl.SetFloats(prefix+LowerSuffix, lower)
	_ = tbl.SetFloats(prefix+UpperSuffix, upper)
}
