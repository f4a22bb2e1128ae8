package sppt

import (
	"math/rand"
	"sort"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// GroupBounds is a confidence bound pair for one group, keyed by the
// original group identifier.
type GroupBounds struct {
	Key   table.Key
	Lower float64
	Upper float64
}

// ResampleOptions configures a single bootstrap invocation.
type ResampleOptions struct {
	B              int
	Seed           *int64
	ConfLevel      float64
	UsePercentages bool
}

// Resample draws B multinomial bootstrap replicates over the events implied
// by counts and returns, per group, the empirical confidence bounds of its
// replicate share.
//
// Counts are expanded conceptually into sum(counts) unit events; each
// replicate redistributes that many trials uniformly over the event slots
// and re-aggregates per group, so every replicate preserves the total
// exactly. Groups with a zero count contribute no event slots and are
// absent from the output; the caller fills their bounds with zero on merge.
func Resample(groups []table.Key, counts []int, opts ResampleOptions) ([]GroupBounds, error) {
	if len(groups) != len(counts) {
		return nil, eris.Errorf("sppt: %d groups but %d counts", len(groups), len(counts))
	}
	if opts.B < 1 {
		return nil, eris.Errorf("sppt: B must be >= 1, got %d", opts.B)
	}
	if opts.ConfLevel <= 0 || opts.ConfLevel >= 1 {
		return nil, eris.Errorf("sppt: confidence level must be in (0,1), got %v", opts.ConfLevel)
	}

	// Distinct groups in first-appearance order, counts clamped and
	// aggregated per key.
	order := make([]table.Key, 0, len(groups))
	agg := make(map[table.Key]int, len(groups))
	seen := make(map[table.Key]bool, len(groups))
	for i, g := range groups {
		k := table.NormalizeKey(g)
		if !seen[k] {
			seen[k] = true
			order = append(order, k)
		}
		if c := counts[i]; c > 0 {
			agg[k] += c
		}
	}

	n := 0
	for _, k := range order {
		n += agg[k]
	}

	// No events at all: a defined terminal case, not an error.
	if n == 0 {
		out := make([]GroupBounds, len(order))
		for i, k := range order {
			out[i] = GroupBounds{Key: k}
		}
		return out, nil
	}

	// Only groups holding at least one event slot take part in the draw.
	active := make([]table.Key, 0, len(order))
	for _, k := range order {
		if agg[k] > 0 {
			active = append(active, k)
		}
	}
	g := len(active)

	// Cumulative slot boundaries: event slot e belongs to the group whose
	// cumulative end first exceeds e.
	cum := make([]int, g)
	run := 0
	for i, k := range active {
		run += agg[k]
		cum[i] = run
	}

	var rng *rand.Rand
	if opts.Seed != nil {
		rng = rand.New(rand.NewSource(*opts.Seed))
	} else {
		derived := time.Now().UnixNano()
		rng = rand.New(rand.NewSource(derived))
		// Logged so an unseeded run can still be reproduced.
		zap.L().Debug("derived bootstrap seed", zap.Int64("seed", derived))
	}

	if opts.B > 100 && n > 1000 {
		zap.L().Info("running bootstrap",
			zap.Int("replicates", opts.B),
			zap.Int("events", n),
			zap.Int("groups", g),
		)
	}

	// Per-group replicate values, G x B. The n-length weight vector is
	// never materialized: each trial lands in a slot and is accumulated
	// straight into its group.
	values := make([][]float64, g)
	for i := range values {
		values[i] = make([]float64, opts.B)
	}

	col := make([]float64, g)
	for b := 0; b < opts.B; b++ {
		for i := range col {
			col[i] = 0
		}
		for trial := 0; trial < n; trial++ {
			slot := rng.Intn(n)
			gi := sort.SearchInts(cum, slot+1)
			col[gi]++
		}

		if opts.UsePercentages {
			sum := floats.Sum(col)
			if sum > 0 {
				for i := range col {
					col[i] = col[i] / sum * 100.0
				}
			}
		}
		for i := range col {
			values[i][b] = col[i]
		}
	}

	out := make([]GroupBounds, g)
	for i, k := range active {
		lo, hi := confidenceBounds(values[i], opts.ConfLevel)
		out[i] = GroupBounds{Key: k, Lower: lo, Upper: hi}
	}
	return out, nil
}
