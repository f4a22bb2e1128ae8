// Package inspect summarizes count columns before a test run. The
// chi-square figures compare each column against a uniform spread over
// the groups, which is the null model the resampling draws from.
package inspect

import (
	"fmt"
	"io"
	"math"

	"github.com/montanaflynn/stats"
	"github.com/rotisserie/eris"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// ColumnSummary holds the per-column descriptive statistics.
type ColumnSummary struct {
	Name      string
	N         int
	Total     int
	NonZero   int
	ZeroShare float64
	Min       float64
	Max       float64
	Mean      float64
	Median    float64
	StdDev    float64
	ChiSquare float64
	PValue    float64
}

// Describe computes a summary for each named count column.
func Describe(tbl *table.Table, cols []string) ([]ColumnSummary, error) {
	if len(cols) == 0 {
		return nil, eris.New("inspect: no columns given")
	}

	out := make([]ColumnSummary, 0, len(cols))
	for _, col := range cols {
		counts, err := tbl.Counts(col)
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(col, counts))
	}
	return out, nil
}

func summarize(name string, counts []int) ColumnSummary {
	s := ColumnSummary{Name: name, N: len(counts)}

	data := make(stats.Float64Data, len(counts))
	for i, c := range counts {
		data[i] = float64(c)
		s.Total += c
		if c > 0 {
			s.NonZero++
		}
	}
	if s.N > 0 {
		s.ZeroShare = float64(s.N-s.NonZero) / float64(s.N)
	}

	// The stats helpers only error on empty input.
	if s.N > 0 {
		s.Min, _ = stats.Min(data)
		s.Max, _ = stats.Max(data)
		s.Mean, _ = stats.Mean(data)
		s.Median, _ = stats.Median(data)
		s.StdDev, _ = stats.StandardDeviationSample(data)
	}

	s.ChiSquare, s.PValue = uniformChiSquare(counts, s.Total)
	return s
}

// uniformChiSquare tests the counts against a flat expectation of
// total/n per group. Groups with zero expected count cannot occur here
// because the expectation is shared.
func uniformChiSquare(counts []int, total int) (stat, p float64) {
	n := len(counts)
	if n < 2 || total == 0 {
		return math.NaN(), math.NaN()
	}

	expected := float64(total) / float64(n)
	for _, c := range counts {
		d := float64(c) - expected
		stat += d * d / expected
	}

	dist := distuv.ChiSquared{K: float64(n - 1)}
	return stat, dist.Survival(stat)
}

// WriteReport prints the summaries as an aligned text block.
func WriteReport(w io.Writer, summaries []ColumnSummary) {
	for i, s := range summaries {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "Column: %s\n", s.Name)
		fmt.Fprintf(w, "  groups:        %d\n", s.N)
		fmt.Fprintf(w, "  total count:   %d\n", s.Total)
		fmt.Fprintf(w, "  zero groups:   %d (%.1f%%)\n", s.N-s.NonZero, s.ZeroShare*100)
		fmt.Fprintf(w, "  min/max:       %s / %s\n", formatStat(s.Min), formatStat(s.Max))
		fmt.Fprintf(w, "  mean/median:   %s / %s\n", formatStat(s.Mean), formatStat(s.Median))
		fmt.Fprintf(w, "  std dev:       %s\n", formatStat(s.StdDev))
		fmt.Fprintf(w, "  chi-square:    %s (p=%s, vs uniform)\n", formatStat(s.ChiSquare), formatStat(s.PValue))
	}
}

func formatStat(v float64) string {
	if math.IsNaN(v) {
		return "N/A"
	}
	return fmt.Sprintf("%.4g", v)
}
