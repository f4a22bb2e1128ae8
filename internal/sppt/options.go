package sppt

import (
	"github.com/rotisserie/eris"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// Column names and suffixes the test attaches to the augmented table.
// Downstream consumers (exporters, renderers) key off these.
const (
	OverlapCol   = "intervals_overlap"
	BivariateCol = "SIndex_Bivariate"
	LowerSuffix  = "_L"
	UpperSuffix  = "_U"
)

// Options configures one full test invocation.
type Options struct {
	GroupCol  string
	CountCols []string

	// Prefixes names the output bound columns per variable
	// ("<prefix>_L"/"<prefix>_U"). Empty defaults to CountCols.
	Prefixes []string

	B              int
	Seed           *int64
	ConfLevel      float64
	CheckOverlap   bool
	FixBase        bool
	UsePercentages bool
}

// validate checks the configuration against the input table and fills in
// the prefix defaults. Configuration errors fail fast; nothing is computed.
func (o *Options) validate(tbl *table.Table) error {
	if len(o.CountCols) == 0 {
		return eris.New("sppt: at least one count column is required")
	}
	if len(o.Prefixes) == 0 {
		o.Prefixes = append([]string(nil), o.CountCols...)
	} else if len(o.Prefixes) != len(o.CountCols) {
		return eris.Errorf("sppt: %d prefixes supplied for %d count columns", len(o.Prefixes), len(o.CountCols))
	}
	if o.B < 1 {
		return eris.Errorf("sppt: B must be >= 1, got %d", o.B)
	}
	if o.ConfLevel <= 0 || o.ConfLevel >= 1 {
		return eris.Errorf("sppt: confidence level must be in (0,1), got %v", o.ConfLevel)
	}
	if !tbl.HasColumn(o.GroupCol) {
		return eris.Errorf("sppt: group column %s not in table", o.GroupCol)
	}
	for _, c := range o.CountCols {
		if !tbl.HasColumn(c) {
			return eris.Errorf("sppt: count column %s not in table", c)
		}
	}
	return nil
}
