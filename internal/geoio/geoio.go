// Package geoio loads aggregated count data for the pattern test from
// CSV, XLSX and ESRI shapefile sources. Cell values are type-sniffed so
// integer group identifiers survive the round trip through the test.
package geoio

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// Dataset pairs the tabular attributes with optional per-row geometries.
// Geoms is nil for non-spatial sources and aligned with table rows for
// spatial ones.
type Dataset struct {
	Table *table.Table
	Geoms []geom.T
}

// Load reads a dataset, picking the reader from the file extension:
// .csv, .xlsx, .shp.
func Load(path string) (*Dataset, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		tbl, err := ReadCSV(path)
		if err != nil {
			return nil, err
		}
		return &Dataset{Table: tbl}, nil
	case ".xlsx":
		tbl, err := ReadXLSX(path, XLSXOptions{})
		if err != nil {
			return nil, err
		}
		return &Dataset{Table: tbl}, nil
	case ".shp":
		return ReadShapefile(path)
	default:
		return nil, eris.Errorf("geoio: unsupported input format %s", filepath.Ext(path))
	}
}

// sniffValue converts a raw cell to int64, float64 or string. Empty cells
// become nil so the core treats them as missing counts.
func sniffValue(raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}

// rowsToTable builds a table from a header row plus data rows. Ragged rows
// are padded with nil.
func rowsToTable(header []string, rows [][]string) (*table.Table, error) {
	if len(header) == 0 {
		return nil, eris.New("geoio: empty header row")
	}

	cols := make([][]any, len(header))
	for i := range cols {
		cols[i] = make([]any, len(rows))
	}
	for r, row := range rows {
		for c := range header {
			if c < len(row) {
				cols[c][r] = sniffValue(row[c])
			}
		}
	}

	tbl := table.New()
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = "col_" + strconv.Itoa(i)
		}
		if err := tbl.SetColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
