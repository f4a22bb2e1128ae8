// Package export writes augmented result tables to disk in tabular and
// spatial formats. Export failures are reported to the caller as errors
// but must be treated as warnings: the statistical result already stands.
package export

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
)

// Options configures a result export.
type Options struct {
	Format string // csv, txt, xlsx, shp, sqlite
	Dir    string // defaults to the working directory
	Vars   []string
}

// Results writes the dataset in the requested format and returns the
// output path.
func Results(ds *geoio.Dataset, opts Options) (string, error) {
	dir := opts.Dir
	if dir == "" {
		dir = "."
	} else if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", eris.Wrapf(err, "export: create dir %s", dir)
	}

	base := baseFilename(opts.Vars)

	switch strings.ToLower(opts.Format) {
	case "csv":
		path := filepath.Join(dir, base+".csv")
		return path, writeDelimited(ds, path, ',')
	case "txt":
		path := filepath.Join(dir, base+".txt")
		return path, writeDelimited(ds, path, '\t')
	case "xlsx":
		path := filepath.Join(dir, base+".xlsx")
		return path, writeXLSX(ds, path)
	case "shp":
		path := filepath.Join(dir, base+".shp")
		return path, writeShapefile(ds, path)
	case "sqlite":
		path := filepath.Join(dir, base+".sqlite")
		return path, writeSQLite(ds, path)
	default:
		return "", eris.Errorf("export: unsupported format %s (want csv, txt, xlsx, shp, sqlite)", opts.Format)
	}
}

func baseFilename(vars []string) string {
	if len(vars) == 0 {
		return "sppt_output"
	}
	return "sppt_output_" + strings.Join(vars, "_")
}

func writeDelimited(ds *geoio.Dataset, path string, comma rune) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "export: create %s", path)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	w.Comma = comma

	cols := ds.Table.Columns()
	if err := w.Write(cols); err != nil {
		return eris.Wrap(err, "export: write header")
	}

	for row := 0; row < ds.Table.NumRows(); row++ {
		record := make([]string, len(cols))
		for i, col := range cols {
			vals, _ := ds.Table.Column(col)
			record[i] = formatCell(vals[row])
		}
		if err := w.Write(record); err != nil {
			return eris.Wrapf(err, "export: write row %d", row)
		}
	}

	w.Flush()
	return eris.Wrap(w.Error(), "export: flush")
}

// formatCell renders a cell for text output. Integer-valued floats keep
// no decimal point; NaN and nil render empty.
func formatCell(v any) string {
	switch k := v.(type) {
	case nil:
		return ""
	case int64:
		return strconv.FormatInt(k, 10)
	case float64:
		if math.IsNaN(k) {
			return ""
		}
		return strconv.FormatFloat(k, 'f', -1, 64)
	case string:
		return k
	case bool:
		return strconv.FormatBool(k)
	default:
		return fmt.Sprint(k)
	}
}
