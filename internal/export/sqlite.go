package export

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
)

// writeSQLite writes the dataset into a fresh SQLite database as a single
// sppt_output table. Geometries, when present, are stored as WKB blobs in
// a trailing geom column.
func writeSQLite(ds *geoio.Dataset, path string) error {
	// Mimic a clean re-export: an existing file is replaced.
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return eris.Wrapf(err, "export: remove %s", path)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return eris.Wrap(err, "export: open sqlite")
	}
	defer db.Close()

	cols := ds.Table.Columns()
	hasGeom := len(ds.Geoms) > 0

	defs := make([]string, 0, len(cols)+1)
	for _, col := range cols {
		defs = append(defs, fmt.Sprintf("%q %s", col, sqliteType(ds, col)))
	}
	if hasGeom {
		defs = append(defs, `"geom" BLOB`)
	}
	ddl := fmt.Sprintf("CREATE TABLE sppt_output (%s)", strings.Join(defs, ", "))
	if _, err := db.Exec(ddl); err != nil {
		return eris.Wrap(err, "export: create table")
	}

	placeholders := make([]string, len(defs))
	for i := range placeholders {
		placeholders[i] = "?"
	}
	quoted := make([]string, 0, len(defs))
	for _, col := range cols {
		quoted = append(quoted, fmt.Sprintf("%q", col))
	}
	if hasGeom {
		quoted = append(quoted, `"geom"`)
	}
	insert := fmt.Sprintf("INSERT INTO sppt_output (%s) VALUES (%s)",
		strings.Join(quoted, ", "), strings.Join(placeholders, ", "))

	tx, err := db.Begin()
	if err != nil {
		return eris.Wrap(err, "export: begin tx")
	}

	for row := 0; row < ds.Table.NumRows(); row++ {
		args := make([]any, 0, len(defs))
		for _, col := range cols {
			vals, _ := ds.Table.Column(col)
			args = append(args, sqliteValue(vals[row]))
		}
		if hasGeom {
			wkb, encErr := geoio.EncodeWKB(ds.Geoms[row])
			if encErr != nil {
				_ = tx.Rollback()
				return encErr
			}
			args = append(args, wkb)
		}
		if _, err := tx.Exec(insert, args...); err != nil {
			_ = tx.Rollback()
			return eris.Wrapf(err, "export: insert row %d", row)
		}
	}

	return eris.Wrap(tx.Commit(), "export: commit")
}

func sqliteType(ds *geoio.Dataset, col string) string {
	vals, _ := ds.Table.Column(col)
	allInt := true
	numeric := true
	for _, v := range vals {
		switch v.(type) {
		case nil, int64:
		case float64:
			allInt = false
		default:
			numeric = false
		}
	}
	switch {
	case numeric && allInt:
		return "INTEGER"
	case numeric:
		return "REAL"
	default:
		return "TEXT"
	}
}

func sqliteValue(v any) any {
	if f, ok := v.(float64); ok && math.IsNaN(f) {
		return nil
	}
	return v
}
