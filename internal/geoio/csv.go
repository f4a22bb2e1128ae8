package geoio

import (
	"encoding/csv"
	"os"

	"github.com/rotisserie/eris"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// ReadCSV loads a CSV file with a header row into a table.
func ReadCSV(path string) (*table.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoio: open csv %s", path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, eris.Wrap(err, "geoio: read csv")
	}
	if len(records) == 0 {
		return nil, eris.New("geoio: csv has no header row")
	}

	return rowsToTable(records[0], records[1:])
}
