package export

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
)

func writeXLSX(ds *geoio.Dataset, path string) error {
	f := xlsx.NewFile()
	sheet, err := f.AddSheet("sppt_output")
	if err != nil {
		return eris.Wrap(err, "export: add xlsx sheet")
	}

	cols := ds.Table.Columns()
	header := sheet.AddRow()
	for _, col := range cols {
		header.AddCell().Value = col
	}

	for row := 0; row < ds.Table.NumRows(); row++ {
		r := sheet.AddRow()
		for _, col := range cols {
			vals, _ := ds.Table.Column(col)
			cell := r.AddCell()
			switch v := vals[row].(type) {
			case nil:
				// leave empty
			case int64:
				cell.SetInt64(v)
			case float64:
				if !math.IsNaN(v) {
					cell.SetFloat(v)
				}
			case bool:
				cell.SetBool(v)
			default:
				cell.Value = formatCell(vals[row])
			}
		}
	}

	return eris.Wrapf(f.Save(path), "export: save xlsx %s", path)
}
