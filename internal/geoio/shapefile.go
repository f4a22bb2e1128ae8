package geoio

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"

	"github.com/urban-analytics/sppt-cli/internal/table"
)

// ReadShapefile loads an ESRI shapefile: DBF attributes become table
// columns, geometries are converted to go-geom values aligned with the
// rows. Records with an unreadable geometry keep their attributes and a
// nil geometry slot, so the statistical result never depends on geometry
// health.
func ReadShapefile(path string) (*Dataset, error) {
	reader, err := shp.Open(path)
	if err != nil {
		return nil, eris.Wrapf(err, "geoio: open shapefile %s", path)
	}
	defer func() { _ = reader.Close() }()

	fields := reader.Fields()
	names := make([]string, len(fields))
	for i, f := range fields {
		names[i] = strings.TrimRight(f.String(), "\x00")
	}

	cols := make([][]any, len(fields))
	out := &Dataset{}
	var badGeoms int

	for reader.Next() {
		_, shape := reader.Shape()

		for i, f := range fields {
			raw := strings.TrimRight(reader.Attribute(i), "\x00")
			cols[i] = append(cols[i], dbfValue(f, raw))
		}

		g := shapeToGeom(shape)
		if g == nil && shape != nil {
			badGeoms++
		}
		out.Geoms = append(out.Geoms, g)
	}

	if badGeoms > 0 {
		zap.L().Debug("geoio: unreadable shapefile geometries",
			zap.String("path", path),
			zap.Int("records", badGeoms),
		)
	}

	tbl := table.New()
	for i, name := range names {
		if name == "" {
			name = "field_" + strconv.Itoa(i)
		}
		if err := tbl.SetColumn(name, cols[i]); err != nil {
			return nil, err
		}
	}
	out.Table = tbl
	return out, nil
}

// dbfValue decodes one DBF cell according to its field descriptor.
// Numeric fields with zero precision become int64, other numerics float64,
// everything else a Windows-1252-decoded string.
func dbfValue(f shp.Field, raw string) any {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	switch f.Fieldtype {
	case 'N':
		if f.Precision == 0 {
			if i, err := strconv.ParseInt(s, 10, 64); err == nil {
				return i
			}
		}
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return s
	case 'F':
		if v, err := strconv.ParseFloat(s, 64); err == nil {
			return v
		}
		return s
	default:
		if decoded, err := charmap.Windows1252.NewDecoder().String(s); err == nil {
			return decoded
		}
		return s
	}
}
