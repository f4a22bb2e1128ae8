package export

import (
	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
)

func writeShapefile(ds *geoio.Dataset, path string) error {
	if len(ds.Geoms) == 0 {
		return eris.New("export: dataset has no geometries, cannot write shapefile")
	}

	shapeType := shapefileType(ds.Geoms)
	if shapeType == shp.NULL {
		return eris.New("export: no supported geometry type in dataset")
	}

	w, err := shp.Create(path, shapeType)
	if err != nil {
		return eris.Wrapf(err, "export: create shapefile %s", path)
	}

	cols := ds.Table.Columns()
	fields := make([]shp.Field, len(cols))
	for i, col := range cols {
		fields[i] = dbfField(ds, col)
	}
	if err := w.SetFields(fields); err != nil {
		w.Close()
		return eris.Wrap(err, "export: set dbf fields")
	}

	for row := 0; row < ds.Table.NumRows(); row++ {
		shape := geomToShape(ds.Geoms[row])
		if shape == nil {
			// Placeholder geometry so attribute rows stay aligned.
			shape = emptyShape(shapeType)
		}
		w.Write(shape)

		for i, col := range cols {
			vals, _ := ds.Table.Column(col)
			if err := w.WriteAttribute(row, i, attributeValue(vals[row])); err != nil {
				w.Close()
				return eris.Wrapf(err, "export: write attribute %s row %d", col, row)
			}
		}
	}

	w.Close()
	return nil
}

// dbfField picks a DBF descriptor for a column by scanning its values.
// DBF names are capped at 10 characters.
func dbfField(ds *geoio.Dataset, col string) shp.Field {
	name := col
	if len(name) > 10 {
		name = name[:10]
	}

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
			allInt = false
		}
		if !numeric {
			break
		}
	}

	switch {
	case numeric && allInt:
		return shp.NumberField(name, 18)
	case numeric:
		return shp.FloatField(name, 18, 6)
	default:
		return shp.StringField(name, 64)
	}
}

func attributeValue(v any) any {
	switch t := v.(type) {
	case nil:
		return ""
	case int64:
		return int(t)
	}
	return v
}

// shapefileType derives the writer type from the first non-nil geometry.
func shapefileType(geoms []geom.T) shp.ShapeType {
	for _, g := range geoms {
		switch g.(type) {
		case *geom.Point:
			return shp.POINT
		case *geom.MultiLineString, *geom.LineString:
			return shp.POLYLINE
		case *geom.MultiPolygon, *geom.Polygon:
			return shp.POLYGON
		}
	}
	return shp.NULL
}

func emptyShape(t shp.ShapeType) shp.Shape {
	switch t {
	case shp.POINT:
		return &shp.Point{}
	case shp.POLYLINE:
		return &shp.PolyLine{}
	default:
		return &shp.Polygon{}
	}
}

// geomToShape converts a go-geom value back to a go-shp shape.
func geomToShape(g geom.T) shp.Shape {
	switch v := g.(type) {
	case *geom.Point:
		return &shp.Point{X: v.X(), Y: v.Y()}
	case *geom.LineString:
		return polyLineFromParts([][]geom.Coord{v.Coords()})
	case *geom.MultiLineString:
		parts := make([][]geom.Coord, v.NumLineStrings())
		for i := 0; i < v.NumLineStrings(); i++ {
			parts[i] = v.LineString(i).Coords()
		}
		return polyLineFromParts(parts)
	case *geom.Polygon:
		return polygonFromParts(ringCoords(v))
	case *geom.MultiPolygon:
		var parts [][]geom.Coord
		for i := 0; i < v.NumPolygons(); i++ {
			parts = append(parts, ringCoords(v.Polygon(i))...)
		}
		return polygonFromParts(parts)
	default:
		return nil
	}
}

func ringCoords(p *geom.Polygon) [][]geom.Coord {
	out := make([][]geom.Coord, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		out[i] = p.LinearRing(i).Coords()
	}
	return out
}

func polyLineFromParts(parts [][]geom.Coord) *shp.PolyLine {
	return shp.NewPolyLine(shpPoints(parts))
}

func polygonFromParts(parts [][]geom.Coord) *shp.Polygon {
	poly := shp.Polygon(*shp.NewPolyLine(shpPoints(parts)))
	return &poly
}

func shpPoints(parts [][]geom.Coord) [][]shp.Point {
	out := make([][]shp.Point, len(parts))
	for i, part := range parts {
		pts := make([]shp.Point, len(part))
		for j, c := range part {
			pts[j] = shp.Point{X: c.X(), Y: c.Y()}
		}
		out[i] = pts
	}
	return out
}
