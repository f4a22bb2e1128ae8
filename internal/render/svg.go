// Package render draws the bivariate result map as an SVG choropleth.
// Rendering is a downstream consumer of the augmented table: a failure
// here never invalidates the computed indices.
package render

import (
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
	"github.com/urban-analytics/sppt-cli/internal/sppt"
)

// MapOptions configures the bivariate map.
type MapOptions struct {
	BaseName string
	TestName string
	Width    int // default 800
	Height   int // default 600
}

// Signed-index fill colors: base-dominant gray, insignificant white,
// test-dominant black.
const (
	fillBase          = "#CCCCCC"
	fillInsignificant = "#FFFFFF"
	fillTest          = "#000000"
	strokeColor       = "#4D4D4D"
)

// BivariateMap renders the SIndex_Bivariate column over the dataset
// geometries and returns the SVG document.
func BivariateMap(ds *geoio.Dataset, opts MapOptions) ([]byte, error) {
	if len(ds.Geoms) == 0 {
		return nil, eris.New("render: dataset has no geometries")
	}
	if !ds.Table.HasColumn(sppt.BivariateCol) {
		return nil, eris.Errorf("render: table has no %s column", sppt.BivariateCol)
	}

	signed, err := ds.Table.Floats(sppt.BivariateCol)
	if err != nil {
		return nil, err
	}

	width := opts.Width
	if width <= 0 {
		width = 800
	}
	height := opts.Height
	if height <= 0 {
		height = 600
	}

	proj, ok := newProjection(ds.Geoms, float64(width), float64(height))
	if !ok {
		return nil, eris.New("render: no drawable geometry extent")
	}

	var b strings.Builder
	fmt.Fprintf(&b, `<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">`+"\n", width, height, width, height)
	fmt.Fprintf(&b, `<rect width="%d" height="%d" fill="white"/>`+"\n", width, height)
	fmt.Fprintf(&b, `<text x="%d" y="24" font-size="16" font-weight="bold" text-anchor="middle">S-Index Bivariate</text>`+"\n", width/2)

	for i, g := range ds.Geoms {
		if g == nil {
			continue
		}
		path := geomPath(g, proj)
		if path == "" {
			continue
		}
		fmt.Fprintf(&b, `<path d="%s" fill="%s" stroke="%s" stroke-width="0.3"/>`+"\n",
			path, fillFor(signed[i]), strokeColor)
	}

	writeLegend(&b, opts)
	b.WriteString("</svg>\n")
	return []byte(b.String()), nil
}

// SaveBivariateMap renders the map and writes it to path.
func SaveBivariateMap(ds *geoio.Dataset, path string, opts MapOptions) error {
	data, err := BivariateMap(ds, opts)
	if err != nil {
		return err
	}
	return eris.Wrapf(os.WriteFile(path, data, 0o644), "render: write %s", path)
}

func fillFor(signed float64) string {
	switch {
	case signed < -0.5:
		return fillBase
	case signed > 0.5:
		return fillTest
	default:
		return fillInsignificant
	}
}

func writeLegend(b *strings.Builder, opts MapOptions) {
	entries := []struct {
		fill  string
		label string
	}{
		{fillBase, fmt.Sprintf("%s > %s", opts.BaseName, opts.TestName)},
		{fillInsignificant, "Insignificant change"},
		{fillTest, fmt.Sprintf("%s > %s", opts.TestName, opts.BaseName)},
	}

	fmt.Fprintf(b, `<text x="16" y="52" font-size="12" font-weight="bold">Spatial Pattern</text>`+"\n")
	y := 64
	for _, e := range entries {
		fmt.Fprintf(b, `<rect x="16" y="%d" width="14" height="14" fill="%s" stroke="black" stroke-width="0.5"/>`+"\n", y, e.fill)
		fmt.Fprintf(b, `<text x="36" y="%d" font-size="11">%s</text>`+"\n", y+11, escapeXML(e.label))
		y += 20
	}
}

func escapeXML(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}

// projection maps data coordinates into the SVG viewport, preserving
// aspect ratio and flipping the y axis.
type projection struct {
	minX, minY float64
	scale      float64
	offX, offY float64
	height     float64
}

func newProjection(geoms []geom.T, width, height float64) (projection, bool) {
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, g := range geoms {
		if g == nil {
			continue
		}
		b := g.Bounds()
		minX = math.Min(minX, b.Min(0))
		minY = math.Min(minY, b.Min(1))
		maxX = math.Max(maxX, b.Max(0))
		maxY = math.Max(maxY, b.Max(1))
	}
	if math.IsInf(minX, 1) {
		return projection{}, false
	}

	const margin = 40.0
	spanX := maxX - minX
	spanY := maxY - minY
	if spanX == 0 {
		spanX = 1
	}
	if spanY == 0 {
		spanY = 1
	}

	scale := math.Min((width-2*margin)/spanX, (height-2*margin)/spanY)
	return projection{
		minX:   minX,
		minY:   minY,
		scale:  scale,
		offX:   margin,
		offY:   margin,
		height: height,
	}, true
}

func (p projection) point(x, y float64) (float64, float64) {
	px := p.offX + (x-p.minX)*p.scale
	py := p.height - p.offY - (y-p.minY)*p.scale
	return px, py
}

// geomPath emits an SVG path for the supported geometry kinds.
func geomPath(g geom.T, proj projection) string {
	switch v := g.(type) {
	case *geom.Point:
		// Points render as small circles via a degenerate path.
		x, y := proj.point(v.X(), v.Y())
		return fmt.Sprintf("M %.2f %.2f m -2 0 a 2 2 0 1 0 4 0 a 2 2 0 1 0 -4 0", x, y)
	case *geom.Polygon:
		return ringsPath(polygonRings(v), proj)
	case *geom.MultiPolygon:
		var rings [][]geom.Coord
		for i := 0; i < v.NumPolygons(); i++ {
			rings = append(rings, polygonRings(v.Polygon(i))...)
		}
		return ringsPath(rings, proj)
	case *geom.MultiLineString:
		var parts [][]geom.Coord
		for i := 0; i < v.NumLineStrings(); i++ {
			parts = append(parts, v.LineString(i).Coords())
		}
		return linesPath(parts, proj)
	case *geom.LineString:
		return linesPath([][]geom.Coord{v.Coords()}, proj)
	default:
		return ""
	}
}

func polygonRings(p *geom.Polygon) [][]geom.Coord {
	out := make([][]geom.Coord, p.NumLinearRings())
	for i := 0; i < p.NumLinearRings(); i++ {
		out[i] = p.LinearRing(i).Coords()
	}
	return out
}

func ringsPath(rings [][]geom.Coord, proj projection) string {
	var b strings.Builder
	for _, ring := range rings {
		writeSubpath(&b, ring, proj)
		b.WriteString(" Z ")
	}
	return strings.TrimSpace(b.String())
}

func linesPath(parts [][]geom.Coord, proj projection) string {
	var b strings.Builder
	for _, part := range parts {
		writeSubpath(&b, part, proj)
		b.WriteString(" ")
	}
	return strings.TrimSpace(b.String())
}

func writeSubpath(b *strings.Builder, coords []geom.Coord, proj projection) {
	for i, c := range coords {
		x, y := proj.point(c.X(), c.Y())
		if i == 0 {
			fmt.Fprintf(b, "M %.2f %.2f", x, y)
		} else {
			fmt.Fprintf(b, " L %.2f %.2f", x, y)
		}
	}
}
