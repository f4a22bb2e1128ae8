package export

import (
	"database/sql"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/urban-analytics/sppt-cli/internal/geoio"
	"github.com/urban-analytics/sppt-cli/internal/table"
)

func resultDataset(t *testing.T, withGeoms bool) *geoio.Dataset {
	t.Helper()
	tbl := table.New()
	require.NoError(t, tbl.SetColumn("tract", []any{int64(101), int64(102)}))
	require.NoError(t, tbl.SetInts("base", []int{30, 50}))
	require.NoError(t, tbl.SetInts("test", []int{25, 55}))
	require.NoError(t, tbl.SetFloats("base_L", []float64{20.5, 40.1}))
	require.NoError(t, tbl.SetFloats("base_U", []float64{35.2, 60.9}))
	require.NoError(t, tbl.SetInts("intervals_overlap", []int{1, 0}))

	ds := &geoio.Dataset{Table: tbl}
	if withGeoms {
		ds.Geoms = []geom.T{
			geom.NewPointFlat(geom.XY, []float64{-123.1, 49.2}),
			geom.NewPointFlat(geom.XY, []float64{-123.0, 49.3}),
		}
	}
	return ds
}

func TestResults_CSV(t *testing.T) {
	dir := t.TempDir()
	path, err := Results(resultDataset(t, false), Options{Format: "csv", Dir: dir, Vars: []string{"base", "test"}})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "sppt_output_base_test.csv"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "tract,base,test,base_L,base_U,intervals_overlap")
	assert.Contains(t, content, "101,30,25,20.5,35.2,1")
}

func TestResults_TXTIsTabDelimited(t *testing.T) {
	dir := t.TempDir()
	path, err := Results(resultDataset(t, false), Options{Format: "txt", Dir: dir, Vars: []string{"base", "test"}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "tract\tbase\ttest")
}

func TestResults_XLSXRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := Results(resultDataset(t, false), Options{Format: "xlsx", Dir: dir, Vars: []string{"base", "test"}})
	require.NoError(t, err)

	tbl, err := geoio.ReadXLSX(path, geoio.XLSXOptions{})
	require.NoError(t, err)
	assert.Equal(t, 2, tbl.NumRows())

	counts, err := tbl.Counts("base")
	require.NoError(t, err)
	assert.Equal(t, []int{30, 50}, counts)
}

func TestResults_ShapefileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path, err := Results(resultDataset(t, true), Options{Format: "shp", Dir: dir, Vars: []string{"base", "test"}})
	require.NoError(t, err)

	ds, err := geoio.ReadShapefile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, ds.Table.NumRows())
	require.Len(t, ds.Geoms, 2)

	pt, ok := ds.Geoms[0].(*geom.Point)
	require.True(t, ok)
	assert.InDelta(t, -123.1, pt.X(), 1e-9)
}

func TestResults_ShapefileWithoutGeoms(t *testing.T) {
	_, err := Results(resultDataset(t, false), Options{Format: "shp", Dir: t.TempDir()})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no geometries")
}

func TestResults_SQLite(t *testing.T) {
	dir := t.TempDir()
	path, err := Results(resultDataset(t, true), Options{Format: "sqlite", Dir: dir, Vars: []string{"base", "test"}})
	require.NoError(t, err)

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow("SELECT COUNT(*) FROM sppt_output").Scan(&n))
	assert.Equal(t, 2, n)

	var tract int64
	var lower float64
	var geomBlob []byte
	require.NoError(t, db.QueryRow(`SELECT "tract", "base_L", "geom" FROM sppt_output ORDER BY "tract" LIMIT 1`).
		Scan(&tract, &lower, &geomBlob))
	assert.Equal(t, int64(101), tract)
	assert.Equal(t, 20.5, lower)
	assert.NotEmpty(t, geomBlob)
}

func TestResults_UnsupportedFormat(t *testing.T) {
	_, err := Results(resultDataset(t, false), Options{Format: "pickle"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported format")
}

func TestFormatCell(t *testing.T) {
	assert.Equal(t, "", formatCell(nil))
	assert.Equal(t, "", formatCell(math.NaN()))
	assert.Equal(t, "3", formatCell(int64(3)))
	assert.Equal(t, "2.5", formatCell(2.5))
	assert.Equal(t, "x", formatCell("x"))
}
