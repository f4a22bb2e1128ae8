package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-analytics/sppt-cli/internal/manifest"
	"github.com/urban-analytics/sppt-cli/internal/model"
	"github.com/urban-analytics/sppt-cli/internal/store"
)

func writeInputCSV(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tracts.csv")
	body := "tract,c2010,c2020\n101,30,5\n102,0,40\n103,25,20\n"
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func testSpec(t *testing.T, input string) jobSpec {
	seed := int64(42)
	return jobSpec{
		Name:           "unit",
		Input:          input,
		GroupCol:       "tract",
		CountCols:      []string{"c2010", "c2020"},
		B:              50,
		Seed:           &seed,
		ConfLevel:      0.95,
		UsePercentages: true,
		CheckOverlap:   true,
	}
}

func TestRunJob_CSVWithExport(t *testing.T) {
	exportDir := t.TempDir()
	spec := testSpec(t, writeInputCSV(t))
	spec.ExportFormat = "csv"
	spec.ExportDir = exportDir

	outcome, err := runJob(spec)
	require.NoError(t, err)

	require.True(t, outcome.Result.HasIndices)
	idx := outcome.Result.Indices
	assert.Equal(t, 3, idx.TotalObs)
	assert.GreaterOrEqual(t, idx.SIndex, 0.0)
	assert.LessOrEqual(t, idx.SIndex, 1.0)

	assert.Equal(t, filepath.Join(exportDir, "sppt_output_c2010_c2020.csv"), outcome.ExportPath)
	_, statErr := os.Stat(outcome.ExportPath)
	assert.NoError(t, statErr)
}

func TestRunJob_MapFailureIsNotFatal(t *testing.T) {
	spec := testSpec(t, writeInputCSV(t))
	spec.CountCols = []string{"c2010"}
	spec.MapOut = filepath.Join(t.TempDir(), "m.svg")

	outcome, err := runJob(spec)
	require.NoError(t, err)
	assert.NotNil(t, outcome.Result)

	// A single-variable run cannot be mapped, so no file appears.
	_, statErr := os.Stat(spec.MapOut)
	assert.True(t, os.IsNotExist(statErr))
}

func TestWriteMap_RequiresTwoVariables(t *testing.T) {
	spec := testSpec(t, "unused")
	spec.CountCols = []string{"c2010"}
	spec.MapOut = filepath.Join(t.TempDir(), "m.svg")

	err := writeMap(nil, spec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "two count columns")
}

func TestRunJob_MissingInput(t *testing.T) {
	spec := testSpec(t, filepath.Join(t.TempDir(), "nope.csv"))
	_, err := runJob(spec)
	require.Error(t, err)
}

func TestExecuteJob_RecordsRun(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "r.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	outcome, err := executeJob(ctx, st, testSpec(t, writeInputCSV(t)))
	require.NoError(t, err)
	require.NotNil(t, outcome.Run)

	run, err := st.GetRun(ctx, outcome.Run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusComplete, run.Status)
	require.NotNil(t, run.Result)
	assert.Equal(t, 3, run.Result.TotalObs)
}

func TestExecuteJob_FailureRecorded(t *testing.T) {
	ctx := context.Background()
	st, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "r.db"), nil)
	require.NoError(t, err)
	defer st.Close()

	spec := testSpec(t, writeInputCSV(t))
	spec.GroupCol = "not_a_column"

	_, err = executeJob(ctx, st, spec)
	require.Error(t, err)

	runs, err := st.ListRuns(ctx, store.RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Contains(t, runs[0].Error, "not_a_column")
}

func TestJobToSpec(t *testing.T) {
	b := 77
	conf := 0.9
	pct := false
	check := true
	seed := int64(3)

	spec := jobToSpec(manifest.Job{
		Name:           "j",
		Input:          "x.csv",
		GroupCol:       "id",
		CountCols:      []string{"a", "b"},
		B:              &b,
		Seed:           &seed,
		ConfLevel:      &conf,
		UsePercentages: &pct,
		CheckOverlap:   &check,
		FixBase:        true,
		ExportFormat:   "shp",
		ExportDir:      "out",
		MapOut:         "m.svg",
	})

	assert.Equal(t, 77, spec.B)
	assert.Equal(t, 0.9, spec.ConfLevel)
	assert.False(t, spec.UsePercentages)
	assert.True(t, spec.CheckOverlap)
	assert.True(t, spec.FixBase)
	assert.Equal(t, "shp", spec.ExportFormat)
	require.NotNil(t, spec.Seed)
	assert.Equal(t, int64(3), *spec.Seed)
}
