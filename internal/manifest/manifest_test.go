package manifest

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "batch.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeManifest(t, `
defaults:
  b: 400
  conf_level: 0.9
  export_format: csv
  export_dir: out
jobs:
  - name: robbery
    input: data/robbery.shp
    group_col: tract
    count_cols: [c2010, c2020]
    seed: 42
  - name: assault
    input: data/assault.csv
    group_col: tract
    count_cols: [a2010, a2020]
    b: 99
    use_percentages: false
    fix_base: true
    map_out: out/assault.svg
`)

	m, err := Load(path)
	require.NoError(t, err)
	require.Len(t, m.Jobs, 2)

	j := m.Jobs[0]
	assert.Equal(t, "robbery", j.Name)
	assert.Equal(t, 400, *j.B)
	assert.Equal(t, 0.9, *j.ConfLevel)
	assert.True(t, *j.UsePercentages)
	assert.True(t, *j.CheckOverlap)
	assert.Equal(t, "csv", j.ExportFormat)
	assert.Equal(t, "out", j.ExportDir)
	require.NotNil(t, j.Seed)
	assert.Equal(t, int64(42), *j.Seed)

	j = m.Jobs[1]
	assert.Equal(t, 99, *j.B)
	assert.False(t, *j.UsePercentages)
	assert.True(t, j.FixBase)
	assert.Nil(t, j.Seed)
	assert.Equal(t, "out/assault.svg", j.MapOut)
}

func TestLoad_BuiltinDefaults(t *testing.T) {
	path := writeManifest(t, `
jobs:
  - name: only
    input: data/x.csv
    group_col: id
    count_cols: [a]
`)

	m, err := Load(path)
	require.NoError(t, err)
	j := m.Jobs[0]
	assert.Equal(t, DefaultReplicates, *j.B)
	assert.Equal(t, DefaultConfLevel, *j.ConfLevel)
	assert.True(t, *j.UsePercentages)
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"no jobs": `defaults: {b: 10}`,
		"unnamed job": `
jobs:
  - input: x.csv
    group_col: id
    count_cols: [a]
`,
		"duplicate names": `
jobs:
  - {name: a, input: x.csv, group_col: id, count_cols: [c]}
  - {name: a, input: y.csv, group_col: id, count_cols: [c]}
`,
		"missing input": `
jobs:
  - {name: a, group_col: id, count_cols: [c]}
`,
		"fix_base with three columns": `
jobs:
  - {name: a, input: x.csv, group_col: id, count_cols: [c, d, e], fix_base: true}
`,
		"prefix mismatch": `
jobs:
  - {name: a, input: x.csv, group_col: id, count_cols: [c, d], prefixes: [only_one]}
`,
		"bad conf_level": `
jobs:
  - {name: a, input: x.csv, group_col: id, count_cols: [c], conf_level: 1.5}
`,
		"unknown key": `
jobs:
  - {name: a, input: x.csv, group_col: id, count_cols: [c], bootstrapz: 9}
`,
	}

	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeManifest(t, body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}
