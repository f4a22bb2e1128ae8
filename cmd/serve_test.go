package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/urban-analytics/sppt-cli/internal/config"
)

func setTestConfig(t *testing.T) {
	t.Helper()
	prev := cfg
	cfg = &config.Config{
		Test: config.TestConfig{
			Replicates:     50,
			ConfLevel:      0.95,
			UsePercentages: true,
			CheckOverlap:   true,
		},
	}
	t.Cleanup(func() { cfg = prev })
}

func TestRequestToRun_Defaults(t *testing.T) {
	setTestConfig(t)

	opts, tbl, err := requestToRun(testRequest{
		Groups: []any{"a", "b"},
		Variables: []testVariable{
			{Name: "c2010", Counts: []int{10, 20}},
			{Name: "c2020", Counts: []int{15, 15}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, 50, opts.B)
	assert.Equal(t, 0.95, opts.ConfLevel)
	assert.True(t, opts.UsePercentages)
	assert.True(t, opts.CheckOverlap)
	assert.Equal(t, []string{"c2010", "c2020"}, opts.CountCols)
	assert.Equal(t, 2, tbl.NumRows())
}

func TestRequestToRun_Overrides(t *testing.T) {
	setTestConfig(t)

	seed := int64(7)
	raw := false
	noCheck := false
	opts, _, err := requestToRun(testRequest{
		Groups:         []any{"a"},
		Variables:      []testVariable{{Name: "x", Counts: []int{3}}},
		B:              999,
		Seed:           &seed,
		ConfLevel:      0.8,
		UsePercentages: &raw,
		CheckOverlap:   &noCheck,
	})
	require.NoError(t, err)

	assert.Equal(t, 999, opts.B)
	assert.Equal(t, 0.8, opts.ConfLevel)
	assert.False(t, opts.UsePercentages)
	assert.False(t, opts.CheckOverlap)
	require.NotNil(t, opts.Seed)
	assert.Equal(t, int64(7), *opts.Seed)
}

func TestRequestToRun_Invalid(t *testing.T) {
	setTestConfig(t)

	_, _, err := requestToRun(testRequest{})
	require.Error(t, err)

	_, _, err = requestToRun(testRequest{Groups: []any{"a"}})
	require.Error(t, err)

	_, _, err = requestToRun(testRequest{
		Groups:    []any{"a", "b"},
		Variables: []testVariable{{Name: "x", Counts: []int{1}}},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 counts for 2 groups")

	_, _, err = requestToRun(testRequest{
		Groups:    []any{"a"},
		Variables: []testVariable{{Counts: []int{1}}},
	})
	require.Error(t, err)
}
