package table

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetColumn_RowCountMismatch(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("id", []any{int64(1), int64(2)}))

	err := tbl.SetColumn("count", []any{int64(5)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 values, want 2")
}

func TestSetColumn_OverwriteKeepsOrder(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("id", []any{int64(1)}))
	require.NoError(t, tbl.SetColumn("a", []any{int64(2)}))
	require.NoError(t, tbl.SetColumn("b", []any{int64(3)}))

	require.NoError(t, tbl.SetColumn("a", []any{int64(9)}))
	assert.Equal(t, []string{"id", "a", "b"}, tbl.Columns())

	vals, ok := tbl.Column("a")
	require.True(t, ok)
	assert.Equal(t, int64(9), vals[0])
}

func TestKeys_IntegerTypePreserved(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("tract", []any{int(11), int32(12), int64(13)}))

	keys, err := tbl.Keys("tract")
	require.NoError(t, err)
	for _, k := range keys {
		_, isInt := k.(int64)
		assert.True(t, isInt, "key %v should normalize to int64", k)
	}
}

func TestCounts_CoercesMissingAndNegative(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("crimes", []any{int64(3), nil, float64(-2), math.NaN(), "7"}))

	counts, err := tbl.Counts("crimes")
	require.NoError(t, err)
	assert.Equal(t, []int{3, 0, 0, 0, 7}, counts)
}

func TestCounts_NonNumericError(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("crimes", []any{"downtown"}))

	_, err := tbl.Counts("crimes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not numeric")
}

func TestFloats_NilBecomesNaN(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("v", []any{nil, float64(1.5)}))

	vals, err := tbl.Floats("v")
	require.NoError(t, err)
	assert.True(t, math.IsNaN(vals[0]))
	assert.Equal(t, 1.5, vals[1])
}

func TestClone_Independent(t *testing.T) {
	tbl := New()
	require.NoError(t, tbl.SetColumn("id", []any{int64(1), int64(2)}))

	cp := tbl.Clone()
	require.NoError(t, cp.SetFloats("extra", []float64{0.1, 0.2}))

	assert.False(t, tbl.HasColumn("extra"))
	assert.True(t, cp.HasColumn("extra"))
	assert.Equal(t, 2, cp.NumRows())
}
