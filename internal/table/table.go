// Package table provides a minimal ordered-column frame for aggregated
// count data. Columns hold scalar values; extra columns a caller attaches
// (identifiers, labels, geometry references) pass through untouched.
package table

import (
	"math"
	"strconv"

	"github.com/rotisserie/eris"
)

// Key is a normalized group identifier: int64, float64, string, bool or nil.
// Normalization keeps joins type-stable — integer keys stay integers.
type Key = any

// Table is an ordered collection of named columns of equal length.
type Table struct {
	cols  []string
	data  map[string][]any
	nrows int
}

// New returns an empty table.
func New() *Table {
	return &Table{data: make(map[string][]any)}
}

// Columns returns column names in insertion order.
func (t *Table) Columns() []string {
	out := make([]string, len(t.cols))
	copy(out, t.cols)
	return out
}

// NumRows returns the row count.
func (t *Table) NumRows() int { return t.nrows }

// HasColumn reports whether the named column exists.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.data[name]
	return ok
}

// Column returns the raw values of the named column.
func (t *Table) Column(name string) ([]any, bool) {
	vals, ok := t.data[name]
	return vals, ok
}

// SetColumn adds or overwrites a column. The first column fixes the row
// count; later columns must match it. Overwriting keeps the original
// column position.
func (t *Table) SetColumn(name string, values []any) error {
	if len(t.cols) > 0 && len(values) != t.nrows {
		return eris.Errorf("table: column %s has %d values, want %d", name, len(values), t.nrows)
	}
	if _, exists := t.data[name]; !exists {
		t.cols = append(t.cols, name)
	}
	if len(t.cols) == 1 {
		t.nrows = len(values)
	}
	t.data[name] = values
	return nil
}

// SetFloats adds or overwrites a float column.
func (t *Table) SetFloats(name string, values []float64) error {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return t.SetColumn(name, vals)
}

// SetInts adds or overwrites an integer column.
func (t *Table) SetInts(name string, values []int) error {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = int64(v)
	}
	return t.SetColumn(name, vals)
}

// Clone returns a deep copy of the table structure. Cell values are
// scalars and are shared.
func (t *Table) Clone() *Table {
	out := &Table{
		cols:  make([]string, len(t.cols)),
		data:  make(map[string][]any, len(t.data)),
		nrows: t.nrows,
	}
	copy(out.cols, t.cols)
	for name, vals := range t.data {
		cp := make([]any, len(vals))
		copy(cp, vals)
		out.data[name] = cp
	}
	return out
}

// Keys returns the named column as normalized group keys.
func (t *Table) Keys(name string) ([]Key, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, eris.Errorf("table: no column %s", name)
	}
	keys := make([]Key, len(vals))
	for i, v := range vals {
		keys[i] = NormalizeKey(v)
	}
	return keys, nil
}

// Floats returns the named column coerced to float64. Nil cells become
// NaN; non-numeric cells are an error.
func (t *Table) Floats(name string) ([]float64, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, eris.Errorf("table: no column %s", name)
	}
	out := make([]float64, len(vals))
	for i, v := range vals {
		f, err := toFloat(v)
		if err != nil {
			return nil, eris.Wrapf(err, "table: column %s row %d", name, i)
		}
		out[i] = f
	}
	return out, nil
}

// Counts returns the named column coerced to non-negative integers.
// Nil and NaN cells become 0; negative values are clamped to 0.
func (t *Table) Counts(name string) ([]int, error) {
	vals, ok := t.data[name]
	if !ok {
		return nil, eris.Errorf("table: no column %s", name)
	}
	out := make([]int, len(vals))
	for i, v := range vals {
		if v == nil {
			continue
		}
		f, err := toFloat(v)
		if err != nil {
			return nil, eris.Wrapf(err, "table: column %s row %d", name, i)
		}
		if math.IsNaN(f) || f < 0 {
			continue
		}
		out[i] = int(f)
	}
	return out, nil
}

// NormalizeKey widens integer kinds to int64 so that equal identifiers
// compare equal regardless of how the loader typed them.
func NormalizeKey(v any) Key {
	switch k := v.(type) {
	case nil:
		return nil
	case int:
		return int64(k)
	case int8:
		return int64(k)
	case int16:
		return int64(k)
	case int32:
		return int64(k)
	case int64:
		return k
	case uint:
		return int64(k)
	case uint8:
		return int64(k)
	case uint16:
		return int64(k)
	case uint32:
		return int64(k)
	case uint64:
		return int64(k)
	case float32:
		return float64(k)
	case float64, string, bool:
		return k
	default:
		return k
	}
}

func toFloat(v any) (float64, error) {
	switch k := v.(type) {
	case nil:
		return math.NaN(), nil
	case int:
		return float64(k), nil
	case int32:
		return float64(k), nil
	case int64:
		return float64(k), nil
	case float32:
		return float64(k), nil
	case float64:
		return k, nil
	case string:
		f, err := strconv.ParseFloat(k, 64)
		if err != nil {
			return 0, eris.Errorf("value %q is not numeric", k)
		}
		return f, nil
	default:
		return 0, eris.Errorf("value of type %T is not numeric", v)
	}
}
