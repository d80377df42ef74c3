package aggregate

import (
	"math"
	"strings"

	"github.com/spf13/cast"

	"github.com/zjrosen/cheds/internal/table"
)

// Value is a coerced cell: OK is false when the cell was missing or not a
// number.
type Value struct {
	V  float64
	OK bool
}

// ParseNumber reads a cell as a float. Missing tokens, blanks, unparsable
// text and NaN are all reported as absent.
func ParseNumber(cell string) (float64, bool) {
	if table.IsMissing(cell) {
		return 0, false
	}
	s := strings.TrimSpace(cell)
	if s == "" {
		return 0, false
	}
	f, err := cast.ToFloat64E(s)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}

// NumericCoerce converts every cell, keeping positions.
func NumericCoerce(cells []string) []Value {
	out := make([]Value, len(cells))
	for i, c := range cells {
		f, ok := ParseNumber(c)
		out[i] = Value{V: f, OK: ok}
	}
	return out
}

// Sum adds the present values.
func Sum(vals []Value) float64 {
	var s float64
	for _, v := range vals {
		if v.OK {
			s += v.V
		}
	}
	return s
}

// CountPresent returns the number of present values.
func CountPresent(vals []Value) int {
	n := 0
	for _, v := range vals {
		if v.OK {
			n++
		}
	}
	return n
}

// Mean averages the present values; ok is false when there are none.
func Mean(vals []Value) (float64, bool) {
	n := CountPresent(vals)
	if n == 0 {
		return 0, false
	}
	return Sum(vals) / float64(n), true
}

// Present returns only the present values, in order.
func Present(vals []Value) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.OK {
			out = append(out, v.V)
		}
	}
	return out
}

// Percentage returns part/whole*100, or 0 when whole is 0.
func Percentage(part, whole float64) float64 {
	if whole == 0 {
		return 0
	}
	return part / whole * 100
}
