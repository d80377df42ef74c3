package aggregate

import (
	"slices"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/table"
)

// Group is one aggregated group.
type Group struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// column resolves name (logical field or literal column) and returns its cells.
func column(d *dataset.Dataset, name string) ([]string, bool) {
	if d == nil || d.Table == nil {
		return nil, false
	}
	col, ok := d.Column(name)
	if !ok {
		return nil, false
	}
	return d.Table.Column(col)
}

// groupRows buckets row indexes by key in first-encountered order. Rows
// whose key is missing are dropped.
func groupRows(keys []string) ([]string, map[string][]int) {
	var order []string
	rows := make(map[string][]int)
	for i, k := range keys {
		if table.IsMissing(k) {
			continue
		}
		if _, seen := rows[k]; !seen {
			order = append(order, k)
		}
		rows[k] = append(rows[k], i)
	}
	return order, rows
}

func grouped(d *dataset.Dataset, groupCol, valueCol string, agg func(cells []string, rows []int) (float64, bool)) ([]Group, bool) {
	keys, ok := column(d, groupCol)
	if !ok {
		return nil, false
	}
	vals, ok := column(d, valueCol)
	if !ok {
		return nil, false
	}

	order, rows := groupRows(keys)
	out := make([]Group, 0, len(order))
	for _, k := range order {
		if v, keep := agg(vals, rows[k]); keep {
			out = append(out, Group{Key: k, Value: v})
		}
	}
	return out, true
}

// GroupedSum sums valueCol per distinct groupCol value. Absent values are
// skipped; a group whose values are all absent sums to 0. Groups keep
// first-encountered order.
func GroupedSum(d *dataset.Dataset, groupCol, valueCol string) ([]Group, bool) {
	return grouped(d, groupCol, valueCol, func(cells []string, rows []int) (float64, bool) {
		var s float64
		for _, i := range rows {
			if f, ok := ParseNumber(cells[i]); ok {
				s += f
			}
		}
		return s, true
	})
}

// GroupedMean averages valueCol per group over present values only. Groups
// with no present value are left out.
func GroupedMean(d *dataset.Dataset, groupCol, valueCol string) ([]Group, bool) {
	return grouped(d, groupCol, valueCol, func(cells []string, rows []int) (float64, bool) {
		var (
			s float64
			n int
		)
		for _, i := range rows {
			if f, ok := ParseNumber(cells[i]); ok {
				s += f
				n++
			}
		}
		if n == 0 {
			return 0, false
		}
		return s / float64(n), true
	})
}

// GroupedNUnique counts distinct non-missing values of col per group.
func GroupedNUnique(d *dataset.Dataset, groupCol, col string) ([]Group, bool) {
	return grouped(d, groupCol, col, func(cells []string, rows []int) (float64, bool) {
		seen := make(map[string]struct{})
		for _, i := range rows {
			if !table.IsMissing(cells[i]) {
				seen[cells[i]] = struct{}{}
			}
		}
		return float64(len(seen)), true
	})
}

// SortGroupsDesc returns a copy sorted by value, largest first. Equal values
// keep their input order.
func SortGroupsDesc(groups []Group) []Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b Group) int {
		switch {
		case a.Value > b.Value:
			return -1
		case a.Value < b.Value:
			return 1
		default:
			return 0
		}
	})
	return out
}

// SortGroupsByKey returns a copy sorted by key, numerically when both keys
// are numbers.
func SortGroupsByKey(groups []Group) []Group {
	out := slices.Clone(groups)
	slices.SortStableFunc(out, func(a, b Group) int { return compareKeys(a.Key, b.Key) })
	return out
}

// TopGroups sorts descending and keeps at most n groups. n <= 0 keeps all.
func TopGroups(groups []Group, n int) []Group {
	out := SortGroupsDesc(groups)
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ColumnSum sums a column's present values.
func ColumnSum(d *dataset.Dataset, col string) (float64, bool) {
	cells, ok := column(d, col)
	if !ok {
		return 0, false
	}
	return Sum(NumericCoerce(cells)), true
}

// ColumnMean averages a column's present values. ok is false when the
// column is missing or holds no number.
func ColumnMean(d *dataset.Dataset, col string) (float64, bool) {
	cells, ok := column(d, col)
	if !ok {
		return 0, false
	}
	return Mean(NumericCoerce(cells))
}

// ColumnValues returns the coerced values of a column.
func ColumnValues(d *dataset.Dataset, col string) ([]Value, bool) {
	cells, ok := column(d, col)
	if !ok {
		return nil, false
	}
	return NumericCoerce(cells), true
}

// SumColumns adds the sums of each listed column that exists. n is how many
// of them existed.
func SumColumns(d *dataset.Dataset, cols ...string) (total float64, n int) {
	for _, c := range cols {
		if s, ok := ColumnSum(d, c); ok {
			total += s
			n++
		}
	}
	return total, n
}

// SumColumnsMatching adds the sums of every column for which match is true.
func SumColumnsMatching(d *dataset.Dataset, match func(col string) bool) (total float64, n int) {
	if d == nil || d.Table == nil {
		return 0, 0
	}
	for _, c := range d.Table.Columns() {
		if !match(c) {
			continue
		}
		if s, ok := ColumnSum(d, c); ok {
			total += s
			n++
		}
	}
	return total, n
}

// GroupedSumColumns sums, per group, the present values of every listed
// column that exists. ok is false when groupCol or all of cols are missing.
func GroupedSumColumns(d *dataset.Dataset, groupCol string, cols []string) ([]Group, bool) {
	keys, ok := column(d, groupCol)
	if !ok {
		return nil, false
	}
	var series [][]string
	for _, c := range cols {
		if cells, ok := column(d, c); ok {
			series = append(series, cells)
		}
	}
	if len(series) == 0 {
		return nil, false
	}

	order, rows := groupRows(keys)
	out := make([]Group, 0, len(order))
	for _, k := range order {
		var s float64
		for _, cells := range series {
			for _, i := range rows[k] {
				if f, ok := ParseNumber(cells[i]); ok {
					s += f
				}
			}
		}
		out = append(out, Group{Key: k, Value: s})
	}
	return out, true
}

// MatchingColumns lists the columns of d for which match is true, in order.
func MatchingColumns(d *dataset.Dataset, match func(col string) bool) []string {
	if d == nil || d.Table == nil {
		return nil
	}
	var out []string
	for _, c := range d.Table.Columns() {
		if match(c) {
			out = append(out, c)
		}
	}
	return out
}
