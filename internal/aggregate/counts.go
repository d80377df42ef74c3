package aggregate

import (
	"slices"
	"strings"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/table"
)

// Count is one distinct value and how often it occurs.
type Count struct {
	Value string `json:"value"`
	N     int    `json:"n"`
}

// ValueCountsOf counts distinct non-missing cells, most frequent first.
// Equal counts keep first-occurrence order.
func ValueCountsOf(cells []string) []Count {
	idx := make(map[string]int)
	var out []Count
	for _, c := range cells {
		if table.IsMissing(c) {
			continue
		}
		if i, ok := idx[c]; ok {
			out[i].N++
			continue
		}
		idx[c] = len(out)
		out = append(out, Count{Value: c, N: 1})
	}
	slices.SortStableFunc(out, func(a, b Count) int { return b.N - a.N })
	return out
}

// ValueCounts counts the values of a column.
func ValueCounts(d *dataset.Dataset, col string) ([]Count, bool) {
	cells, ok := column(d, col)
	if !ok {
		return nil, false
	}
	return ValueCountsOf(cells), true
}

// TopCounts keeps the first n counts. n <= 0 keeps all.
func TopCounts(counts []Count, n int) []Count {
	if n <= 0 || len(counts) <= n {
		return counts
	}
	return counts[:n]
}

// SortCountsByValue returns a copy ordered by value, numerically when both
// values are numbers (years, ratings).
func SortCountsByValue(counts []Count) []Count {
	out := slices.Clone(counts)
	slices.SortStableFunc(out, func(a, b Count) int { return compareKeys(a.Value, b.Value) })
	return out
}

// CountEqual counts cells equal to value.
func CountEqual(d *dataset.Dataset, col, value string) (int, bool) {
	return countWhere(d, col, func(c string) bool { return c == value })
}

// CountPrefixFold counts cells starting with prefix, ignoring case.
func CountPrefixFold(d *dataset.Dataset, col, prefix string) (int, bool) {
	p := strings.ToLower(prefix)
	return countWhere(d, col, func(c string) bool {
		return strings.HasPrefix(strings.ToLower(c), p)
	})
}

// NUnique counts distinct non-missing values of a column.
func NUnique(d *dataset.Dataset, col string) (int, bool) {
	cells, ok := column(d, col)
	if !ok {
		return 0, false
	}
	seen := make(map[string]struct{})
	for _, c := range cells {
		if !table.IsMissing(c) {
			seen[c] = struct{}{}
		}
	}
	return len(seen), true
}

func countWhere(d *dataset.Dataset, col string, pred func(string) bool) (int, bool) {
	cells, ok := column(d, col)
	if !ok {
		return 0, false
	}
	n := 0
	for _, c := range cells {
		if !table.IsMissing(c) && pred(c) {
			n++
		}
	}
	return n, true
}

func compareKeys(a, b string) int {
	fa, okA := ParseNumber(a)
	fb, okB := ParseNumber(b)
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(a, b)
}
