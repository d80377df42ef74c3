package aggregate

import (
	"encoding/json"
	"math"
	"slices"
	"strings"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/table"
)

// ColumnStats is the numeric summary of one column. Statistics that are
// undefined for the count are NaN and encode as JSON null.
type ColumnStats struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Std    float64 `json:"std"`
	Min    float64 `json:"min"`
	P25    float64 `json:"p25"`
	P50    float64 `json:"p50"`
	P75    float64 `json:"p75"`
	Max    float64 `json:"max"`
}

// MarshalJSON writes NaN statistics as null.
func (s ColumnStats) MarshalJSON() ([]byte, error) {
	num := func(x float64) *float64 {
		if math.IsNaN(x) {
			return nil
		}
		return &x
	}
	return json.Marshal(struct {
		Column string   `json:"column"`
		Count  int      `json:"count"`
		Mean   *float64 `json:"mean"`
		Std    *float64 `json:"std"`
		Min    *float64 `json:"min"`
		P25    *float64 `json:"p25"`
		P50    *float64 `json:"p50"`
		P75    *float64 `json:"p75"`
		Max    *float64 `json:"max"`
	}{
		s.Column, s.Count,
		num(s.Mean), num(s.Std), num(s.Min), num(s.P25), num(s.P50), num(s.P75), num(s.Max),
	})
}

// Kind classifies a column by content.
type Kind string

const (
	KindNumeric Kind = "numeric"
	KindText    Kind = "text"
	KindEmpty   Kind = "empty"
)

// ColumnKind reports numeric when every non-missing cell parses as a
// number, empty when every cell is missing, text otherwise.
func ColumnKind(cells []string) Kind {
	present := 0
	for _, c := range cells {
		if table.IsMissing(c) {
			continue
		}
		present++
		if _, ok := ParseNumber(c); !ok {
			return KindText
		}
	}
	if present == 0 {
		return KindEmpty
	}
	return KindNumeric
}

// Describe summarises every numeric column of d, in column order. A column
// whose cells are all missing counts as numeric, with count 0, as long as
// the table has rows. Std is the sample standard deviation; quantiles
// interpolate linearly between closest ranks.
func Describe(d *dataset.Dataset) []ColumnStats {
	if d == nil || d.Table == nil {
		return nil
	}
	var out []ColumnStats
	for _, name := range d.Table.Columns() {
		cells, _ := d.Table.Column(name)
		switch ColumnKind(cells) {
		case KindNumeric:
		case KindEmpty:
			if len(cells) == 0 {
				continue
			}
		default:
			continue
		}
		out = append(out, describe(name, Present(NumericCoerce(cells))))
	}
	return out
}

func describe(name string, xs []float64) ColumnStats {
	sorted := slices.Clone(xs)
	slices.Sort(sorted)

	n := len(sorted)
	if n == 0 {
		nan := math.NaN()
		return ColumnStats{Column: name, Mean: nan, Std: nan, Min: nan, P25: nan, P50: nan, P75: nan, Max: nan}
	}
	mean := 0.0
	for _, x := range sorted {
		mean += x
	}
	mean /= float64(n)

	var ss float64
	for _, x := range sorted {
		ss += (x - mean) * (x - mean)
	}
	std := math.NaN()
	if n > 1 {
		std = math.Sqrt(ss / float64(n-1))
	}

	return ColumnStats{
		Column: name,
		Count:  n,
		Mean:   mean,
		Std:    std,
		Min:    sorted[0],
		P25:    Quantile(sorted, 0.25),
		P50:    Quantile(sorted, 0.50),
		P75:    Quantile(sorted, 0.75),
		Max:    sorted[n-1],
	}
}

// Quantile returns the q-th quantile of an ascending slice.
func Quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Bin is one histogram bucket covering [Lo, Hi); the last bin is closed.
type Bin struct {
	Lo float64 `json:"lo"`
	Hi float64 `json:"hi"`
	N  int     `json:"n"`
}

// Histogram buckets the present values into bins equal-width bins.
func Histogram(vals []Value, bins int) []Bin {
	xs := Present(vals)
	if len(xs) == 0 || bins <= 0 {
		return nil
	}
	lo, hi := slices.Min(xs), slices.Max(xs)
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, N: len(xs)}}
	}

	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].N++
	}
	return out
}

// QualityReport describes missing data and duplication in a dataset.
type QualityReport struct {
	Rows          int           `json:"rows"`
	Columns       int           `json:"columns"`
	MissingCells  int           `json:"missing_cells"`
	MissingPct    float64       `json:"missing_pct"`
	DuplicateRows int           `json:"duplicate_rows"`
	Missing       []MissingStat `json:"missing"`
	Kinds         map[Kind]int  `json:"kinds"`
}

// MissingStat is the missing-value count of one column.
type MissingStat struct {
	Column string  `json:"column"`
	Count  int     `json:"count"`
	Pct    float64 `json:"pct"`
}

// Quality inspects d for missing cells, repeated rows and column kinds.
// Columns without missing cells are left out of Missing, which is ordered
// by count, largest first.
func Quality(d *dataset.Dataset) QualityReport {
	rep := QualityReport{Kinds: map[Kind]int{}}
	if d == nil || d.Table == nil {
		return rep
	}
	t := d.Table
	rep.Rows, rep.Columns = t.NumRows(), t.NumCols()

	for _, name := range t.Columns() {
		cells, _ := t.Column(name)
		rep.Kinds[ColumnKind(cells)]++
		n := 0
		for _, c := range cells {
			if table.IsMissing(c) {
				n++
			}
		}
		if n > 0 {
			rep.Missing = append(rep.Missing, MissingStat{
				Column: name,
				Count:  n,
				Pct:    Percentage(float64(n), float64(rep.Rows)),
			})
			rep.MissingCells += n
		}
	}
	slices.SortStableFunc(rep.Missing, func(a, b MissingStat) int { return b.Count - a.Count })
	rep.MissingPct = Percentage(float64(rep.MissingCells), float64(rep.Rows*rep.Columns))

	seen := make(map[string]struct{}, rep.Rows)
	for _, row := range t.Rows() {
		key := strings.Join(row, "\x1f")
		if _, dup := seen[key]; dup {
			rep.DuplicateRows++
			continue
		}
		seen[key] = struct{}{}
	}
	return rep
}
