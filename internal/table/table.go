// Package table implements the in-memory tabular representation shared by the
// loader, the aggregations and the explorer. Cells are kept as the raw strings
// read from the source file; interpretation (missing, numeric) is done by the
// consumer.
package table

import (
	"fmt"
	"slices"
)

// Table is an ordered set of named columns over rows in source order.
// A Table is never mutated after construction; every transformation returns
// a new Table.
type Table struct {
	columns []string
	index   map[string]int
	rows    [][]string
}

// New builds a Table. Rows shorter than the header are padded with empty
// cells; rows longer than the header are truncated.
func New(columns []string, rows [][]string) *Table {
	t := &Table{
		columns: slices.Clone(columns),
		index:   buildIndex(columns),
		rows:    make([][]string, len(rows)),
	}
	for i, r := range rows {
		row := make([]string, len(columns))
		copy(row, r)
		t.rows[i] = row
	}
	return t
}

// Columns returns the column names in order.
func (t *Table) Columns() []string {
	return slices.Clone(t.columns)
}

// NumRows returns the number of data rows.
func (t *Table) NumRows() int { return len(t.rows) }

// NumCols returns the number of columns.
func (t *Table) NumCols() int { return len(t.columns) }

// HasColumn reports whether name is a column of t.
func (t *Table) HasColumn(name string) bool {
	_, ok := t.index[name]
	return ok
}

// ColumnIndex returns the position of name.
func (t *Table) ColumnIndex(name string) (int, bool) {
	i, ok := t.index[name]
	return i, ok
}

// Row returns a copy of row i.
func (t *Table) Row(i int) []string {
	return slices.Clone(t.rows[i])
}

// Rows returns a copy of all rows.
func (t *Table) Rows() [][]string {
	out := make([][]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = slices.Clone(r)
	}
	return out
}

// Column returns the cells of column name in row order.
func (t *Table) Column(name string) ([]string, bool) {
	ci, ok := t.index[name]
	if !ok {
		return nil, false
	}
	out := make([]string, len(t.rows))
	for i, r := range t.rows {
		out[i] = r[ci]
	}
	return out, true
}

// Cell returns the value at row i of column name.
func (t *Table) Cell(i int, name string) (string, bool) {
	ci, ok := t.index[name]
	if !ok || i < 0 || i >= len(t.rows) {
		return "", false
	}
	return t.rows[i][ci], true
}

// Select projects t onto cols, in the given order.
func (t *Table) Select(cols ...string) (*Table, error) {
	idx := make([]int, len(cols))
	for i, c := range cols {
		ci, ok := t.index[c]
		if !ok {
			return nil, fmt.Errorf("column %q not found", c)
		}
		idx[i] = ci
	}

	rows := make([][]string, len(t.rows))
	for ri, r := range t.rows {
		row := make([]string, len(idx))
		for i, ci := range idx {
			row[i] = r[ci]
		}
		rows[ri] = row
	}
	return &Table{columns: slices.Clone(cols), index: buildIndex(cols), rows: rows}, nil
}

// Filter returns the rows for which keep returns true. keep receives the row
// by reference and must not modify it.
func (t *Table) Filter(keep func(row []string) bool) *Table {
	var rows [][]string
	for _, r := range t.rows {
		if keep(r) {
			rows = append(rows, r)
		}
	}
	return &Table{columns: t.columns, index: t.index, rows: rows}
}

// Head returns at most the first n rows.
func (t *Table) Head(n int) *Table {
	if n < 0 || n >= len(t.rows) {
		return t
	}
	return &Table{columns: t.columns, index: t.index, rows: t.rows[:n]}
}

// Unique returns the distinct non-missing values of column name in
// first-occurrence order.
func (t *Table) Unique(name string) ([]string, bool) {
	ci, ok := t.index[name]
	if !ok {
		return nil, false
	}
	seen := make(map[string]struct{})
	var out []string
	for _, r := range t.rows {
		v := r[ci]
		if IsMissing(v) {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out, true
}

// Equal reports whether a and b have the same columns and cells.
func Equal(a, b *Table) bool {
	if !slices.Equal(a.columns, b.columns) || len(a.rows) != len(b.rows) {
		return false
	}
	for i := range a.rows {
		if !slices.Equal(a.rows[i], b.rows[i]) {
			return false
		}
	}
	return true
}

func buildIndex(cols []string) map[string]int {
	m := make(map[string]int, len(cols))
	for i, c := range cols {
		if _, dup := m[c]; !dup {
			m[c] = i
		}
	}
	return m
}

// missingTokens are the spellings of "no value" found in spreadsheet and
// dataframe exports.
var missingTokens = map[string]struct{}{
	"": {}, "#N/A": {}, "#N/A N/A": {}, "#NA": {}, "-1.#IND": {}, "-1.#QNAN": {},
	"-NaN": {}, "-nan": {}, "1.#IND": {}, "1.#QNAN": {}, "<NA>": {}, "N/A": {},
	"NA": {}, "NULL": {}, "NaN": {}, "None": {}, "n/a": {}, "nan": {}, "null": {},
}

// IsMissing reports whether a raw cell denotes a missing value.
func IsMissing(cell string) bool {
	_, ok := missingTokens[cell]
	return ok
}
