// Package explorer implements the generic table explorer: column
// selection, up to three column filters, a preview row limit and CSV export
// of the filtered view.
package explorer

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/table"
)

const (
	// MaxFilters is the number of filter slots.
	MaxFilters = 3
	// ValueSetLimit is the largest number of distinct values offered as a
	// pick list; wider columns are filtered by substring.
	ValueSetLimit = 50
	// DefaultColumns is how many leading columns are selected initially.
	DefaultColumns = 10
	// DefaultRowLimit is the initial preview size.
	DefaultRowLimit = 100
)

// ErrUnknownColumn is returned when a state names a column the dataset
// does not have.
var ErrUnknownColumn = errors.New("unknown column")

// ErrInvalidFilter is returned when a filter does not fit its column: values
// on a column filtered by text, text on a column offered as a value list, or
// a value outside that list.
var ErrInvalidFilter = errors.New("invalid filter")

// Mode is how a filter matches cells.
type Mode int

const (
	// ModeValues keeps rows whose cell is one of a chosen set.
	ModeValues Mode = iota
	// ModeText keeps rows whose cell contains a substring, ignoring case.
	ModeText
)

func (m Mode) String() string {
	if m == ModeText {
		return "text"
	}
	return "values"
}

// Filter restricts rows by one column. Values takes precedence over Text.
// A filter with no column, or with neither values nor text, is inactive.
type Filter struct {
	Column string   `json:"column"`
	Values []string `json:"values,omitempty"`
	Text   string   `json:"text,omitempty"`
}

// Active reports whether the filter removes anything.
func (f Filter) Active() bool {
	return f.Column != "" && (len(f.Values) > 0 || f.Text != "")
}

// String renders f in the form ParseFilter accepts.
func (f Filter) String() string {
	if len(f.Values) > 0 {
		return f.Column + ":" + strings.Join(f.Values, "|")
	}
	return f.Column + "~" + f.Text
}

func (f Filter) matcher() func(string) bool {
	if len(f.Values) > 0 {
		set := make(map[string]struct{}, len(f.Values))
		for _, v := range f.Values {
			set[v] = struct{}{}
		}
		return func(cell string) bool {
			if table.IsMissing(cell) {
				return false
			}
			_, ok := set[cell]
			return ok
		}
	}
	needle := strings.ToLower(f.Text)
	return func(cell string) bool {
		return strings.Contains(strings.ToLower(cell), needle)
	}
}

// State is the explorer's selection for one product.
type State struct {
	ProductID string             `json:"product_id"`
	Columns   []string           `json:"columns"`
	Filters   [MaxFilters]Filter `json:"filters"`
	RowLimit  int                `json:"row_limit"`
}

// NewState selects the first DefaultColumns columns of d, no filters and
// the default row limit.
func NewState(d *dataset.Dataset) State {
	cols := d.Table.Columns()
	if len(cols) > DefaultColumns {
		cols = cols[:DefaultColumns]
	}
	return State{ProductID: d.ProductID, Columns: cols, RowLimit: DefaultRowLimit}
}

// FilterMode picks the filter mode for col of t: ModeValues with the sorted
// distinct non-missing values when there are at most ValueSetLimit of them,
// ModeText otherwise. Pass the rows left by earlier filters, see Narrowed.
func FilterMode(t *table.Table, col string) (Mode, []string, error) {
	values, ok := t.Unique(col)
	if !ok {
		return ModeText, nil, fmt.Errorf("%w: %s", ErrUnknownColumn, col)
	}
	if len(values) > ValueSetLimit {
		return ModeText, nil, nil
	}
	slices.Sort(values)
	return ModeValues, values, nil
}

// Narrowed returns the rows of d left by the active filters in the slots
// before slot. The choices for a filter in slot come from this table.
func Narrowed(d *dataset.Dataset, s State, slot int) (*table.Table, error) {
	slot = min(max(slot, 0), MaxFilters)
	return filterRows(d.Table, s.Filters[:slot])
}

// CheckFilters verifies every active filter against the mode its column has
// in the rows left by the filters before it.
func CheckFilters(d *dataset.Dataset, s State) error {
	t := d.Table
	for i, f := range s.Filters {
		if !f.Active() {
			continue
		}
		mode, values, err := FilterMode(t, f.Column)
		if err != nil {
			return err
		}
		switch {
		case mode == ModeText && len(f.Values) > 0:
			return fmt.Errorf("%w: %s has more than %d values, use %s~text",
				ErrInvalidFilter, f.Column, ValueSetLimit, f.Column)
		case mode == ModeValues && len(f.Values) == 0:
			return fmt.Errorf("%w: %s has %d values, use %s:value",
				ErrInvalidFilter, f.Column, len(values), f.Column)
		case mode == ModeValues:
			for _, v := range f.Values {
				if _, found := slices.BinarySearch(values, v); !found {
					return fmt.Errorf("%w: %q is not a value of %s", ErrInvalidFilter, v, f.Column)
				}
			}
		}
		if t, err = filterRows(t, s.Filters[i:i+1]); err != nil {
			return err
		}
	}
	return nil
}

func filterRows(t *table.Table, filters []Filter) (*table.Table, error) {
	for _, f := range filters {
		if !f.Active() {
			continue
		}
		idx, ok := t.ColumnIndex(f.Column)
		if !ok {
			return nil, fmt.Errorf("%w: filter on %s", ErrUnknownColumn, f.Column)
		}
		match := f.matcher()
		t = t.Filter(func(row []string) bool { return match(row[idx]) })
	}
	return t, nil
}

// DistinctColumns drops repeated names from cols, keeping the first.
func DistinctColumns(cols []string) []string {
	seen := make(map[string]struct{}, len(cols))
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if _, dup := seen[c]; dup {
			continue
		}
		seen[c] = struct{}{}
		out = append(out, c)
	}
	return out
}

// Apply filters every row of d through the active filters, then projects
// the selected columns. An empty selection keeps all columns and a column
// selected twice appears once. RowLimit is not applied; see Preview.
func Apply(d *dataset.Dataset, s State) (*table.Table, error) {
	t, err := filterRows(d.Table, s.Filters[:])
	if err != nil {
		return nil, err
	}

	if len(s.Columns) == 0 {
		return t, nil
	}
	view, err := t.Select(DistinctColumns(s.Columns)...)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnknownColumn, err)
	}
	log.Debug(log.CatExport, "applied explorer state",
		"product", d.ProductID, "rows", view.NumRows(), "of", d.RowCount)
	return view, nil
}

// Preview returns at most limit rows of view; limit <= 0 means
// DefaultRowLimit.
func Preview(view *table.Table, limit int) *table.Table {
	if limit <= 0 {
		limit = DefaultRowLimit
	}
	return view.Head(limit)
}

// Export writes view as UTF-8 CSV with a header row.
func Export(w io.Writer, view *table.Table) error {
	if err := view.WriteCSV(w); err != nil {
		return fmt.Errorf("export csv: %w", err)
	}
	log.Info(log.CatExport, "exported view", "rows", view.NumRows(), "columns", view.NumCols())
	return nil
}

// ExportName is the default download name for a product's filtered view.
func ExportName(productID string) string {
	return productID + "_filtered.csv"
}

// ParseFilter parses the query form of a filter. "col:a|b" matches any of
// the listed values; "col~text" matches a substring.
func ParseFilter(expr string) (Filter, error) {
	if col, text, ok := strings.Cut(expr, "~"); ok && col != "" && !strings.Contains(col, ":") {
		return Filter{Column: col, Text: text}, nil
	}
	col, vals, ok := strings.Cut(expr, ":")
	if !ok || col == "" {
		return Filter{}, fmt.Errorf("invalid filter %q: want column:value or column~text", expr)
	}
	return Filter{Column: col, Values: strings.Split(vals, "|")}, nil
}

// WithFilters returns s with filters parsed from specs filling the slots in
// order.
func WithFilters(s State, specs []string) (State, error) {
	if len(specs) > MaxFilters {
		return s, fmt.Errorf("at most %d filters, got %d", MaxFilters, len(specs))
	}
	for i, expr := range specs {
		f, err := ParseFilter(expr)
		if err != nil {
			return s, err
		}
		s.Filters[i] = f
	}
	return s, nil
}

// FreeSlot returns the first slot without an active filter, or -1.
func (s State) FreeSlot() int {
	for i := range s.Filters {
		if !s.Filters[i].Active() {
			return i
		}
	}
	return -1
}

// AddFilter places f in the first free slot of s.
func (s State) AddFilter(f Filter) (State, error) {
	i := s.FreeSlot()
	if i < 0 {
		return s, fmt.Errorf("at most %d filters", MaxFilters)
	}
	s.Filters[i] = f
	return s, nil
}

// ActiveFilters returns the filters in use, in slot order.
func (s State) ActiveFilters() []Filter {
	var out []Filter
	for _, f := range s.Filters {
		if f.Active() {
			out = append(out, f)
		}
	}
	return out
}
