// Package dataset defines the loaded data product record.
package dataset

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/table"
)

// Source records how a dataset entered the session.
type Source string

const (
	SourceDirectory Source = "directory"
	SourceUpload    Source = "upload"
)

// Dataset is one loaded data product.
type Dataset struct {
	ProductID   string
	Filename    string
	Table       *table.Table
	RowCount    int
	ColumnCount int
	// Fields maps logical field names to the column resolved for this file.
	Fields   map[string]string
	LoadedAt time.Time
	Source   Source
}

// New wraps a parsed table. Dimensions are captured once and field aliases
// resolved against the table's columns.
func New(filename string, tbl *table.Table, aliases catalog.Aliases, src Source) *Dataset {
	return &Dataset{
		ProductID:   ProductID(filename),
		Filename:    filepath.Base(filename),
		Table:       tbl,
		RowCount:    tbl.NumRows(),
		ColumnCount: tbl.NumCols(),
		Fields:      Resolve(tbl, aliases),
		LoadedAt:    time.Now(),
		Source:      src,
	}
}

// ProductID derives the product identifier from a file name: the stem up to
// the first underscore, or the whole stem when it has none.
//
//	CHEDS-LT-01_applicants.csv -> CHEDS-LT-01
func ProductID(filename string) string {
	base := filepath.Base(filename)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	id, _, _ := strings.Cut(stem, "_")
	return id
}

// Resolve picks, for each logical field, the first candidate column present
// in tbl. Fields with no matching column are left out.
func Resolve(tbl *table.Table, aliases catalog.Aliases) map[string]string {
	fields := make(map[string]string, len(aliases))
	for field, candidates := range aliases {
		for _, c := range candidates {
			if tbl.HasColumn(c) {
				fields[field] = c
				break
			}
		}
	}
	return fields
}

// Field returns the column resolved for a logical field.
func (d *Dataset) Field(name string) (string, bool) {
	col, ok := d.Fields[name]
	return col, ok
}

// Column returns the column resolved for field if the alias table declares
// one, otherwise name itself when the table has such a column.
func (d *Dataset) Column(name string) (string, bool) {
	if col, ok := d.Fields[name]; ok {
		return col, true
	}
	if d.Table.HasColumn(name) {
		return name, true
	}
	return "", false
}

// Validate checks that the cached dimensions still match the table.
func (d *Dataset) Validate() error {
	if d.Table == nil {
		return fmt.Errorf("dataset %s: no table", d.ProductID)
	}
	if d.RowCount != d.Table.NumRows() || d.ColumnCount != d.Table.NumCols() {
		return fmt.Errorf("dataset %s: cached %dx%d, table %dx%d",
			d.ProductID, d.RowCount, d.ColumnCount, d.Table.NumRows(), d.Table.NumCols())
	}
	return nil
}
