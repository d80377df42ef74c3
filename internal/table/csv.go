package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// ErrNoHeader is returned by Read when the input has no header row.
var ErrNoHeader = errors.New("no columns to parse from file")

// RowError reports a record with more fields than the header declares.
type RowError struct {
	Line     int
	Expected int
	Saw      int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("expected %d fields in line %d, saw %d", e.Expected, e.Line, e.Saw)
}

// Read parses comma-separated input into a Table. The first record is the
// header. A leading byte-order mark is removed. Short records are padded with
// empty cells, blank lines are skipped and duplicate header names are made
// unique by suffixing ".1", ".2", ...
func Read(r io.Reader) (*Table, error) {
	decoded := transform.NewReader(r, unicode.BOMOverride(unicode.UTF8.NewDecoder()))

	cr := csv.NewReader(decoded)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	columns := uniqueColumns(header)

	var rows [][]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading record: %w", err)
		}
		if len(rec) > len(columns) {
			line, _ := cr.FieldPos(0)
			return nil, &RowError{Line: line, Expected: len(columns), Saw: len(rec)}
		}
		rows = append(rows, rec)
	}

	return New(columns, rows), nil
}

// WriteCSV writes the header and every row of t as UTF-8 CSV. A row made of
// one empty field is written as "" so Read does not take it for a blank line.
func (t *Table) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.columns); err != nil {
		return fmt.Errorf("writing header: %w", err)
	}
	for _, row := range t.rows {
		if len(row) == 1 && row[0] == "" {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return fmt.Errorf("writing rows: %w", err)
			}
			if _, err := io.WriteString(w, "\"\"\n"); err != nil {
				return fmt.Errorf("writing rows: %w", err)
			}
			continue
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing rows: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("writing rows: %w", err)
	}
	return nil
}

func uniqueColumns(header []string) []string {
	out := make([]string, len(header))
	counts := make(map[string]int, len(header))
	taken := make(map[string]bool, len(header))

	for i, h := range header {
		if h == "" {
			h = "Unnamed: " + strconv.Itoa(i)
		}
		name := h
		for taken[name] {
			counts[h]++
			name = h + "." + strconv.Itoa(counts[h])
		}
		taken[name] = true
		out[i] = name
	}
	return out
}
