package table

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func mustRead(t *testing.T, s string) *Table {
	t.Helper()
	tbl, err := Read(strings.NewReader(s))
	require.NoError(t, err)
	return tbl
}

func TestRead_Basic(t *testing.T) {
	tbl := mustRead(t, "a,b,c\n1,2,3\n4,5,6\n")

	require.Equal(t, []string{"a", "b", "c"}, tbl.Columns())
	require.Equal(t, 2, tbl.NumRows())
	require.Equal(t, 3, tbl.NumCols())

	col, ok := tbl.Column("b")
	require.True(t, ok)
	require.Equal(t, []string{"2", "5"}, col)
}

func TestRead_StripsBOM(t *testing.T) {
	tbl := mustRead(t, "\ufeffInstitution,Count\nA,1\n")

	require.True(t, tbl.HasColumn("Institution"))
	require.False(t, tbl.HasColumn("\ufeffInstitution"))
}

func TestRead_PadsShortRowsAndSkipsBlankLines(t *testing.T) {
	tbl := mustRead(t, "a,b,c\n1\n\n4,5,6\n")

	require.Equal(t, 2, tbl.NumRows())
	require.Equal(t, []string{"1", "", ""}, tbl.Row(0))
}

func TestRead_LongRowIsError(t *testing.T) {
	_, err := Read(strings.NewReader("a,b\n1,2\n1,2,3\n"))

	var rowErr *RowError
	require.True(t, errors.As(err, &rowErr))
	require.Equal(t, 2, rowErr.Expected)
	require.Equal(t, 3, rowErr.Saw)
	require.Equal(t, 3, rowErr.Line)
}

func TestRead_EmptyInput(t *testing.T) {
	_, err := Read(strings.NewReader(""))
	require.ErrorIs(t, err, ErrNoHeader)
}

func TestRead_HeaderOnly(t *testing.T) {
	tbl := mustRead(t, "a,b\n")
	require.Equal(t, 0, tbl.NumRows())
	require.Equal(t, 2, tbl.NumCols())
}

func TestRead_DuplicateAndEmptyHeaders(t *testing.T) {
	tbl := mustRead(t, "A,A,,A.1,A\n1,2,3,4,5\n")

	require.Equal(t, []string{"A", "A.1", "Unnamed: 2", "A.1.1", "A.2"}, tbl.Columns())
}

func TestSelectFilterHead(t *testing.T) {
	tbl := mustRead(t, "id,name,score\n1,x,10\n2,y,20\n3,x,30\n")

	sel, err := tbl.Select("score", "name")
	require.NoError(t, err)
	require.Equal(t, []string{"score", "name"}, sel.Columns())
	require.Equal(t, []string{"10", "x"}, sel.Row(0))

	_, err = tbl.Select("nope")
	require.Error(t, err)

	ni, _ := tbl.ColumnIndex("name")
	onlyX := tbl.Filter(func(row []string) bool { return row[ni] == "x" })
	require.Equal(t, 2, onlyX.NumRows())
	require.Equal(t, 3, tbl.NumRows())

	require.Equal(t, 1, tbl.Head(1).NumRows())
	require.Equal(t, 3, tbl.Head(10).NumRows())
}

func TestUnique_SkipsMissing(t *testing.T) {
	tbl := mustRead(t, "g\nb\nNA\na\nb\n\nnull\na\n")

	u, ok := tbl.Unique("g")
	require.True(t, ok)
	require.Equal(t, []string{"b", "a"}, u)

	_, ok = tbl.Unique("missing")
	require.False(t, ok)
}

func TestIsMissing(t *testing.T) {
	for _, s := range []string{"", "NA", "N/A", "NaN", "nan", "null", "NULL", "None", "#N/A", "<NA>"} {
		require.True(t, IsMissing(s), s)
	}
	for _, s := range []string{"0", " ", "none", "No", "-"} {
		require.False(t, IsMissing(s), s)
	}
}

func TestWriteCSV_QuotesAndRoundTrip(t *testing.T) {
	src := New([]string{"name", "note"}, [][]string{
		{"Zayed University", "has, comma"},
		{"\"Quoted\"", "line\nbreak"},
		{"", "x"},
	})

	var buf bytes.Buffer
	require.NoError(t, src.WriteCSV(&buf))

	back, err := Read(&buf)
	require.NoError(t, err)
	if diff := cmp.Diff(src.Rows(), back.Rows()); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
	require.Equal(t, src.Columns(), back.Columns())
}

func TestWriteCSV_SingleColumnKeepsEmptyCells(t *testing.T) {
	src := New([]string{"Name"}, [][]string{{"A"}, {""}, {"C"}, {""}})

	var buf bytes.Buffer
	require.NoError(t, src.WriteCSV(&buf))
	require.Equal(t, "Name\nA\n\"\"\nC\n\"\"\n", buf.String())

	back, err := Read(&buf)
	require.NoError(t, err)
	require.True(t, Equal(src, back), "got %v", back.Rows())
}

func TestWriteCSV_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		ncols := rapid.IntRange(1, 5).Draw(t, "ncols")
		cols := make([]string, ncols)
		for i := range cols {
			cols[i] = "c" + strings.Repeat("x", i)
		}
		cell := rapid.SampledFrom([]string{"a", "b,c", "12.5", "", "NA", "\"q\"", "é", "x y"})
		nrows := rapid.IntRange(0, 20).Draw(t, "nrows")
		rows := make([][]string, nrows)
		for r := range rows {
			rows[r] = make([]string, ncols)
			for c := range rows[r] {
				rows[r][c] = cell.Draw(t, "cell")
			}
		}
		src := New(cols, rows)

		var buf bytes.Buffer
		if err := src.WriteCSV(&buf); err != nil {
			t.Fatalf("write: %v", err)
		}
		back, err := Read(&buf)
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if !Equal(src, back) {
			t.Fatalf("round trip mismatch:\n%v\n%v", src.Rows(), back.Rows())
		}
	})
}
