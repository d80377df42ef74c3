package explorer

import (
	"bytes"
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/table"
)

func fixture(t *testing.T) *dataset.Dataset {
	t.Helper()
	body := "Name,Gender,City,Score\n" +
		"Amal,F,Dubai,90\n" +
		"Omar,M,Abu Dhabi,75\n" +
		"Sara,F,Sharjah,\n" +
		"Ali,M,dubai marina,60\n"
	d, err := loader.New(catalog.Default()).LoadOne("CHEDS-LT-03_x.csv", strings.NewReader(body))
	require.NoError(t, err)
	return d
}

func TestNewState_DefaultsToFirstTenColumns(t *testing.T) {
	header := make([]string, 14)
	for i := range header {
		header[i] = fmt.Sprintf("c%d", i)
	}
	d := dataset.New("P-1_x.csv", table.New(header, nil), nil, dataset.SourceDirectory)

	s := NewState(d)
	assert.Equal(t, "P-1", s.ProductID)
	assert.Equal(t, header[:10], s.Columns)
	assert.Equal(t, DefaultRowLimit, s.RowLimit)
	for _, f := range s.Filters {
		assert.False(t, f.Active())
	}
}

func TestApply_ValueFilter(t *testing.T) {
	d := fixture(t)
	s := State{Columns: []string{"Name", "Score"}}
	s.Filters[0] = Filter{Column: "Gender", Values: []string{"F"}}

	view, err := Apply(d, s)
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "Score"}, view.Columns())
	assert.Equal(t, [][]string{{"Amal", "90"}, {"Sara", ""}}, view.Rows())
}

func TestApply_TextFilterIgnoresCase(t *testing.T) {
	d := fixture(t)
	var s State
	s.Filters[1] = Filter{Column: "City", Text: "DUBAI"}

	view, err := Apply(d, s)
	require.NoError(t, err)
	assert.Equal(t, 2, view.NumRows())
	assert.Equal(t, 4, view.NumCols(), "empty selection keeps every column")
}

func TestApply_FiltersCombine(t *testing.T) {
	d := fixture(t)
	s := State{Columns: []string{"Name"}}
	s.Filters[0] = Filter{Column: "Gender", Values: []string{"M"}}
	s.Filters[2] = Filter{Column: "City", Text: "dubai"}

	view, err := Apply(d, s)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Ali"}}, view.Rows())
}

func TestApply_UnknownColumns(t *testing.T) {
	d := fixture(t)

	_, err := Apply(d, State{Columns: []string{"Nope"}})
	require.ErrorIs(t, err, ErrUnknownColumn)

	var s State
	s.Filters[0] = Filter{Column: "Nope", Text: "x"}
	_, err = Apply(d, s)
	require.ErrorIs(t, err, ErrUnknownColumn)
}

func TestApply_DoesNotMutateDataset(t *testing.T) {
	d := fixture(t)
	before := d.Table.Rows()

	s := State{Columns: []string{"City"}}
	s.Filters[0] = Filter{Column: "Gender", Values: []string{"M"}}
	_, err := Apply(d, s)
	require.NoError(t, err)

	assert.Equal(t, before, d.Table.Rows())
	assert.Equal(t, 4, d.RowCount)
	require.NoError(t, d.Validate())
}

func TestFilterMode(t *testing.T) {
	d := fixture(t)

	mode, values, err := FilterMode(d.Table, "Gender")
	require.NoError(t, err)
	assert.Equal(t, ModeValues, mode)
	assert.Equal(t, []string{"F", "M"}, values)

	mode, values, err = FilterMode(d.Table, "Score")
	require.NoError(t, err)
	assert.Equal(t, ModeValues, mode)
	assert.Equal(t, []string{"60", "75", "90"}, values, "missing cells are not offered")

	rows := make([][]string, ValueSetLimit+1)
	for i := range rows {
		rows[i] = []string{fmt.Sprintf("v%d", i)}
	}
	wide := table.New([]string{"v"}, rows)
	mode, values, err = FilterMode(wide, "v")
	require.NoError(t, err)
	assert.Equal(t, ModeText, mode)
	assert.Nil(t, values)

	mode, _, err = FilterMode(wide.Head(ValueSetLimit), "v")
	require.NoError(t, err)
	assert.Equal(t, ModeValues, mode, "exactly the limit is still a value list")

	_, _, err = FilterMode(d.Table, "Nope")
	require.ErrorIs(t, err, ErrUnknownColumn)
}

// wideDataset has a Region column with two values and a Code column with
// ValueSetLimit+10 values, of which only ten fall in region "north".
func wideDataset() *dataset.Dataset {
	var rows [][]string
	for i := range ValueSetLimit + 10 {
		region := "south"
		if i < 10 {
			region = "north"
		}
		rows = append(rows, []string{region, fmt.Sprintf("c%02d", i)})
	}
	return dataset.New("P-2_codes.csv", table.New([]string{"Region", "Code"}, rows), nil, dataset.SourceDirectory)
}

func TestFilterMode_FollowsEarlierFilters(t *testing.T) {
	d := wideDataset()
	var s State

	first, err := Narrowed(d, s, 0)
	require.NoError(t, err)
	mode, _, err := FilterMode(first, "Code")
	require.NoError(t, err)
	assert.Equal(t, ModeText, mode, "all codes are too many to list")

	s.Filters[0] = Filter{Column: "Region", Values: []string{"north"}}
	second, err := Narrowed(d, s, 1)
	require.NoError(t, err)
	assert.Equal(t, 10, second.NumRows())
	mode, values, err := FilterMode(second, "Code")
	require.NoError(t, err)
	assert.Equal(t, ModeValues, mode)
	assert.Len(t, values, 10)
	assert.Equal(t, "c00", values[0])

	s.Filters[1] = Filter{Column: "Code", Values: []string{"c03"}}
	third, err := Narrowed(d, s, 2)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"north", "c03"}}, third.Rows())
}

func TestCheckFilters(t *testing.T) {
	d := wideDataset()

	tests := []struct {
		name    string
		filters []string
		wantErr bool
	}{
		{"value from the list", []string{"Region:north"}, false},
		{"value outside the list", []string{"Region:east"}, true},
		{"text on a listed column", []string{"Region~nor"}, true},
		{"values on a wide column", []string{"Code:c01"}, true},
		{"text on a wide column", []string{"Code~c0"}, false},
		{"narrowed column becomes a list", []string{"Region:north", "Code:c01"}, false},
		{"value removed by an earlier filter", []string{"Region:north", "Code:c55"}, true},
		{"text after narrowing", []string{"Region:north", "Code~c0"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := WithFilters(State{}, tt.filters)
			require.NoError(t, err)
			err = CheckFilters(d, s)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidFilter)
				return
			}
			require.NoError(t, err)
		})
	}

	s, err := WithFilters(State{}, []string{"Nope:1"})
	require.NoError(t, err)
	require.ErrorIs(t, CheckFilters(d, s), ErrUnknownColumn)
}

func TestApply_RepeatedColumnAppearsOnce(t *testing.T) {
	d := fixture(t)

	view, err := Apply(d, State{Columns: []string{"Name", "City", "Name"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"Name", "City"}, view.Columns())
	assert.Equal(t, []string{"Amal", "Dubai"}, view.Row(0))
}

func TestDistinctColumns(t *testing.T) {
	assert.Equal(t, []string{"A", "B"}, DistinctColumns([]string{"A", "B", "A", "B"}))
	assert.Empty(t, DistinctColumns(nil))
}

func TestPreview(t *testing.T) {
	d := fixture(t)
	assert.Equal(t, 2, Preview(d.Table, 2).NumRows())
	assert.Equal(t, 4, Preview(d.Table, 0).NumRows())
}

func TestExport_RoundTripsThroughLoader(t *testing.T) {
	d := fixture(t)
	s := State{Columns: []string{"Name", "City"}}
	s.Filters[0] = Filter{Column: "Gender", Values: []string{"F", "M"}}

	view, err := Apply(d, s)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, view))

	back, err := loader.New(catalog.Default()).LoadOne(ExportName(d.ProductID), &buf)
	require.NoError(t, err)
	assert.Equal(t, "CHEDS-LT-03", back.ProductID)
	if diff := cmp.Diff(view.Rows(), back.Table.Rows()); diff != "" {
		t.Errorf("round trip mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, view.Columns(), back.Table.Columns())
}

func TestExport_SingleColumnWithEmptyCells(t *testing.T) {
	d, err := loader.New(catalog.Default()).LoadOne("CHEDS-HR-21_x.csv",
		strings.NewReader("Name,Score\nA,1\n,2\nC,3\n"))
	require.NoError(t, err)

	view, err := Apply(d, State{Columns: []string{"Name"}})
	require.NoError(t, err)
	require.Equal(t, 3, view.NumRows())

	var buf bytes.Buffer
	require.NoError(t, Export(&buf, view))
	back, err := loader.New(catalog.Default()).LoadOne(ExportName(d.ProductID), &buf)
	require.NoError(t, err)
	assert.True(t, table.Equal(view, back.Table), "got %v", back.Table.Rows())
}

func TestExport_RoundTripProperty(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		cols := rapid.IntRange(1, 5).Draw(t, "cols")
		header := make([]string, cols)
		for i := range header {
			header[i] = fmt.Sprintf("h%d", i)
		}
		cell := rapid.OneOf(
			rapid.StringMatching(`[a-zA-Z0-9 ,"]{0,8}`),
			rapid.SampledFrom([]string{"", "NA", "nan", "N/A", "NULL"}),
		)
		rows := rapid.SliceOfN(rapid.SliceOfN(cell, cols, cols), 0, 10).Draw(t, "rows")

		view := table.New(header, rows)
		var buf bytes.Buffer
		if err := Export(&buf, view); err != nil {
			t.Fatal(err)
		}
		back, err := loader.New(catalog.Default()).LoadOne("P-9_filtered.csv", &buf)
		if err != nil {
			t.Fatal(err)
		}
		if !table.Equal(view, back.Table) {
			t.Fatalf("round trip changed table: %v vs %v", view.Rows(), back.Table.Rows())
		}
	})
}

func TestParseFilter(t *testing.T) {
	tests := []struct {
		expr    string
		want    Filter
		wantErr bool
	}{
		{"Gender:F", Filter{Column: "Gender", Values: []string{"F"}}, false},
		{"Gender:F|M", Filter{Column: "Gender", Values: []string{"F", "M"}}, false},
		{"City~dub", Filter{Column: "City", Text: "dub"}, false},
		{"Time:10~12", Filter{Column: "Time", Values: []string{"10~12"}}, false},
		{"nothing", Filter{}, true},
		{":x", Filter{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ParseFilter(tt.expr)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestWithFilters(t *testing.T) {
	s, err := WithFilters(State{}, []string{"A:1", "B~x"})
	require.NoError(t, err)
	assert.True(t, s.Filters[0].Active())
	assert.True(t, s.Filters[1].Active())
	assert.False(t, s.Filters[2].Active())

	_, err = WithFilters(State{}, []string{"A:1", "A:2", "A:3", "A:4"})
	require.Error(t, err)
}

func TestFilterString_ParsesBack(t *testing.T) {
	for _, expr := range []string{"Gender:F", "City:Dubai|Sharjah", "Name~al"} {
		f, err := ParseFilter(expr)
		require.NoError(t, err)
		assert.Equal(t, expr, f.String())
	}
}

func TestAddFilter_FillsFreeSlots(t *testing.T) {
	s := State{}
	for i := range MaxFilters {
		var err error
		s, err = s.AddFilter(Filter{Column: "A", Values: []string{fmt.Sprint(i)}})
		require.NoError(t, err)
	}
	require.Len(t, s.ActiveFilters(), MaxFilters)

	_, err := s.AddFilter(Filter{Column: "A", Text: "x"})
	require.Error(t, err)

	s.Filters[1] = Filter{}
	s, err = s.AddFilter(Filter{Column: "B", Text: "x"})
	require.NoError(t, err)
	assert.Equal(t, "B", s.Filters[1].Column)
}
