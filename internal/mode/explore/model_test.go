package explore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/mode"
	"github.com/zjrosen/cheds/internal/registry"
)

const employees = "Emp_Gender,Emp_Position,Emp_Institution_Name\nM,Professor,U1\nF,Lecturer,U2\nF,Professor,U1\n"

func load(t *testing.T, files ...string) []*dataset.Dataset {
	t.Helper()
	l := loader.New(catalog.Default())
	var out []*dataset.Dataset
	for i := 0; i < len(files); i += 2 {
		d, err := l.LoadOne(files[i], strings.NewReader(files[i+1]))
		require.NoError(t, err)
		out = append(out, d)
	}
	return out
}

func newModel(t *testing.T) (Model, *registry.Registry) {
	t.Helper()
	reg := registry.New(nil)
	t.Cleanup(reg.Close)
	reg.ReplaceAll(load(t,
		"CHEDS-HR-21_employees.csv", employees,
		"CHEDS-RES-27_publications.csv", "Pub_Title,Pub_Year\nA,2021\nB,2022\n",
	))
	m := New(mode.Services{Catalog: catalog.Default(), Registry: reg, ExportDir: t.TempDir()})
	return m.SetSize(120, 30).(Model), reg
}

func send(t *testing.T, m Model, msgs ...tea.Msg) (Model, []tea.Msg) {
	t.Helper()
	var out []tea.Msg
	for _, msg := range msgs {
		c, cmd := m.Update(msg)
		m = c.(Model)
		if cmd != nil {
			if got := cmd(); got != nil {
				out = append(out, got)
			}
		}
	}
	return m, out
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

var enter = tea.KeyMsg{Type: tea.KeyEnter}

func TestNew_SelectsFirstProduct(t *testing.T) {
	m, _ := newModel(t)

	out := ansi.Strip(m.View())
	assert.Contains(t, out, "Data Explorer · CHEDS-HR-21")
	assert.Contains(t, out, "(1/2)")
	assert.Contains(t, out, "Showing 3 of 3 rows")
	assert.Contains(t, out, "Professor")
}

func TestNextProduct(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, ansi.Strip(m.View()), "CHEDS-RES-27")
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab})
	assert.Contains(t, ansi.Strip(m.View()), "CHEDS-HR-21")
}

func TestAddFilter(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(t, m, runes("/"))
	require.True(t, m.Capturing())

	m, msgs := send(t, m, runes("Emp_Gender"), enter)
	require.Empty(t, msgs)
	require.True(t, m.Capturing(), "asks for values next")
	assert.Equal(t, []string{"F", "M"}, m.choices)
	assert.Contains(t, ansi.Strip(m.View()), "Emp_Gender values: F | M")

	m, msgs = send(t, m, runes("F"), enter)
	require.Empty(t, msgs)
	require.False(t, m.Capturing())

	s := m.State()
	require.Len(t, s.ActiveFilters(), 1)
	assert.Equal(t, "Emp_Gender:F", s.ActiveFilters()[0].String())
	assert.Equal(t, 2, m.view.NumRows())
	assert.Contains(t, ansi.Strip(m.View()), "Filters: Emp_Gender:F")

	m, _ = send(t, m, runes("x"))
	assert.Empty(t, m.State().ActiveFilters())
	assert.Equal(t, 3, m.view.NumRows())
}

func TestAddFilter_ChoicesFollowEarlierFilters(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(t, m, runes("/"), runes("Emp_Position"), enter, runes("Lecturer"), enter)
	require.Len(t, m.State().ActiveFilters(), 1)

	m, _ = send(t, m, runes("/"), runes("Emp_Institution_Name"), enter)
	assert.Equal(t, []string{"U2"}, m.choices, "only values left by the first filter")

	m, msgs := send(t, m, runes("U1"), enter)
	require.Len(t, msgs, 1)
	st := msgs[0].(mode.StatusMsg)
	assert.True(t, st.Error)
	assert.Contains(t, st.Text, "U1")
	assert.Len(t, m.State().ActiveFilters(), 1)
}

func TestAddFilter_WideColumnUsesText(t *testing.T) {
	var b strings.Builder
	b.WriteString("Pub_Title,Pub_Year\n")
	for i := range explorer.ValueSetLimit + 1 {
		fmt.Fprintf(&b, "Title %d,2020\n", i)
	}
	reg := registry.New(nil)
	t.Cleanup(reg.Close)
	reg.ReplaceAll(load(t, "CHEDS-RES-27_publications.csv", b.String()))
	m := New(mode.Services{Catalog: catalog.Default(), Registry: reg}).SetSize(120, 30).(Model)

	m, _ = send(t, m, runes("/"), runes("Pub_Title"), enter)
	require.Equal(t, inputFilterText, m.inputFor)
	assert.Contains(t, ansi.Strip(m.View()), "Pub_Title has more than 50 values")

	m, _ = send(t, m, runes("TITLE 1"), enter)
	assert.Equal(t, "Pub_Title~TITLE 1", m.State().ActiveFilters()[0].String())
	assert.Equal(t, 11, m.view.NumRows(), "Title 1 and Title 10 to 19, ignoring case")
}

func TestAddFilter_AllSlotsTaken(t *testing.T) {
	m, _ := newModel(t)
	for _, col := range []string{"Emp_Gender", "Emp_Position", "Emp_Institution_Name"} {
		m, _ = send(t, m, runes("/"), runes(col), enter)
		m.input.SetValue(m.choices[0])
		m, _ = send(t, m, enter)
	}
	require.Len(t, m.State().ActiveFilters(), explorer.MaxFilters)

	m, msgs := send(t, m, runes("/"))
	assert.False(t, m.Capturing())
	require.Len(t, msgs, 1)
	assert.True(t, msgs[0].(mode.StatusMsg).Error)
}

func TestAddFilter_UnknownColumnReportsError(t *testing.T) {
	m, _ := newModel(t)

	m, msgs := send(t, m, runes("/"), runes("Nope"), enter)
	require.Len(t, msgs, 1)
	st, ok := msgs[0].(mode.StatusMsg)
	require.True(t, ok)
	assert.True(t, st.Error)
	assert.Contains(t, st.Text, "Nope")
	assert.False(t, m.Capturing())
	assert.Empty(t, m.State().ActiveFilters())
}

func TestCancelInput(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(t, m, runes("/"), runes("Emp_Gender"), enter, runes("M"), tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Capturing())
	assert.Empty(t, m.State().ActiveFilters())
}

func TestChooseColumns(t *testing.T) {
	m, _ := newModel(t)

	m, _ = send(t, m, runes("c"))
	m.input.SetValue("")
	m, _ = send(t, m, runes("Emp_Position, Emp_Gender, Emp_Position"), enter)
	assert.Equal(t, []string{"Emp_Position", "Emp_Gender"}, m.view.Columns())
	assert.Equal(t, []string{"Emp_Position", "Emp_Gender"}, m.State().Columns)

	m, _ = send(t, m, runes("c"))
	m.input.SetValue("")
	m, _ = send(t, m, enter)
	assert.Equal(t, []string{"Emp_Gender", "Emp_Position", "Emp_Institution_Name"}, m.view.Columns())
}

func TestMoreRows(t *testing.T) {
	m, _ := newModel(t)
	m, _ = send(t, m, runes("+"))
	assert.Equal(t, 2*explorer.DefaultRowLimit, m.State().RowLimit)
}

func TestExport_WritesLoadableCSV(t *testing.T) {
	m, _ := newModel(t)
	m, _ = send(t, m, runes("/"), runes("Emp_Position"), enter, runes("Professor"), enter)

	m, msgs := send(t, m, runes("s"))
	require.Len(t, msgs, 1)
	exported, ok := msgs[0].(ExportedMsg)
	require.True(t, ok)
	require.NoError(t, exported.Err)
	assert.Equal(t, 2, exported.Rows)
	assert.Equal(t, "CHEDS-HR-21_filtered.csv", filepath.Base(exported.Path))

	f, err := os.Open(exported.Path)
	require.NoError(t, err)
	defer f.Close()
	back, err := loader.New(catalog.Default()).LoadOne(filepath.Base(exported.Path), f)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"M", "Professor", "U1"}, {"F", "Professor", "U1"}}, back.Table.Rows())

	_, msgs = send(t, m, exported)
	require.Len(t, msgs, 1)
	assert.False(t, msgs[0].(mode.StatusMsg).Error)
}

func TestDataChanged_DropsRemovedProducts(t *testing.T) {
	m, reg := newModel(t)
	m, _ = send(t, m, tea.KeyMsg{Type: tea.KeyTab}, runes("/"), runes("Pub_Year"), enter, runes("2021"), enter)
	require.Len(t, m.State().ActiveFilters(), 1)

	reg.ReplaceAll(load(t, "CHEDS-RES-27_publications.csv", "Pub_Title,Pub_Year\nC,2023\n"))
	m, _ = send(t, m, mode.DataChangedMsg{Generation: reg.Generation()})

	assert.Equal(t, []string{"CHEDS-RES-27"}, m.products)
	assert.Equal(t, "CHEDS-RES-27", m.currentID())
	assert.Len(t, m.State().ActiveFilters(), 1, "state follows the product across reloads")
	assert.Equal(t, 0, m.view.NumRows())
}

func TestNoData(t *testing.T) {
	reg := registry.New(nil)
	t.Cleanup(reg.Close)
	m := New(mode.Services{Catalog: catalog.Default(), Registry: reg}).SetSize(80, 20).(Model)

	assert.Contains(t, ansi.Strip(m.View()), "No data loaded.")
	m, msgs := send(t, m, runes("/"))
	assert.False(t, m.Capturing())
	assert.Empty(t, msgs)
}
