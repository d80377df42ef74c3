// Package explore implements the table explorer mode: pick a loaded data
// product, choose columns, add up to three filters, preview the rows and
// export the filtered view as CSV.
package explore

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/cursor"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/explorer"
	"github.com/zjrosen/cheds/internal/keys"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/mode"
	"github.com/zjrosen/cheds/internal/table"
)

type inputKind int

const (
	inputNone inputKind = iota
	inputFilterColumn
	inputFilterValues
	inputFilterText
	inputColumns
)

// ExportedMsg reports a finished export.
type ExportedMsg struct {
	Path string
	Rows int
	Err  error
}

// Model holds the explorer mode state.
type Model struct {
	services mode.Services

	products []string
	index    int
	// state per product id, kept across product switches
	states map[string]explorer.State

	view    *table.Table
	preview *table.Table
	err     error

	input    textinput.Model
	inputFor inputKind

	// filter being built: its slot, column and, in value mode, the choices
	filterSlot   int
	filterColumn string
	choices      []string

	viewport viewport.Model
	width    int
	height   int
}

// New creates the explorer over the loaded datasets.
func New(services mode.Services) Model {
	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 512
	ti.Cursor.SetMode(cursor.CursorStatic)
	ti.ShowSuggestions = true

	m := Model{
		services: services,
		states:   map[string]explorer.State{},
		input:    ti,
		viewport: viewport.New(0, 0),
	}
	m.syncProducts()
	return m
}

// Init implements mode.Controller.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if m.inputFor != inputNone {
			return m.handleInputKey(msg)
		}
		return m.handleKey(msg)

	case tea.MouseMsg:
		switch msg.Button {
		case tea.MouseButtonWheelUp:
			m.viewport.ScrollUp(3)
		case tea.MouseButtonWheelDown:
			m.viewport.ScrollDown(3)
		}
		return m, nil

	case mode.DataChangedMsg:
		m.syncProducts()
		return m, nil

	case ExportedMsg:
		if msg.Err != nil {
			return m, status(fmt.Sprintf("export failed: %v", msg.Err), true)
		}
		return m, status(fmt.Sprintf("exported %d rows to %s", msg.Rows, msg.Path), false)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	if len(m.products) == 0 {
		return m, nil
	}
	switch {
	case key.Matches(msg, keys.Explorer.NextProduct):
		m.index = (m.index + 1) % len(m.products)
		m.recompute()
		m.viewport.GotoTop()
	case key.Matches(msg, keys.Explorer.PrevProduct):
		m.index = (m.index - 1 + len(m.products)) % len(m.products)
		m.recompute()
		m.viewport.GotoTop()
	case key.Matches(msg, keys.Explorer.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, keys.Explorer.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, keys.Explorer.AddFilter):
		slot := m.state().FreeSlot()
		if slot < 0 {
			return m, status(fmt.Sprintf("at most %d filters; press x to clear them", explorer.MaxFilters), true)
		}
		m.filterSlot = slot
		return m.openInput(inputFilterColumn, "")
	case key.Matches(msg, keys.Explorer.Columns):
		return m.openInput(inputColumns, strings.Join(m.state().Columns, ","))
	case key.Matches(msg, keys.Explorer.ClearFilters):
		s := m.state()
		s.Filters = [explorer.MaxFilters]explorer.Filter{}
		m.setState(s)
	case key.Matches(msg, keys.Explorer.MoreRows):
		s := m.state()
		s.RowLimit += explorer.DefaultRowLimit
		m.setState(s)
	case key.Matches(msg, keys.Explorer.Export):
		return m, m.export()
	}
	return m, nil
}

func (m Model) openInput(kind inputKind, value string) (mode.Controller, tea.Cmd) {
	m.inputFor = kind
	m.input.SetSuggestions(nil)
	switch kind {
	case inputFilterColumn:
		m.input.Placeholder = "column to filter"
		if d := m.dataset(); d != nil {
			m.input.SetSuggestions(d.Table.Columns())
		}
	case inputFilterValues:
		m.input.Placeholder = "values from the list, separated by |"
		m.input.SetSuggestions(m.choices)
	case inputFilterText:
		m.input.Placeholder = "text to look for in " + m.filterColumn
	case inputColumns:
		m.input.Placeholder = "comma separated columns, empty for defaults"
	}
	m.input.SetValue(value)
	m.input.CursorEnd()
	return m, m.input.Focus()
}

func (m Model) handleInputKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Explorer.Cancel):
		m.closeInput()
		return m, nil
	case key.Matches(msg, keys.Explorer.Submit):
		value := strings.TrimSpace(m.input.Value())
		kind := m.inputFor
		m.closeInput()
		if kind == inputFilterColumn && value != "" {
			return m.chooseFilterColumn(value)
		}
		if err := m.apply(kind, value); err != nil {
			return m, status(err.Error(), true)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) closeInput() {
	m.inputFor = inputNone
	m.input.Blur()
	m.input.SetValue("")
	m.input.SetSuggestions(nil)
}

// chooseFilterColumn picks the filter mode for col from the rows the
// earlier filters leave and asks for values or text.
func (m Model) chooseFilterColumn(col string) (mode.Controller, tea.Cmd) {
	d := m.dataset()
	if d == nil {
		return m, nil
	}
	narrowed, err := explorer.Narrowed(d, m.state(), m.filterSlot)
	if err != nil {
		return m, status(err.Error(), true)
	}
	fm, values, err := explorer.FilterMode(narrowed, col)
	if err != nil {
		return m, status(err.Error(), true)
	}
	m.filterColumn = col
	m.choices = values
	if fm == explorer.ModeText {
		return m.openInput(inputFilterText, "")
	}
	if len(values) == 0 {
		return m, status(fmt.Sprintf("%s has no values in the filtered rows", col), true)
	}
	return m.openInput(inputFilterValues, "")
}

func (m *Model) apply(kind inputKind, value string) error {
	s := m.state()
	switch kind {
	case inputFilterValues:
		if value == "" {
			return nil
		}
		var picked []string
		for _, v := range strings.Split(value, "|") {
			v = strings.TrimSpace(v)
			if v == "" || slices.Contains(picked, v) {
				continue
			}
			if _, found := slices.BinarySearch(m.choices, v); !found {
				return fmt.Errorf("%w: %q is not a value of %s", explorer.ErrInvalidFilter, v, m.filterColumn)
			}
			picked = append(picked, v)
		}
		if len(picked) == 0 {
			return nil
		}
		s.Filters[m.filterSlot] = explorer.Filter{Column: m.filterColumn, Values: picked}
	case inputFilterText:
		if value == "" {
			return nil
		}
		s.Filters[m.filterSlot] = explorer.Filter{Column: m.filterColumn, Text: value}
	case inputColumns:
		if value == "" {
			s.Columns = explorer.NewState(m.dataset()).Columns
			break
		}
		var cols []string
		for _, c := range strings.Split(value, ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		for _, c := range cols {
			if !m.dataset().Table.HasColumn(c) {
				return fmt.Errorf("%w: %s", explorer.ErrUnknownColumn, c)
			}
		}
		s.Columns = explorer.DistinctColumns(cols)
	}
	m.setState(s)
	return nil
}

// syncProducts follows the registry: new products appear, removed ones go
// and stale per-product state is dropped.
func (m *Model) syncProducts() {
	current := m.currentID()
	m.products = m.services.Registry.IDs()
	for id := range m.states {
		if !slices.Contains(m.products, id) {
			delete(m.states, id)
		}
	}
	m.index = 0
	if i := slices.Index(m.products, current); i >= 0 {
		m.index = i
	}
	m.recompute()
}

func (m Model) currentID() string {
	if m.index < len(m.products) {
		return m.products[m.index]
	}
	return ""
}

func (m Model) dataset() *dataset.Dataset {
	d, _ := m.services.Registry.Get(m.currentID())
	return d
}

func (m Model) state() explorer.State {
	if s, ok := m.states[m.currentID()]; ok {
		return s
	}
	if d := m.dataset(); d != nil {
		s := explorer.NewState(d)
		if m.services.Config != nil && m.services.Config.UI.PreviewRows > 0 {
			s.RowLimit = m.services.Config.UI.PreviewRows
		}
		return s
	}
	return explorer.State{}
}

func (m *Model) setState(s explorer.State) {
	m.states[m.currentID()] = s
	m.recompute()
}

// recompute applies the current state. A state that no longer fits the
// dataset (a reload changed its columns) is reset.
func (m *Model) recompute() {
	m.view, m.preview, m.err = nil, nil, nil
	d := m.dataset()
	if d == nil {
		m.render()
		return
	}
	s := m.state()
	view, err := explorer.Apply(d, s)
	if errors.Is(err, explorer.ErrUnknownColumn) {
		log.Warn(log.CatUI, "explorer state reset", "product", d.ProductID, "error", err)
		delete(m.states, d.ProductID)
		s = m.state()
		view, err = explorer.Apply(d, s)
	}
	if err != nil {
		m.err = err
		m.render()
		return
	}
	m.view = view
	m.preview = explorer.Preview(view, s.RowLimit)
	m.render()
}

func (m Model) export() tea.Cmd {
	view := m.view
	if view == nil {
		return nil
	}
	dir := m.services.ExportDir
	if dir == "" {
		dir = "."
	}
	path := filepath.Join(dir, explorer.ExportName(m.currentID()))
	return func() tea.Msg {
		f, err := os.Create(path) //nolint:gosec // G304: path built from the export dir and a product id
		if err != nil {
			return ExportedMsg{Path: path, Err: err}
		}
		if err := explorer.Export(f, view); err != nil {
			_ = f.Close()
			return ExportedMsg{Path: path, Err: err}
		}
		if err := f.Close(); err != nil {
			return ExportedMsg{Path: path, Err: err}
		}
		return ExportedMsg{Path: path, Rows: view.NumRows()}
	}
}

func status(text string, isErr bool) tea.Cmd {
	return func() tea.Msg { return mode.StatusMsg{Text: text, Error: isErr} }
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.input.Width = max(width-4, 10)
	m.viewport.Width = width
	m.render()
	return m
}

// Capturing reports whether the filter or column input is open.
func (m Model) Capturing() bool {
	return m.inputFor != inputNone
}

// Keys implements mode.Controller.
func (m Model) Keys() help.KeyMap {
	return keys.Explorer
}

// State returns the selection for the current product.
func (m Model) State() explorer.State {
	return m.state()
}
