// Package dashboard implements the tabbed analytics dashboard mode.
//
// The first tab summarises catalog coverage, one tab per catalog domain shows
// that domain's metrics and charts, and the last tab lists the loaded data
// products with their data quality. Content is rebuilt whenever the registry
// changes.
package dashboard

import (
	"context"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/cheds/internal/keys"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/mode"
)

type tabKind int

const (
	tabOverview tabKind = iota
	tabDomain
	tabProducts
)

type tab struct {
	kind  tabKind
	label string
	short string
	// domain key for tabDomain
	domain string
}

// Model holds the dashboard mode state.
type Model struct {
	services mode.Services

	tabs     []tab
	active   int
	viewport viewport.Model

	// generation of the registry the content was rendered from
	generation uint64

	width  int
	height int
}

// New creates the dashboard with one tab per catalog domain.
func New(services mode.Services) Model {
	tabs := []tab{{kind: tabOverview, label: "Overview", short: "Overview"}}
	for _, d := range services.Catalog.Domains() {
		tabs = append(tabs, tab{kind: tabDomain, label: d.Name, short: upper(d.Key), domain: d.Key})
	}
	tabs = append(tabs, tab{kind: tabProducts, label: "Data Products", short: "Products"})

	return Model{
		services: services,
		tabs:     tabs,
		viewport: viewport.New(0, 0),
	}
}

// Init implements mode.Controller.
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages and returns updated model and commands.
func (m Model) Update(msg tea.Msg) (mode.Controller, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case mode.DataChangedMsg:
		m.generation = msg.Generation
		m.refresh(false)
		return m, nil
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (mode.Controller, tea.Cmd) {
	switch {
	case key.Matches(msg, keys.Dashboard.NextTab):
		return m.selectTab((m.active + 1) % len(m.tabs)), nil
	case key.Matches(msg, keys.Dashboard.PrevTab):
		return m.selectTab((m.active - 1 + len(m.tabs)) % len(m.tabs)), nil
	case key.Matches(msg, keys.Dashboard.JumpTab):
		idx := int(msg.Runes[0] - '1')
		if idx < len(m.tabs) {
			return m.selectTab(idx), nil
		}
		return m, nil
	case key.Matches(msg, keys.Dashboard.Up):
		m.viewport.ScrollUp(1)
	case key.Matches(msg, keys.Dashboard.Down):
		m.viewport.ScrollDown(1)
	case key.Matches(msg, keys.Dashboard.PageUp):
		m.viewport.HalfPageUp()
	case key.Matches(msg, keys.Dashboard.PageDown):
		m.viewport.HalfPageDown()
	case key.Matches(msg, keys.Dashboard.Top):
		m.viewport.GotoTop()
	case key.Matches(msg, keys.Dashboard.Bottom):
		m.viewport.GotoBottom()
	}
	return m, nil
}

func (m Model) handleMouse(msg tea.MouseMsg) (mode.Controller, tea.Cmd) {
	switch msg.Button {
	case tea.MouseButtonWheelUp:
		m.viewport.ScrollUp(3)
		return m, nil
	case tea.MouseButtonWheelDown:
		m.viewport.ScrollDown(3)
		return m, nil
	}
	if msg.Action != tea.MouseActionRelease || msg.Button != tea.MouseButtonLeft {
		return m, nil
	}
	for i := range m.tabs {
		if zone.Get(makeTabZoneID(i)).InBounds(msg) {
			return m.selectTab(i), nil
		}
	}
	return m, nil
}

func (m Model) selectTab(i int) Model {
	if i == m.active {
		return m
	}
	log.Debug(log.CatUI, "tab selected", "tab", m.tabs[i].label)
	m.active = i
	m.refresh(true)
	return m
}

// refresh re-renders the active tab into the viewport. The scroll position
// is kept unless top is set.
func (m *Model) refresh(top bool) {
	if m.width == 0 {
		return
	}
	m.viewport.SetContent(m.renderTab(context.Background(), m.tabs[m.active]))
	if top {
		m.viewport.GotoTop()
	}
}

// View renders the tab bar above the active tab's content.
func (m Model) View() string {
	return m.renderTabBar() + "\n" + m.viewport.View()
}

// SetSize handles terminal resize events.
func (m Model) SetSize(width, height int) mode.Controller {
	m.width = width
	m.height = height
	m.viewport.Width = width
	m.viewport.Height = max(height-1, 1)
	m.refresh(false)
	return m
}

// Capturing implements mode.Controller; the dashboard has no text input.
func (m Model) Capturing() bool {
	return false
}

// Keys implements mode.Controller.
func (m Model) Keys() help.KeyMap {
	return keys.Dashboard
}

// ActiveTab returns the label of the selected tab.
func (m Model) ActiveTab() string {
	return m.tabs[m.active].label
}
