// Package keys contains keybinding definitions.
package keys

import "github.com/charmbracelet/bubbles/key"

// AppKeyMap holds bindings that work in every mode.
type AppKeyMap struct {
	SwitchMode key.Binding
	Reload     key.Binding
	Logs       key.Binding
	Help       key.Binding
	Quit       key.Binding
}

// DashboardKeyMap holds the tabbed dashboard bindings.
type DashboardKeyMap struct {
	NextTab  key.Binding
	PrevTab  key.Binding
	Up       key.Binding
	Down     key.Binding
	PageUp   key.Binding
	PageDown key.Binding
	Top      key.Binding
	Bottom   key.Binding
	JumpTab  key.Binding
}

// ExplorerKeyMap holds the table explorer bindings.
type ExplorerKeyMap struct {
	NextProduct  key.Binding
	PrevProduct  key.Binding
	Up           key.Binding
	Down         key.Binding
	AddFilter    key.Binding
	ClearFilters key.Binding
	Columns      key.Binding
	MoreRows     key.Binding
	Export       key.Binding
	Submit       key.Binding
	Cancel       key.Binding
}

// App, Dashboard and Explorer are the active bindings.
var (
	App       = DefaultAppKeyMap()
	Dashboard = DefaultDashboardKeyMap()
	Explorer  = DefaultExplorerKeyMap()
)

// DefaultAppKeyMap returns the global bindings.
func DefaultAppKeyMap() AppKeyMap {
	return AppKeyMap{
		SwitchMode: key.NewBinding(
			key.WithKeys("e", "ctrl+@"),
			key.WithHelp("e", "explorer/dashboard"),
		),
		Reload: key.NewBinding(
			key.WithKeys("r", "f5"),
			key.WithHelp("r", "reload data"),
		),
		Logs: key.NewBinding(
			key.WithKeys("ctrl+x"),
			key.WithHelp("ctrl+x", "toggle logs"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}

// DefaultDashboardKeyMap returns the dashboard bindings.
func DefaultDashboardKeyMap() DashboardKeyMap {
	return DashboardKeyMap{
		NextTab: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab/l", "next tab"),
		),
		PrevTab: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab/h", "previous tab"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup", "ctrl+u"),
			key.WithHelp("ctrl+u", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown", "ctrl+d"),
			key.WithHelp("ctrl+d", "page down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "bottom"),
		),
		JumpTab: key.NewBinding(
			key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"),
			key.WithHelp("1-9", "jump to tab"),
		),
	}
}

// DefaultExplorerKeyMap returns the explorer bindings.
func DefaultExplorerKeyMap() ExplorerKeyMap {
	return ExplorerKeyMap{
		NextProduct: key.NewBinding(
			key.WithKeys("tab", "l", "right"),
			key.WithHelp("tab/l", "next product"),
		),
		PrevProduct: key.NewBinding(
			key.WithKeys("shift+tab", "h", "left"),
			key.WithHelp("shift+tab/h", "previous product"),
		),
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "scroll up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "scroll down"),
		),
		AddFilter: key.NewBinding(
			key.WithKeys("/", "f"),
			key.WithHelp("/", "add filter"),
		),
		ClearFilters: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "clear filters"),
		),
		Columns: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "choose columns"),
		),
		MoreRows: key.NewBinding(
			key.WithKeys("+", "="),
			key.WithHelp("+", "more rows"),
		),
		Export: key.NewBinding(
			key.WithKeys("s", "ctrl+s"),
			key.WithHelp("s", "export csv"),
		),
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "apply"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}

// ShortHelp returns keybindings for the short help view.
func (k AppKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.SwitchMode, k.Reload, k.Help, k.Quit}
}

// FullHelp returns keybindings for the full help view.
func (k AppKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{{k.SwitchMode, k.Reload, k.Logs, k.Help, k.Quit}}
}

// ShortHelp returns keybindings for the short help view.
func (k DashboardKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextTab, k.PrevTab, k.Down, k.Up}
}

// FullHelp returns keybindings for the full help view.
func (k DashboardKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextTab, k.PrevTab, k.JumpTab},
		{k.Up, k.Down, k.PageUp, k.PageDown, k.Top, k.Bottom},
	}
}

// ShortHelp returns keybindings for the short help view.
func (k ExplorerKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.NextProduct, k.AddFilter, k.Columns, k.Export}
}

// FullHelp returns keybindings for the full help view.
func (k ExplorerKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.NextProduct, k.PrevProduct, k.Up, k.Down},
		{k.AddFilter, k.ClearFilters, k.Columns, k.MoreRows, k.Export},
		{k.Submit, k.Cancel},
	}
}
