// Package mode defines the mode controller interface and shared services.
package mode

import (
	"github.com/charmbracelet/bubbles/help"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/zjrosen/cheds/internal/cachemanager"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/config"
	"github.com/zjrosen/cheds/internal/mode/shared"
	"github.com/zjrosen/cheds/internal/registry"
)

// AppMode identifies the current application mode.
type AppMode int

const (
	ModeDashboard AppMode = iota
	ModeExplorer
)

func (m AppMode) String() string {
	switch m {
	case ModeDashboard:
		return "dashboard"
	case ModeExplorer:
		return "explorer"
	default:
		return "unknown"
	}
}

// Controller defines the interface all modes must implement.
type Controller interface {
	// Init returns initial commands for the mode.
	Init() tea.Cmd

	// Update handles messages and returns updated model and commands.
	Update(msg tea.Msg) (Controller, tea.Cmd)

	// View renders the mode's UI.
	View() string

	// SetSize handles terminal resize events.
	SetSize(width, height int) Controller

	// Capturing reports whether the mode is taking free text input, in
	// which case global key bindings are not applied.
	Capturing() bool

	// Keys lists the mode's bindings for the help view.
	Keys() help.KeyMap
}

// Services contains shared dependencies injected into mode controllers.
type Services struct {
	Catalog  *catalog.Catalog
	Registry *registry.Registry
	Views    *cachemanager.Views
	Config   *config.Config
	// ExportDir receives explorer CSV exports.
	ExportDir string
	Clock     shared.Clock
}

// DataChangedMsg is delivered to modes after the registry changed.
type DataChangedMsg struct {
	Generation uint64
}

// StatusMsg asks the app to show a line in the status bar.
type StatusMsg struct {
	Text  string
	Error bool
}
