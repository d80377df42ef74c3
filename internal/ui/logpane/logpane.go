// Package logpane shows recent log entries in a pane below the active mode.
package logpane

import (
	"fmt"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/ui/styles"
)

// MaxEntries bounds the entries kept in memory.
const MaxEntries = 500

// Height is the pane's outer height including borders.
const Height = 10

// Model is the log pane state.
type Model struct {
	listener *log.LogListener
	entries  []string
	minLevel log.Level
	visible  bool
	width    int
	viewport viewport.Model
}

// New creates a pane fed by listener, which may be nil when logging is off.
func New(listener *log.LogListener, visible bool) Model {
	return Model{
		listener: listener,
		minLevel: log.LevelInfo,
		visible:  visible,
		viewport: viewport.New(0, Height-2),
	}
}

// Listen waits for the next log entry.
func (m Model) Listen() tea.Cmd {
	if m.listener == nil {
		return nil
	}
	return m.listener.Listen()
}

// Update appends log events and keeps listening.
func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	ev, ok := msg.(log.LogEvent)
	if !ok {
		return m, nil
	}
	m.entries = append(m.entries, strings.TrimSuffix(ev.Payload, "\n"))
	if over := len(m.entries) - MaxEntries; over > 0 {
		m.entries = slices.Clone(m.entries[over:])
	}
	m.refresh()
	return m, m.Listen()
}

// View renders the pane, or nothing when hidden.
func (m Model) View() string {
	if !m.visible {
		return ""
	}
	title := "Logs (" + m.minLevel.String() + "+, L to change)"
	if m.listener != nil {
		if n := m.listener.Missed(); n > 0 {
			title = fmt.Sprintf("Logs (%s+, L to change, %d dropped)", m.minLevel, n)
		}
	}
	return styles.RenderWithTitleBorder(m.viewport.View(), title, m.width, Height, false)
}

// Toggle shows or hides the pane.
func (m *Model) Toggle() {
	m.visible = !m.visible
	m.refresh()
}

// Visible reports whether the pane is shown.
func (m Model) Visible() bool {
	return m.visible
}

// CycleLevel raises the minimum level shown, wrapping from ERROR to DEBUG.
func (m *Model) CycleLevel() {
	m.minLevel = (m.minLevel + 1) % (log.LevelError + 1)
	m.refresh()
}

// MinLevel returns the lowest level shown.
func (m Model) MinLevel() log.Level {
	return m.minLevel
}

// Entries returns the buffered entries at or above the minimum level.
func (m Model) Entries() []string {
	var out []string
	for _, e := range m.entries {
		if levelOf(e) >= m.minLevel {
			out = append(out, e)
		}
	}
	return out
}

// SetSize sets the pane width.
func (m *Model) SetSize(width int) {
	m.width = width
	m.viewport.Width = max(width-2, 1)
	m.refresh()
}

func (m *Model) refresh() {
	if !m.visible {
		return
	}
	entries := m.Entries()
	if len(entries) == 0 {
		m.viewport.SetContent(styles.MutedStyle.Italic(true).Render("No logs to display"))
		return
	}
	lines := make([]string, len(entries))
	for i, e := range entries {
		lines[i] = colorize(e, m.viewport.Width)
	}
	m.viewport.SetContent(strings.Join(lines, "\n"))
	m.viewport.GotoBottom()
}

// levelOf reads the level tag of a formatted entry. Untagged lines count
// as errors so they are never hidden.
func levelOf(entry string) log.Level {
	switch {
	case strings.Contains(entry, "[DEBUG]"):
		return log.LevelDebug
	case strings.Contains(entry, "[INFO]"):
		return log.LevelInfo
	case strings.Contains(entry, "[WARN]"):
		return log.LevelWarn
	default:
		return log.LevelError
	}
}

func colorize(entry string, width int) string {
	if width > 3 && ansi.StringWidth(entry) > width {
		entry = ansi.Truncate(entry, width-3, "...")
	}
	var color lipgloss.TerminalColor
	switch levelOf(entry) {
	case log.LevelError:
		color = styles.StatusErrorColor
	case log.LevelWarn:
		color = styles.StatusWarningColor
	case log.LevelInfo:
		color = styles.AccentColor
	default:
		color = styles.TextMutedColor
	}
	return lipgloss.NewStyle().Foreground(color).Render(entry)
}
