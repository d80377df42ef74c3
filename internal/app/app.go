// Package app contains the root application model.
package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"

	"github.com/zjrosen/cheds/internal/format"
	"github.com/zjrosen/cheds/internal/keys"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/mode"
	"github.com/zjrosen/cheds/internal/mode/dashboard"
	"github.com/zjrosen/cheds/internal/mode/explore"
	"github.com/zjrosen/cheds/internal/pubsub"
	"github.com/zjrosen/cheds/internal/registry"
	"github.com/zjrosen/cheds/internal/ui/logpane"
	"github.com/zjrosen/cheds/internal/ui/styles"
)

// Config holds what the root model needs beyond the mode services.
type Config struct {
	Services mode.Services
	Loader   *loader.Loader
	// DataDir is loaded on start and on every reload.
	DataDir string
	// WatchEvents signals that DataDir changed; nil disables auto refresh.
	WatchEvents <-chan struct{}
	// LogListener feeds the log pane; nil when logging is off.
	LogListener *log.LogListener
	ShowLogPane bool
}

// loadDoneMsg carries the result of a directory load.
type loadDoneMsg struct {
	res loader.Result
	err error
}

// dataDirChangedMsg is sent when the watcher reports a change.
type dataDirChangedMsg struct{}

// Model is the root application state.
type Model struct {
	services mode.Services
	loader   *loader.Loader
	dataDir  string

	currentMode mode.AppMode
	dashboard   mode.Controller
	explore     mode.Controller

	logs     logpane.Model
	help     help.Model
	showHelp bool

	spinner spinner.Model
	loading bool
	// a change arrived while loading; reload once more when done
	pending bool

	status    string
	statusErr bool

	changes     <-chan pubsub.Event[registry.Change]
	watchEvents <-chan struct{}
	ctx         context.Context
	cancel      context.CancelFunc

	width  int
	height int
}

// New creates the root model. The first load starts with Init.
func New(cfg Config) Model {
	ctx, cancel := context.WithCancel(context.Background())

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.SpinnerColor)

	return Model{
		services:    cfg.Services,
		loader:      cfg.Loader,
		dataDir:     cfg.DataDir,
		currentMode: mode.ModeDashboard,
		dashboard:   dashboard.New(cfg.Services),
		explore:     explore.New(cfg.Services),
		logs:        logpane.New(cfg.LogListener, cfg.ShowLogPane),
		help:        help.New(),
		spinner:     sp,
		loading:     true,
		changes:     cfg.Services.Registry.Subscribe(ctx),
		watchEvents: cfg.WatchEvents,
		ctx:         ctx,
		cancel:      cancel,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.dashboard.Init(),
		m.explore.Init(),
		m.spinner.Tick,
		m.load(),
		pubsub.ListenCmd(m.ctx, m.changes),
		m.listenWatcher(),
		m.logs.Listen(),
	)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.resize()
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.MouseMsg:
		return m.forward(msg)

	case spinner.TickMsg:
		if !m.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case loadDoneMsg:
		return m.handleLoadDone(msg)

	case dataDirChangedMsg:
		log.Info(log.CatWatcher, "data directory changed", "dir", m.dataDir)
		if m.loading {
			m.pending = true
			return m, m.listenWatcher()
		}
		return m, tea.Batch(m.startLoad(), m.listenWatcher())

	case pubsub.Event[registry.Change]:
		changed := mode.DataChangedMsg{Generation: msg.Payload.Generation}
		var c1, c2 tea.Cmd
		m.dashboard, c1 = m.dashboard.Update(changed)
		m.explore, c2 = m.explore.Update(changed)
		return m, tea.Batch(c1, c2, pubsub.ListenCmd(m.ctx, m.changes))

	case log.LogEvent:
		var cmd tea.Cmd
		m.logs, cmd = m.logs.Update(msg)
		return m, cmd

	case mode.StatusMsg:
		m.status, m.statusErr = msg.Text, msg.Error
		return m, nil
	}

	return m.forward(msg)
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.Type == tea.KeyCtrlC {
		return m, tea.Quit
	}
	if m.active().Capturing() {
		return m.forward(msg)
	}

	switch {
	case key.Matches(msg, keys.App.Quit):
		return m, tea.Quit
	case key.Matches(msg, keys.App.SwitchMode):
		if m.currentMode == mode.ModeDashboard {
			m.currentMode = mode.ModeExplorer
		} else {
			m.currentMode = mode.ModeDashboard
		}
		log.Debug(log.CatUI, "switching mode", "to", m.currentMode)
		return m, nil
	case key.Matches(msg, keys.App.Reload):
		if m.loading {
			return m, nil
		}
		return m, m.startLoad()
	case key.Matches(msg, keys.App.Logs):
		m.logs.Toggle()
		m.resize()
		return m, nil
	case key.Matches(msg, keys.App.Help):
		m.showHelp = !m.showHelp
		return m, nil
	case m.logs.Visible() && msg.String() == "L":
		m.logs.CycleLevel()
		return m, nil
	}
	return m.forward(msg)
}

func (m Model) forward(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.currentMode {
	case mode.ModeExplorer:
		m.explore, cmd = m.explore.Update(msg)
	default:
		m.dashboard, cmd = m.dashboard.Update(msg)
	}
	return m, cmd
}

func (m Model) active() mode.Controller {
	if m.currentMode == mode.ModeExplorer {
		return m.explore
	}
	return m.dashboard
}

func (m *Model) resize() {
	h := max(m.height-1, 1) // status bar
	if m.logs.Visible() {
		h = max(h-logpane.Height, 1)
	}
	m.logs.SetSize(m.width)
	m.dashboard = m.dashboard.SetSize(m.width, h)
	m.explore = m.explore.SetSize(m.width, h)
}

func (m *Model) startLoad() tea.Cmd {
	m.loading = true
	m.pending = false
	m.status, m.statusErr = "", false
	return tea.Batch(m.spinner.Tick, m.load())
}

// load reads the data directory off the update loop. The registry is
// only replaced once the whole directory has been read.
func (m Model) load() tea.Cmd {
	l, dir, ctx := m.loader, m.dataDir, m.ctx
	return func() tea.Msg {
		res, err := l.LoadAll(ctx, dir)
		return loadDoneMsg{res: res, err: err}
	}
}

func (m Model) handleLoadDone(msg loadDoneMsg) (tea.Model, tea.Cmd) {
	m.loading = false
	if msg.err != nil {
		var nf *loader.NotFoundError
		if errors.As(msg.err, &nf) {
			m.status = fmt.Sprintf("No data found in %s. Add CSV files and press r.", m.dataDir)
		} else {
			m.status = "Load failed: " + msg.err.Error()
		}
		m.statusErr = true
	} else {
		m.services.Registry.ReplaceAll(msg.res.Datasets)
		m.status = fmt.Sprintf("Loaded %s data products", format.Int(len(msg.res.Datasets)))
		m.statusErr = false
		if n := len(msg.res.Failures); n > 0 {
			m.status += fmt.Sprintf(", %d files skipped (%s)", n, failureNames(msg.res.Failures))
			m.statusErr = true
		}
	}
	if m.pending {
		return m, m.startLoad()
	}
	return m, nil
}

func failureNames(ff []loader.FileFailure) string {
	names := make([]string, 0, len(ff))
	for _, f := range ff {
		names = append(names, f.Filename)
	}
	return strings.Join(names, ", ")
}

func (m Model) listenWatcher() tea.Cmd {
	ch, ctx := m.watchEvents, m.ctx
	if ch == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-ch:
			if !ok {
				return nil
			}
			return dataDirChangedMsg{}
		}
	}
}

// View implements tea.Model.
func (m Model) View() string {
	var b strings.Builder
	if m.showHelp {
		b.WriteString(m.renderHelp())
	} else {
		b.WriteString(m.active().View())
	}
	if m.logs.Visible() {
		b.WriteString("\n")
		b.WriteString(m.logs.View())
	}
	b.WriteString("\n")
	b.WriteString(m.renderStatusBar())
	return zone.Scan(b.String())
}

func (m Model) renderHelp() string {
	h := m.help
	h.ShowAll = true
	return styles.TitleStyle.Render("Keys") + "\n\n" +
		h.View(keys.App) + "\n\n" +
		h.View(m.active().Keys())
}

func (m Model) renderStatusBar() string {
	var left string
	switch {
	case m.loading:
		left = m.spinner.View() + " Loading " + m.dataDir
	case m.statusErr:
		left = styles.WarningStyle.Render(m.status)
	default:
		left = styles.SuccessStyle.Render(m.status)
	}
	right := styles.MutedStyle.Render(fmt.Sprintf("%s · %d products · ? help",
		m.currentMode, m.services.Registry.Len()))

	gap := max(m.width-lipgloss.Width(left)-lipgloss.Width(right)-2, 1)
	line := left + strings.Repeat(" ", gap) + right
	if lipgloss.Width(line) > m.width-2 && m.width > 2 {
		line = styles.TruncateString(line, m.width-2)
	}
	return styles.StatusBarStyle.Render(line)
}

// Close stops listening for registry changes.
func (m *Model) Close() {
	if m.cancel != nil {
		m.cancel()
	}
}
