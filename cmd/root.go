package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	zone "github.com/lrstanley/bubblezone"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zjrosen/cheds/internal/app"
	"github.com/zjrosen/cheds/internal/config"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/mode"
	"github.com/zjrosen/cheds/internal/mode/shared"
	"github.com/zjrosen/cheds/internal/watcher"
)

func init() {
	// Query the terminal background before any program starts so the OSC 11
	// reply does not race with the input loop.
	_ = lipgloss.HasDarkBackground()
}

const defaultConfigPath = ".cheds/config.yaml"

var (
	version   = "dev"
	cfgFile   string
	debugFlag bool
	cfg       config.Config
)

var rootCmd = &cobra.Command{
	Use:   "cheds",
	Short: "A terminal dashboard for CHEDS data products",
	Long: `A terminal dashboard for the CHEDS higher education data standard.

cheds loads the data product CSV files from a directory, groups them into
the seven CHEDS domains and shows overview metrics, per-domain charts and a
data explorer with filtering and CSV export.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runApp,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: .cheds/config.yaml or ~/.config/cheds/config.yaml)")
	rootCmd.PersistentFlags().StringP("data-dir", "d", "",
		"directory holding the data product CSV files")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false,
		"write debug logs (to $CHEDS_LOG or debug.log, filtered by $CHEDS_LOG_LEVEL)")
	rootCmd.Flags().Bool("no-auto-refresh", false,
		"disable automatic reload when data files change")

	_ = viper.BindPFlag("data_dir", rootCmd.PersistentFlags().Lookup("data-dir"))
}

func initConfig() {
	defaults := config.Defaults()
	viper.SetDefault("data_dir", defaults.DataDir)
	viper.SetDefault("pattern", defaults.Pattern)
	viper.SetDefault("auto_refresh", defaults.AutoRefresh)
	viper.SetDefault("auto_refresh_debounce", defaults.AutoRefreshDebounce)
	viper.SetDefault("ui.show_log_pane", defaults.UI.ShowLogPane)
	viper.SetDefault("ui.preview_rows", defaults.UI.PreviewRows)
	viper.SetDefault("ui.top_n", defaults.UI.TopN)
	viper.SetDefault("ui.markdown_style", defaults.UI.MarkdownStyle)
	viper.SetDefault("server.addr", defaults.Server.Addr)
	viper.SetDefault("server.max_upload_mib", defaults.Server.MaxUploadMiB)
	viper.SetDefault("tracing.enabled", defaults.Tracing.Enabled)
	viper.SetDefault("tracing.exporter", defaults.Tracing.Exporter)
	viper.SetDefault("tracing.file_path", config.DefaultTracesFilePath())
	viper.SetDefault("tracing.otlp_endpoint", defaults.Tracing.OTLPEndpoint)
	viper.SetDefault("tracing.sample_rate", defaults.Tracing.SampleRate)

	viper.SetEnvPrefix("CHEDS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		// Config lookup order:
		// 1. .cheds/config.yaml (current directory)
		// 2. ~/.config/cheds/config.yaml (user config)
		if _, err := os.Stat(defaultConfigPath); err == nil {
			viper.SetConfigFile(defaultConfigPath)
		} else {
			home, _ := os.UserHomeDir()
			viper.AddConfigPath(filepath.Join(home, ".config", "cheds"))
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}
	}

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			if writeErr := config.WriteDefaultConfig(defaultConfigPath); writeErr == nil {
				viper.SetConfigFile(defaultConfigPath)
				_ = viper.ReadInConfig()
			}
		}
	}

	_ = viper.Unmarshal(&cfg)
}

// configPath is the file `config set` edits.
func configPath() string {
	if p := viper.ConfigFileUsed(); p != "" {
		return p
	}
	return defaultConfigPath
}

// initDebugLog enables file logging when --debug or CHEDS_DEBUG is set.
// The returned cleanup is never nil.
func initDebugLog(component string) (func(), error) {
	if !debugFlag && os.Getenv("CHEDS_DEBUG") == "" {
		return func() {}, nil
	}
	logPath := os.Getenv("CHEDS_LOG")
	if logPath == "" {
		logPath = "debug.log"
	}
	cleanup, err := log.Init(logPath)
	if err != nil {
		return nil, fmt.Errorf("initializing logging: %w", err)
	}
	if name := os.Getenv("CHEDS_LOG_LEVEL"); name != "" {
		level, err := log.ParseLevel(name)
		if err != nil {
			cleanup()
			return nil, err
		}
		log.SetMinLevel(level)
	}
	log.Info(log.CatConfig, "cheds starting", "component", component, "version", version, "logPath", logPath)
	return cleanup, nil
}

func runApp(cmd *cobra.Command, _ []string) error {
	cleanupLog, err := initDebugLog("tui")
	if err != nil {
		return err
	}
	defer cleanupLog()

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	if noAutoRefresh, _ := cmd.Flags().GetBool("no-auto-refresh"); noAutoRefresh {
		cfg.AutoRefresh = false
	}

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	dataDir := config.ResolveDataDir(cfg.DataDir)
	events, stopWatcher := startWatcher(dataDir)
	defer stopWatcher()

	exportDir, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	zone.NewGlobal()
	model := app.New(app.Config{
		Services: mode.Services{
			Catalog:   s.catalog,
			Registry:  s.registry,
			Views:     s.views,
			Config:    &cfg,
			ExportDir: exportDir,
			Clock:     shared.RealClock{},
		},
		Loader:      s.loader,
		DataDir:     dataDir,
		WatchEvents: events,
		LogListener: log.NewListener(ctx),
		ShowLogPane: cfg.UI.ShowLogPane || debugFlag,
	})
	defer model.Close()

	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("running program: %w", err)
	}
	return nil
}

// startWatcher watches dataDir when auto refresh is on. A directory that
// does not exist yet is not watched; the user reloads by hand.
func startWatcher(dataDir string) (<-chan struct{}, func()) {
	noop := func() {}
	if !cfg.AutoRefresh || !watcher.Exists(dataDir) {
		return nil, noop
	}
	w, err := watcher.New(watcher.Config{
		Dir:         dataDir,
		Pattern:     cfg.Pattern,
		DebounceDur: cfg.AutoRefreshDebounce,
	})
	if err != nil {
		log.ErrorErr(log.CatWatcher, "auto refresh disabled", err, "dir", dataDir)
		return nil, noop
	}
	events, err := w.Start()
	if err != nil {
		log.ErrorErr(log.CatWatcher, "auto refresh disabled", err, "dir", dataDir)
		_ = w.Stop()
		return nil, noop
	}
	return events, func() { _ = w.Stop() }
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersion sets the version string (called from main with ldflags).
func SetVersion(v string) {
	version = v
	rootCmd.Version = v
}
