// Package config provides configuration types and defaults for cheds.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/tracing"
)

// DefaultDataDir is the data directory used when none is configured.
const DefaultDataDir = "csv_files"

// Config holds all configuration options for cheds.
type Config struct {
	DataDir             string         `mapstructure:"data_dir"`
	Pattern             string         `mapstructure:"pattern"`
	AutoRefresh         bool           `mapstructure:"auto_refresh"`
	AutoRefreshDebounce time.Duration  `mapstructure:"auto_refresh_debounce"`
	UI                  UIConfig       `mapstructure:"ui"`
	Server              ServerConfig   `mapstructure:"server"`
	Tracing             tracing.Config `mapstructure:"tracing"`
}

// UIConfig holds terminal dashboard options.
type UIConfig struct {
	ShowLogPane   bool   `mapstructure:"show_log_pane"`
	PreviewRows   int    `mapstructure:"preview_rows"`   // explorer preview size
	TopN          int    `mapstructure:"top_n"`          // cap for ranked charts
	MarkdownStyle string `mapstructure:"markdown_style"` // "dark" (default) or "light"
}

// ServerConfig holds HTTP surface options.
type ServerConfig struct {
	Addr         string `mapstructure:"addr"`
	MaxUploadMiB int64  `mapstructure:"max_upload_mib"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		DataDir:             DefaultDataDir,
		Pattern:             "*.csv",
		AutoRefresh:         true,
		AutoRefreshDebounce: time.Second,
		UI: UIConfig{
			ShowLogPane:   false,
			PreviewRows:   100,
			TopN:          10,
			MarkdownStyle: "dark",
		},
		Server: ServerConfig{
			Addr:         "127.0.0.1:8501",
			MaxUploadMiB: 200,
		},
		Tracing: tracing.DefaultConfig(),
	}
}

// Validate checks the configuration for errors. Empty values are filled
// from defaults by the caller before validation.
func (c Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if !doublestar.ValidatePattern(c.Pattern) {
		errs = append(errs, fmt.Errorf("pattern %q is not a valid glob", c.Pattern))
	}
	if c.AutoRefreshDebounce < 0 {
		errs = append(errs, fmt.Errorf("auto_refresh_debounce must not be negative, got %s", c.AutoRefreshDebounce))
	}
	if c.UI.PreviewRows < 0 {
		errs = append(errs, fmt.Errorf("ui.preview_rows must not be negative, got %d", c.UI.PreviewRows))
	}
	if c.UI.TopN < 0 {
		errs = append(errs, fmt.Errorf("ui.top_n must not be negative, got %d", c.UI.TopN))
	}
	switch c.UI.MarkdownStyle {
	case "", "dark", "light":
	default:
		errs = append(errs, fmt.Errorf("ui.markdown_style must be \"dark\" or \"light\", got %q", c.UI.MarkdownStyle))
	}
	if c.Server.MaxUploadMiB < 0 {
		errs = append(errs, fmt.Errorf("server.max_upload_mib must not be negative, got %d", c.Server.MaxUploadMiB))
	}
	if err := ValidateTracing(c.Tracing); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ValidateTracing checks tracing configuration for errors.
func ValidateTracing(tc tracing.Config) error {
	if tc.SampleRate < 0.0 || tc.SampleRate > 1.0 {
		return fmt.Errorf("tracing.sample_rate must be between 0.0 and 1.0, got %v", tc.SampleRate)
	}

	if tc.Exporter != "" && !slices.Contains(tracing.Exporters(), tc.Exporter) {
		return fmt.Errorf("tracing.exporter must be one of %s, got %q",
			strings.Join(tracing.Exporters(), ", "), tc.Exporter)
	}

	if tc.Enabled {
		if tc.Exporter == "file" && tc.FilePath == "" {
			return fmt.Errorf("tracing.file_path is required when exporter is \"file\"")
		}
		if tc.Exporter == "otlp" && tc.OTLPEndpoint == "" {
			return fmt.Errorf("tracing.otlp_endpoint is required when exporter is \"otlp\"")
		}
	}
	return nil
}

// DefaultTracesFilePath returns ~/.config/cheds/traces/traces.jsonl, or ""
// when the home directory is unknown.
func DefaultTracesFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "cheds", "traces", "traces.jsonl")
}

// ResolveDataDir returns dir when it exists. A relative dir that does not
// exist is retried next to the executable, so a packaged binary finds the
// csv_files folder shipped beside it. The configured value is returned
// unchanged when neither exists; the loader reports it as not found.
func ResolveDataDir(dir string) string {
	return resolveDataDir(dir, os.Executable)
}

func resolveDataDir(dir string, executable func() (string, error)) string {
	if isDir(dir) || filepath.IsAbs(dir) {
		return dir
	}
	exe, err := executable()
	if err != nil {
		return dir
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	candidate := filepath.Join(filepath.Dir(exe), dir)
	if isDir(candidate) {
		log.Debug(log.CatConfig, "Using data directory next to executable", "dir", candidate)
		return candidate
	}
	return dir
}

func isDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# CHEDS Analytics Configuration

# Directory holding the data product CSV files.
# Relative paths are also tried next to the cheds executable.
data_dir: csv_files

# File discovery pattern inside data_dir. Use "**/*.csv" to include subdirectories.
pattern: "*.csv"

# Reload automatically when data files change
auto_refresh: true
auto_refresh_debounce: 1s

# Terminal dashboard settings
ui:
  show_log_pane: false   # Show the log pane below the dashboard
  preview_rows: 100      # Rows shown in the data explorer preview
  top_n: 10              # Bars shown in "top N" charts
  # markdown_style: dark # Report rendering style: "dark" (default) or "light"

# HTTP surface (cheds serve)
server:
  addr: 127.0.0.1:8501
  max_upload_mib: 200

# Tracing of data loads and HTTP requests
# tracing:
#   enabled: false                 # Enable/disable tracing (default: false)
#   exporter: file                 # Export backend: none, file, stdout, otlp (default: file)
#   file_path: ~/.config/cheds/traces/traces.jsonl  # Output file for file exporter
#   otlp_endpoint: localhost:4317  # OTLP collector endpoint (for otlp exporter)
#   sample_rate: 1.0               # Trace sampling rate 0.0-1.0 (default: 1.0)
`
}

// WriteDefaultConfig creates a config file at the given path with default settings and comments.
// Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	log.Debug(log.CatConfig, "Writing default config", "path", configPath)

	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to create config directory", err, "dir", dir)
		return fmt.Errorf("creating config directory: %w", err)
	}

	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0o600); err != nil {
		log.ErrorErr(log.CatConfig, "Failed to write config file", err, "path", configPath)
		return fmt.Errorf("writing config file: %w", err)
	}

	log.Info(log.CatConfig, "Created default config", "path", configPath)
	return nil
}
