package cmd

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/zjrosen/cheds/internal/config"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/server"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the session over HTTP",
	Long: `Load the data directory and serve JSON views, CSV export, file upload and
directory reload over HTTP. Prometheus metrics are exposed on /metrics.

A missing data directory is not fatal: the server starts empty and files can
be uploaded or the directory reloaded later.

Example:
  cheds serve
  cheds serve --addr :8080
  curl -F files=@CHEDS-HR-21_employees.csv localhost:8501/api/upload`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "address to listen on (overrides server.addr)")
}

func runServe(cmd *cobra.Command, _ []string) error {
	cleanupLog, err := initDebugLog("server")
	if err != nil {
		return err
	}
	defer cleanupLog()
	if !debugFlag && os.Getenv("CHEDS_DEBUG") == "" {
		level := log.LevelInfo
		if name := os.Getenv("CHEDS_LOG_LEVEL"); name != "" {
			if level, err = log.ParseLevel(name); err != nil {
				return err
			}
		}
		log.InitWriter(cmd.ErrOrStderr(), level)
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	s, err := newSession(ctx, cfg)
	if err != nil {
		return err
	}
	defer s.close()

	dataDir := config.ResolveDataDir(cfg.DataDir)
	if _, err := s.loadDir(ctx, dataDir, cmd.ErrOrStderr()); err != nil {
		var nf *loader.NotFoundError
		if !errors.As(err, &nf) {
			return err
		}
		log.Warn(log.CatServer, "starting with an empty session", "reason", err)
	}

	addr := serveAddr
	if addr == "" {
		addr = cfg.Server.Addr
	}
	srv := server.New(server.Deps{
		Catalog:  s.catalog,
		Registry: s.registry,
		Loader:   s.loader,
		Views:    s.views,
		Metrics:  s.metrics,
	}, server.Options{
		DataDir:        dataDir,
		MaxUploadBytes: cfg.Server.MaxUploadMiB << 20,
	})
	return srv.Run(ctx, addr)
}
