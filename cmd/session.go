package cmd

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/zjrosen/cheds/internal/cachemanager"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/config"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/registry"
	"github.com/zjrosen/cheds/internal/tracing"
	"github.com/zjrosen/cheds/internal/views"
)

// session wires the catalog, registry, loader and view cache for one run.
type session struct {
	catalog  *catalog.Catalog
	metrics  *metrics.Metrics
	registry *registry.Registry
	loader   *loader.Loader
	views    *cachemanager.Views
	tracing  *tracing.Provider
}

func newSession(_ context.Context, c config.Config) (*session, error) {
	provider, err := tracing.NewProvider(c.Tracing)
	if err != nil {
		return nil, fmt.Errorf("initializing tracing: %w", err)
	}
	if provider.Enabled() {
		log.Info(log.CatTrace, "tracing enabled", "exporter", c.Tracing.Exporter)
	}

	cat := catalog.Default()
	m := metrics.New()
	reg := registry.New(m)
	l := loader.New(cat,
		loader.WithPattern(c.Pattern),
		loader.WithMetrics(m),
		loader.WithTracer(provider.Tracer()),
	)
	return &session{
		catalog:  cat,
		metrics:  m,
		registry: reg,
		loader:   l,
		views:    cachemanager.NewViews(reg, cat, views.Options{TopN: c.UI.TopN}, m),
		tracing:  provider,
	}, nil
}

// loadDir replaces the session with dir's contents and reports skipped
// files on w.
func (s *session) loadDir(ctx context.Context, dir string, w io.Writer) (loader.Result, error) {
	res, err := s.loader.LoadAll(ctx, dir)
	if err != nil {
		return res, err
	}
	s.registry.ReplaceAll(res.Datasets)
	for _, f := range res.Failures {
		_, _ = fmt.Fprintf(w, "skipped %s: %v\n", f.Filename, f.Err)
	}
	return res, nil
}

func (s *session) close() {
	s.registry.Close()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.tracing.Shutdown(ctx); err != nil {
		log.ErrorErr(log.CatTrace, "flushing traces", err)
	}
}

// openSession validates the config, builds a session and loads the data
// directory. Used by the non-interactive commands.
func openSession(ctx context.Context, w io.Writer) (*session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	s, err := newSession(ctx, cfg)
	if err != nil {
		return nil, err
	}
	if _, err := s.loadDir(ctx, config.ResolveDataDir(cfg.DataDir), w); err != nil {
		s.close()
		return nil, err
	}
	return s, nil
}
