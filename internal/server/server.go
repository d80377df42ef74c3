// Package server exposes the session over HTTP: JSON views of the loaded
// data, CSV export, file upload (merge) and directory reload (replace).
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/zjrosen/cheds/internal/cachemanager"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/loader"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/registry"
	"github.com/zjrosen/cheds/internal/views"
)

// DefaultMaxUpload bounds a multipart upload request body.
const DefaultMaxUpload int64 = 200 << 20

// Deps are the collaborators the handlers call into.
type Deps struct {
	Catalog  *catalog.Catalog
	Registry *registry.Registry
	Loader   *loader.Loader
	Views    *cachemanager.Views
	Metrics  *metrics.Metrics
}

// Options tunes the server.
type Options struct {
	// DataDir is reloaded by POST /api/reload.
	DataDir string
	// MaxUploadBytes caps upload bodies; 0 means DefaultMaxUpload.
	MaxUploadBytes int64
	// GracefulPeriod bounds shutdown; 0 means 10s.
	GracefulPeriod time.Duration
}

// Server is the HTTP surface.
type Server struct {
	deps Deps
	opts Options
	e    *echo.Echo
}

// New builds the server and registers its routes.
func New(deps Deps, opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = DefaultMaxUpload
	}
	if opts.GracefulPeriod <= 0 {
		opts.GracefulPeriod = 10 * time.Second
	}
	if deps.Views == nil {
		deps.Views = cachemanager.NewViews(deps.Registry, deps.Catalog, views.Options{}, deps.Metrics)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler

	s := &Server{deps: deps, opts: opts, e: e}
	e.Use(s.observe)

	api := e.Group("/api")
	api.GET("/overview", s.overview)
	api.GET("/domains", s.domains)
	api.GET("/domains/:domain", s.domain)
	api.GET("/products", s.products)
	api.GET("/products/:id", s.product)
	api.GET("/products/:id/export", s.export)
	api.POST("/upload", s.upload)
	api.POST("/reload", s.reload)

	e.GET("/healthz", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]any{"loaded": deps.Registry.Len()})
	})
	if deps.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(deps.Metrics.Handler()))
	}
	return s
}

// Handler returns the root http.Handler.
func (s *Server) Handler() http.Handler {
	return s.e
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errc := make(chan error, 1)
	go func() {
		log.Info(log.CatServer, "listening", "addr", addr)
		errc <- s.e.Start(addr)
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	sctx, cancel := context.WithTimeout(context.Background(), s.opts.GracefulPeriod)
	defer cancel()
	log.Info(log.CatServer, "shutting down")
	if err := s.e.Shutdown(sctx); err != nil {
		return err
	}
	if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
