// Package loader discovers data product files, parses them into tables and
// wraps each in a dataset.Dataset. Loading never touches the session
// registry; callers decide whether a batch replaces or merges.
package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/table"
	"github.com/zjrosen/cheds/internal/tracing"
)

// DefaultPattern selects the files considered data products.
const DefaultPattern = "*.csv"

// Result is the outcome of a directory load.
type Result struct {
	BatchID  string
	Dir      string
	Datasets []*dataset.Dataset
	Failures []FileFailure
	Duration time.Duration
}

// Upload is one in-memory file handed in by a user.
type Upload struct {
	Name   string
	Reader io.Reader
}

// Loader parses data product files.
type Loader struct {
	catalog *catalog.Catalog
	pattern string
	metrics *metrics.Metrics
	tracer  trace.Tracer
}

// Option configures a Loader.
type Option func(*Loader)

// WithPattern sets the doublestar glob used to discover files.
func WithPattern(pattern string) Option {
	return func(l *Loader) {
		if pattern != "" {
			l.pattern = pattern
		}
	}
}

// WithMetrics records loads on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) { l.metrics = m }
}

// WithTracer sets the tracer used for load spans.
func WithTracer(t trace.Tracer) Option {
	return func(l *Loader) { l.tracer = t }
}

// New creates a Loader resolving field aliases from cat.
func New(cat *catalog.Catalog, opts ...Option) *Loader {
	l := &Loader{catalog: cat, pattern: DefaultPattern}
	for _, opt := range opts {
		opt(l)
	}
	if l.tracer == nil {
		l.tracer = tracing.Tracer("github.com/zjrosen/cheds/internal/loader")
	}
	return l
}

// Pattern returns the discovery glob.
func (l *Loader) Pattern() string { return l.pattern }

// LoadAll parses every matching file under dir in lexical order. Files that
// fail to parse are recorded in Result.Failures and skipped. When two files
// share a product id the later file replaces the earlier one in place.
// A missing directory or one without matching files yields *NotFoundError.
func (l *Loader) LoadAll(ctx context.Context, dir string) (Result, error) {
	start := time.Now()
	res := Result{BatchID: uuid.New().String(), Dir: dir}

	ctx, span := l.tracer.Start(ctx, tracing.SpanLoadAll, trace.WithAttributes(
		attribute.String(tracing.AttrBatchID, res.BatchID),
		attribute.String(tracing.AttrDataDir, dir),
		attribute.String(tracing.AttrPattern, l.pattern),
	))
	defer span.End()

	files, err := l.discover(dir)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		log.Warn(log.CatLoader, "no data loaded", "dir", dir, "error", err)
		return res, err
	}
	span.SetAttributes(attribute.Int(tracing.AttrFileCount, len(files)))

	byID := make(map[string]int, len(files))
	for _, rel := range files {
		path := filepath.Join(dir, filepath.FromSlash(rel))
		ds, err := l.loadPath(ctx, path, dataset.SourceDirectory)
		if err != nil {
			res.Failures = append(res.Failures, FileFailure{Filename: rel, Err: err})
			span.AddEvent(tracing.EventFileSkipped, trace.WithAttributes(
				attribute.String(tracing.AttrFilename, rel),
				attribute.String(tracing.AttrErrorMessage, err.Error()),
			))
			log.Warn(log.CatLoader, "skipping file", "file", rel, "error", err)
			continue
		}

		if i, dup := byID[ds.ProductID]; dup {
			log.Warn(log.CatLoader, "duplicate product id, later file wins",
				"product", ds.ProductID, "replaced", res.Datasets[i].Filename, "by", ds.Filename)
			res.Datasets[i] = ds
			continue
		}
		byID[ds.ProductID] = len(res.Datasets)
		res.Datasets = append(res.Datasets, ds)
	}

	res.Duration = time.Since(start)
	l.metrics.ObserveBatch(res.Duration.Seconds())
	span.SetAttributes(attribute.Int(tracing.AttrFailures, len(res.Failures)))

	log.Info(log.CatLoader, "directory loaded",
		"dir", dir, "batch", res.BatchID, "products", len(res.Datasets),
		"failures", len(res.Failures), "duration", res.Duration)
	return res, nil
}

// LoadFile parses a single file on disk.
func (l *Loader) LoadFile(ctx context.Context, path string) (*dataset.Dataset, error) {
	return l.loadPath(ctx, path, dataset.SourceDirectory)
}

// LoadOne parses an in-memory stream named name.
func (l *Loader) LoadOne(name string, r io.Reader) (*dataset.Dataset, error) {
	ds, err := l.parse(name, r, dataset.SourceUpload)
	l.metrics.ObserveFile(rowsOf(ds), err)
	return ds, err
}

// LoadUploads parses each upload independently; one bad file does not stop
// the others.
func (l *Loader) LoadUploads(ctx context.Context, uploads []Upload) ([]*dataset.Dataset, []FileFailure) {
	_, span := l.tracer.Start(ctx, tracing.SpanLoadUpload, trace.WithAttributes(
		attribute.Int(tracing.AttrFileCount, len(uploads)),
	))
	defer span.End()

	var (
		loaded   []*dataset.Dataset
		failures []FileFailure
	)
	for _, u := range uploads {
		ds, err := l.LoadOne(u.Name, u.Reader)
		if err != nil {
			failures = append(failures, FileFailure{Filename: u.Name, Err: err})
			log.Warn(log.CatLoader, "upload rejected", "file", u.Name, "error", err)
			continue
		}
		loaded = append(loaded, ds)
	}
	span.SetAttributes(attribute.Int(tracing.AttrFailures, len(failures)))
	return loaded, failures
}

func (l *Loader) discover(dir string) ([]string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &NotFoundError{Path: dir, Pattern: l.pattern, Err: err}
	}
	if !info.IsDir() {
		return nil, &NotFoundError{Path: dir, Pattern: l.pattern, Err: errors.New("not a directory")}
	}

	files, err := doublestar.Glob(os.DirFS(dir), l.pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("matching %q in %s: %w", l.pattern, dir, err)
	}
	if len(files) == 0 {
		return nil, &NotFoundError{Path: dir, Pattern: l.pattern}
	}
	slices.Sort(files)
	return files, nil
}

func (l *Loader) loadPath(ctx context.Context, path string, src dataset.Source) (*dataset.Dataset, error) {
	_, span := l.tracer.Start(ctx, tracing.SpanLoadFile, trace.WithAttributes(
		attribute.String(tracing.AttrFilename, filepath.Base(path)),
	))
	defer span.End()

	f, err := os.Open(path) //nolint:gosec // G304: path comes from the configured data directory
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = &NotFoundError{Path: path, Err: err}
		}
		span.SetStatus(codes.Error, err.Error())
		l.metrics.ObserveFile(0, err)
		return nil, err
	}
	defer func() { _ = f.Close() }()

	ds, err := l.parse(path, f, src)
	l.metrics.ObserveFile(rowsOf(ds), err)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(
		attribute.String(tracing.AttrProductID, ds.ProductID),
		attribute.Int(tracing.AttrRowCount, ds.RowCount),
		attribute.Int(tracing.AttrColCount, ds.ColumnCount),
	)
	return ds, nil
}

func (l *Loader) parse(name string, r io.Reader, src dataset.Source) (*dataset.Dataset, error) {
	tbl, err := table.Read(r)
	if err != nil {
		return nil, &ParseError{Filename: filepath.Base(name), Err: err}
	}

	id := dataset.ProductID(name)
	var aliases catalog.Aliases
	if l.catalog != nil {
		aliases = l.catalog.Aliases(id)
	}
	ds := dataset.New(name, tbl, aliases, src)

	log.Debug(log.CatLoader, "parsed file",
		"file", ds.Filename, "product", ds.ProductID, "rows", ds.RowCount, "columns", ds.ColumnCount)
	return ds, nil
}

func rowsOf(ds *dataset.Dataset) int {
	if ds == nil {
		return 0
	}
	return ds.RowCount
}
