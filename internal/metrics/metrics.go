// Package metrics exposes prometheus collectors for data loads, registry
// state and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cheds"

// Load outcomes used as the "result" label.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds every collector cheds registers.
type Metrics struct {
	registry *prometheus.Registry

	FilesLoaded    *prometheus.CounterVec
	LoadDuration   prometheus.Histogram
	RowsLoaded     prometheus.Counter
	LoadedProducts prometheus.Gauge
	Reloads        *prometheus.CounterVec
	HTTPRequests   *prometheus.CounterVec
	CacheLookups   *prometheus.CounterVec
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		FilesLoaded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "files_total",
			Help:      "Files parsed by the loader, by result.",
		}, []string{"result"}),
		LoadDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of directory loads.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		RowsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "loader",
			Name:      "rows_total",
			Help:      "Data rows parsed across all files.",
		}),
		LoadedProducts: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "products",
			Help:      "Data products currently held in the session registry.",
		}),
		Reloads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "registry",
			Name:      "mutations_total",
			Help:      "Registry mutations, by kind (replaced, merged, put).",
		}, []string{"kind"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests served, by route and status code.",
		}, []string{"route", "code"}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "View cache lookups, by outcome (hit, miss).",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		m.FilesLoaded,
		m.LoadDuration,
		m.RowsLoaded,
		m.LoadedProducts,
		m.Reloads,
		m.HTTPRequests,
		m.CacheLookups,
		collectors.NewGoCollector(),
	)
	return m
}

// Registry returns the prometheus registry backing m.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveFile records one parsed (or failed) file. A nil Metrics is a no-op,
// so packages can take an optional *Metrics.
func (m *Metrics) ObserveFile(rows int, err error) {
	if m == nil {
		return
	}
	if err != nil {
		m.FilesLoaded.WithLabelValues(ResultFailed).Inc()
		return
	}
	m.FilesLoaded.WithLabelValues(ResultOK).Inc()
	m.RowsLoaded.Add(float64(rows))
}

// ObserveBatch records the duration of a directory load.
func (m *Metrics) ObserveBatch(seconds float64) {
	if m == nil {
		return
	}
	m.LoadDuration.Observe(seconds)
}

// ObserveRegistry records a registry mutation and the resulting size.
func (m *Metrics) ObserveRegistry(kind string, size int) {
	if m == nil {
		return
	}
	m.Reloads.WithLabelValues(kind).Inc()
	m.LoadedProducts.Set(float64(size))
}

// ObserveCache records a cache lookup.
func (m *Metrics) ObserveCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.CacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveHTTP records one served request.
func (m *Metrics) ObserveHTTP(route string, code int) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
