// Package aggregate computes summaries and column aggregations over the
// session's datasets. Every function is pure: inputs are read, never
// modified, and a missing optional column yields ok=false instead of an
// error so callers can omit the figure.
package aggregate

import (
	"errors"
	"fmt"

	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/dataset"
)

var (
	// ErrUnknownDomain is returned for a domain the catalog does not list.
	ErrUnknownDomain = errors.New("unknown domain")
	// ErrUnknownProduct is returned when a required dataset is not loaded.
	ErrUnknownProduct = errors.New("unknown product")
)

// Source is a read-only view of loaded datasets. *registry.Registry
// satisfies it.
type Source interface {
	All() []*dataset.Dataset
	Get(id string) (*dataset.Dataset, bool)
}

// Summary describes how much of one domain is loaded.
type Summary struct {
	Domain      string   `json:"domain"`
	Key         string   `json:"key"`
	LoadedCount int      `json:"loaded_count"`
	TotalCount  int      `json:"total_count"`
	RecordTotal int      `json:"record_total"`
	AvgColumns  float64  `json:"avg_columns"`
	CoveragePct float64  `json:"coverage_pct"`
	Loaded      []string `json:"loaded"`
}

// OverviewMetrics aggregates across every loaded dataset.
type OverviewMetrics struct {
	TotalProducts        int     `json:"total_products"`
	TotalRecords         int     `json:"total_records"`
	TotalColumns         int     `json:"total_columns"`
	AvgRecordsPerProduct int     `json:"avg_records_per_product"`
	CatalogTotal         int     `json:"catalog_total"`
	CatalogCoveragePct   float64 `json:"catalog_coverage_pct"`
	ActiveDomains        int     `json:"active_domains"`
}

// Product returns the dataset for id or ErrUnknownProduct.
func Product(src Source, id string) (*dataset.Dataset, error) {
	d, ok := src.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProduct, id)
	}
	return d, nil
}

// DomainSummary computes coverage and totals for one domain, looked up by
// name or key.
func DomainSummary(src Source, cat *catalog.Catalog, domain string) (Summary, error) {
	d, ok := cat.Domain(domain)
	if !ok {
		return Summary{}, fmt.Errorf("%w: %s", ErrUnknownDomain, domain)
	}
	return summarize(index(src), d), nil
}

// DomainSummaries returns a Summary per domain in catalog order.
func DomainSummaries(src Source, cat *catalog.Catalog) []Summary {
	loaded := index(src)
	domains := cat.Domains()
	out := make([]Summary, len(domains))
	for i, d := range domains {
		out[i] = summarize(loaded, d)
	}
	return out
}

// Overview computes whole-session totals. The per-product average uses
// integer division.
func Overview(src Source, cat *catalog.Catalog) OverviewMetrics {
	all := src.All()
	m := OverviewMetrics{TotalProducts: len(all)}
	for _, d := range all {
		m.TotalRecords += d.RowCount
		m.TotalColumns += d.ColumnCount
	}
	if m.TotalProducts > 0 {
		m.AvgRecordsPerProduct = m.TotalRecords / m.TotalProducts
	}

	if cat != nil {
		m.CatalogTotal = cat.TotalProducts()
		catalogued := 0
		for _, s := range DomainSummaries(src, cat) {
			catalogued += s.LoadedCount
			if s.LoadedCount > 0 {
				m.ActiveDomains++
			}
		}
		m.CatalogCoveragePct = Percentage(float64(catalogued), float64(m.CatalogTotal))
	}
	return m
}

func index(src Source) map[string]*dataset.Dataset {
	all := src.All()
	m := make(map[string]*dataset.Dataset, len(all))
	for _, d := range all {
		m[d.ProductID] = d
	}
	return m
}

func summarize(loaded map[string]*dataset.Dataset, d catalog.Domain) Summary {
	s := Summary{Domain: d.Name, Key: d.Key, TotalCount: len(d.Products)}
	cols := 0
	for _, id := range d.Products {
		ds, ok := loaded[id]
		if !ok {
			continue
		}
		s.LoadedCount++
		s.RecordTotal += ds.RowCount
		cols += ds.ColumnCount
		s.Loaded = append(s.Loaded, id)
	}
	if s.LoadedCount > 0 {
		s.AvgColumns = float64(cols) / float64(s.LoadedCount)
	}
	s.CoveragePct = Percentage(float64(s.LoadedCount), float64(s.TotalCount))
	return s
}
