package cachemanager

import (
	"context"
	"fmt"
	"strings"

	"github.com/zjrosen/cheds/internal/aggregate"
	"github.com/zjrosen/cheds/internal/catalog"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/views"
)

// GenerationSource is a dataset source that counts its mutations.
// *registry.Registry satisfies it.
type GenerationSource interface {
	aggregate.Source
	Generation() uint64
}

type viewKey string

// Views memoizes domain views per registry generation. A mutation bumps
// the generation, so stale entries are never served and simply expire.
type Views struct {
	src   GenerationSource
	cat   *catalog.Catalog
	opts  views.Options
	cache *Memory[viewKey, views.View]
	rt    *ReadThrough[viewKey, views.View, string]
}

// NewViews creates a view cache over src. m may be nil.
func NewViews(src GenerationSource, cat *catalog.Catalog, opts views.Options, m *metrics.Metrics) *Views {
	v := &Views{
		src:   src,
		cat:   cat,
		opts:  opts,
		cache: NewMemory[viewKey, views.View]("views", DefaultExpiration, DefaultCleanupInterval, m),
	}
	v.rt = NewReadThrough[viewKey, views.View, string](v.cache, v.build, false)
	return v
}

func (v *Views) build(_ context.Context, domain string) (views.View, error) {
	return views.Build(v.src, v.cat, domain, v.opts)
}

func (v *Views) key(domain string) viewKey {
	return viewKey(fmt.Sprintf("%d:%s:%d", v.src.Generation(), strings.ToLower(domain), v.opts.TopN))
}

// Domain returns the view for a domain name or key.
func (v *Views) Domain(ctx context.Context, domain string) (views.View, error) {
	return v.rt.Get(ctx, v.key(domain), domain, DefaultExpiration)
}

// All returns every domain's view in catalog order.
func (v *Views) All(ctx context.Context) []views.View {
	domains := v.cat.Domains()
	out := make([]views.View, 0, len(domains))
	for _, d := range domains {
		view, err := v.Domain(ctx, d.Key)
		if err != nil {
			continue
		}
		out = append(out, view)
	}
	return out
}

// Invalidate drops every cached view.
func (v *Views) Invalidate(ctx context.Context) {
	v.cache.Flush(ctx)
}

// Len is the number of cached views.
func (v *Views) Len() int {
	return v.cache.Len()
}
