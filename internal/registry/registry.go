// Package registry holds the session's loaded datasets keyed by product id.
// It is created empty by the entry point and passed to whatever loads or
// reads data; there is no package-level state.
package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/zjrosen/cheds/internal/dataset"
	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/metrics"
	"github.com/zjrosen/cheds/internal/pubsub"
)

// Change describes one mutation.
type Change struct {
	Generation uint64
	ProductIDs []string
	Size       int
}

// Registry maps product id to Dataset. Insertion order is preserved;
// overwriting an id keeps its original position.
type Registry struct {
	mu         sync.RWMutex
	entries    map[string]*dataset.Dataset
	order      []string
	generation uint64

	broker  *pubsub.Broker[Change]
	metrics *metrics.Metrics
}

// New returns an empty registry. m may be nil.
func New(m *metrics.Metrics) *Registry {
	return &Registry{
		entries: make(map[string]*dataset.Dataset),
		broker:  pubsub.NewBroker[Change](),
		metrics: m,
	}
}

// Get returns the dataset for id.
func (r *Registry) Get(id string) (*dataset.Dataset, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.entries[id]
	return d, ok
}

// All returns a snapshot of every dataset in insertion order.
func (r *Registry) All() []*dataset.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*dataset.Dataset, len(r.order))
	for i, id := range r.order {
		out[i] = r.entries[id]
	}
	return out
}

// Map returns a snapshot of the id -> dataset mapping.
func (r *Registry) Map() map[string]*dataset.Dataset {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]*dataset.Dataset, len(r.entries))
	for id, d := range r.entries {
		out[id] = d
	}
	return out
}

// IDs returns the product ids in insertion order.
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Clone(r.order)
}

// Len returns the number of datasets held.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// IsLoaded reports whether any dataset is held.
func (r *Registry) IsLoaded() bool {
	return r.Len() > 0
}

// Generation increases on every mutation.
func (r *Registry) Generation() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.generation
}

// Put stores d under its product id, overwriting any previous entry.
func (r *Registry) Put(d *dataset.Dataset) {
	r.mu.Lock()
	r.put(d)
	ch := r.commit([]string{d.ProductID})
	r.mu.Unlock()

	r.publish(pubsub.UpdatedEvent, ch)
}

// ReplaceAll makes the registry hold exactly ds.
func (r *Registry) ReplaceAll(ds []*dataset.Dataset) {
	r.mu.Lock()
	r.entries = make(map[string]*dataset.Dataset, len(ds))
	r.order = make([]string, 0, len(ds))
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		r.put(d)
		ids = append(ids, d.ProductID)
	}
	ch := r.commit(ids)
	r.mu.Unlock()

	r.publish(pubsub.ReplacedEvent, ch)
}

// Merge stores ds, overwriting colliding ids and keeping everything else.
func (r *Registry) Merge(ds []*dataset.Dataset) {
	r.mu.Lock()
	ids := make([]string, 0, len(ds))
	for _, d := range ds {
		r.put(d)
		ids = append(ids, d.ProductID)
	}
	ch := r.commit(ids)
	r.mu.Unlock()

	r.publish(pubsub.MergedEvent, ch)
}

// Subscribe streams change events until ctx is cancelled.
func (r *Registry) Subscribe(ctx context.Context) <-chan pubsub.Event[Change] {
	return r.broker.Subscribe(ctx)
}

// Broker exposes the change broker for tea listeners.
func (r *Registry) Broker() *pubsub.Broker[Change] {
	return r.broker
}

// Close stops delivering change events.
func (r *Registry) Close() {
	r.broker.Close()
}

// put must be called with mu held.
func (r *Registry) put(d *dataset.Dataset) {
	if _, exists := r.entries[d.ProductID]; !exists {
		r.order = append(r.order, d.ProductID)
	}
	r.entries[d.ProductID] = d
}

// commit must be called with mu held.
func (r *Registry) commit(ids []string) Change {
	r.generation++
	return Change{Generation: r.generation, ProductIDs: ids, Size: len(r.entries)}
}

func (r *Registry) publish(kind pubsub.EventType, ch Change) {
	log.Info(log.CatRegistry, string(kind),
		"generation", ch.Generation, "products", len(ch.ProductIDs), "size", ch.Size)
	r.metrics.ObserveRegistry(string(kind), ch.Size)
	r.broker.Publish(kind, ch)
}
