package cachemanager

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/zjrosen/cheds/internal/log"
	"github.com/zjrosen/cheds/internal/metrics"
)

const (
	DefaultExpiration      = 10 * time.Minute
	DefaultCleanupInterval = 30 * time.Minute
)

// Memory is a CacheManager backed by go-cache.
type Memory[K ~string, V any] struct {
	name    string
	cache   *gocache.Cache
	metrics *metrics.Metrics
}

// NewMemory creates an in-memory cache. name tags log lines; m may be nil.
func NewMemory[K ~string, V any](name string, defaultExpiration, cleanupInterval time.Duration, m *metrics.Metrics) *Memory[K, V] {
	return &Memory[K, V]{
		name:    name,
		cache:   gocache.New(defaultExpiration, cleanupInterval),
		metrics: m,
	}
}

// Get returns the cached value for key. An entry of the wrong type counts
// as a miss.
func (c *Memory[K, V]) Get(_ context.Context, key K) (V, bool) {
	var zero V

	raw, found := c.cache.Get(string(key))
	if !found {
		c.metrics.ObserveCache(false)
		return zero, false
	}
	v, ok := raw.(V)
	if !ok {
		log.Error(log.CatCache, "wrong type in cache", "cache", c.name, "key", key)
		c.metrics.ObserveCache(false)
		return zero, false
	}

	log.Debug(log.CatCache, "cache hit", "cache", c.name, "key", key)
	c.metrics.ObserveCache(true)
	return v, true
}

// Set stores value under key for ttl.
func (c *Memory[K, V]) Set(_ context.Context, key K, value V, ttl time.Duration) {
	c.cache.Set(string(key), value, ttl)
}

// Delete removes keys.
func (c *Memory[K, V]) Delete(_ context.Context, keys ...K) {
	for _, k := range keys {
		c.cache.Delete(string(k))
	}
}

// Flush removes every entry.
func (c *Memory[K, V]) Flush(context.Context) {
	n := c.cache.ItemCount()
	c.cache.Flush()
	log.Debug(log.CatCache, "cache flushed", "cache", c.name, "entries", n)
}

// Len is the number of entries, including expired ones not yet evicted.
func (c *Memory[K, V]) Len() int {
	return c.cache.ItemCount()
}
