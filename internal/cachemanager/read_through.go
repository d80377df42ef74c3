package cachemanager

import (
	"context"
	"time"
)

// ReadThrough computes a value with fn on a miss and caches it. Errors are
// returned to the caller and never cached.
type ReadThrough[K ~string, V any, I any] struct {
	cache CacheManager[K, V]
	fn    func(ctx context.Context, input I) (V, error)
	skip  bool
}

// NewReadThrough wraps cache. With skip set every call goes to fn.
func NewReadThrough[K ~string, V any, I any](
	cache CacheManager[K, V],
	fn func(ctx context.Context, input I) (V, error),
	skip bool,
) *ReadThrough[K, V, I] {
	return &ReadThrough[K, V, I]{cache: cache, fn: fn, skip: skip}
}

// Get returns the cached value for key or computes it from input.
func (r *ReadThrough[K, V, I]) Get(ctx context.Context, key K, input I, ttl time.Duration) (V, error) {
	if r.skip {
		return r.fn(ctx, input)
	}
	if v, ok := r.cache.Get(ctx, key); ok {
		return v, nil
	}

	v, err := r.fn(ctx, input)
	if err != nil {
		return v, err
	}
	r.cache.Set(ctx, key, v, ttl)
	return v, nil
}
