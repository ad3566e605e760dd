package lib

import (
	"context"
	"sync"
	"time"
)

type cacheEntry[V any] struct {
	value   V
	fetched time.Time
}

// Cache is a TTL cache whose entries are refreshed by a loader on expiry.
type Cache[K comparable, V any] struct {
	ttl     time.Duration
	load    func(ctx context.Context, key K) (V, error)
	now     func() time.Time
	mu      sync.Mutex
	entries map[K]cacheEntry[V]
}

// NewCache creates a cache that calls load for missing or expired keys.
func NewCache[K comparable, V any](ttl time.Duration, load func(ctx context.Context, key K) (V, error)) *Cache[K, V] {
	return &Cache[K, V]{
		ttl:     ttl,
		load:    load,
		now:     time.Now,
		entries: make(map[K]cacheEntry[V]),
	}
}

// WithClock replaces the cache's time source.
func (c *Cache[K, V]) WithClock(now func() time.Time) *Cache[K, V] {
	c.now = now
	return c
}

// Get returns the cached value for key, loading it when absent or stale.
// A failed reload returns the stale value alongside the error when one exists.
func (c *Cache[K, V]) Get(ctx context.Context, key K) (V, error) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Sub(entry.fetched) < c.ttl {
		return entry.value, nil
	}

	value, err := c.load(ctx, key)
	if err != nil {
		if ok {
			return entry.value, err
		}
		var zero V
		return zero, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry[V]{value: value, fetched: c.now()}
	c.mu.Unlock()
	return value, nil
}

// Invalidate drops key so the next Get reloads it.
func (c *Cache[K, V]) Invalidate(key K) {
	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()
}
