// Package cache is a time-boxed memoization layer. Entries expire after
// a fixed TTL, checked lazily on read; Sweep exists only to bound
// memory on long runs, never for correctness. Entries are never mutated
// after insertion.
package cache

import (
	"sync"
	"time"
)

type entry[V any] struct {
	value     V
	writtenAt time.Time
}

// Cache memoizes values by string key with TTL expiry.
type Cache[V any] struct {
	mu      sync.Mutex
	ttl     time.Duration
	now     func() time.Time
	entries map[string]entry[V]
}

// Option configures a Cache.
type Option[V any] func(*Cache[V])

// WithClock overrides the time source. Used by tests.
func WithClock[V any](now func() time.Time) Option[V] {
	return func(c *Cache[V]) { c.now = now }
}

// New creates a Cache. TTL defaults to 3 hours.
func New[V any](ttl time.Duration, opts ...Option[V]) *Cache[V] {
	if ttl <= 0 {
		ttl = 3 * time.Hour
	}
	c := &Cache[V]{ttl: ttl, now: time.Now, entries: make(map[string]entry[V])}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Get returns the cached value if present and fresh. An expired entry
// is deleted on the spot.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	if c.now().Sub(e.writtenAt) > c.ttl {
		delete(c.entries, key)
		var zero V
		return zero, false
	}
	return e.value, true
}

// Set stores a value under key, stamped with the current time.
func (c *Cache[V]) Set(key string, v V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry[V]{value: v, writtenAt: c.now()}
}

// Sweep drops all expired entries and returns how many were removed.
func (c *Cache[V]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	now := c.now()
	for k, e := range c.entries {
		if now.Sub(e.writtenAt) > c.ttl {
			delete(c.entries, k)
			n++
		}
	}
	return n
}

// Len returns the number of stored entries, expired or not.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
