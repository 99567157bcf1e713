// Package cache implements the short-lived in-memory cache shared by the
// resource services. Entries expire after a fixed TTL and are only ever
// invalidated wholesale or by key prefix.
package cache

import (
	"context"
	"strings"
	"sync"
	"time"
)

// DefaultTTL is how long an entry stays fresh
const DefaultTTL = 60 * time.Second

type entry[T any] struct {
	value    T
	storedAt time.Time
}

// Cache is a keyed TTL cache safe for concurrent use.
type Cache[T any] struct {
	mu      sync.RWMutex
	entries map[string]entry[T]
	gen     uint64 // bumped by every removal
	ttl     time.Duration
	now     func() time.Time
}

// Option configures a Cache
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mainly for tests
func WithClock(now func() time.Time) Option {
	return func(o *options) { o.now = now }
}

// New creates a cache whose entries are fresh for ttl
func New[T any](ttl time.Duration, opts ...Option) *Cache[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache[T]{
		entries: make(map[string]entry[T]),
		ttl:     ttl,
		now:     o.now,
	}
}

// TTL returns the freshness window
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

// Get returns the value stored under key if it is still fresh.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	var zero T
	if !ok {
		return zero, false
	}
	if c.now().Sub(e.storedAt) >= c.ttl {
		c.mu.Lock()
		// Re-check: a concurrent Set may have refreshed it
		if cur, ok := c.entries[key]; ok && cur.storedAt.Equal(e.storedAt) {
			delete(c.entries, key)
		}
		c.mu.Unlock()
		return zero, false
	}
	return e.value, true
}

// Set stores value under key with the current timestamp
func (c *Cache[T]) Set(key string, value T) {
	c.mu.Lock()
	c.entries[key] = entry[T]{value: value, storedAt: c.now()}
	c.mu.Unlock()
}

// Generation changes whenever entries are removed. A value fetched under
// an older generation may predate the removal.
func (c *Cache[T]) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.gen
}

// SetIfGeneration stores value only if nothing was removed since gen was
// read. It reports whether the value was stored.
func (c *Cache[T]) SetIfGeneration(key string, value T, gen uint64) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gen != gen {
		return false
	}
	c.entries[key] = entry[T]{value: value, storedAt: c.now()}
	return true
}

// Delete removes a single key
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	delete(c.entries, key)
	c.gen++
	c.mu.Unlock()
}

// DeletePrefix removes every key starting with prefix
func (c *Cache[T]) DeletePrefix(prefix string) {
	c.mu.Lock()
	for k := range c.entries {
		if strings.HasPrefix(k, prefix) {
			delete(c.entries, k)
		}
	}
	c.gen++
	c.mu.Unlock()
}

// Clear drops every entry
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	c.entries = make(map[string]entry[T])
	c.gen++
	c.mu.Unlock()
}

// Len returns the number of stored entries, fresh or not
func (c *Cache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Fetch returns the cached value for key, or calls fn and caches its result.
// Errors are never cached, nor is a result that an invalidation overtook
// while fn was running. The second result reports a cache hit.
func Fetch[T any](ctx context.Context, c *Cache[T], key string, fn func(context.Context) (T, error)) (T, bool, error) {
	gen := c.Generation()
	if v, ok := c.Get(key); ok {
		return v, true, nil
	}
	v, err := fn(ctx)
	if err != nil {
		var zero T
		return zero, false, err
	}
	c.SetIfGeneration(key, v, gen)
	return v, false, nil
}
