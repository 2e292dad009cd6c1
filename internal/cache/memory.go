package cache

import (
	"context"
	"sync"
	"time"
)

type entry[V any] struct {
	value      V
	insertedAt time.Time
}

// MemoryCache is an in-process Cache guarded by a RWMutex so concurrent Gets do not block
// each other.
type MemoryCache[V any] struct {
	mu         sync.RWMutex
	entries    map[string]entry[V]
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// MemoryOption configures a MemoryCache.
type MemoryOption func(*memoryOptions)

type memoryOptions struct {
	maxEntries int
	now        func() time.Time
}

// WithMaxEntries bounds the cache. On overflow expired entries go first, then the oldest.
func WithMaxEntries(n int) MemoryOption {
	return func(o *memoryOptions) { o.maxEntries = n }
}

// WithClock injects the clock used for ages.
func WithClock(now func() time.Time) MemoryOption {
	return func(o *memoryOptions) { o.now = now }
}

// NewMemoryCache creates an in-memory cache. A non-positive ttl falls back to DefaultTTL.
func NewMemoryCache[V any](ttl time.Duration, opts ...MemoryOption) *MemoryCache[V] {
	o := memoryOptions{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache[V]{
		entries:    make(map[string]entry[V]),
		ttl:        ttl,
		maxEntries: o.maxEntries,
		now:        o.now,
	}
}

func (c *MemoryCache[V]) Get(_ context.Context, key string) (V, bool) {
	c.mu.RLock()
	e, ok := c.entries[Normalize(key)]
	c.mu.RUnlock()

	if !ok || expired(e.insertedAt, c.now(), c.ttl) {
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *MemoryCache[V]) Put(_ context.Context, key string, value V) error {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[Normalize(key)] = entry[V]{value: value, insertedAt: now}
	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictLocked(now)
	}
	return nil
}

func (c *MemoryCache[V]) Purge(_ context.Context) int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for k, e := range c.entries {
		if expired(e.insertedAt, now, c.ttl) {
			delete(c.entries, k)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, expired or not.
func (c *MemoryCache[V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *MemoryCache[V]) evictLocked(now time.Time) {
	for k, e := range c.entries {
		if expired(e.insertedAt, now, c.ttl) {
			delete(c.entries, k)
		}
	}
	for len(c.entries) > c.maxEntries {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.insertedAt.Before(oldest) {
				oldestKey, oldest, first = k, e.insertedAt, false
			}
		}
		delete(c.entries, oldestKey)
	}
}
