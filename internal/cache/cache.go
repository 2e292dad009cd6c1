// Package cache holds query results for a fixed time-to-live.
package cache

import (
	"context"
	"strings"
	"time"
)

// DefaultTTL is how long a cached search result stays valid.
const DefaultTTL = 300 * time.Second

// Cache maps a normalized query to a previously computed value. An entry is found while
// its age is at most the TTL, independent of when expired entries are evicted.
type Cache[V any] interface {
	Get(ctx context.Context, key string) (V, bool)
	Put(ctx context.Context, key string, value V) error
	// Purge evicts expired entries and reports how many were removed.
	Purge(ctx context.Context) int
}

// Normalize lower-cases and trims a query so "AAPL " and "aapl" share an entry.
func Normalize(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

func expired(insertedAt, now time.Time, ttl time.Duration) bool {
	return now.Sub(insertedAt) > ttl
}
