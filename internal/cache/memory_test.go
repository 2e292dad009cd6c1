package cache

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func TestMemoryCache_TTLWindow(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache[[]string](300*time.Second, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "aapl", []string{"AAPL"}))

	clock.Advance(200 * time.Second)
	got, ok := c.Get(ctx, "aapl")
	assert.True(t, ok)
	assert.Equal(t, []string{"AAPL"}, got)

	clock.Advance(100 * time.Second)
	_, ok = c.Get(ctx, "aapl")
	assert.True(t, ok, "age == ttl is still valid")

	clock.Advance(time.Second)
	_, ok = c.Get(ctx, "aapl")
	assert.False(t, ok)
}

func TestMemoryCache_NormalizedKeys(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int](time.Minute)

	require.NoError(t, c.Put(ctx, "  AAPL ", 1))
	v, ok := c.Get(ctx, "aapl")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	_, ok = c.Get(ctx, "msft")
	assert.False(t, ok)
}

func TestMemoryCache_LastWriteWins(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int](time.Minute)

	require.NoError(t, c.Put(ctx, "k", 1))
	require.NoError(t, c.Put(ctx, "K", 2))
	v, _ := c.Get(ctx, "k")
	assert.Equal(t, 2, v)
}

func TestMemoryCache_PutRefreshesAge(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache[int](10*time.Second, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "k", 1))
	clock.Advance(8 * time.Second)
	require.NoError(t, c.Put(ctx, "k", 2))
	clock.Advance(8 * time.Second)

	v, ok := c.Get(ctx, "k")
	assert.True(t, ok)
	assert.Equal(t, 2, v)
}

func TestMemoryCache_Purge(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache[int](10*time.Second, WithClock(clock.Now))

	require.NoError(t, c.Put(ctx, "old", 1))
	clock.Advance(11 * time.Second)
	require.NoError(t, c.Put(ctx, "new", 2))

	assert.Equal(t, 1, c.Purge(ctx))
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(ctx, "new")
	assert.True(t, ok)
}

func TestMemoryCache_MaxEntries(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache[int](time.Minute, WithClock(clock.Now), WithMaxEntries(2))

	for i := 0; i < 3; i++ {
		require.NoError(t, c.Put(ctx, fmt.Sprintf("k%d", i), i))
		clock.Advance(time.Second)
	}

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get(ctx, "k0")
	assert.False(t, ok, "oldest entry evicted")
	_, ok = c.Get(ctx, "k2")
	assert.True(t, ok)
}

func TestMemoryCache_BoundKeepsTTL(t *testing.T) {
	ctx := context.Background()
	clock := newFakeClock()
	c := NewMemoryCache[int](5*time.Second, WithClock(clock.Now), WithMaxEntries(10))

	require.NoError(t, c.Put(ctx, "k", 1))
	clock.Advance(6 * time.Second)
	_, ok := c.Get(ctx, "k")
	assert.False(t, ok)
}

func TestMemoryCache_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache[int](time.Minute, WithMaxEntries(16))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				key := fmt.Sprintf("k%d", i%32)
				_ = c.Put(ctx, key, i)
				c.Get(ctx, key)
				if i%50 == 0 {
					c.Purge(ctx)
				}
			}
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, c.Len(), 16)
}
