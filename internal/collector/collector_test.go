package collector

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

var testNow = time.Date(2026, 3, 10, 16, 0, 0, 0, time.UTC)

func series(open, prev, last float64) MockSeries {
	return MockSeries{
		Intraday: []model.OHLCV{
			{Time: testNow.Add(-time.Hour), Open: open, Close: open},
			{Time: testNow, Open: open, Close: last},
		},
		Daily: []model.OHLCV{
			{Time: testNow.AddDate(0, 0, -1), Open: prev, Close: prev},
			{Time: testNow, Open: prev, Close: last},
		},
		YTD: []model.OHLCV{
			{Time: time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), Open: open, Close: open},
		},
	}
}

func symbolsOf(tickers ...string) []model.Symbol {
	out := make([]model.Symbol, len(tickers))
	for i, t := range tickers {
		out[i] = model.Symbol{Ticker: t, Name: t}
	}
	return out
}

func newTestCollector(client Client, opts ...Option) *Collector {
	opts = append([]Option{WithClock(func() time.Time { return testNow })}, opts...)
	return NewCollector(client, opts...)
}

func TestCollect_AllAvailable(t *testing.T) {
	mock := NewMockClient()
	mock.Set("XLK", series(100, 100, 110))
	mock.Set("XLF", series(50, 40, 50))

	rs, err := newTestCollector(mock).Collect(context.Background(), symbolsOf("XLK", "XLF"), SectorRequirement())
	require.NoError(t, err)
	require.Len(t, rs, 2)

	xlk := rs["XLK"]
	assert.True(t, xlk.Available())
	assert.Equal(t, model.Available(110), xlk.Metrics.Price)
	assert.Equal(t, model.Available(10), xlk.Metrics.Intraday)
	assert.Equal(t, model.Available(10), xlk.Metrics.Daily)
	assert.Equal(t, model.Available(10), xlk.Metrics.YTD)

	xlf := rs["XLF"]
	assert.Equal(t, model.Available(25), xlf.Metrics.Daily)
	assert.Equal(t, model.Available(0), xlf.Metrics.Intraday)
}

func TestCollect_PartialFailure(t *testing.T) {
	mock := NewMockClient()
	tickers := []string{"A", "B", "C", "D", "E"}
	for _, tk := range tickers {
		mock.Set(tk, series(10, 10, 11))
	}
	down := &ProviderError{Provider: "mock", Op: "bars", Err: model.ErrProviderUnavailable}
	mock.Set("B", MockSeries{Err: down})
	mock.Set("D", MockSeries{Err: down})

	rs, err := newTestCollector(mock).Collect(context.Background(), symbolsOf(tickers...), SectorRequirement())
	require.NoError(t, err)
	require.Len(t, rs, len(tickers))

	available, unavailable := rs.Stats()
	assert.Equal(t, 3, available)
	assert.Equal(t, 2, unavailable)
	assert.Equal(t, "provider_unavailable", rs["B"].Reason())
	assert.True(t, rs["C"].Available())
}

func TestCollect_AllUnavailable(t *testing.T) {
	mock := NewMockClient()
	down := &ProviderError{Provider: "mock", Op: "bars", Err: model.ErrProviderUnavailable}
	mock.Set("A", MockSeries{Err: down})
	mock.Set("B", MockSeries{Err: down})

	rs, err := newTestCollector(mock).Collect(context.Background(), symbolsOf("A", "B"), SectorRequirement())
	require.ErrorIs(t, err, model.ErrAllUnavailable)
	assert.Len(t, rs, 2)
}

func TestCollect_EmptyDataIsNotAllUnavailable(t *testing.T) {
	mock := NewMockClient()
	mock.Set("A", MockSeries{})

	rs, err := newTestCollector(mock).Collect(context.Background(), symbolsOf("A"), PriceRequirement())
	require.NoError(t, err)
	assert.Equal(t, "empty_data", rs["A"].Reason())
}

func TestCollect_DeadlineBoundsBatch(t *testing.T) {
	mock := NewMockClient()
	mock.Set("FAST", series(10, 10, 11))
	mock.Set("SLOW", MockSeries{Delay: 2 * time.Second, Stuck: true})

	c := newTestCollector(mock, WithTimeout(100*time.Millisecond))
	start := time.Now()
	rs, err := c.Collect(context.Background(), symbolsOf("FAST", "SLOW"), PriceRequirement())
	elapsed := time.Since(start)

	require.NoError(t, err)
	assert.Less(t, elapsed, time.Second)
	assert.True(t, rs["FAST"].Available())
	assert.ErrorIs(t, rs["SLOW"].Err, model.ErrTimeout)
	assert.Equal(t, "timeout", rs["SLOW"].Reason())
}

func TestCollect_DeduplicatesSymbols(t *testing.T) {
	mock := NewMockClient()
	mock.Set("XLK", series(100, 100, 110))

	rs, err := newTestCollector(mock).Collect(context.Background(), symbolsOf("XLK", "XLK", "XLK"), PriceRequirement())
	require.NoError(t, err)
	assert.Len(t, rs, 1)
	// intraday + daily
	assert.Equal(t, 2, mock.Calls("XLK"))
}

func TestCollect_EmptyInput(t *testing.T) {
	rs, err := newTestCollector(NewMockClient()).Collect(context.Background(), nil, SectorRequirement())
	require.NoError(t, err)
	assert.Empty(t, rs)
}

// countingClient records peak concurrency and can throttle the first calls.
type countingClient struct {
	inFlight  atomic.Int32
	peak      atomic.Int32
	calls     atomic.Int32
	throttleN int32
	delay     time.Duration
}

func (c *countingClient) Name() string { return "counting" }

func (c *countingClient) GetBars(ctx context.Context, _ string, _ BarRange) ([]model.OHLCV, error) {
	n := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		p := c.peak.Load()
		if n <= p || c.peak.CompareAndSwap(p, n) {
			break
		}
	}
	call := c.calls.Add(1)
	select {
	case <-time.After(c.delay):
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if call <= c.throttleN {
		return nil, &ProviderError{Provider: "counting", Op: "bars", StatusCode: 429, Err: model.ErrThrottled}
	}
	return []model.OHLCV{{Time: testNow, Open: 1, Close: 2}}, nil
}

func (c *countingClient) GetQuote(context.Context, string) (*model.QuoteInfo, error) {
	return nil, errors.New("not implemented")
}

func TestCollect_BoundedConcurrency(t *testing.T) {
	client := &countingClient{delay: 20 * time.Millisecond}
	tickers := make([]string, 20)
	for i := range tickers {
		tickers[i] = string(rune('A' + i))
	}
	req := Requirement{Daily: &DailyRange}

	rs, err := newTestCollector(client, WithMaxInFlight(3)).Collect(context.Background(), symbolsOf(tickers...), req)
	require.NoError(t, err)
	assert.Len(t, rs, 20)
	assert.LessOrEqual(t, client.peak.Load(), int32(3))
	assert.Equal(t, int32(20), client.calls.Load())
}

func TestCollect_ThrottleBacksOffAndRetries(t *testing.T) {
	client := &countingClient{throttleN: 1}
	req := Requirement{Daily: &DailyRange}

	c := newTestCollector(client, WithMaxInFlight(1), WithThrottleDelay(30*time.Millisecond))
	start := time.Now()
	rs, err := c.Collect(context.Background(), symbolsOf("A"), req)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, time.Since(start), 30*time.Millisecond)
	assert.True(t, rs["A"].Available())
	assert.Equal(t, int32(2), client.calls.Load())
}

func TestCollect_ConcurrentBatches(t *testing.T) {
	mock := NewMockClient()
	mock.Set("A", series(10, 10, 11))
	c := newTestCollector(mock)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs, err := c.Collect(context.Background(), symbolsOf("A"), PriceRequirement())
			assert.NoError(t, err)
			assert.True(t, rs["A"].Available())
		}()
	}
	wg.Wait()
}
