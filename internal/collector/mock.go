package collector

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/guregu/null/v6"

	"MarketPulse/internal/model"
)

// MockSeries is the canned data a MockClient serves for one symbol.
type MockSeries struct {
	Intraday []model.OHLCV
	Daily    []model.OHLCV
	YTD      []model.OHLCV
	Quote    *model.QuoteInfo
	Err      error
	Delay    time.Duration
	// Stuck makes calls ignore cancellation and sleep for Delay regardless.
	Stuck bool
}

// MockClient returns controllable fixed data for development and testing.
// Symbols without a series fall back to generated bars around BasePrice when BasePrice
// is positive. Otherwise they have no bars and GetQuote fails with ErrEmptyData.
type MockClient struct {
	BasePrice float64
	Hits      []model.SearchHit
	SearchErr error

	mu       sync.Mutex
	series   map[string]MockSeries
	calls    map[string]int
	searches int
}

// NewMockClient creates an empty MockClient.
func NewMockClient() *MockClient {
	return &MockClient{
		series: make(map[string]MockSeries),
		calls:  make(map[string]int),
	}
}

// NewDemoClient serves generated data for every symbol so the service runs offline.
func NewDemoClient(basePrice float64) *MockClient {
	m := NewMockClient()
	m.BasePrice = basePrice
	return m
}

func (m *MockClient) Name() string { return "mock" }

// Set installs the series served for symbol.
func (m *MockClient) Set(symbol string, s MockSeries) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.series[symbol] = s
}

// Calls returns how many GetBars/GetQuote calls were made for symbol.
func (m *MockClient) Calls(symbol string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[symbol]
}

// TotalCalls returns the number of calls across all symbols.
func (m *MockClient) TotalCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := 0
	for _, n := range m.calls {
		total += n
	}
	return total
}

func (m *MockClient) lookup(ctx context.Context, symbol string) (MockSeries, bool, error) {
	m.mu.Lock()
	m.calls[symbol]++
	s, ok := m.series[symbol]
	m.mu.Unlock()

	if s.Delay > 0 {
		if s.Stuck {
			time.Sleep(s.Delay)
		} else {
			select {
			case <-time.After(s.Delay):
			case <-ctx.Done():
				return s, ok, fmt.Errorf("mock %s: %w", symbol, transportError(ctx.Err()))
			}
		}
	}
	if s.Err != nil {
		return s, ok, s.Err
	}
	return s, ok, nil
}

func (m *MockClient) GetBars(ctx context.Context, symbol string, r BarRange) ([]model.OHLCV, error) {
	s, ok, err := m.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if !ok {
		if m.BasePrice <= 0 {
			return []model.OHLCV{}, nil
		}
		return generateMockBars(symbolPrice(m.BasePrice, symbol), barCount(r), barStep(r)), nil
	}
	switch {
	case strings.HasSuffix(r.Interval, "m"):
		return s.Intraday, nil
	case r.IsSpan():
		return s.YTD, nil
	default:
		return s.Daily, nil
	}
}

func (m *MockClient) GetQuote(ctx context.Context, symbol string) (*model.QuoteInfo, error) {
	s, ok, err := m.lookup(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if ok && s.Quote != nil {
		q := *s.Quote
		return &q, nil
	}

	var daily []model.OHLCV
	if ok {
		daily = s.Daily
	} else if m.BasePrice > 0 {
		daily = generateMockBars(symbolPrice(m.BasePrice, symbol), 2, 24*time.Hour)
	}
	if len(daily) == 0 {
		return nil, &ProviderError{Provider: "mock", Op: "quote", Symbol: symbol, Err: model.ErrEmptyData}
	}
	last := daily[len(daily)-1].Close
	info := &model.QuoteInfo{Symbol: symbol, Price: null.FloatFrom(last), Currency: null.StringFrom("USD")}
	if len(daily) > 1 {
		prev := daily[len(daily)-2].Close
		info.PreviousClose = null.FloatFrom(prev)
		if prev != 0 {
			info.ChangePercent = null.FloatFrom((last - prev) / prev * 100)
		}
	}
	return info, nil
}

// Searches returns how many Search calls were made.
func (m *MockClient) Searches() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.searches
}

func (m *MockClient) Search(_ context.Context, query string, limit int) ([]model.SearchHit, error) {
	m.mu.Lock()
	m.searches++
	m.mu.Unlock()
	if m.SearchErr != nil {
		return nil, m.SearchErr
	}
	q := strings.ToUpper(query)
	hits := make([]model.SearchHit, 0, len(m.Hits))
	for _, h := range m.Hits {
		if strings.Contains(strings.ToUpper(h.Symbol), q) || strings.Contains(strings.ToUpper(h.Name), q) {
			hits = append(hits, h)
		}
		if limit > 0 && len(hits) == limit {
			break
		}
	}
	return hits, nil
}

// symbolPrice spreads generated prices so demo symbols do not all look identical.
func symbolPrice(base float64, symbol string) float64 {
	var sum int
	for _, r := range symbol {
		sum += int(r)
	}
	return base * (1 + float64(sum%50)/100)
}

func barCount(r BarRange) int {
	if r.IsSpan() {
		end := r.End
		if end.IsZero() {
			end = time.Now()
		}
		return int(math.Max(1, end.Sub(r.Start).Hours()/24))
	}
	if strings.HasSuffix(r.Interval, "m") {
		return 390
	}
	switch r.Period {
	case "1mo":
		return 22
	case "3mo":
		return 63
	case "6mo":
		return 126
	case "1y":
		return 252
	default:
		return 5
	}
}

func barStep(r BarRange) time.Duration {
	if strings.HasSuffix(r.Interval, "m") {
		return time.Minute
	}
	return 24 * time.Hour
}

func generateMockBars(basePrice float64, count int, step time.Duration) []model.OHLCV {
	bars := make([]model.OHLCV, count)
	now := time.Now()
	for i := 0; i < count; i++ {
		p := basePrice * (1 + float64(i-count/2)*0.001)
		bars[i] = model.OHLCV{
			Time:   now.Add(-time.Duration(count-i) * step),
			Open:   p * 0.999,
			High:   p * 1.005,
			Low:    p * 0.995,
			Close:  p,
			Volume: 1000000,
		}
	}
	return bars
}
