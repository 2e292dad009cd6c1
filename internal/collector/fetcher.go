package collector

import (
	"context"
	"fmt"
	"time"

	"MarketPulse/internal/model"
)

// BarRange selects a window of bars either by provider period ("1d", "5d", "1mo") or by
// an explicit [Start, End) span, at the given interval ("1m", "1d").
type BarRange struct {
	Period   string
	Start    time.Time
	End      time.Time
	Interval string
}

// PeriodRange builds a period-based range.
func PeriodRange(period, interval string) BarRange {
	return BarRange{Period: period, Interval: interval}
}

// SpanRange builds an explicit start/end range.
func SpanRange(start, end time.Time, interval string) BarRange {
	return BarRange{Start: start, End: end, Interval: interval}
}

// IsSpan reports whether the range is start/end based.
func (r BarRange) IsSpan() bool { return !r.Start.IsZero() }

func (r BarRange) String() string {
	if r.IsSpan() {
		return fmt.Sprintf("%s..%s@%s", r.Start.Format("2006-01-02"), r.End.Format("2006-01-02"), r.Interval)
	}
	return r.Period + "@" + r.Interval
}

// Client defines the interface for fetching market data from a single upstream provider.
// GetBars returns an empty slice, not an error, when the window has no data.
type Client interface {
	GetBars(ctx context.Context, symbol string, r BarRange) ([]model.OHLCV, error)
	GetQuote(ctx context.Context, symbol string) (*model.QuoteInfo, error)
	Name() string
}

// Searcher resolves a free-text query into candidate symbols.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error)
}
