package market

import (
	"context"
	"fmt"
	"strings"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

// Compare returns the daily close history over period for each ticker, together with the
// period's high/low range and where the latest price sits within it. Series keep request
// order; duplicates are collapsed.
func (s *Service) Compare(ctx context.Context, tickers []string, period string) ([]model.CompareSeries, error) {
	if period == "" {
		period = "1mo"
	}
	if !ComparePeriods[period] {
		return nil, fmt.Errorf("%w: %q", ErrBadPeriod, period)
	}

	syms := make([]model.Symbol, 0, len(tickers))
	seen := make(map[string]bool, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		sym, ok := s.registry.Lookup(t)
		if !ok {
			sym = model.Symbol{Ticker: t, Name: t}
		}
		syms = append(syms, sym)
	}
	if len(syms) == 0 {
		return nil, ErrEmptyQuery
	}
	if len(syms) > CompareLimit {
		return nil, fmt.Errorf("%w: %d > %d", ErrTooManySymbols, len(syms), CompareLimit)
	}

	results, err := s.collector.Collect(ctx, syms, collector.HistoryRequirement(period))

	out := make([]model.CompareSeries, 0, len(syms))
	for _, sym := range syms {
		out = append(out, compareSeries(sym, results[sym.Ticker]))
	}
	return out, err
}

func compareSeries(sym model.Symbol, r collector.Result) model.CompareSeries {
	cs := model.CompareSeries{Symbol: sym.Ticker, History: []model.HistoryPoint{}}
	if !r.Available() {
		cs.Reason = r.Reason()
		cs.RangeHigh = model.Unavailable(r.Err)
		cs.RangeLow = model.Unavailable(r.Err)
		cs.RangePosition = model.Unavailable(r.Err)
		return cs
	}

	for _, b := range r.History {
		cs.History = append(cs.History, model.HistoryPoint{
			Date:   b.Time.Format("2006-01-02"),
			Close:  calculator.Round2(b.Close),
			Volume: b.Volume,
		})
	}
	if q := r.Quote; q != nil {
		cs.MarketCap = q.MarketCap
		cs.PERatio = q.PERatio
	}

	high, low, err := calculator.PriceRange(r.History)
	if err != nil {
		cs.RangeHigh = model.Unavailable(err)
		cs.RangeLow = model.Unavailable(err)
		cs.RangePosition = model.Unavailable(err)
		return cs
	}
	cs.RangeHigh = model.Available(calculator.Round2(high))
	cs.RangeLow = model.Available(calculator.Round2(low))

	current, ok := model.LastClose(r.History)
	if q := r.Quote; q != nil && q.Price.Valid {
		current, ok = q.Price.Float64, true
	}
	if !ok {
		cs.RangePosition = model.Unavailable(model.ErrEmptyData)
		return cs
	}
	cs.RangePosition = model.FromResult(calculator.RangePosition(current, high, low))
	return cs
}
