package market

import (
	"context"
	"fmt"
	"strings"

	"github.com/guregu/null/v6"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/calculator"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

// Search resolves query into at most SearchLimit equities with their latest price and change.
// Results are cached per normalized query; a result set is only cached when the provider
// was reachable.
func (s *Service) Search(ctx context.Context, query string) ([]model.SearchResult, error) {
	key := cache.Normalize(query)
	if key == "" {
		return nil, ErrEmptyQuery
	}
	if cached, ok := s.cache.Get(ctx, key); ok {
		s.logger.Debug().Str("query", key).Msg("search cache hit")
		return cached, nil
	}
	if s.searcher == nil {
		return nil, fmt.Errorf("search %q: %w", key, model.ErrProviderUnavailable)
	}

	hits, err := s.searcher.Search(ctx, strings.TrimSpace(query), SearchLimit)
	if err != nil {
		return nil, fmt.Errorf("search %q: %w", key, err)
	}

	syms := make([]model.Symbol, 0, SearchLimit)
	for _, h := range hits {
		if !strings.EqualFold(h.QuoteType, "EQUITY") {
			continue
		}
		syms = append(syms, model.Symbol{Ticker: h.Symbol, Name: h.Name, Group: h.Exchange})
		if len(syms) == SearchLimit {
			break
		}
	}

	results, err := s.collector.Collect(ctx, syms, collector.PriceRequirement())

	out := make([]model.SearchResult, 0, len(syms))
	seen := make(map[string]bool, len(syms))
	for _, sym := range syms {
		if seen[sym.Ticker] {
			continue
		}
		seen[sym.Ticker] = true
		out = append(out, searchResult(sym, results[sym.Ticker]))
	}

	if err != nil {
		s.logger.Warn().Err(err).Str("query", key).Msg("search prices unavailable, not caching")
		return out, nil
	}
	if err := s.cache.Put(ctx, key, out); err != nil {
		s.logger.Warn().Err(err).Str("query", key).Msg("search cache put failed")
	}
	return out, nil
}

// searchResult prefers the intraday change when the session has more than one bar and falls
// back to the change against the prior close.
func searchResult(sym model.Symbol, r collector.Result) model.SearchResult {
	res := model.SearchResult{Symbol: sym.Ticker, Name: sym.Name, Exchange: sym.Group}
	if !r.Available() {
		return res
	}
	if r.Metrics.Price.OK() {
		res.Price = null.FloatFrom(calculator.Round2(r.Metrics.Price.Value))
	}
	change := r.Metrics.Daily
	if r.IntradayBars > 1 {
		change = r.Metrics.Intraday.Or(r.Metrics.Daily)
	}
	if change.OK() {
		res.ChangePercent = null.FloatFrom(change.Value)
	}
	return res
}
