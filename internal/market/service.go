// Package market assembles dashboard snapshots, search results and comparisons on top of
// the shared fetch orchestrator.
package market

import (
	"context"
	"errors"
	"time"

	"MarketPulse/internal/cache"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/common"
	"MarketPulse/internal/model"
	"MarketPulse/internal/symbols"
)

const (
	// SearchLimit caps how many equity hits a search returns.
	SearchLimit = 8
	// CompareLimit caps how many symbols one comparison may request.
	CompareLimit = 10
)

var (
	ErrEmptyQuery     = errors.New("empty query")
	ErrBadPeriod      = errors.New("unsupported period")
	ErrTooManySymbols = errors.New("too many symbols")
)

// ComparePeriods are the history windows accepted by Compare.
var ComparePeriods = map[string]bool{
	"5d": true, "1mo": true, "3mo": true, "6mo": true, "1y": true, "2y": true, "5y": true, "ytd": true,
}

// Service is shared by the HTTP handlers and the broadcaster.
type Service struct {
	collector *collector.Collector
	searcher  collector.Searcher
	registry  *symbols.Registry
	cache     cache.Cache[[]model.SearchResult]
	logger    *common.Logger
	now       func() time.Time
}

// NewService wires a Service. searcher may be nil when the provider has no symbol lookup.
func NewService(c *collector.Collector, searcher collector.Searcher, registry *symbols.Registry,
	searchCache cache.Cache[[]model.SearchResult], logger *common.Logger) *Service {
	return &Service{
		collector: c,
		searcher:  searcher,
		registry:  registry,
		cache:     searchCache,
		logger:    logger.With("market"),
		now:       time.Now,
	}
}

// Registry exposes the configured universe.
func (s *Service) Registry() *symbols.Registry { return s.registry }

// PurgeCache evicts expired search results.
func (s *Service) PurgeCache(ctx context.Context) int {
	return s.cache.Purge(ctx)
}
