package market

import (
	"context"
	"sort"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/collector"
	"MarketPulse/internal/model"
)

// IndexSnapshot fetches every configured index. Each row is present; failed rows carry a
// reason and "N/A" values. The error is ErrAllUnavailable when the provider was unreachable
// for every symbol, in which case the snapshot is still returned.
func (s *Service) IndexSnapshot(ctx context.Context) (model.IndexSnapshot, error) {
	results, err := s.collector.Collect(ctx, s.registry.Indices(), collector.IndexRequirement())

	snap := model.IndexSnapshot{
		Regions:     make(map[string][]model.IndexEntry),
		GeneratedAt: s.now(),
	}
	for _, group := range s.registry.IndexGroups() {
		rows := make([]model.IndexEntry, 0, len(group.Symbols))
		for _, sym := range group.Symbols {
			rows = append(rows, indexEntry(sym, results[sym.Ticker]))
		}
		snap.Regions[group.Region] = rows
	}
	return snap, err
}

func indexEntry(sym model.Symbol, r collector.Result) model.IndexEntry {
	e := model.IndexEntry{Symbol: sym.Ticker, Name: sym.Name}
	if !r.Available() {
		e.Reason = r.Reason()
		e.Price = model.Unavailable(r.Err)
		e.ChangePercent = model.Unavailable(r.Err)
		return e
	}

	e.Price = r.Metrics.Price
	e.ChangePercent = r.Metrics.Daily
	if q := r.Quote; q != nil {
		if q.Price.Valid {
			e.Price = model.Available(calculator.Round2(q.Price.Float64))
		}
		if q.ChangePercent.Valid {
			e.ChangePercent = model.Available(calculator.Round2(q.ChangePercent.Float64))
		}
		if q.ShortName.Valid && q.ShortName.String != "" {
			e.Name = q.ShortName.String
		}
	}
	return e
}

// SectorSnapshot fetches every sector ETF and orders rows by weight, heaviest first.
func (s *Service) SectorSnapshot(ctx context.Context) (model.SectorSnapshot, error) {
	sectors := s.registry.Sectors()
	results, err := s.collector.Collect(ctx, sectors, collector.SectorRequirement())

	snap := model.SectorSnapshot{
		Sectors:     make([]model.SectorEntry, 0, len(sectors)),
		GeneratedAt: s.now(),
	}
	for _, sym := range sectors {
		snap.Sectors = append(snap.Sectors, sectorEntry(sym, results[sym.Ticker]))
	}
	sort.SliceStable(snap.Sectors, func(i, j int) bool {
		return snap.Sectors[i].Weight > snap.Sectors[j].Weight
	})
	return snap, err
}

func sectorEntry(sym model.Symbol, r collector.Result) model.SectorEntry {
	e := model.SectorEntry{Sector: sym.Name, Symbol: sym.Ticker, Weight: sym.Weight}
	if !r.Available() {
		e.Reason = r.Reason()
		e.Change = model.Unavailable(r.Err)
		e.DailyChange = model.Unavailable(r.Err)
		e.YTDChange = model.Unavailable(r.Err)
		return e
	}
	e.Change = r.Metrics.Intraday
	e.DailyChange = r.Metrics.Daily
	e.YTDChange = r.Metrics.YTD
	return e
}
