// Package symbols is the static instrument universe: market indices grouped by region and
// sector ETFs with their approximate market weights.
package symbols

import (
	"fmt"
	"strings"

	"MarketPulse/internal/model"
)

// SectorsGroup is the Group assigned to every sector ETF.
const SectorsGroup = "sectors"

// IndexGroup is one region of the index dashboard.
type IndexGroup struct {
	Region  string         `yaml:"region"`
	Symbols []model.Symbol `yaml:"symbols"`
}

// Sector maps a sector name onto the ETF that tracks it.
type Sector struct {
	Name   string  `yaml:"name"`
	Symbol string  `yaml:"symbol"`
	Weight float64 `yaml:"weight"`
}

// Registry is immutable after construction and safe for concurrent reads.
type Registry struct {
	groups  []IndexGroup
	sectors []model.Symbol
	byTick  map[string]model.Symbol
}

// New builds a registry. Tickers must be non-empty and unique across the whole universe.
func New(groups []IndexGroup, sectors []Sector) (*Registry, error) {
	r := &Registry{byTick: make(map[string]model.Symbol)}

	add := func(s model.Symbol) error {
		if strings.TrimSpace(s.Ticker) == "" {
			return fmt.Errorf("%s: empty ticker", s.Group)
		}
		if prev, dup := r.byTick[s.Ticker]; dup {
			return fmt.Errorf("duplicate ticker %s in %s and %s", s.Ticker, prev.Group, s.Group)
		}
		r.byTick[s.Ticker] = s
		return nil
	}

	for _, g := range groups {
		if g.Region == "" {
			return nil, fmt.Errorf("index group without region")
		}
		group := IndexGroup{Region: g.Region, Symbols: make([]model.Symbol, 0, len(g.Symbols))}
		for _, s := range g.Symbols {
			s.Group = g.Region
			if s.Name == "" {
				s.Name = s.Ticker
			}
			if err := add(s); err != nil {
				return nil, err
			}
			group.Symbols = append(group.Symbols, s)
		}
		r.groups = append(r.groups, group)
	}

	for _, sec := range sectors {
		if sec.Weight < 0 {
			return nil, fmt.Errorf("sector %s: negative weight", sec.Name)
		}
		s := model.Symbol{Ticker: sec.Symbol, Name: sec.Name, Group: SectorsGroup, Weight: sec.Weight}
		if err := add(s); err != nil {
			return nil, err
		}
		r.sectors = append(r.sectors, s)
	}
	return r, nil
}

// Default returns the built-in universe.
func Default() *Registry {
	r, err := New(DefaultIndexGroups(), DefaultSectors())
	if err != nil {
		panic(err)
	}
	return r
}

// Regions returns region names in configured order.
func (r *Registry) Regions() []string {
	out := make([]string, len(r.groups))
	for i, g := range r.groups {
		out[i] = g.Region
	}
	return out
}

// IndexGroups returns a copy of the index groups.
func (r *Registry) IndexGroups() []IndexGroup {
	out := make([]IndexGroup, len(r.groups))
	for i, g := range r.groups {
		out[i] = IndexGroup{Region: g.Region, Symbols: append([]model.Symbol(nil), g.Symbols...)}
	}
	return out
}

// Indices returns every index symbol across regions.
func (r *Registry) Indices() []model.Symbol {
	var out []model.Symbol
	for _, g := range r.groups {
		out = append(out, g.Symbols...)
	}
	return out
}

// Sectors returns the sector ETFs in configured order.
func (r *Registry) Sectors() []model.Symbol {
	return append([]model.Symbol(nil), r.sectors...)
}

// Lookup finds a configured symbol by ticker.
func (r *Registry) Lookup(ticker string) (model.Symbol, bool) {
	s, ok := r.byTick[ticker]
	return s, ok
}
