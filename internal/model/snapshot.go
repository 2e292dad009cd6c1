package model

import (
	"encoding/json"
	"time"

	"github.com/guregu/null/v6"
)

// IndexEntry is one index row of the dashboard snapshot.
type IndexEntry struct {
	Symbol        string `json:"symbol"`
	Name          string `json:"name"`
	Price         Metric `json:"price"`
	ChangePercent Metric `json:"changePercent"`
	Reason        string `json:"reason,omitempty"`
}

// IndexSnapshot groups index rows by region. It serializes as a bare region -> rows object.
type IndexSnapshot struct {
	Regions     map[string][]IndexEntry
	GeneratedAt time.Time
}

func (s IndexSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Regions)
}

// Stats counts available and unavailable rows.
func (s IndexSnapshot) Stats() (available, unavailable int) {
	for _, rows := range s.Regions {
		for _, r := range rows {
			if r.Reason == "" {
				available++
			} else {
				unavailable++
			}
		}
	}
	return available, unavailable
}

// SectorEntry is one sector row of the sector dashboard.
type SectorEntry struct {
	Sector      string  `json:"sector"`
	Symbol      string  `json:"symbol"`
	Change      Metric  `json:"change"`
	DailyChange Metric  `json:"dailyChange"`
	YTDChange   Metric  `json:"ytdChange"`
	Weight      float64 `json:"weight"`
	Reason      string  `json:"reason,omitempty"`
}

// SectorSnapshot is the weight-ordered sector list. It serializes as a bare array.
type SectorSnapshot struct {
	Sectors     []SectorEntry
	GeneratedAt time.Time
}

func (s SectorSnapshot) MarshalJSON() ([]byte, error) {
	if s.Sectors == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(s.Sectors)
}

// Stats counts available and unavailable rows.
func (s SectorSnapshot) Stats() (available, unavailable int) {
	for _, r := range s.Sectors {
		if r.Reason == "" {
			available++
		} else {
			unavailable++
		}
	}
	return available, unavailable
}

// SearchResult is one row of a symbol search. Price fields are omitted when the fetch failed.
type SearchResult struct {
	Symbol        string     `json:"symbol"`
	Name          string     `json:"name"`
	Exchange      string     `json:"exchange"`
	Price         null.Float `json:"price,omitzero"`
	ChangePercent null.Float `json:"changePercent,omitzero"`
}

// HistoryPoint is one daily close in a comparison series.
type HistoryPoint struct {
	Date   string  `json:"date"`
	Close  float64 `json:"close"`
	Volume float64 `json:"volume"`
}

// CompareSeries is the comparison view of one symbol.
type CompareSeries struct {
	Symbol        string         `json:"symbol"`
	History       []HistoryPoint `json:"history"`
	MarketCap     null.Float     `json:"marketCap"`
	PERatio       null.Float     `json:"peRatio"`
	RangeHigh     Metric         `json:"rangeHigh"`
	RangeLow      Metric         `json:"rangeLow"`
	RangePosition Metric         `json:"rangePosition"`
	Reason        string         `json:"reason,omitempty"`
}
