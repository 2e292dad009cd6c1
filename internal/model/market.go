package model

import (
	"time"

	"github.com/guregu/null/v6"
)

// Symbol is a statically configured instrument.
type Symbol struct {
	Ticker string  `json:"symbol" yaml:"symbol"`
	Name   string  `json:"name" yaml:"name"`
	Group  string  `json:"group" yaml:"group"`
	Weight float64 `json:"weight,omitempty" yaml:"weight"`
}

// OHLCV represents a single candlestick bar.
type OHLCV struct {
	Time   time.Time `json:"time"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// QuoteInfo is a point-in-time quote. Fields the provider did not supply stay invalid (JSON null).
type QuoteInfo struct {
	Symbol        string      `json:"symbol"`
	Price         null.Float  `json:"price"`
	ChangePercent null.Float  `json:"changePercent"`
	PreviousClose null.Float  `json:"previousClose"`
	ShortName     null.String `json:"shortName"`
	Currency      null.String `json:"currency"`
	MarketCap     null.Float  `json:"marketCap"`
	PERatio       null.Float  `json:"peRatio"`
	Sector        null.String `json:"sector"`
	Industry      null.String `json:"industry"`
	Exchange      null.String `json:"exchange"`
}

// SearchHit is one raw match from the provider's symbol search.
type SearchHit struct {
	Symbol    string
	Name      string
	Exchange  string
	QuoteType string
}

// LastClose returns the close of the final bar, or false for an empty series.
func LastClose(bars []OHLCV) (float64, bool) {
	if len(bars) == 0 {
		return 0, false
	}
	return bars[len(bars)-1].Close, true
}
