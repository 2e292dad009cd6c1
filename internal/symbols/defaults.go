package symbols

import "MarketPulse/internal/model"

func sym(ticker, name string) model.Symbol {
	return model.Symbol{Ticker: ticker, Name: name}
}

// DefaultIndexGroups lists the tracked world indices.
func DefaultIndexGroups() []IndexGroup {
	return []IndexGroup{
		{Region: "Asia", Symbols: []model.Symbol{
			sym("^NSEI", "NIFTY 50"),
			sym("^BSESN", "S&P BSE SENSEX"),
			sym("^N225", "Nikkei 225"),
			sym("^HSI", "Hang Seng Index"),
			sym("000001.SS", "SSE Composite Index"),
			sym("^KS11", "KOSPI Composite Index"),
			sym("^TWII", "TSEC Weighted Index"),
			sym("^STI", "STI Index"),
		}},
		{Region: "USA", Symbols: []model.Symbol{
			sym("^IXIC", "NASDAQ Composite"),
			sym("^GSPC", "S&P 500"),
			sym("^DJI", "Dow Jones Industrial Average"),
			sym("^RUT", "Russell 2000"),
			sym("^NYA", "NYSE Composite"),
		}},
		{Region: "Europe", Symbols: []model.Symbol{
			sym("^FTSE", "FTSE 100"),
			sym("^GDAXI", "DAX Performance Index"),
			sym("^FCHI", "CAC 40"),
			sym("^STOXX50E", "EURO STOXX 50"),
			sym("^IBEX", "IBEX 35"),
			sym("^OMX", "OMX Stockholm 30"),
			sym("^SSMI", "SMI"),
		}},
	}
}

// DefaultSectors lists the S&P 500 sector ETFs with approximate index weights in percent.
func DefaultSectors() []Sector {
	return []Sector{
		{Name: "All Sectors", Symbol: "SPY", Weight: 100.00},
		{Name: "Technology", Symbol: "XLK", Weight: 27.50},
		{Name: "Financial Services", Symbol: "XLF", Weight: 15.92},
		{Name: "Consumer Cyclical", Symbol: "XLY", Weight: 10.58},
		{Name: "Healthcare", Symbol: "XLV", Weight: 10.23},
		{Name: "Communication Services", Symbol: "XLC", Weight: 9.12},
		{Name: "Industrials", Symbol: "XLI", Weight: 8.46},
		{Name: "Consumer Defensive", Symbol: "XLP", Weight: 6.12},
		{Name: "Energy", Symbol: "XLE", Weight: 4.40},
		{Name: "Basic Materials", Symbol: "XLB", Weight: 2.58},
		{Name: "Real Estate", Symbol: "XLRE", Weight: 2.58},
		{Name: "Utilities", Symbol: "XLU", Weight: 2.49},
	}
}
