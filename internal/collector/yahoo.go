package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/model"
)

const (
	yahooChartURL  = "https://query1.finance.yahoo.com/v8/finance/chart/"
	yahooSearchURL = "https://query2.finance.yahoo.com/v1/finance/search"
)

// YahooClient implements Client and Searcher using the Yahoo Finance public API.
type YahooClient struct {
	ChartURL  string
	SearchURL string
	SymbolMap map[string]string // maps internal symbol to Yahoo ticker

	req *requester
}

// YahooOption configures a YahooClient.
type YahooOption func(*YahooClient)

// WithYahooEndpoints overrides the chart and search endpoints.
func WithYahooEndpoints(chartURL, searchURL string) YahooOption {
	return func(c *YahooClient) {
		c.ChartURL = chartURL
		c.SearchURL = searchURL
	}
}

// WithYahooRateLimit caps outbound requests per second. Zero disables limiting.
func WithYahooRateLimit(rps int) YahooOption {
	return func(c *YahooClient) {
		if rps <= 0 {
			c.req.limiter = nil
			return
		}
		c.req.limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
}

// NewYahooClient creates a new Yahoo Finance client.
func NewYahooClient(proxyURL string, opts ...YahooOption) *YahooClient {
	c := &YahooClient{
		ChartURL:  yahooChartURL,
		SearchURL: yahooSearchURL,
		SymbolMap: map[string]string{
			"SPX500": "^GSPC",
			"SPX":    "^GSPC",
			"SP500":  "^GSPC",
		},
		req: &requester{
			provider: "yahoo",
			client:   newHTTPClient(proxyURL, DefaultHTTPTimeout),
			limiter:  rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
			headers:  map[string]string{"User-Agent": "Mozilla/5.0"},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *YahooClient) Name() string { return "yahoo" }

func (c *YahooClient) yahooSymbol(symbol string) string {
	if mapped, ok := c.SymbolMap[symbol]; ok {
		return mapped
	}
	return symbol
}

// yahooChart is the response structure from Yahoo Finance chart API.
type yahooChart struct {
	Chart struct {
		Result []yahooChartResult `json:"result"`
		Error  *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

type yahooChartResult struct {
	Meta struct {
		Symbol             string   `json:"symbol"`
		Currency           string   `json:"currency"`
		ExchangeName       string   `json:"exchangeName"`
		FullExchangeName   string   `json:"fullExchangeName"`
		ShortName          string   `json:"shortName"`
		LongName           string   `json:"longName"`
		RegularMarketPrice *float64 `json:"regularMarketPrice"`
		ChartPreviousClose *float64 `json:"chartPreviousClose"`
		PreviousClose      *float64 `json:"previousClose"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
	} `json:"indicators"`
}

func at(values []*float64, i int) (float64, bool) {
	if i >= len(values) || values[i] == nil {
		return 0, false
	}
	return *values[i], true
}

// fetchChart returns nil, nil when Yahoo answers with an empty result set.
func (c *YahooClient) fetchChart(ctx context.Context, op, symbol string, q url.Values) (*yahooChartResult, error) {
	endpoint := c.ChartURL + url.PathEscape(c.yahooSymbol(symbol)) + "?" + q.Encode()

	var chart yahooChart
	if err := c.req.getJSON(ctx, op, symbol, endpoint, &chart); err != nil {
		return nil, err
	}
	if e := chart.Chart.Error; e != nil {
		cause := model.ErrProviderUnavailable
		if e.Code == "Not Found" {
			cause = model.ErrEmptyData
		}
		return nil, &ProviderError{Provider: "yahoo", Op: op, Symbol: symbol, Err: fmt.Errorf("%w: %s", cause, e.Description)}
	}
	if len(chart.Chart.Result) == 0 {
		return nil, nil
	}
	return &chart.Chart.Result[0], nil
}

// GetBars fetches OHLCV bars. Bars with a null open or close (holidays, halts) are skipped.
func (c *YahooClient) GetBars(ctx context.Context, symbol string, r BarRange) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("interval", r.Interval)
	if r.IsSpan() {
		end := r.End
		if end.IsZero() {
			end = time.Now()
		}
		q.Set("period1", strconv.FormatInt(r.Start.Unix(), 10))
		q.Set("period2", strconv.FormatInt(end.Unix(), 10))
	} else {
		q.Set("range", r.Period)
	}

	result, err := c.fetchChart(ctx, "bars", symbol, q)
	if err != nil {
		return nil, err
	}
	if result == nil || len(result.Indicators.Quote) == 0 {
		return []model.OHLCV{}, nil
	}

	quote := result.Indicators.Quote[0]
	bars := make([]model.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		o, okOpen := at(quote.Open, i)
		cl, okClose := at(quote.Close, i)
		if !okOpen || !okClose {
			continue
		}
		h, _ := at(quote.High, i)
		l, _ := at(quote.Low, i)
		v, _ := at(quote.Volume, i)
		bars = append(bars, model.OHLCV{
			Time:   time.Unix(ts, 0),
			Open:   o,
			High:   h,
			Low:    l,
			Close:  cl,
			Volume: v,
		})
	}

	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

// GetQuote derives a quote from chart metadata. Fundamentals are not exposed by this
// endpoint and stay null.
func (c *YahooClient) GetQuote(ctx context.Context, symbol string) (*model.QuoteInfo, error) {
	q := url.Values{}
	q.Set("interval", "1d")
	q.Set("range", "1d")

	result, err := c.fetchChart(ctx, "quote", symbol, q)
	if err != nil {
		return nil, err
	}
	if result == nil || result.Meta.RegularMarketPrice == nil {
		return nil, &ProviderError{Provider: "yahoo", Op: "quote", Symbol: symbol, Err: model.ErrEmptyData}
	}

	meta := result.Meta
	prev := meta.ChartPreviousClose
	if prev == nil {
		prev = meta.PreviousClose
	}
	info := &model.QuoteInfo{
		Symbol:        symbol,
		Price:         null.FloatFrom(*meta.RegularMarketPrice),
		PreviousClose: null.FloatFromPtr(prev),
		Currency:      null.NewString(meta.Currency, meta.Currency != ""),
		ShortName:     null.NewString(firstNonEmpty(meta.ShortName, meta.LongName), meta.ShortName != "" || meta.LongName != ""),
		Exchange:      null.NewString(firstNonEmpty(meta.FullExchangeName, meta.ExchangeName), meta.FullExchangeName != "" || meta.ExchangeName != ""),
	}
	if prev != nil {
		if pct, err := calculator.PercentChange(*prev, *meta.RegularMarketPrice); err == nil {
			info.ChangePercent = null.FloatFrom(pct)
		}
	}
	return info, nil
}

type yahooSearch struct {
	Quotes []struct {
		Symbol    string `json:"symbol"`
		ShortName string `json:"shortname"`
		LongName  string `json:"longname"`
		Exchange  string `json:"exchange"`
		ExchDisp  string `json:"exchDisp"`
		QuoteType string `json:"quoteType"`
	} `json:"quotes"`
}

// Search queries Yahoo's symbol lookup.
func (c *YahooClient) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("quotesCount", strconv.Itoa(limit))
	q.Set("newsCount", "0")

	var resp yahooSearch
	if err := c.req.getJSON(ctx, "search", "", c.SearchURL+"?"+q.Encode(), &resp); err != nil {
		return nil, err
	}

	hits := make([]model.SearchHit, 0, len(resp.Quotes))
	for _, quote := range resp.Quotes {
		if quote.Symbol == "" {
			continue
		}
		hits = append(hits, model.SearchHit{
			Symbol:    quote.Symbol,
			Name:      firstNonEmpty(quote.ShortName, quote.LongName, quote.Symbol),
			Exchange:  firstNonEmpty(quote.ExchDisp, quote.Exchange),
			QuoteType: quote.QuoteType,
		})
	}
	return hits, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
