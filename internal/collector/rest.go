package collector

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/guregu/null/v6"
	"golang.org/x/time/rate"

	"MarketPulse/internal/model"
)

// RESTClient implements Client and Searcher against a generic bars/quote/search REST API
// authenticated with a bearer key.
type RESTClient struct {
	BaseURL string

	req *requester
}

// NewRESTClient creates a new client with optional proxy support.
func NewRESTClient(baseURL, apiKey, proxyURL string, rps int) *RESTClient {
	headers := map[string]string{"Accept": "application/json"}
	if apiKey != "" {
		headers["Authorization"] = "Bearer " + apiKey
	}
	var limiter *rate.Limiter
	if rps > 0 {
		limiter = rate.NewLimiter(rate.Limit(rps), rps)
	}
	return &RESTClient{
		BaseURL: strings.TrimRight(baseURL, "/"),
		req: &requester{
			provider: "rest",
			client:   newHTTPClient(proxyURL, DefaultHTTPTimeout),
			limiter:  limiter,
			headers:  headers,
		},
	}
}

func (c *RESTClient) Name() string { return "rest" }

// restBar is the expected JSON shape of one bar.
type restBar struct {
	Timestamp int64   `json:"timestamp"`
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Volume    float64 `json:"volume"`
}

type restQuote struct {
	Price         *float64 `json:"price"`
	ChangePercent *float64 `json:"change_percent"`
	PreviousClose *float64 `json:"previous_close"`
	ShortName     *string  `json:"short_name"`
	Currency      *string  `json:"currency"`
	MarketCap     *float64 `json:"market_cap"`
	PERatio       *float64 `json:"pe_ratio"`
	Sector        *string  `json:"sector"`
	Industry      *string  `json:"industry"`
	Exchange      *string  `json:"exchange"`
}

type restSearchHit struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}

func (c *RESTClient) GetBars(ctx context.Context, symbol string, r BarRange) ([]model.OHLCV, error) {
	q := url.Values{}
	q.Set("symbol", symbol)
	q.Set("interval", r.Interval)
	if r.IsSpan() {
		q.Set("start", strconv.FormatInt(r.Start.Unix(), 10))
		if !r.End.IsZero() {
			q.Set("end", strconv.FormatInt(r.End.Unix(), 10))
		}
	} else {
		q.Set("range", r.Period)
	}

	var raw []restBar
	if err := c.req.getJSON(ctx, "bars", symbol, c.BaseURL+"/api/v1/bars?"+q.Encode(), &raw); err != nil {
		return nil, err
	}

	bars := make([]model.OHLCV, len(raw))
	for i, rb := range raw {
		bars[i] = model.OHLCV{
			Time:   time.Unix(rb.Timestamp, 0),
			Open:   rb.Open,
			High:   rb.High,
			Low:    rb.Low,
			Close:  rb.Close,
			Volume: rb.Volume,
		}
	}
	// Ensure chronological order
	sort.Slice(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })
	return bars, nil
}

func (c *RESTClient) GetQuote(ctx context.Context, symbol string) (*model.QuoteInfo, error) {
	var raw restQuote
	endpoint := c.BaseURL + "/api/v1/quote?symbol=" + url.QueryEscape(symbol)
	if err := c.req.getJSON(ctx, "quote", symbol, endpoint, &raw); err != nil {
		return nil, err
	}
	if raw.Price == nil {
		return nil, &ProviderError{Provider: "rest", Op: "quote", Symbol: symbol, Err: fmt.Errorf("%w: missing price", model.ErrMalformedPayload)}
	}
	return &model.QuoteInfo{
		Symbol:        symbol,
		Price:         null.FloatFromPtr(raw.Price),
		ChangePercent: null.FloatFromPtr(raw.ChangePercent),
		PreviousClose: null.FloatFromPtr(raw.PreviousClose),
		ShortName:     null.StringFromPtr(raw.ShortName),
		Currency:      null.StringFromPtr(raw.Currency),
		MarketCap:     null.FloatFromPtr(raw.MarketCap),
		PERatio:       null.FloatFromPtr(raw.PERatio),
		Sector:        null.StringFromPtr(raw.Sector),
		Industry:      null.StringFromPtr(raw.Industry),
		Exchange:      null.StringFromPtr(raw.Exchange),
	}, nil
}

func (c *RESTClient) Search(ctx context.Context, query string, limit int) ([]model.SearchHit, error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(limit))

	var raw []restSearchHit
	if err := c.req.getJSON(ctx, "search", "", c.BaseURL+"/api/v1/search?"+q.Encode(), &raw); err != nil {
		return nil, err
	}
	hits := make([]model.SearchHit, 0, len(raw))
	for _, h := range raw {
		hits = append(hits, model.SearchHit{
			Symbol:    h.Symbol,
			Name:      firstNonEmpty(h.Name, h.Symbol),
			Exchange:  h.Exchange,
			QuoteType: strings.ToUpper(h.Type),
		})
	}
	return hits, nil
}
