package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func newRESTServer(t *testing.T, handler http.HandlerFunc) *RESTClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewRESTClient(srv.URL+"/", "secret", "", 0)
}

func TestRESTClient_GetBars(t *testing.T) {
	client := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/bars", r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))
		assert.Equal(t, "XLK", r.URL.Query().Get("symbol"))
		assert.Equal(t, "5d", r.URL.Query().Get("range"))
		_, _ = w.Write([]byte(`[
			{"timestamp":1700086400,"open":2,"high":3,"low":1,"close":2.5,"volume":10},
			{"timestamp":1700000000,"open":1,"high":2,"low":1,"close":2,"volume":5}
		]`))
	})

	bars, err := client.GetBars(context.Background(), "XLK", DailyRange)
	require.NoError(t, err)
	require.Len(t, bars, 2)
	assert.Equal(t, 2.0, bars[0].Close)
	assert.Equal(t, 2.5, bars[1].Close)
}

func TestRESTClient_GetQuoteKeepsNulls(t *testing.T) {
	client := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"price":190.1,"change_percent":1.2,"market_cap":2.9e12,"pe_ratio":null,"sector":"Technology"}`))
	})

	q, err := client.GetQuote(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, 190.1, q.Price.Float64)
	assert.Equal(t, 2.9e12, q.MarketCap.Float64)
	assert.False(t, q.PERatio.Valid)
	assert.False(t, q.Industry.Valid)
	assert.Equal(t, "Technology", q.Sector.String)
}

func TestRESTClient_QuoteWithoutPrice(t *testing.T) {
	client := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"currency":"USD"}`))
	})

	_, err := client.GetQuote(context.Background(), "AAPL")
	assert.ErrorIs(t, err, model.ErrMalformedPayload)
}

func TestRESTClient_Search(t *testing.T) {
	client := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/search", r.URL.Path)
		assert.Equal(t, "msft", r.URL.Query().Get("q"))
		_, _ = w.Write([]byte(`[{"symbol":"MSFT","name":"Microsoft","exchange":"NASDAQ","type":"equity"}]`))
	})

	hits, err := client.Search(context.Background(), "msft", 5)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "EQUITY", hits[0].QuoteType)
}

func TestRESTClient_Throttled(t *testing.T) {
	client := newRESTServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	})

	_, err := client.GetBars(context.Background(), "XLK", DailyRange)
	assert.ErrorIs(t, err, model.ErrThrottled)
}
