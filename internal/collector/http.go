package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/time/rate"

	"MarketPulse/internal/model"
)

const (
	DefaultHTTPTimeout = 30 * time.Second
	DefaultRateLimit   = 10 // requests per second
)

// newHTTPClient builds an http.Client with optional proxy support.
func newHTTPClient(proxyURL string, timeout time.Duration) *http.Client {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}

// requester performs rate-limited GETs and decodes JSON bodies, classifying every failure.
type requester struct {
	provider string
	client   *http.Client
	limiter  *rate.Limiter
	headers  map[string]string
}

func (r *requester) getJSON(ctx context.Context, op, symbol, endpoint string, out any) error {
	fail := func(code int, err error) error {
		return &ProviderError{Provider: r.provider, Op: op, Symbol: symbol, StatusCode: code, Err: err}
	}

	if r.limiter != nil {
		if err := r.limiter.Wait(ctx); err != nil {
			return fail(0, limiterError(err))
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fail(0, fmt.Errorf("%w: build request: %w", model.ErrProviderUnavailable, err))
	}
	for k, v := range r.headers {
		req.Header.Set(k, v)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return fail(0, transportError(err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fail(resp.StatusCode, transportError(err))
	}
	if resp.StatusCode != http.StatusOK {
		return fail(resp.StatusCode, fmt.Errorf("%w: body: %.200s", statusError(resp.StatusCode), string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fail(resp.StatusCode, fmt.Errorf("%w: %w", model.ErrMalformedPayload, err))
	}
	return nil
}
