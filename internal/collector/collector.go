package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"MarketPulse/internal/calculator"
	"MarketPulse/internal/common"
	"MarketPulse/internal/model"
)

const (
	DefaultMaxInFlight   = 5
	DefaultTimeout       = 10 * time.Second
	DefaultThrottleDelay = 250 * time.Millisecond
)

var (
	IntradayRange = PeriodRange("1d", "1m")
	DailyRange    = PeriodRange("5d", "1d")
)

// Requirement selects which upstream calls are made per symbol.
type Requirement struct {
	Quote    bool
	Intraday *BarRange
	Daily    *BarRange
	YTD      bool
	History  *BarRange
}

func (r Requirement) hasBars() bool {
	return r.Intraday != nil || r.Daily != nil || r.YTD || r.History != nil
}

// SectorRequirement fetches everything needed for price, intraday, daily and YTD change.
func SectorRequirement() Requirement {
	return Requirement{Intraday: &IntradayRange, Daily: &DailyRange, YTD: true}
}

// IndexRequirement fetches a quote plus daily bars as a price fallback.
func IndexRequirement() Requirement {
	return Requirement{Quote: true, Daily: &DailyRange}
}

// PriceRequirement fetches the bars needed for a last price and intraday change.
func PriceRequirement() Requirement {
	return Requirement{Intraday: &IntradayRange, Daily: &DailyRange}
}

// HistoryRequirement fetches a quote and a daily history over period.
func HistoryRequirement(period string) Requirement {
	h := PeriodRange(period, "1d")
	return Requirement{Quote: true, History: &h}
}

// Result is the outcome for one symbol. Err is nil when the symbol is available.
type Result struct {
	Symbol  model.Symbol
	Metrics model.MetricSet
	Quote   *model.QuoteInfo
	History []model.OHLCV
	// IntradayBars is the length of the intraday series that fed Metrics.
	IntradayBars int
	Err          error
}

func (r Result) Available() bool { return r.Err == nil }

func (r Result) Reason() string { return model.Reason(r.Err) }

// Results are keyed by ticker.
type Results map[string]Result

// Stats counts available and unavailable symbols.
func (rs Results) Stats() (available, unavailable int) {
	for _, r := range rs {
		if r.Available() {
			available++
		} else {
			unavailable++
		}
	}
	return available, unavailable
}

// Collector fans out per-symbol fetches with bounded concurrency and a batch deadline.
type Collector struct {
	client        Client
	logger        *common.Logger
	maxInFlight   int
	timeout       time.Duration
	throttleDelay time.Duration
	now           func() time.Time
}

// Option configures a Collector.
type Option func(*Collector)

func WithMaxInFlight(n int) Option {
	return func(c *Collector) {
		if n > 0 {
			c.maxInFlight = n
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *Collector) {
		if d > 0 {
			c.timeout = d
		}
	}
}

func WithThrottleDelay(d time.Duration) Option {
	return func(c *Collector) { c.throttleDelay = d }
}

// WithClock sets the clock used for the YTD window.
func WithClock(now func() time.Time) Option {
	return func(c *Collector) { c.now = now }
}

func WithLogger(l *common.Logger) Option {
	return func(c *Collector) { c.logger = l.With("collector") }
}

// NewCollector creates a new Collector.
func NewCollector(client Client, opts ...Option) *Collector {
	c := &Collector{
		client:        client,
		logger:        common.NewSilentLogger(),
		maxInFlight:   DefaultMaxInFlight,
		timeout:       DefaultTimeout,
		throttleDelay: DefaultThrottleDelay,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Client returns the upstream client.
func (c *Collector) Client() Client { return c.client }

// Collect fetches every symbol under req. The result always has an entry for each distinct
// ticker; symbols unfinished at the deadline are reported with ErrTimeout. The error is
// ErrAllUnavailable only when every symbol failed to reach the provider.
func (c *Collector) Collect(ctx context.Context, symbols []model.Symbol, req Requirement) (Results, error) {
	unique := dedupe(symbols)
	out := make(Results, len(unique))
	if len(unique) == 0 {
		return out, nil
	}

	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	now := c.now()
	ch := make(chan Result, len(unique))
	go func() {
		g := new(errgroup.Group)
		g.SetLimit(c.maxInFlight)
		for _, sym := range unique {
			g.Go(func() error {
				ch <- c.fetchOne(ctx, sym, req, now)
				return nil
			})
		}
		_ = g.Wait()
	}()

wait:
	for len(out) < len(unique) {
		select {
		case r := <-ch:
			out[r.Symbol.Ticker] = r
		case <-ctx.Done():
			break wait
		}
	}

drain:
	for len(out) < len(unique) {
		select {
		case r := <-ch:
			out[r.Symbol.Ticker] = r
		default:
			break drain
		}
	}

	for _, sym := range unique {
		if _, ok := out[sym.Ticker]; !ok {
			out[sym.Ticker] = Result{Symbol: sym, Err: fmt.Errorf("%s: %w", sym.Ticker, model.ErrTimeout)}
		}
	}

	available, unavailable := out.Stats()
	c.logger.Debug().
		Int("symbols", len(unique)).
		Int("available", available).
		Int("unavailable", unavailable).
		Dur("elapsed", time.Since(start)).
		Msg("collect finished")

	if allUnreachable(out) {
		return out, fmt.Errorf("collect %d symbols via %s: %w", len(unique), c.client.Name(), model.ErrAllUnavailable)
	}
	return out, nil
}

func (c *Collector) fetchOne(ctx context.Context, sym model.Symbol, req Requirement, now time.Time) Result {
	res := Result{Symbol: sym}
	fail := func(what string, err error) Result {
		if ctx.Err() != nil && !errors.Is(err, model.ErrTimeout) {
			err = fmt.Errorf("%w: %w", model.ErrTimeout, err)
		}
		res.Err = fmt.Errorf("%s %s: %w", sym.Ticker, what, err)
		c.logger.Debug().Str("symbol", sym.Ticker).Str("reason", model.Reason(err)).Err(err).Msg("symbol unavailable")
		return res
	}
	if err := ctx.Err(); err != nil {
		return fail("start", transportError(err))
	}

	in := calculator.Inputs{Weight: sym.Weight}

	if req.Quote {
		err := c.throttled(ctx, func() (err error) {
			res.Quote, err = c.client.GetQuote(ctx, sym.Ticker)
			return err
		})
		switch {
		case err == nil:
		case errors.Is(err, model.ErrEmptyData) && req.hasBars():
			// a quote without a price is not fatal while bars can still supply one
			res.Quote = nil
			c.logger.Debug().Str("symbol", sym.Ticker).Err(err).Msg("quote empty, falling back to bars")
		default:
			return fail("quote", err)
		}
	}

	bars := func(what string, r *BarRange, dst *[]model.OHLCV) error {
		if r == nil {
			return nil
		}
		err := c.throttled(ctx, func() (err error) {
			*dst, err = c.client.GetBars(ctx, sym.Ticker, *r)
			return err
		})
		if err != nil {
			return fmt.Errorf("%s bars: %w", what, err)
		}
		return nil
	}
	if err := bars("intraday", req.Intraday, &in.Intraday); err != nil {
		return fail("fetch", err)
	}
	if err := bars("daily", req.Daily, &in.Daily); err != nil {
		return fail("fetch", err)
	}
	if req.YTD {
		ytd := SpanRange(calculator.YearStart(now), now, "1d")
		if err := bars("ytd", &ytd, &in.YTD); err != nil {
			return fail("fetch", err)
		}
	}
	if err := bars("history", req.History, &res.History); err != nil {
		return fail("fetch", err)
	}

	res.Metrics = calculator.Compute(in, now)
	res.IntradayBars = len(in.Intraday)
	if !hasPrice(res) {
		return fail("price", model.ErrEmptyData)
	}
	return res
}

// throttled runs fn, and after a throttling error waits throttleDelay and retries once.
func (c *Collector) throttled(ctx context.Context, fn func() error) error {
	err := fn()
	if !errors.Is(err, model.ErrThrottled) || c.throttleDelay <= 0 {
		return err
	}
	c.logger.Warn().Dur("delay", c.throttleDelay).Msg("provider throttled, backing off")
	select {
	case <-time.After(c.throttleDelay):
	case <-ctx.Done():
		return err
	}
	return fn()
}

func hasPrice(r Result) bool {
	if r.Quote != nil && r.Quote.Price.Valid {
		return true
	}
	if r.Metrics.Price.OK() {
		return true
	}
	return len(r.History) > 0
}

func dedupe(symbols []model.Symbol) []model.Symbol {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]model.Symbol, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s.Ticker]; ok {
			continue
		}
		seen[s.Ticker] = struct{}{}
		out = append(out, s)
	}
	return out
}

func allUnreachable(rs Results) bool {
	if len(rs) == 0 {
		return false
	}
	for _, r := range rs {
		if !errors.Is(r.Err, model.ErrProviderUnavailable) {
			return false
		}
	}
	return true
}
