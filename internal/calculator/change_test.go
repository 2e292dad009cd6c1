package calculator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MarketPulse/internal/model"
)

func bar(t time.Time, open, close float64) model.OHLCV {
	return model.OHLCV{Time: t, Open: open, High: math.Max(open, close), Low: math.Min(open, close), Close: close}
}

func TestRound2_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.125, 0.13},
		{-0.125, -0.13},
		{2.675, 2.68},
		{1.005, 1.01},
		{0.124999, 0.12},
		{10, 10},
		{-3.14159, -3.14},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round2(tt.in), "Round2(%v)", tt.in)
	}
}

func TestPercentChange(t *testing.T) {
	v, err := PercentChange(100, 110)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	v, err = PercentChange(3, 2)
	require.NoError(t, err)
	assert.Equal(t, -33.33, v)

	_, err = PercentChange(0, 5)
	assert.ErrorIs(t, err, model.ErrDivisionByZero)

	_, err = PercentChange(math.NaN(), 5)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = PercentChange(1, math.Inf(1))
	assert.ErrorIs(t, err, model.ErrInsufficientData)
}

func TestIntradayChange(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	bars := []model.OHLCV{
		bar(base, 100, 104),
		bar(base.Add(time.Minute), 104, 101),
		bar(base.Add(2*time.Minute), 101, 110),
	}
	v, err := IntradayChange(bars)
	require.NoError(t, err)
	assert.Equal(t, 10.0, v)

	_, err = IntradayChange(nil)
	assert.ErrorIs(t, err, model.ErrEmptyData)

	bars[0].Open = 0
	_, err = IntradayChange(bars)
	assert.ErrorIs(t, err, model.ErrDivisionByZero)
}

func TestIntradayChange_NeverNonFinite(t *testing.T) {
	base := time.Date(2026, 3, 10, 14, 30, 0, 0, time.UTC)
	for _, open := range []float64{0, 0.5, 1, 99.99, 1000} {
		for _, closePrice := range []float64{0, 1, 50, 100.01} {
			v, err := IntradayChange([]model.OHLCV{bar(base, open, closePrice)})
			if open == 0 {
				assert.ErrorIs(t, err, model.ErrDivisionByZero)
				continue
			}
			require.NoError(t, err)
			assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
			assert.Equal(t, Round2((closePrice-open)/open*100), v)
		}
	}
}

func TestDailyChange(t *testing.T) {
	d1 := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	d2 := d1.AddDate(0, 0, 1)

	_, err := DailyChange(nil)
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	_, err = DailyChange([]model.OHLCV{bar(d2, 100, 101)})
	assert.ErrorIs(t, err, model.ErrInsufficientData)

	v, err := DailyChange([]model.OHLCV{bar(d1, 98, 200), bar(d2, 200, 201)})
	require.NoError(t, err)
	assert.Equal(t, 0.5, v)

	_, err = DailyChange([]model.OHLCV{bar(d1, 1, 0), bar(d2, 0, 5)})
	assert.ErrorIs(t, err, model.ErrDivisionByZero)
}

func TestYTDChange(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	ytd := []model.OHLCV{
		bar(time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC), 50, 51),
		bar(time.Date(2026, 1, 2, 0, 0, 0, 0, time.UTC), 100, 101),
		bar(time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC), 101, 103),
	}
	v, err := YTDChange(ytd, 120, now)
	require.NoError(t, err)
	assert.Equal(t, 20.0, v)

	_, err = YTDChange(ytd[:1], 120, now)
	assert.ErrorIs(t, err, model.ErrEmptyData)
}

func TestYearOpen_UsesRequesterClock(t *testing.T) {
	est := time.FixedZone("EST", -5*60*60)
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, est)
	ytd := []model.OHLCV{
		// 21:00 on Dec 31 in EST.
		bar(time.Date(2026, 1, 1, 2, 0, 0, 0, time.UTC), 10, 11),
		bar(time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC), 20, 21),
	}
	open, err := YearOpen(ytd, now)
	require.NoError(t, err)
	assert.Equal(t, 20.0, open)

	open, err = YearOpen(ytd, now.In(time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 10.0, open)
}
