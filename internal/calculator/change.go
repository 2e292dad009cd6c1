package calculator

import (
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"MarketPulse/internal/model"
)

// Round2 rounds to two decimal places, half away from zero. The decimal is built from the
// shortest float representation, so 2.675 becomes 2.68 rather than 2.67.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// PercentChange returns (to-from)/from*100 rounded with Round2.
func PercentChange(from, to float64) (float64, error) {
	if from == 0 {
		return 0, model.ErrDivisionByZero
	}
	pct := (to - from) / from * 100
	if math.IsNaN(pct) || math.IsInf(pct, 0) {
		return 0, fmt.Errorf("non-finite change from %v to %v: %w", from, to, model.ErrInsufficientData)
	}
	return Round2(pct), nil
}

// IntradayChange compares the first bar's open with the last bar's close.
func IntradayChange(intraday []model.OHLCV) (float64, error) {
	if len(intraday) == 0 {
		return 0, fmt.Errorf("intraday: %w", model.ErrEmptyData)
	}
	return PercentChange(intraday[0].Open, intraday[len(intraday)-1].Close)
}

// DailyChange compares the latest session close with the prior session close.
// Fewer than two sessions is reported as insufficient data, never as zero.
func DailyChange(daily []model.OHLCV) (float64, error) {
	if len(daily) < 2 {
		return 0, fmt.Errorf("daily: %d session(s): %w", len(daily), model.ErrInsufficientData)
	}
	n := len(daily)
	return PercentChange(daily[n-2].Close, daily[n-1].Close)
}

// YearStart is midnight on January 1 of now's year, in now's location.
func YearStart(now time.Time) time.Time {
	return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location())
}

// YearOpen returns the open of the first bar on or after January 1 of now's year.
func YearOpen(ytd []model.OHLCV, now time.Time) (float64, error) {
	start := YearStart(now)
	for _, b := range ytd {
		if !b.Time.Before(start) {
			return b.Open, nil
		}
	}
	return 0, fmt.Errorf("ytd: no bar since %s: %w", start.Format("2006-01-02"), model.ErrEmptyData)
}

// YTDChange compares latestClose with the year's opening price.
func YTDChange(ytd []model.OHLCV, latestClose float64, now time.Time) (float64, error) {
	open, err := YearOpen(ytd, now)
	if err != nil {
		return 0, err
	}
	return PercentChange(open, latestClose)
}
