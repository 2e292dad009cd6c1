package calculator

import (
	"fmt"
	"math"

	"MarketPulse/internal/model"
)

// PriceRange scans the series and returns its highest high and lowest low.
func PriceRange(bars []model.OHLCV) (high, low float64, err error) {
	if len(bars) == 0 {
		return 0, 0, fmt.Errorf("range: %w", model.ErrEmptyData)
	}
	high = math.Inf(-1)
	low = math.Inf(1)
	for _, b := range bars {
		if b.High > high {
			high = b.High
		}
		if b.Low < low {
			low = b.Low
		}
	}
	return high, low, nil
}

// RangePosition returns where current sits within [low, high] as 0.0~1.0, rounded to two places.
func RangePosition(current, high, low float64) (float64, error) {
	if high == low {
		return 0.5, nil
	}
	if high < low {
		return 0, fmt.Errorf("range: high %v below low %v: %w", high, low, model.ErrInsufficientData)
	}
	pos := (current - low) / (high - low)
	if pos < 0 {
		pos = 0
	}
	if pos > 1 {
		pos = 1
	}
	return Round2(pos), nil
}
