package calculator

import (
	"fmt"
	"time"

	"MarketPulse/internal/model"
)

// Inputs are the bar series fetched for one symbol. Any series may be nil when not requested.
type Inputs struct {
	Intraday []model.OHLCV
	Daily    []model.OHLCV
	YTD      []model.OHLCV
	Weight   float64
}

// Compute derives the MetricSet for one symbol. It never fails as a whole; each metric
// carries its own unavailable reason.
func Compute(in Inputs, now time.Time) model.MetricSet {
	ms := model.MetricSet{Weight: in.Weight}

	if c, ok := model.LastClose(in.Intraday); ok {
		ms.Price = model.Available(c)
	} else if c, ok := model.LastClose(in.Daily); ok {
		ms.Price = model.Available(c)
	} else {
		ms.Price = model.Unavailable(model.ErrEmptyData)
	}

	ms.Intraday = model.FromResult(IntradayChange(in.Intraday))
	ms.Daily = model.FromResult(DailyChange(in.Daily))

	if latest, ok := model.LastClose(in.Intraday); ok {
		ms.YTD = model.FromResult(YTDChange(in.YTD, latest, now))
	} else {
		ms.YTD = model.Unavailable(fmt.Errorf("ytd: no intraday close: %w", model.ErrEmptyData))
	}
	return ms
}
