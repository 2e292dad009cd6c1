package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"MarketPulse/internal/model"
)

// ProviderError describes a failed upstream call. Err always wraps one of the model sentinels.
type ProviderError struct {
	Provider   string
	Op         string
	Symbol     string
	StatusCode int
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + " " + e.Op
	if e.Symbol != "" {
		msg += " " + e.Symbol
	}
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(": status %d", e.StatusCode)
	}
	return msg + ": " + e.Err.Error()
}

func (e *ProviderError) Unwrap() error { return e.Err }

// statusError maps a non-200 upstream status onto the error taxonomy.
func statusError(code int) error {
	switch {
	case code == http.StatusTooManyRequests:
		return model.ErrThrottled
	case code == http.StatusNotFound:
		return model.ErrEmptyData
	default:
		return model.ErrProviderUnavailable
	}
}

// transportError classifies a failed round trip. A call cut short by our own deadline or
// cancellation says nothing about the provider and is a timeout.
func transportError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %w", model.ErrTimeout, err)
	}
	return fmt.Errorf("%w: %w", model.ErrProviderUnavailable, err)
}

// limiterError classifies a request that never left because the local rate limiter could not
// grant a token before the deadline.
func limiterError(err error) error {
	return fmt.Errorf("%w: rate limit wait: %w", model.ErrTimeout, err)
}
