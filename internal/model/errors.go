package model

import "errors"

var (
	// ErrProviderUnavailable means the upstream could not be reached or answered with a server error.
	ErrProviderUnavailable = errors.New("provider unavailable")
	// ErrThrottled means the upstream asked us to slow down.
	ErrThrottled = errors.New("provider throttled")
	// ErrMalformedPayload means the upstream answered but the body could not be decoded.
	ErrMalformedPayload = errors.New("malformed provider payload")
	// ErrEmptyData means the upstream had no bars for the requested window.
	ErrEmptyData = errors.New("no data for window")
	// ErrDivisionByZero means a metric baseline price was zero.
	ErrDivisionByZero = errors.New("division by zero baseline")
	// ErrInsufficientData means the series is too short for the metric.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrTimeout means the per-symbol fetch did not finish before the batch deadline.
	ErrTimeout = errors.New("fetch timeout")
	// ErrAllUnavailable means no symbol in a batch could reach the provider.
	ErrAllUnavailable = errors.New("upstream unreachable for every symbol")
)

// Reason maps an error onto the stable reason code used in payloads and logs.
func Reason(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrDivisionByZero):
		return "division_by_zero"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrEmptyData):
		return "empty_data"
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrThrottled):
		return "throttled"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	case errors.Is(err, ErrProviderUnavailable), errors.Is(err, ErrAllUnavailable):
		return "provider_unavailable"
	default:
		return "error"
	}
}
