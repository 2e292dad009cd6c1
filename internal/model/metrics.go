package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"strconv"
)

// NotAvailable is the wire marker for a value that could not be computed.
const NotAvailable = "N/A"

// MetricStatus says whether a Metric carries a value.
type MetricStatus string

const (
	MetricOK             MetricStatus = "ok"
	MetricUnavailable    MetricStatus = "unavailable"
	MetricDivisionByZero MetricStatus = "division_by_zero"
)

// Metric is a derived number that may be unavailable. The zero value is unavailable.
type Metric struct {
	Value  float64
	Status MetricStatus
	Reason string
}

// Available wraps a computed value.
func Available(v float64) Metric {
	return Metric{Value: v, Status: MetricOK}
}

// Unavailable records why a value could not be computed.
func Unavailable(err error) Metric {
	status := MetricUnavailable
	if errors.Is(err, ErrDivisionByZero) {
		status = MetricDivisionByZero
	}
	return Metric{Status: status, Reason: Reason(err)}
}

// FromResult builds a Metric from a calculator (value, error) pair.
func FromResult(v float64, err error) Metric {
	if err != nil {
		return Unavailable(err)
	}
	return Available(v)
}

// OK reports whether the metric has a value.
func (m Metric) OK() bool { return m.Status == MetricOK }

// Or returns m when available, otherwise fallback.
func (m Metric) Or(fallback Metric) Metric {
	if m.OK() {
		return m
	}
	return fallback
}

// MarshalJSON renders available metrics as numbers and everything else as "N/A".
func (m Metric) MarshalJSON() ([]byte, error) {
	if !m.OK() {
		return []byte(`"` + NotAvailable + `"`), nil
	}
	return []byte(strconv.FormatFloat(m.Value, 'f', -1, 64)), nil
}

// UnmarshalJSON accepts either a number or the "N/A" marker.
func (m *Metric) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s != NotAvailable {
			return errors.New("metric: unexpected string " + strconv.Quote(s))
		}
		*m = Metric{Status: MetricUnavailable}
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*m = Available(v)
	return nil
}

// MetricSet is the calculator output for one symbol.
type MetricSet struct {
	Price    Metric
	Intraday Metric
	Daily    Metric
	YTD      Metric
	Weight   float64
}
