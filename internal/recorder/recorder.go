package recorder

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// CycleRow is one persisted broadcast cycle.
type CycleRow struct {
	Timestamp   time.Time `json:"timestamp"`
	Source      string    `json:"source"`
	Cycle       uint64    `json:"cycle"`
	DurationMs  int64     `json:"durationMs"`
	Available   int       `json:"available"`
	Unavailable int       `json:"unavailable"`
	Subscribers int       `json:"subscribers"`
	Delivered   int       `json:"delivered"`
	Dropped     int       `json:"dropped"`
	Reason      string    `json:"reason,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Recorder persists broadcast cycle telemetry for operational analysis.
type Recorder interface {
	RecordCycle(ctx context.Context, report model.CycleReport) error
	Recent(ctx context.Context, limit int) ([]CycleRow, error)
	Prune(ctx context.Context, before time.Time) (int64, error)
	Close() error
}
