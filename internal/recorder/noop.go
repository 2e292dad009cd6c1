package recorder

import (
	"context"
	"time"

	"MarketPulse/internal/model"
)

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordCycle(context.Context, model.CycleReport) error { return nil }
func (n *NoopRecorder) Recent(context.Context, int) ([]CycleRow, error)     { return []CycleRow{}, nil }
func (n *NoopRecorder) Prune(context.Context, time.Time) (int64, error)     { return 0, nil }
func (n *NoopRecorder) Close() error                                        { return nil }
