package model

import "time"

// CycleReport summarises one broadcast cycle.
type CycleReport struct {
	Source      string
	Cycle       uint64
	StartedAt   time.Time
	Duration    time.Duration
	Available   int
	Unavailable int
	Subscribers int
	Delivered   int
	Dropped     int
	Err         error
}
