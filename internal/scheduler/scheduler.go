package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"MarketPulse/internal/common"
	"MarketPulse/internal/recorder"
)

// Purger evicts expired cache entries.
type Purger interface {
	PurgeCache(ctx context.Context) int
}

// Scheduler manages the janitor cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Purger    Purger
	Recorder  recorder.Recorder
	Retention time.Duration
	Ctx       context.Context

	logger *common.Logger
	now    func() time.Time
}

// NewScheduler creates a new Scheduler. Jobs that are still running when their next tick
// fires are skipped; panics are recovered and logged.
func NewScheduler(ctx context.Context, purger Purger, rec recorder.Recorder, retention time.Duration, logger *common.Logger) *Scheduler {
	l := logger.With("scheduler")
	cl := cronLogger{l}
	return &Scheduler{
		Cron: cron.New(
			cron.WithSeconds(),
			cron.WithLogger(cl),
			cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)),
		),
		Purger:    purger,
		Recorder:  rec,
		Retention: retention,
		Ctx:       ctx,
		logger:    l,
		now:       time.Now,
	}
}

// RegisterAll registers the cache purge and cycle-history prune tasks.
func (s *Scheduler) RegisterAll(purgeCron, pruneCron string) error {
	if _, err := s.Cron.AddFunc(purgeCron, s.purgeTask); err != nil {
		return fmt.Errorf("register purge task: %w", err)
	}
	if _, err := s.Cron.AddFunc(pruneCron, s.pruneTask); err != nil {
		return fmt.Errorf("register prune task: %w", err)
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.logger.Info().Int("jobs", len(s.Cron.Entries())).Msg("scheduler started")
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.logger.Info().Msg("scheduler stopped")
}

func (s *Scheduler) purgeTask() {
	if n := s.Purger.PurgeCache(s.Ctx); n > 0 {
		s.logger.Debug().Int("removed", n).Msg("cache purged")
	}
}

func (s *Scheduler) pruneTask() {
	cutoff := s.now().Add(-s.Retention)
	n, err := s.Recorder.Prune(s.Ctx, cutoff)
	if err != nil {
		s.logger.Error().Err(err).Msg("prune cycle history")
		return
	}
	s.logger.Info().Int64("removed", n).Time("cutoff", cutoff).Msg("cycle history pruned")
}

// cronLogger adapts the zerolog logger to cron.Logger.
type cronLogger struct {
	l *common.Logger
}

func (c cronLogger) Info(msg string, keysAndValues ...interface{}) {
	c.l.Debug().Fields(keysAndValues).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	c.l.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
