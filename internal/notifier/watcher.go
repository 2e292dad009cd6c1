package notifier

import (
	"context"
	"errors"
	"sync"
	"time"

	"MarketPulse/internal/common"
	"MarketPulse/internal/model"
)

const alertRetries = 3

type retrySender interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// OutageWatcher turns broadcast cycle reports into one outage alert per outage and one
// recovery message when the provider answers again.
type OutageWatcher struct {
	sender    Sender
	logger    *common.Logger
	threshold int
	timeout   time.Duration

	mu       sync.Mutex
	failures int
	down     bool
	since    time.Time
	wg       sync.WaitGroup
}

// NewOutageWatcher alerts after threshold consecutive fully unreachable cycles.
func NewOutageWatcher(sender Sender, threshold int, logger *common.Logger) *OutageWatcher {
	if threshold < 1 {
		threshold = 1
	}
	return &OutageWatcher{
		sender:    sender,
		logger:    logger.With("outage-watcher"),
		threshold: threshold,
		timeout:   30 * time.Second,
	}
}

// Observe is a broadcast hook. Messages are sent off the caller's goroutine.
func (w *OutageWatcher) Observe(r model.CycleReport) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if errors.Is(r.Err, model.ErrAllUnavailable) {
		w.failures++
		if w.failures == 1 {
			w.since = r.StartedAt
		}
		if !w.down && w.failures >= w.threshold {
			w.down = true
			w.logger.Warn().Str("universe", r.Source).Msg("provider outage detected")
			w.send(FormatOutage(r))
		}
		return
	}

	if w.down {
		w.logger.Info().Str("universe", r.Source).Msg("provider recovered")
		w.send(FormatRecovery(r, r.StartedAt.Sub(w.since)))
	}
	w.failures = 0
	w.down = false
}

// Down reports whether an outage alert is outstanding.
func (w *OutageWatcher) Down() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.down
}

// Wait blocks until pending messages have been sent.
func (w *OutageWatcher) Wait() { w.wg.Wait() }

func (w *OutageWatcher) send(text string) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), w.timeout)
		defer cancel()
		var err error
		if rs, ok := w.sender.(retrySender); ok {
			err = rs.SendWithRetry(ctx, text, alertRetries)
		} else {
			err = w.sender.Send(ctx, text)
		}
		if err != nil {
			w.logger.Error().Err(err).Msg("send alert")
		}
	}()
}
