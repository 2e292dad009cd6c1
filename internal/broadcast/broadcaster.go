// Package broadcast runs the single control loop that refreshes a snapshot on a fixed
// cadence and pushes it to every live subscriber.
package broadcast

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"MarketPulse/internal/common"
	"MarketPulse/internal/model"
)

const (
	DefaultInterval    = 2 * time.Second
	DefaultSendTimeout = 2 * time.Second
)

var (
	ErrAlreadyStarted = errors.New("broadcaster already started")
	ErrStopped        = errors.New("broadcaster stopped")
)

// State is the broadcaster lifecycle: Idle -> Running -> Stopped.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Snapshot is anything the loop can serialize and summarise.
type Snapshot interface {
	Stats() (available, unavailable int)
}

// Source produces one snapshot per cycle. A non-nil snapshot is delivered even when err is set.
type Source func(ctx context.Context) (Snapshot, error)

// Subscriber receives serialized snapshots. Send must honour ctx.
type Subscriber interface {
	ID() string
	Send(ctx context.Context, payload []byte) error
}

// Hook observes every finished cycle. Hooks run on the loop goroutine and must be quick.
type Hook func(model.CycleReport)

// Broadcaster fetches once per cycle and fans the result out to all subscribers.
type Broadcaster struct {
	name        string
	source      Source
	interval    time.Duration
	sendTimeout time.Duration
	logger      *common.Logger
	hooks       []Hook

	mu     sync.Mutex
	subs   map[string]registration
	seq    uint64
	cancel context.CancelFunc

	state  atomic.Int32
	cycle  atomic.Uint64
	latest atomic.Pointer[[]byte]
	done   chan struct{}
}

// registration tells apart successive subscribers that reuse an ID.
type registration struct {
	sub Subscriber
	seq uint64
}

// Option configures a Broadcaster.
type Option func(*Broadcaster)

// WithName labels logs and cycle reports, e.g. with the universe being broadcast.
func WithName(name string) Option {
	return func(b *Broadcaster) { b.name = name }
}

func WithInterval(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.interval = d
		}
	}
}

func WithSendTimeout(d time.Duration) Option {
	return func(b *Broadcaster) {
		if d > 0 {
			b.sendTimeout = d
		}
	}
}

func WithLogger(l *common.Logger) Option {
	return func(b *Broadcaster) { b.logger = l.With("broadcast") }
}

// WithHook registers a cycle observer.
func WithHook(h Hook) Option {
	return func(b *Broadcaster) { b.hooks = append(b.hooks, h) }
}

// New creates an idle Broadcaster.
func New(source Source, opts ...Option) *Broadcaster {
	b := &Broadcaster{
		source:      source,
		interval:    DefaultInterval,
		sendTimeout: DefaultSendTimeout,
		logger:      common.NewSilentLogger(),
		subs:        make(map[string]registration),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.name != "" {
		b.logger = &common.Logger{Logger: b.logger.Logger.With().Str("universe", b.name).Logger()}
	}
	return b
}

// Name returns the broadcaster label.
func (b *Broadcaster) Name() string { return b.name }

// State returns the current lifecycle state.
func (b *Broadcaster) State() State { return State(b.state.Load()) }

// Done is closed once the loop has exited.
func (b *Broadcaster) Done() <-chan struct{} { return b.done }

// Cycles returns how many cycles have completed.
func (b *Broadcaster) Cycles() uint64 { return b.cycle.Load() }

// Latest returns the most recently delivered payload, or nil before the first cycle.
func (b *Broadcaster) Latest() []byte {
	if p := b.latest.Load(); p != nil {
		return *p
	}
	return nil
}

// Subscribe registers s. Re-subscribing an ID replaces the previous subscriber.
func (b *Broadcaster) Subscribe(s Subscriber) {
	b.mu.Lock()
	b.seq++
	b.subs[s.ID()] = registration{sub: s, seq: b.seq}
	n := len(b.subs)
	b.mu.Unlock()
	b.logger.Debug().Str("subscriber", s.ID()).Int("subscribers", n).Msg("subscribed")
}

// Unsubscribe removes a subscriber and reports whether it was registered.
func (b *Broadcaster) Unsubscribe(id string) bool {
	b.mu.Lock()
	_, ok := b.subs[id]
	delete(b.subs, id)
	b.mu.Unlock()
	return ok
}

// Subscribers returns the number of registered subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}

func (b *Broadcaster) snapshotSubscribers() []registration {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]registration, 0, len(b.subs))
	for _, r := range b.subs {
		out = append(out, r)
	}
	return out
}

// drop removes r unless its ID has been re-registered since r was snapshotted.
func (b *Broadcaster) drop(r registration) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := r.sub.ID()
	if cur, ok := b.subs[id]; !ok || cur.seq != r.seq {
		return false
	}
	delete(b.subs, id)
	return true
}

// Start launches the loop. The first cycle runs immediately.
func (b *Broadcaster) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	switch b.State() {
	case StateRunning:
		return ErrAlreadyStarted
	case StateStopped:
		return ErrStopped
	}

	ctx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.state.Store(int32(StateRunning))
	b.logger.Info().Dur("interval", b.interval).Msg("broadcaster started")

	go b.run(ctx)
	return nil
}

// Stop cancels any in-flight fetch and waits for the loop to exit. It is safe to call more
// than once and before Start.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	prev := b.State()
	b.state.Store(int32(StateStopped))
	cancel := b.cancel
	b.mu.Unlock()

	switch prev {
	case StateIdle:
		close(b.done)
	case StateRunning:
		cancel()
		<-b.done
		b.logger.Info().Uint64("cycles", b.Cycles()).Msg("broadcaster stopped")
	case StateStopped:
		<-b.done
	}
}

func (b *Broadcaster) run(ctx context.Context) {
	defer close(b.done)

	for {
		b.runCycle(ctx)

		select {
		case <-ctx.Done():
			return
		case <-time.After(b.interval):
		}
	}
}

func (b *Broadcaster) runCycle(ctx context.Context) {
	start := time.Now()
	report := model.CycleReport{Source: b.name, Cycle: b.cycle.Load() + 1, StartedAt: start}

	snap, err := b.source(ctx)
	if ctx.Err() != nil {
		return
	}
	report.Err = err
	if err != nil {
		b.logger.Warn().Err(err).Uint64("cycle", report.Cycle).Msg("snapshot fetch degraded")
	}

	if snap != nil {
		report.Available, report.Unavailable = snap.Stats()
		payload, mErr := json.Marshal(snap)
		if mErr != nil {
			b.logger.Error().Err(mErr).Msg("marshal snapshot")
			report.Err = errors.Join(err, mErr)
		} else {
			b.latest.Store(&payload)
			report.Subscribers, report.Delivered, report.Dropped = b.deliver(ctx, payload)
		}
	}

	report.Duration = time.Since(start)
	b.cycle.Store(report.Cycle)
	for _, h := range b.hooks {
		h(report)
	}
}

// deliver sends payload to every subscriber registered at the start of the call and
// deregisters the ones that fail.
func (b *Broadcaster) deliver(ctx context.Context, payload []byte) (subscribers, delivered, dropped int) {
	subs := b.snapshotSubscribers()
	if len(subs) == 0 {
		return 0, 0, 0
	}

	errs := make([]error, len(subs))
	var wg sync.WaitGroup
	for i, r := range subs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sendCtx, cancel := context.WithTimeout(ctx, b.sendTimeout)
			defer cancel()
			errs[i] = r.sub.Send(sendCtx, payload)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err == nil {
			delivered++
			continue
		}
		dropped++
		if b.drop(subs[i]) {
			b.logger.Info().Err(err).Str("subscriber", subs[i].sub.ID()).Msg("subscriber dropped")
		}
	}
	return len(subs), delivered, dropped
}
