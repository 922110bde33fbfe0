// Package scheduler provides the deferred-execution facility timelines run on.
//
// A Loop executes every callback on a single goroutine, one at a time, so work
// scheduled through it observes run-to-completion semantics. Manual is a
// virtual clock with the same surface for deterministic tests.
package scheduler

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/rs/zerolog"
)

// Scheduler errors.
var (
	ErrSchedulerAlreadyRunning = errors.New("scheduler already running")
	ErrSchedulerNotRunning     = errors.New("scheduler not running")
)

// Config contains loop configuration.
type Config struct {
	// QueueSize is the initial capacity of the ready queue.
	// Default: 64.
	QueueSize int
}

// DefaultConfig returns sensible default configuration.
func DefaultConfig() Config {
	return Config{
		QueueSize: 64,
	}
}

// Stats contains loop statistics.
type Stats struct {
	// Running indicates if the loop is active.
	Running bool

	// StartedAt is when the loop was started.
	StartedAt *time.Time

	// Executed is the number of callbacks run on the loop.
	Executed int64

	// Dropped is the number of callbacks discarded because the loop was stopped.
	Dropped int64

	// Timers is the number of delayed callbacks currently armed.
	Timers int

	// LastRunAt is when the last callback ran.
	LastRunAt *time.Time
}

// Loop runs scheduled callbacks serially on its own goroutine.
type Loop struct {
	config Config
	logger zerolog.Logger

	mu      sync.Mutex
	running bool
	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	ready   []func()
	wake    chan struct{}
	timers  map[*time.Timer]struct{}

	stats   Stats
	statsMu sync.RWMutex
}

// New creates a Loop. Call Start before scheduling work.
func New(config Config) *Loop {
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}

	return &Loop{
		config: config,
		logger: logging.Component("scheduler"),
		ready:  make([]func(), 0, config.QueueSize),
		wake:   make(chan struct{}, 1),
		timers: make(map[*time.Timer]struct{}),
	}
}

var (
	defaultOnce sync.Once
	defaultLoop *Loop
)

// Default returns a process-wide loop, started on first use.
func Default() *Loop {
	defaultOnce.Do(func() {
		defaultLoop = New(DefaultConfig())
		_ = defaultLoop.Start(context.Background())
	})
	return defaultLoop
}

// Start begins the loop's processing goroutine.
func (l *Loop) Start(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.running {
		return ErrSchedulerAlreadyRunning
	}

	l.ctx, l.cancel = context.WithCancel(ctx)
	l.running = true

	now := time.Now().UTC()
	l.statsMu.Lock()
	l.stats.Running = true
	l.stats.StartedAt = &now
	l.statsMu.Unlock()

	l.logger.Debug().Int("queue_size", l.config.QueueSize).Msg("scheduler loop starting")

	l.wg.Add(1)
	go l.runLoop()

	return nil
}

// Stop halts the loop, discards queued callbacks and disarms timers.
// It must not be called from a callback running on the loop.
func (l *Loop) Stop() error {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return ErrSchedulerNotRunning
	}

	l.cancel()
	l.running = false
	dropped := len(l.ready)
	l.ready = l.ready[:0]
	for timer := range l.timers {
		if timer.Stop() {
			dropped++
		}
	}
	clear(l.timers)
	l.mu.Unlock()

	l.wg.Wait()

	l.statsMu.Lock()
	l.stats.Running = false
	l.stats.Dropped += int64(dropped)
	l.stats.Timers = 0
	l.statsMu.Unlock()

	l.logger.Debug().Int("dropped", dropped).Msg("scheduler loop stopped")
	return nil
}

// Yield queues fn to run on a later turn of the loop. It never runs fn synchronously.
func (l *Loop) Yield(fn func()) {
	l.enqueue(fn)
}

// After runs fn on the loop once d has elapsed. A non-positive d behaves like Yield.
func (l *Loop) After(d time.Duration, fn func()) {
	if d <= 0 {
		l.enqueue(fn)
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.running {
		l.countDropped(1)
		return
	}

	var timer *time.Timer
	timer = time.AfterFunc(d, func() {
		l.mu.Lock()
		delete(l.timers, timer)
		l.mu.Unlock()
		l.enqueue(fn)
	})
	l.timers[timer] = struct{}{}

	l.statsMu.Lock()
	l.stats.Timers = len(l.timers)
	l.statsMu.Unlock()
}

// Now returns the wall clock time.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// Stats returns current loop statistics.
func (l *Loop) Stats() Stats {
	l.statsMu.RLock()
	defer l.statsMu.RUnlock()
	return l.stats
}

func (l *Loop) enqueue(fn func()) {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		l.countDropped(1)
		return
	}
	l.ready = append(l.ready, fn)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
		// A wake-up is already pending.
	}
}

func (l *Loop) countDropped(n int) {
	l.statsMu.Lock()
	l.stats.Dropped += int64(n)
	l.statsMu.Unlock()
}

// runLoop is the main processing loop.
func (l *Loop) runLoop() {
	defer l.wg.Done()

	for {
		select {
		case <-l.ctx.Done():
			return
		case <-l.wake:
		}

		for {
			fn, ok := l.next()
			if !ok {
				break
			}
			fn()
			l.recordRun()
		}
	}
}

func (l *Loop) next() (func(), bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.running || len(l.ready) == 0 {
		return nil, false
	}
	fn := l.ready[0]
	l.ready[0] = nil
	l.ready = l.ready[1:]
	return fn, true
}

func (l *Loop) recordRun() {
	now := time.Now().UTC()
	timers := l.timerCount()

	l.statsMu.Lock()
	l.stats.Executed++
	l.stats.LastRunAt = &now
	l.stats.Timers = timers
	l.statsMu.Unlock()
}

func (l *Loop) timerCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.timers)
}
