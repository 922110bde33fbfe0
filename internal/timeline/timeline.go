// Package timeline implements a cooperative action sequencer.
//
// A Timeline holds an ordered queue of actions (sleep, call, parallel
// animation sets, detached launches and blocking waits) and plays them one at
// a time, advancing only when the current action's completion rule is met.
// Launched work runs detached; the timeline finishes, and fires its completion
// callbacks, only once the queue is drained and every launch has reported.
//
// Playback is driven entirely through a Scheduler: each action boundary is a
// yield point, and collaborators report back through single-use completion
// callbacks. Stop is cooperative. It prevents further dispatch but lets
// started work run out, and the timeline returns to StateReady only after
// every outstanding launch has reported.
package timeline

import (
	"errors"
	"sync"
	"time"

	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/opencode-ai/sequencer/internal/scheduler"
	"github.com/rs/zerolog"
)

// Timeline errors.
var (
	// ErrCompletedTwice is the panic value raised when a completion callback
	// handed to an operation or animation engine is invoked a second time.
	ErrCompletedTwice = errors.New("timeline: completion callback invoked more than once")

	// ErrLaunchUnderflow is the panic value raised if the pending launch
	// counter would go negative.
	ErrLaunchUnderflow = errors.New("timeline: pending launch counter underflow")
)

// Option configures a Timeline.
type Option func(*Timeline)

// WithScheduler sets the deferred-execution facility. Default: scheduler.Default().
func WithScheduler(s Scheduler) Option {
	return func(t *Timeline) {
		t.sched = s
	}
}

// WithAnimationEngine sets the engine used by animation sets. Without one,
// animations complete on the next turn and leave their targets untouched.
func WithAnimationEngine(e AnimationEngine) Option {
	return func(t *Timeline) {
		t.engine = e
	}
}

// WithObserver registers an observer for playback events.
func WithObserver(o Observer) Option {
	return func(t *Timeline) {
		t.observer = o
	}
}

// WithLogger overrides the component logger.
func WithLogger(logger zerolog.Logger) Option {
	return func(t *Timeline) {
		t.logger = logger
		t.hasLogger = true
	}
}

// Timeline is an ordered queue of actions with playback controls.
// All methods are safe for concurrent use.
type Timeline struct {
	name      string
	sched     Scheduler
	engine    AnimationEngine
	observer  Observer
	logger    zerolog.Logger
	hasLogger bool

	mu    sync.Mutex
	queue []Action
	// run is the queue snapshot taken by Play; appends made during a run
	// only take effect on the next Play.
	run []Action
	// generation identifies the current run. Scheduled re-entries and
	// wait/animation notifiers from an older run are ignored.
	generation      uint64
	cursor          int
	state           State
	pendingLaunches int
	// draining is set when the dispatcher reached the end of the queue while
	// launches were still pending; the last launch then finishes the run.
	draining bool
	// finishing is set while the completion callbacks of a finished run are
	// being invoked. Stop is refused in that window.
	finishing bool
	afters    []completion
}

type completion struct {
	fn   func(*Timeline)
	once bool
}

// New creates an empty timeline in StateReady.
func New(name string, opts ...Option) *Timeline {
	t := &Timeline{name: name}
	for _, opt := range opts {
		opt(t)
	}

	if !t.hasLogger {
		t.logger = logging.Component("timeline")
	}
	t.logger = t.logger.With().Str("timeline", name).Logger()

	if t.sched == nil {
		t.sched = scheduler.Default()
	}
	if t.engine == nil {
		t.engine = instantEngine{sched: t.sched}
	}
	return t
}

// Name returns the timeline's name.
func (t *Timeline) Name() string {
	return t.name
}

// Sleep appends a pause of d.
func (t *Timeline) Sleep(d time.Duration) *Timeline {
	return t.Append(Sleep{Duration: d})
}

// Call appends a synchronous call of fn.
func (t *Timeline) Call(fn func()) *Timeline {
	return t.Append(Call{Fn: fn})
}

// Animate appends a set of animations that run in parallel.
func (t *Timeline) Animate(anims ...Animation) *Timeline {
	set := make([]Animation, len(anims))
	copy(set, anims)
	return t.Append(AnimationSet{Animations: set})
}

// Launch appends a detached operation.
func (t *Timeline) Launch(op Operation) *Timeline {
	return t.Append(Launch{Op: op})
}

// Wait appends a blocking operation.
func (t *Timeline) Wait(op Operation) *Timeline {
	return t.Append(Wait{Op: op})
}

// Append adds an action to the end of the queue.
func (t *Timeline) Append(a Action) *Timeline {
	t.mu.Lock()
	t.queue = append(t.queue, a)
	t.mu.Unlock()
	return t
}

// After registers fn to run, in registration order, every time the timeline
// finishes a run.
func (t *Timeline) After(fn func(*Timeline)) *Timeline {
	t.mu.Lock()
	t.afters = append(t.afters, completion{fn: fn})
	t.mu.Unlock()
	return t
}

// Play starts playback from the current cursor. It returns false if the
// timeline is not in StateReady or its queue is empty.
func (t *Timeline) Play() bool {
	t.mu.Lock()
	if t.state != StateReady || len(t.queue) == 0 {
		t.mu.Unlock()
		return false
	}

	t.run = append(make([]Action, 0, len(t.queue)), t.queue...)
	t.generation++
	gen := t.generation
	t.draining = false
	t.state = StatePlaying
	ev := t.eventLocked(EventPlayed, StateReady)
	t.mu.Unlock()

	t.logger.Debug().Int("cursor", ev.Cursor).Int("length", ev.Length).Msg("play")
	t.notify(ev)
	t.yield(gen)
	return true
}

// Stop asks a playing or waiting timeline to stop. Nothing already started is
// cancelled; the timeline moves to StateStopping and settles into StateReady
// once outstanding work has reported. It returns false if the timeline was
// not playing or waiting, or if the run has already reached its end and is
// invoking its completion callbacks.
func (t *Timeline) Stop() bool {
	t.mu.Lock()
	if t.state != StatePlaying && t.state != StateWaiting || t.finishing {
		t.mu.Unlock()
		return false
	}

	from := t.state
	t.state = StateStopping
	ev := t.eventLocked(EventStopped, from)
	t.mu.Unlock()

	t.logger.Debug().Str("from", from.String()).Int("pending_launches", ev.PendingLaunches).Msg("stop")
	t.notify(ev)
	return true
}

// Rewind stops the timeline if it is running and resets the cursor to the
// start of the queue.
func (t *Timeline) Rewind() {
	t.Stop()

	t.mu.Lock()
	t.cursor = 0
	ev := t.eventLocked(EventRewound, t.state)
	t.mu.Unlock()

	t.notify(ev)
}

// Start implements Operation so a timeline can be launched or waited on by
// another timeline: done is registered as a one-shot completion callback and
// the timeline is played. A timeline with an empty queue completes at once.
// If the timeline is already running, done fires when that run finishes. A
// Start made while a finished run is invoking its completion callbacks plays
// the timeline again once that run is back in StateReady.
func (t *Timeline) Start(done func()) {
	t.mu.Lock()
	if len(t.queue) == 0 {
		t.mu.Unlock()
		done()
		return
	}
	t.afters = append(t.afters, completion{fn: func(*Timeline) { done() }, once: true})
	t.mu.Unlock()

	if !t.Play() {
		t.logger.Debug().Msg("start joined a run already in progress")
	}
}

// State returns the current playback state.
func (t *Timeline) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Cursor returns the index of the next action to dispatch.
func (t *Timeline) Cursor() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cursor
}

// PendingLaunches returns the number of detached launches still in flight.
func (t *Timeline) PendingLaunches() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pendingLaunches
}

// Len returns the number of queued actions.
func (t *Timeline) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}

// Actions returns a copy of the queue.
func (t *Timeline) Actions() []Action {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Action, len(t.queue))
	copy(out, t.queue)
	return out
}

func (t *Timeline) eventLocked(typ EventType, from State) Event {
	return Event{
		Type:            typ,
		Timeline:        t.name,
		From:            from,
		To:              t.state,
		Cursor:          t.cursor,
		Length:          len(t.run),
		PendingLaunches: t.pendingLaunches,
	}
}

func (t *Timeline) notify(ev Event) {
	if t.observer != nil {
		t.observer.OnTimelineEvent(ev)
	}
}
