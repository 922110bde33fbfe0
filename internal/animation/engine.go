// Package animation provides a frame-stepped tween engine for timelines.
package animation

import (
	"sort"
	"sync/atomic"
	"time"

	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/rs/zerolog"
)

// DefaultFrameInterval is roughly 60 frames per second.
const DefaultFrameInterval = 16 * time.Millisecond

// Scheduler runs frame callbacks.
type Scheduler interface {
	After(d time.Duration, fn func())
	Yield(fn func())
}

// Config contains engine configuration.
type Config struct {
	FrameInterval time.Duration
	DefaultEasing string
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		FrameInterval: DefaultFrameInterval,
		DefaultEasing: EasingLinear,
	}
}

// Engine tweens the properties of Animatable targets. It implements
// timeline.AnimationEngine.
type Engine struct {
	sched  Scheduler
	config Config
	logger zerolog.Logger

	active    atomic.Int64
	completed atomic.Int64
}

var _ timeline.AnimationEngine = (*Engine)(nil)

// NewEngine creates an engine that steps frames on sched.
func NewEngine(sched Scheduler, config Config) *Engine {
	if config.FrameInterval <= 0 {
		config.FrameInterval = DefaultFrameInterval
	}
	if config.DefaultEasing == "" {
		config.DefaultEasing = EasingLinear
	}
	return &Engine{
		sched:  sched,
		config: config,
		logger: logging.Component("animation"),
	}
}

// WithLogger replaces the engine logger.
func (e *Engine) WithLogger(logger zerolog.Logger) *Engine {
	e.logger = logger
	return e
}

// Active returns the number of tweens in flight.
func (e *Engine) Active() int {
	return int(e.active.Load())
}

// Completed returns the number of tweens that have finished.
func (e *Engine) Completed() int {
	return int(e.completed.Load())
}

// Start tweens every property in style from its current value to the target
// value over opts.Duration. done is called once, on a later turn, after the
// last frame has been applied. Targets that are not Animatable are left
// untouched.
func (e *Engine) Start(target timeline.Target, style timeline.Style, opts timeline.AnimationOptions, done func()) {
	e.active.Add(1)
	finish := func() {
		e.active.Add(-1)
		e.completed.Add(1)
		done()
	}

	el, ok := target.(Animatable)
	if !ok {
		e.logger.Warn().Str("target", describeTarget(target)).Msg("target is not animatable, skipping")
		e.sched.Yield(finish)
		return
	}

	easingName := opts.Easing
	if easingName == "" {
		easingName = e.config.DefaultEasing
	}
	ease, err := ParseEasing(easingName)
	if err != nil {
		e.logger.Warn().Err(err).Msg("falling back to linear easing")
		ease = easings[EasingLinear]
	}

	tw := newTween(el, style, ease, frameCount(opts.Duration, e.config.FrameInterval))
	e.logger.Debug().
		Str("target", describeTarget(target)).
		Strs("properties", tw.names).
		Dur("duration", opts.Duration).
		Int("frames", tw.frames).
		Msg("tween start")

	if tw.frames == 0 {
		tw.apply(1)
		e.sched.Yield(finish)
		return
	}

	var tick func()
	tick = func() {
		tw.frame++
		tw.apply(float64(tw.frame) / float64(tw.frames))
		if tw.frame >= tw.frames {
			finish()
			return
		}
		e.sched.After(e.config.FrameInterval, tick)
	}
	e.sched.After(e.config.FrameInterval, tick)
}

// frameCount returns how many frames a tween of d needs. Zero means the
// end values are applied at once.
func frameCount(d, interval time.Duration) int {
	if d <= 0 {
		return 0
	}
	n := int(d / interval)
	if d%interval != 0 {
		n++
	}
	return n
}

type tween struct {
	target Animatable
	ease   Easing
	names  []string
	from   []float64
	to     []float64
	frames int
	frame  int
}

func newTween(target Animatable, style timeline.Style, ease Easing, frames int) *tween {
	names := make([]string, 0, len(style))
	for name := range style {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := &tween{
		target: target,
		ease:   ease,
		names:  names,
		from:   make([]float64, len(names)),
		to:     make([]float64, len(names)),
		frames: frames,
	}
	for i, name := range names {
		tw.from[i] = target.Property(name)
		tw.to[i] = style[name]
	}
	return tw
}

// apply sets every property for linear progress p.
func (tw *tween) apply(p float64) {
	if p >= 1 {
		for i, name := range tw.names {
			tw.target.SetProperty(name, tw.to[i])
		}
		return
	}
	eased := tw.ease(p)
	for i, name := range tw.names {
		tw.target.SetProperty(name, tw.from[i]+(tw.to[i]-tw.from[i])*eased)
	}
}

func describeTarget(target timeline.Target) string {
	switch v := target.(type) {
	case nil:
		return "<nil>"
	case interface{ Name() string }:
		return v.Name()
	case string:
		return v
	default:
		return "unnamed"
	}
}
