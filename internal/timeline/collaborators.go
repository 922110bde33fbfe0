package timeline

import "time"

// Scheduler is the deferred-execution facility the engine runs on.
//
// Yield is the engine's suspension point between actions: fn must run on a
// later turn, never synchronously inside Yield. After runs fn once at least
// d has elapsed.
type Scheduler interface {
	After(d time.Duration, fn func())
	Yield(fn func())
}

// Operation is an external piece of work used by Launch and Wait. Start must
// arrange for done to be called exactly once when the work finishes; it may
// call done before returning.
type Operation interface {
	Start(done func())
}

// OperationFunc adapts a plain function to Operation.
type OperationFunc func(done func())

// Start calls f(done).
func (f OperationFunc) Start(done func()) {
	f(done)
}

// Target is whatever an AnimationEngine knows how to animate.
type Target any

// Style maps property names to the values an animation moves them to.
type Style map[string]float64

// AnimationOptions tune a single animation.
type AnimationOptions struct {
	// Duration of the effect.
	Duration time.Duration

	// Delay before the effect starts. The timeline applies it before calling
	// the engine; engines never see it.
	Delay time.Duration

	// Easing names the interpolation curve. Engines define the accepted names.
	Easing string
}

// Animation is one entry of an AnimationSet.
type Animation struct {
	Target  Target
	Style   Style
	Options AnimationOptions
}

// AnimationEngine performs visual effects. Start must call done exactly once,
// after the effect has finished.
type AnimationEngine interface {
	Start(target Target, style Style, opts AnimationOptions, done func())
}

// instantEngine completes every animation on the next turn without touching
// the target. Used when no engine is configured.
type instantEngine struct {
	sched Scheduler
}

func (e instantEngine) Start(_ Target, _ Style, _ AnimationOptions, done func()) {
	e.sched.Yield(done)
}
