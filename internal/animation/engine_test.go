package animation

import (
	"errors"
	"math"
	"testing"
	"time"

	"github.com/opencode-ai/sequencer/internal/scheduler"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestEngine(clock *scheduler.Manual) *Engine {
	return NewEngine(clock, Config{FrameInterval: 10 * time.Millisecond}).WithLogger(zerolog.Nop())
}

func TestFrameCount(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want int
	}{
		{0, 0},
		{-time.Second, 0},
		{5 * time.Millisecond, 1},
		{10 * time.Millisecond, 1},
		{11 * time.Millisecond, 2},
		{100 * time.Millisecond, 10},
	}

	for _, tt := range tests {
		if got := frameCount(tt.d, 10*time.Millisecond); got != tt.want {
			t.Errorf("frameCount(%s) = %d, want %d", tt.d, got, tt.want)
		}
	}
}

func TestParseEasing(t *testing.T) {
	for _, name := range EasingNames() {
		ease, err := ParseEasing(name)
		require.NoError(t, err, name)
		require.InDelta(t, 0, ease(0), 1e-9, name)
		require.InDelta(t, 1, ease(1), 1e-9, name)
	}

	ease, err := ParseEasing("")
	require.NoError(t, err)
	require.InDelta(t, 0.25, ease(0.25), 1e-9)

	_, err = ParseEasing("bounce")
	require.True(t, errors.Is(err, ErrUnknownEasing))
}

func TestTweenReachesTarget(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)
	el := NewElement("box", map[string]float64{"left": 0, "opacity": 1})

	var done int
	engine.Start(el, timeline.Style{"left": 100, "opacity": 0}, timeline.AnimationOptions{Duration: 100 * time.Millisecond}, func() { done++ })
	require.Equal(t, 1, engine.Active())

	clock.Advance(50 * time.Millisecond)
	require.InDelta(t, 50, el.Property("left"), 1e-9)
	require.InDelta(t, 0.5, el.Property("opacity"), 1e-9)
	require.Zero(t, done)

	clock.Advance(50 * time.Millisecond)
	require.Equal(t, 1, done)
	require.Equal(t, map[string]float64{"left": 100, "opacity": 0}, el.Properties())
	require.Zero(t, engine.Active())
	require.Equal(t, 1, engine.Completed())

	clock.Advance(time.Second)
	require.Equal(t, 1, done)
}

func TestTweenEasing(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)
	el := NewElement("box", nil)

	engine.Start(el, timeline.Style{"left": 100}, timeline.AnimationOptions{Duration: 100 * time.Millisecond, Easing: EasingIn}, func() {})
	clock.Advance(50 * time.Millisecond)
	require.InDelta(t, 25, el.Property("left"), 1e-9)
}

func TestZeroDurationCompletesNextTurn(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)
	el := NewElement("box", nil)

	var done bool
	engine.Start(el, timeline.Style{"top": 7}, timeline.AnimationOptions{}, func() { done = true })
	require.Equal(t, 7.0, el.Property("top"))
	require.False(t, done, "done never fires inside Start")

	clock.Flush()
	require.True(t, done)
}

func TestNonAnimatableTarget(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)

	var done bool
	engine.Start("not-an-element", timeline.Style{"left": 1}, timeline.AnimationOptions{Duration: time.Second}, func() { done = true })
	require.False(t, done)
	clock.Flush()
	require.True(t, done)
}

func TestUnknownEasingFallsBackToLinear(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)
	el := NewElement("box", nil)

	engine.Start(el, timeline.Style{"left": 100}, timeline.AnimationOptions{Duration: 100 * time.Millisecond, Easing: "wobble"}, func() {})
	clock.Advance(30 * time.Millisecond)
	require.InDelta(t, 30, el.Property("left"), 1e-9)
}

func TestEngineDrivesTimeline(t *testing.T) {
	clock := scheduler.NewManual()
	engine := newTestEngine(clock)
	a := NewElement("a", map[string]float64{"x": 0})
	b := NewElement("b", map[string]float64{"x": 0})

	var finished bool
	tl := timeline.New("anim",
		timeline.WithScheduler(clock),
		timeline.WithAnimationEngine(engine),
		timeline.WithLogger(zerolog.Nop()),
	).Animate(
		timeline.Animation{Target: a, Style: timeline.Style{"x": 10}, Options: timeline.AnimationOptions{Duration: 50 * time.Millisecond}},
		timeline.Animation{Target: b, Style: timeline.Style{"x": 20}, Options: timeline.AnimationOptions{Duration: 50 * time.Millisecond, Delay: 50 * time.Millisecond}},
	).After(func(*timeline.Timeline) { finished = true })

	require.True(t, tl.Play())
	clock.Advance(50 * time.Millisecond)
	require.Equal(t, 10.0, a.Property("x"))
	require.Zero(t, b.Property("x"))
	require.False(t, finished)

	clock.Advance(50 * time.Millisecond)
	require.Equal(t, 20.0, b.Property("x"))
	require.True(t, finished)
	require.Equal(t, timeline.StateReady, tl.State())
}

func TestElementProperties(t *testing.T) {
	initial := map[string]float64{"w": 1}
	el := NewElement("panel", initial)
	initial["w"] = 99

	require.Equal(t, "panel", el.Name())
	require.Equal(t, 1.0, el.Property("w"))

	snap := el.Properties()
	snap["w"] = 5
	require.Equal(t, 1.0, el.Property("w"))
	require.False(t, math.IsNaN(el.Property("missing")))
}
