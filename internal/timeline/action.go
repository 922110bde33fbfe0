package timeline

import (
	"fmt"
	"time"
)

// ActionKind names the variant of an Action.
type ActionKind string

const (
	ActionKindSleep   ActionKind = "sleep"
	ActionKindCall    ActionKind = "call"
	ActionKindAnimate ActionKind = "animate"
	ActionKindLaunch  ActionKind = "launch"
	ActionKindWait    ActionKind = "wait"
)

// Action is one queued step of a timeline. The set of implementations is
// closed: Sleep, Call, AnimationSet, Launch and Wait.
type Action interface {
	Kind() ActionKind
	action()
}

// Sleep pauses the queue for Duration.
type Sleep struct {
	Duration time.Duration
}

// Call invokes Fn synchronously and moves on.
type Call struct {
	Fn func()
}

// AnimationSet starts every animation in parallel and advances once all of
// them have completed.
type AnimationSet struct {
	Animations []Animation
}

// Launch starts Op detached. The queue advances immediately; the timeline
// only finishes once Op has completed.
type Launch struct {
	Op Operation
}

// Wait starts Op and blocks the queue until it completes.
type Wait struct {
	Op Operation
}

func (Sleep) Kind() ActionKind        { return ActionKindSleep }
func (Call) Kind() ActionKind         { return ActionKindCall }
func (AnimationSet) Kind() ActionKind { return ActionKindAnimate }
func (Launch) Kind() ActionKind       { return ActionKindLaunch }
func (Wait) Kind() ActionKind         { return ActionKindWait }

func (Sleep) action()        {}
func (Call) action()         {}
func (AnimationSet) action() {}
func (Launch) action()       {}
func (Wait) action()         {}

// Describe returns a short human-readable form of a, used in logs.
func Describe(a Action) string {
	switch v := a.(type) {
	case Sleep:
		return fmt.Sprintf("sleep %s", v.Duration)
	case Call:
		return "call"
	case AnimationSet:
		return fmt.Sprintf("animate x%d", len(v.Animations))
	case Launch:
		return "launch " + describeOp(v.Op)
	case Wait:
		return "wait " + describeOp(v.Op)
	default:
		return "unknown"
	}
}

func describeOp(op Operation) string {
	if t, ok := op.(*Timeline); ok {
		return fmt.Sprintf("timeline %q", t.Name())
	}
	return "operation"
}
