package timeline

import "sync/atomic"

// animationJoin counts the animations of one dispatched set that have not
// completed yet. Guarded by Timeline.mu.
type animationJoin struct {
	remaining int
}

// step is the dispatcher. It runs on every re-entry scheduled for run gen,
// inspects the action at the cursor and dispatches it.
func (t *Timeline) step(gen uint64) {
	t.mu.Lock()
	if gen != t.generation {
		t.mu.Unlock()
		return
	}

	switch t.state {
	case StatePlaying:
	case StateStopping:
		ev, settled := t.settleLocked()
		t.mu.Unlock()
		if settled {
			t.notify(ev)
		}
		return
	default:
		t.mu.Unlock()
		return
	}

	if t.cursor >= len(t.run) {
		if t.pendingLaunches > 0 {
			t.draining = true
			pending := t.pendingLaunches
			t.mu.Unlock()
			t.logger.Debug().Int("pending_launches", pending).Msg("queue drained, waiting for launches")
			return
		}
		fns := t.beginFinishLocked()
		t.mu.Unlock()
		t.finish(gen, fns)
		return
	}

	index := t.cursor
	action := t.run[index]

	switch a := action.(type) {
	case Sleep:
		t.cursor++
		ev := t.dispatchedLocked(index, a)
		t.mu.Unlock()

		t.logDispatch(index, a)
		t.notify(ev)
		t.sched.After(a.Duration, func() { t.step(gen) })

	case Call:
		t.cursor++
		ev := t.dispatchedLocked(index, a)
		t.mu.Unlock()

		t.logDispatch(index, a)
		t.notify(ev)
		if a.Fn != nil {
			a.Fn()
		}
		t.yield(gen)

	case AnimationSet:
		if len(a.Animations) == 0 {
			t.cursor++
			ev := t.dispatchedLocked(index, a)
			t.mu.Unlock()

			t.logDispatch(index, a)
			t.notify(ev)
			t.yield(gen)
			return
		}

		join := &animationJoin{remaining: len(a.Animations)}
		ev := t.dispatchedLocked(index, a)
		t.mu.Unlock()

		t.logDispatch(index, a)
		t.notify(ev)
		for _, anim := range a.Animations {
			t.startAnimation(anim, t.joinCallback(gen, join))
		}

	case Launch:
		t.pendingLaunches++
		t.cursor++
		ev := t.dispatchedLocked(index, a)
		t.mu.Unlock()

		t.logDispatch(index, a)
		t.notify(ev)
		startOperation(a.Op, t.launchCallback())
		t.yield(gen)

	case Wait:
		t.state = StateWaiting
		t.cursor++
		ev := t.dispatchedLocked(index, a)
		ev.From = StatePlaying
		t.mu.Unlock()

		t.logDispatch(index, a)
		t.notify(ev)
		startOperation(a.Op, t.waitCallback(gen))

	default:
		t.mu.Unlock()
		t.logger.Error().Int("cursor", index).Msg("unknown action type")
	}
}

// beginFinishLocked marks the run as finishing and takes its completion
// callbacks, dropping the one-shot ones. The caller holds t.mu and has seen
// the run reach its end in StatePlaying.
func (t *Timeline) beginFinishLocked() []func(*Timeline) {
	t.draining = false
	t.finishing = true
	fns := make([]func(*Timeline), 0, len(t.afters))
	kept := make([]completion, 0, len(t.afters))
	for _, c := range t.afters {
		fns = append(fns, c.fn)
		if !c.once {
			kept = append(kept, c)
		}
	}
	t.afters = kept
	return fns
}

// finish fires the completion callbacks, resets the cursor and returns the
// timeline to StateReady. One-shot completions registered while the
// callbacks ran belong to a Start that was refused, so the timeline is
// played again for them.
func (t *Timeline) finish(gen uint64, fns []func(*Timeline)) {
	for _, fn := range fns {
		if fn != nil {
			fn(t)
		}
	}

	t.mu.Lock()
	from := t.state
	t.finishing = false
	if gen == t.generation && t.state == StatePlaying {
		t.cursor = 0
		t.state = StateReady
	}
	replay := false
	for _, c := range t.afters {
		if c.once {
			replay = true
			break
		}
	}
	ev := t.eventLocked(EventFinished, from)
	t.mu.Unlock()

	t.logger.Debug().Int("callbacks", len(fns)).Msg("finished")
	t.notify(ev)

	if replay && !t.Play() {
		t.logger.Debug().Msg("replay for pending start refused")
	}
}

// settleLocked moves a stopping timeline to StateReady once no launches are
// outstanding. The caller holds t.mu.
func (t *Timeline) settleLocked() (Event, bool) {
	if t.state != StateStopping || t.pendingLaunches > 0 {
		return Event{}, false
	}
	t.state = StateReady
	return t.eventLocked(EventSettled, StateStopping), true
}

func (t *Timeline) joinCallback(gen uint64, join *animationJoin) func() {
	return once(func() {
		t.mu.Lock()
		join.remaining--
		if join.remaining > 0 || gen != t.generation {
			t.mu.Unlock()
			return
		}

		switch t.state {
		case StatePlaying:
			t.cursor++
			t.mu.Unlock()
			t.yield(gen)
		case StateStopping:
			ev, settled := t.settleLocked()
			t.mu.Unlock()
			if settled {
				t.notify(ev)
			}
		default:
			t.mu.Unlock()
		}
	})
}

func (t *Timeline) launchCallback() func() {
	return once(func() {
		t.mu.Lock()
		if t.pendingLaunches <= 0 {
			t.mu.Unlock()
			panic(ErrLaunchUnderflow)
		}
		t.pendingLaunches--
		if t.pendingLaunches > 0 {
			t.mu.Unlock()
			return
		}

		switch {
		case t.state == StateStopping:
			ev, settled := t.settleLocked()
			t.mu.Unlock()
			if settled {
				t.notify(ev)
			}
		case t.state == StatePlaying && t.draining:
			gen := t.generation
			fns := t.beginFinishLocked()
			t.mu.Unlock()
			t.finish(gen, fns)
		default:
			t.mu.Unlock()
		}
	})
}

func (t *Timeline) waitCallback(gen uint64) func() {
	return once(func() {
		t.mu.Lock()
		if gen != t.generation {
			t.mu.Unlock()
			return
		}

		switch t.state {
		case StateWaiting:
			t.state = StatePlaying
			t.mu.Unlock()
			t.yield(gen)
		case StateStopping:
			ev, settled := t.settleLocked()
			t.mu.Unlock()
			if settled {
				t.notify(ev)
			}
		default:
			t.mu.Unlock()
		}
	})
}

func (t *Timeline) startAnimation(anim Animation, done func()) {
	opts := anim.Options
	delay := opts.Delay
	opts.Delay = 0

	start := func() {
		t.engine.Start(anim.Target, anim.Style, opts, done)
	}
	if delay > 0 {
		t.sched.After(delay, start)
		return
	}
	start()
}

func (t *Timeline) yield(gen uint64) {
	t.sched.Yield(func() { t.step(gen) })
}

func (t *Timeline) dispatchedLocked(index int, a Action) Event {
	ev := t.eventLocked(EventDispatched, t.state)
	ev.Index = index
	ev.Action = a.Kind()
	return ev
}

func (t *Timeline) logDispatch(index int, a Action) {
	t.logger.Debug().
		Int("cursor", index).
		Str("action", string(a.Kind())).
		Str("detail", Describe(a)).
		Msg("dispatch")
}

func startOperation(op Operation, done func()) {
	if op == nil {
		done()
		return
	}
	op.Start(done)
}

// once wraps fn so that a second call panics with ErrCompletedTwice.
func once(fn func()) func() {
	var fired atomic.Bool
	return func() {
		if !fired.CompareAndSwap(false, true) {
			panic(ErrCompletedTwice)
		}
		fn()
	}
}
