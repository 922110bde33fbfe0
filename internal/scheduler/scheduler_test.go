package scheduler

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.QueueSize != 64 {
		t.Errorf("expected QueueSize 64, got %d", cfg.QueueSize)
	}
}

func TestNew_DefaultsApplied(t *testing.T) {
	loop := New(Config{})
	if loop.config.QueueSize != DefaultConfig().QueueSize {
		t.Errorf("expected default QueueSize, got %d", loop.config.QueueSize)
	}
}

func TestLoop_StartStop(t *testing.T) {
	loop := New(DefaultConfig())
	ctx := context.Background()

	require.NoError(t, loop.Start(ctx))
	stats := loop.Stats()
	require.True(t, stats.Running)
	require.NotNil(t, stats.StartedAt)

	require.ErrorIs(t, loop.Start(ctx), ErrSchedulerAlreadyRunning)

	require.NoError(t, loop.Stop())
	require.False(t, loop.Stats().Running)

	require.ErrorIs(t, loop.Stop(), ErrSchedulerNotRunning)
}

func TestLoop_YieldRunsInOrder(t *testing.T) {
	loop := New(DefaultConfig())
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 0; i < 5; i++ {
		i := i
		loop.Yield(func() {
			mu.Lock()
			order = append(order, i)
			n := len(order)
			mu.Unlock()
			if n == 5 {
				close(done)
			}
		})
	}

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("yielded callbacks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestLoop_YieldIsNeverSynchronous(t *testing.T) {
	loop := New(DefaultConfig())
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	ran := make(chan struct{})
	returned := make(chan struct{})
	loop.Yield(func() {
		loop.Yield(func() {
			<-returned
			close(ran)
		})
		close(returned)
	})

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("nested yield did not run")
	}
}

func TestLoop_AfterWaitsForDelay(t *testing.T) {
	loop := New(DefaultConfig())
	require.NoError(t, loop.Start(context.Background()))
	defer loop.Stop()

	start := time.Now()
	fired := make(chan time.Duration, 1)
	loop.After(30*time.Millisecond, func() {
		fired <- time.Since(start)
	})

	select {
	case elapsed := <-fired:
		require.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	case <-time.After(2 * time.Second):
		t.Fatal("timer did not fire")
	}

	require.Eventually(t, func() bool {
		return loop.Stats().Executed >= 1
	}, time.Second, 5*time.Millisecond)
}

func TestLoop_StopDropsPendingTimers(t *testing.T) {
	loop := New(DefaultConfig())
	require.NoError(t, loop.Start(context.Background()))

	fired := make(chan struct{}, 1)
	loop.After(time.Hour, func() { fired <- struct{}{} })
	require.Equal(t, 1, loop.Stats().Timers)

	require.NoError(t, loop.Stop())
	require.Equal(t, int64(1), loop.Stats().Dropped)

	loop.Yield(func() { fired <- struct{}{} })
	require.Equal(t, int64(2), loop.Stats().Dropped)

	select {
	case <-fired:
		t.Fatal("callback ran after stop")
	default:
	}
}

func TestManual_AdvanceOrdersByDeadline(t *testing.T) {
	clock := NewManual()
	var order []string

	clock.After(20*time.Millisecond, func() { order = append(order, "b") })
	clock.After(10*time.Millisecond, func() { order = append(order, "a") })
	clock.After(20*time.Millisecond, func() { order = append(order, "c") })
	clock.Yield(func() { order = append(order, "now") })

	require.Equal(t, 4, clock.Pending())
	require.Equal(t, 1, clock.Flush())
	require.Equal(t, []string{"now"}, order)

	require.Equal(t, 1, clock.Advance(15*time.Millisecond))
	require.Equal(t, []string{"now", "a"}, order)
	require.Equal(t, time.Unix(0, 0).UTC().Add(15*time.Millisecond), clock.Now())

	require.Equal(t, 2, clock.Advance(5*time.Millisecond))
	require.Equal(t, []string{"now", "a", "b", "c"}, order)
	require.Zero(t, clock.Pending())
}

func TestManual_CallbacksScheduledDuringAdvance(t *testing.T) {
	clock := NewManual()
	var at []time.Duration
	epoch := clock.Now()

	clock.After(10*time.Millisecond, func() {
		at = append(at, clock.Now().Sub(epoch))
		clock.Yield(func() {
			at = append(at, clock.Now().Sub(epoch))
		})
		clock.After(50*time.Millisecond, func() {
			at = append(at, clock.Now().Sub(epoch))
		})
	})

	clock.Advance(30 * time.Millisecond)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond}, at)

	clock.Advance(30 * time.Millisecond)
	require.Equal(t, []time.Duration{10 * time.Millisecond, 10 * time.Millisecond, 60 * time.Millisecond}, at)
}
