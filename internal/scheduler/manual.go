package scheduler

import (
	"container/heap"
	"sync"
	"time"
)

// Manual is a virtual clock. Nothing runs until the owner calls Advance or
// Flush, which fire due callbacks on the calling goroutine in deadline order
// (FIFO among equal deadlines).
type Manual struct {
	mu     sync.Mutex
	now    time.Time
	seq    uint64
	timers timerHeap
}

// NewManual returns a virtual clock starting at the Unix epoch.
func NewManual() *Manual {
	return &Manual{now: time.Unix(0, 0).UTC()}
}

// After schedules fn at now+d.
func (m *Manual) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	heap.Push(&m.timers, &manualTimer{due: m.now.Add(d), seq: m.seq, fn: fn})
}

// Yield schedules fn for the current instant; it runs on the next Advance or Flush.
func (m *Manual) Yield(fn func()) {
	m.After(0, fn)
}

// Now returns the virtual time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of scheduled callbacks.
func (m *Manual) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timers.Len()
}

// Advance moves the clock forward by d, running every callback that falls
// due on the way, including ones scheduled by callbacks. It returns the
// number of callbacks run.
func (m *Manual) Advance(d time.Duration) int {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	ran := 0
	for {
		m.mu.Lock()
		if m.timers.Len() == 0 || m.timers[0].due.After(target) {
			m.now = target
			m.mu.Unlock()
			return ran
		}
		next := heap.Pop(&m.timers).(*manualTimer)
		if next.due.After(m.now) {
			m.now = next.due
		}
		m.mu.Unlock()

		next.fn()
		ran++
	}
}

// Flush runs everything due at the current instant.
func (m *Manual) Flush() int {
	return m.Advance(0)
}

type manualTimer struct {
	due time.Time
	seq uint64
	fn  func()
}

type timerHeap []*manualTimer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].due.Equal(h[j].due) {
		return h[i].seq < h[j].seq
	}
	return h[i].due.Before(h[j].due)
}

func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *timerHeap) Push(x any) { *h = append(*h, x.(*manualTimer)) }

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return item
}
