// Package metrics exposes timeline playback as Prometheus metrics.
package metrics

import (
	"sync"
	"time"

	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/prometheus/client_golang/prometheus"
)

// Run outcome label values.
const (
	outcomeFinished = "finished"
	outcomeStopped  = "stopped"
)

var actionKinds = []timeline.ActionKind{
	timeline.ActionKindSleep,
	timeline.ActionKindCall,
	timeline.ActionKindAnimate,
	timeline.ActionKindLaunch,
	timeline.ActionKindWait,
}

// Collector is a timeline.Observer that records playback metrics on its own
// registry.
type Collector struct {
	registry *prometheus.Registry

	runsTotal       *prometheus.CounterVec
	actionsTotal    *prometheus.CounterVec
	runDuration     *prometheus.HistogramVec
	activeRuns      prometheus.Gauge
	stopRequests    prometheus.Counter
	pendingLaunches *prometheus.GaugeVec

	now     func() time.Time
	mu      sync.Mutex
	started map[string]time.Time
}

var _ timeline.Observer = (*Collector)(nil)

// NewCollector creates a collector with a fresh registry.
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_timeline_runs_total",
				Help: "Total number of timeline runs that ended, by outcome.",
			},
			[]string{"outcome"},
		),
		actionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sequencer_actions_dispatched_total",
				Help: "Total number of actions dispatched, by kind.",
			},
			[]string{"kind"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sequencer_timeline_run_seconds",
				Help:    "Duration from play until the run finished or settled, in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"outcome"},
		),
		activeRuns: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "sequencer_active_runs",
				Help: "Number of timeline runs currently in progress.",
			},
		),
		stopRequests: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "sequencer_stop_requests_total",
				Help: "Total number of accepted stop requests.",
			},
		),
		pendingLaunches: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "sequencer_pending_launches",
				Help: "Pending detached launches per timeline, as of its last event.",
			},
			[]string{"timeline"},
		),
		now:     time.Now,
		started: make(map[string]time.Time),
	}

	c.registry.MustRegister(
		c.runsTotal,
		c.actionsTotal,
		c.runDuration,
		c.activeRuns,
		c.stopRequests,
		c.pendingLaunches,
	)

	for _, kind := range actionKinds {
		c.actionsTotal.WithLabelValues(string(kind))
	}
	c.runsTotal.WithLabelValues(outcomeFinished)
	c.runsTotal.WithLabelValues(outcomeStopped)

	return c
}

// Registry returns the registry the collector's metrics live on.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// OnTimelineEvent implements timeline.Observer.
func (c *Collector) OnTimelineEvent(e timeline.Event) {
	c.pendingLaunches.WithLabelValues(e.Timeline).Set(float64(e.PendingLaunches))

	switch e.Type {
	case timeline.EventPlayed:
		c.mu.Lock()
		c.started[e.Timeline] = c.now()
		c.mu.Unlock()
		c.activeRuns.Inc()
	case timeline.EventDispatched:
		c.actionsTotal.WithLabelValues(string(e.Action)).Inc()
	case timeline.EventStopped:
		c.stopRequests.Inc()
	case timeline.EventFinished:
		c.ended(e.Timeline, outcomeFinished)
	case timeline.EventSettled:
		c.ended(e.Timeline, outcomeStopped)
	}
}

func (c *Collector) ended(name, outcome string) {
	c.mu.Lock()
	start, ok := c.started[name]
	delete(c.started, name)
	c.mu.Unlock()

	c.runsTotal.WithLabelValues(outcome).Inc()
	if ok {
		c.activeRuns.Dec()
		c.runDuration.WithLabelValues(outcome).Observe(c.now().Sub(start).Seconds())
	}
}
