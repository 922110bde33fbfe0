package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"
	"time"

	"github.com/opencode-ai/sequencer/internal/animation"
	"github.com/opencode-ai/sequencer/internal/db"
	"github.com/opencode-ai/sequencer/internal/events"
	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/opencode-ai/sequencer/internal/metrics"
	"github.com/opencode-ai/sequencer/internal/scheduler"
	"github.com/opencode-ai/sequencer/internal/sequences"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/spf13/cobra"
)

var (
	playVars      []string
	playTimeout   time.Duration
	playStopAfter time.Duration
	playRecord    bool
	playMetrics   string
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().StringArrayVar(&playVars, "var", nil, "sequence variable (key=value, repeatable)")
	playCmd.Flags().DurationVar(&playTimeout, "timeout", 0, "give up if the timeline has not settled after this long (0 = no limit)")
	playCmd.Flags().DurationVar(&playStopAfter, "stop-after", 0, "request a cooperative stop after this long")
	playCmd.Flags().BoolVar(&playRecord, "record", false, "record events even if events.enabled is false")
	playCmd.Flags().StringVar(&playMetrics, "metrics-addr", "", "serve /metrics and /status on this address while playing (overrides metrics.addr)")
}

var playCmd = &cobra.Command{
	Use:   "play <name>",
	Short: "Play a sequence",
	Long: `Play a sequence until it finishes.

Ctrl-C or --stop-after requests a cooperative stop: nothing already started
is cancelled, and the command returns once every outstanding launch has
reported.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runPlay(ctx, args[0])
	},
}

// PlayResult summarises a playback for JSON output.
type PlayResult struct {
	Sequence string                        `json:"sequence"`
	State    string                        `json:"state"`
	Finished bool                          `json:"finished"`
	Stopped  bool                          `json:"stopped"`
	Duration string                        `json:"duration"`
	Messages []PlayMessage                 `json:"messages"`
	Targets  map[string]map[string]float64 `json:"targets,omitempty"`
	Recorded int                           `json:"recorded_events,omitempty"`
	Metrics  string                        `json:"metrics_addr,omitempty"`
}

// PlayStatus is served on /status while a sequence plays.
type PlayStatus struct {
	Sequence        string `json:"sequence"`
	State           string `json:"state"`
	Cursor          int    `json:"cursor"`
	Length          int    `json:"length"`
	PendingLaunches int    `json:"pending_launches"`
	Elapsed         string `json:"elapsed"`
}

// PlayMessage is one message emitted by a call step.
type PlayMessage struct {
	Sequence string `json:"sequence"`
	Message  string `json:"message"`
	Elapsed  string `json:"elapsed"`
}

func runPlay(ctx context.Context, name string) error {
	cfg := GetConfig()
	logger := logging.Component("play")

	vars, err := parseSequenceVars(playVars)
	if err != nil {
		return err
	}

	progress := startProgress("Loading sequences")
	all, err := loadAllSequences()
	if err != nil {
		progress.Fail(err)
		return err
	}
	progress.Done()

	seq := findSequenceByName(all, name)
	if seq == nil {
		return fmt.Errorf("sequence %q not found", name)
	}

	// The loop outlives an interrupt: a stop still has to let started work report.
	loop := scheduler.New(scheduler.Config{QueueSize: cfg.Scheduler.QueueSize})
	if err := loop.Start(context.WithoutCancel(ctx)); err != nil {
		return err
	}
	defer loop.Stop()

	engine := animation.NewEngine(loop, animation.Config{
		FrameInterval: cfg.Animation.FrameInterval,
		DefaultEasing: cfg.Animation.DefaultEasing,
	})

	var (
		repo     events.Repository
		recorder *events.Recorder
	)
	if cfg.Events.Enabled || playRecord {
		progress := startProgress("Opening event log")
		database, err := openEventLog(ctx, cfg.Events.DatabasePath)
		if err != nil {
			progress.Fail(err)
			return err
		}
		defer database.Close()
		progress.Done()

		repo = db.NewEventRepository(database)
		recorder = events.NewRecorder(repo, events.WithContext(context.WithoutCancel(ctx)))
	}

	started := time.Now()
	session := &playSession{root: seq.Name, started: started, ended: make(chan struct{})}

	metricsAddr := playMetrics
	if metricsAddr == "" {
		metricsAddr = cfg.Metrics.Addr
	}
	var collector *metrics.Collector
	if metricsAddr != "" {
		collector = metrics.NewCollector()
	}

	// The session goes last so everything is recorded before the command returns.
	var observers timeline.Observers
	if recorder != nil {
		observers = append(observers, recorder)
	}
	if collector != nil {
		observers = append(observers, collector)
	}
	observers = append(observers, session)

	targets := make(map[string]*animation.Element)
	tl, err := sequences.Build(seq, sequences.BuildOptions{
		Vars:      vars,
		Resolve:   sequences.Index(all),
		Scheduler: loop,
		Engine:    engine,
		Observer:  observers,
		Hooks:     defaultHooks(targets),
		Targets:   targets,
		Output:    session.output,
		OnError: func(sequence string, hookErr error) {
			logger.Error().Err(hookErr).Str("sequence", sequence).Msg("hook failed")
			if repo != nil {
				if err := events.LogError(context.WithoutCancel(ctx), repo, sequence, hookErr, "hook"); err != nil {
					logger.Warn().Err(err).Msg("failed to record hook error")
				}
			}
		},
	})
	if err != nil {
		return err
	}

	var boundMetrics string
	if collector != nil {
		server := metrics.NewServer(collector, func() any {
			return PlayStatus{
				Sequence:        seq.Name,
				State:           tl.State().String(),
				Cursor:          tl.Cursor(),
				Length:          tl.Len(),
				PendingLaunches: tl.PendingLaunches(),
				Elapsed:         formatDuration(time.Since(started)),
			}
		})
		boundMetrics, err = server.Start(metricsAddr)
		if err != nil {
			return fmt.Errorf("start metrics server: %w", err)
		}
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()
			if err := server.Shutdown(shutdownCtx); err != nil {
				logger.Warn().Err(err).Msg("metrics server shutdown failed")
			}
		}()
		logger.Info().Str("addr", boundMetrics).Msg("serving metrics")
	}

	if !tl.Play() {
		return fmt.Errorf("sequence %q could not be played", seq.Name)
	}

	var stopAfter <-chan time.Time
	if playStopAfter > 0 {
		timer := time.NewTimer(playStopAfter)
		defer timer.Stop()
		stopAfter = timer.C
	}
	var deadline <-chan time.Time
	if playTimeout > 0 {
		timer := time.NewTimer(playTimeout)
		defer timer.Stop()
		deadline = timer.C
	}

	interrupted := ctx.Done()
	stopped := false
	requestStop := func(reason string) {
		if stopped {
			return
		}
		stopped = true
		if tl.Stop() {
			logger.Info().Str("reason", reason).Int("pending_launches", tl.PendingLaunches()).Msg("stopping")
		}
	}

wait:
	for {
		select {
		case <-session.ended:
			break wait
		case <-interrupted:
			interrupted = nil
			requestStop("interrupt")
		case <-stopAfter:
			stopAfter = nil
			requestStop("stop-after")
		case <-deadline:
			return fmt.Errorf("timed out after %s waiting for %q (state %s)", playTimeout, seq.Name, tl.State())
		}
	}

	result := PlayResult{
		Sequence: seq.Name,
		State:    tl.State().String(),
		Finished: session.finished(),
		Stopped:  stopped,
		Duration: formatDuration(time.Since(started)),
		Messages: session.messages(),
		Targets:  snapshotTargets(targets),
		Metrics:  boundMetrics,
	}
	if recorder != nil {
		result.Recorded, _ = recorder.Stats()
	}

	if IsJSONOutput() || IsJSONLOutput() {
		return WriteOutput(os.Stdout, result)
	}

	outcome := "finished"
	if !result.Finished {
		outcome = "stopped"
	}
	fmt.Printf("%s %s %s in %s\n", formatTimelineState(tl.State()), seq.Name, outcome, result.Duration)
	for _, name := range sortedKeys(result.Targets) {
		fmt.Printf("  %s %s\n", name, formatProperties(result.Targets[name]))
	}
	return nil
}

func openEventLog(ctx context.Context, path string) (*db.DB, error) {
	database, err := db.Open(db.DefaultConfig(path))
	if err != nil {
		return nil, err
	}
	if _, err := database.MigrateUp(ctx); err != nil {
		database.Close()
		return nil, err
	}
	return database, nil
}

// playSession tracks one playback for the play command.
type playSession struct {
	root    string
	started time.Time
	ended   chan struct{}

	mu        sync.Mutex
	log       []PlayMessage
	done      bool
	endedOnce sync.Once
}

// OnTimelineEvent closes ended once the root timeline finishes or settles.
func (s *playSession) OnTimelineEvent(e timeline.Event) {
	if e.Timeline != s.root {
		return
	}
	switch e.Type {
	case timeline.EventFinished:
		s.mu.Lock()
		s.done = true
		s.mu.Unlock()
		s.endedOnce.Do(func() { close(s.ended) })
	case timeline.EventSettled:
		s.endedOnce.Do(func() { close(s.ended) })
	}
}

func (s *playSession) output(sequence, message string) {
	elapsed := time.Since(s.started)
	s.mu.Lock()
	s.log = append(s.log, PlayMessage{Sequence: sequence, Message: message, Elapsed: formatDuration(elapsed)})
	s.mu.Unlock()

	if IsJSONOutput() || IsJSONLOutput() {
		return
	}
	fmt.Printf("%8s  %s  %s\n", formatDuration(elapsed), render(styleMuted, sequence), message)
}

func (s *playSession) finished() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.done
}

func (s *playSession) messages() []PlayMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]PlayMessage, len(s.log))
	copy(out, s.log)
	return out
}

// defaultHooks are the hooks available to call steps from the command line.
func defaultHooks(targets map[string]*animation.Element) map[string]sequences.Hook {
	logger := logging.Component("hook")
	return map[string]sequences.Hook{
		"log": func(ctx sequences.HookContext) error {
			logger.Info().Str("sequence", ctx.Sequence).Int("step", ctx.Step+1).Msg(ctx.Message)
			return nil
		},
		"targets": func(ctx sequences.HookContext) error {
			for _, name := range sortedKeys(snapshotTargets(targets)) {
				logger.Info().Str("sequence", ctx.Sequence).Str("target", name).
					Interface("properties", targets[name].Properties()).Msg("target")
			}
			return nil
		},
		"fail": func(ctx sequences.HookContext) error {
			if ctx.Message == "" {
				return errors.New("fail hook invoked")
			}
			return errors.New(ctx.Message)
		},
	}
}

func snapshotTargets(targets map[string]*animation.Element) map[string]map[string]float64 {
	if len(targets) == 0 {
		return nil
	}
	out := make(map[string]map[string]float64, len(targets))
	for name, el := range targets {
		out[name] = el.Properties()
	}
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
