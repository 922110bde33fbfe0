// Package events turns timeline playback into event log records.
package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/opencode-ai/sequencer/internal/logging"
	"github.com/opencode-ai/sequencer/internal/models"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/rs/zerolog"
)

// Repository is the minimal interface needed to write events.
type Repository interface {
	Create(ctx context.Context, event *models.Event) error
}

// Recorder is a timeline.Observer that writes every timeline event to a
// Repository. Writes are serialised so records keep the order in which the
// timelines emitted them. Write failures are logged and counted; they never
// reach the timeline.
type Recorder struct {
	repo     Repository
	ctx      context.Context
	now      func() time.Time
	metadata map[string]string
	logger   zerolog.Logger

	mu       sync.Mutex
	recorded int
	failed   int
}

var _ timeline.Observer = (*Recorder)(nil)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) RecorderOption {
	return func(r *Recorder) {
		r.now = now
	}
}

// WithMetadata attaches metadata to every recorded event.
func WithMetadata(metadata map[string]string) RecorderOption {
	return func(r *Recorder) {
		r.metadata = metadata
	}
}

// WithContext sets the context used for repository writes.
func WithContext(ctx context.Context) RecorderOption {
	return func(r *Recorder) {
		r.ctx = ctx
	}
}

// NewRecorder creates a recorder writing to repo.
func NewRecorder(repo Repository, opts ...RecorderOption) *Recorder {
	r := &Recorder{
		repo:   repo,
		ctx:    context.Background(),
		now:    time.Now,
		logger: logging.Component("events"),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// OnTimelineEvent implements timeline.Observer.
func (r *Recorder) OnTimelineEvent(e timeline.Event) {
	event, err := r.toModel(e)
	if err != nil {
		r.logger.Error().Err(err).Str("timeline", e.Timeline).Msg("failed to build event")
		r.mu.Lock()
		r.failed++
		r.mu.Unlock()
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.repo.Create(r.ctx, event); err != nil {
		r.failed++
		r.logger.Error().Err(err).Str("timeline", e.Timeline).Str("type", string(event.Type)).Msg("failed to record event")
		return
	}
	r.recorded++
}

// Stats returns how many events were recorded and how many failed.
func (r *Recorder) Stats() (recorded, failed int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recorded, r.failed
}

func (r *Recorder) toModel(e timeline.Event) (*models.Event, error) {
	var (
		typ     models.EventType
		payload any
	)

	switch e.Type {
	case timeline.EventDispatched:
		typ = models.EventTypeActionDispatched
		payload = models.ActionDispatchedPayload{
			Action:          string(e.Action),
			Index:           e.Index,
			Length:          e.Length,
			PendingLaunches: e.PendingLaunches,
		}
	case timeline.EventPlayed, timeline.EventStopped, timeline.EventSettled, timeline.EventFinished, timeline.EventRewound:
		typ = transitionTypes[e.Type]
		payload = models.TransitionPayload{
			From:            e.From.String(),
			To:              e.To.String(),
			Cursor:          e.Cursor,
			Length:          e.Length,
			PendingLaunches: e.PendingLaunches,
		}
	default:
		return nil, fmt.Errorf("unknown timeline event type %q", e.Type)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s payload: %w", typ, err)
	}

	return &models.Event{
		Timestamp:  r.now().UTC(),
		Type:       typ,
		EntityType: models.EntityTypeTimeline,
		EntityID:   e.Timeline,
		Payload:    data,
		Metadata:   r.metadata,
	}, nil
}

var transitionTypes = map[timeline.EventType]models.EventType{
	timeline.EventPlayed:   models.EventTypeTimelinePlayed,
	timeline.EventStopped:  models.EventTypeTimelineStopped,
	timeline.EventSettled:  models.EventTypeTimelineSettled,
	timeline.EventFinished: models.EventTypeTimelineFinished,
	timeline.EventRewound:  models.EventTypeTimelineRewound,
}

// LogError records an error event against a timeline.
func LogError(ctx context.Context, repo Repository, timelineName string, cause error, detail string) error {
	if repo == nil {
		return fmt.Errorf("event repository is required")
	}
	if timelineName == "" {
		return fmt.Errorf("timeline name is required")
	}
	if cause == nil {
		return fmt.Errorf("error is required")
	}

	payload, err := json.Marshal(models.ErrorPayload{
		Error:   cause.Error(),
		Context: detail,
	})
	if err != nil {
		return fmt.Errorf("failed to marshal error payload: %w", err)
	}

	return repo.Create(ctx, &models.Event{
		Type:       models.EventTypeError,
		EntityType: models.EntityTypeTimeline,
		EntityID:   timelineName,
		Payload:    payload,
	})
}
