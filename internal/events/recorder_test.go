package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/opencode-ai/sequencer/internal/models"
	"github.com/opencode-ai/sequencer/internal/scheduler"
	"github.com/opencode-ai/sequencer/internal/timeline"
	"github.com/rs/zerolog"
)

type fakeRepo struct {
	events []*models.Event
	err    error
}

func (r *fakeRepo) Create(ctx context.Context, event *models.Event) error {
	if r.err != nil {
		return r.err
	}
	r.events = append(r.events, event)
	return nil
}

func (r *fakeRepo) types() []models.EventType {
	out := make([]models.EventType, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}

func TestRecorderCapturesPlayback(t *testing.T) {
	repo := &fakeRepo{}
	fixed := time.Date(2026, 3, 4, 5, 6, 7, 0, time.UTC)
	recorder := NewRecorder(repo, WithClock(func() time.Time { return fixed }), WithMetadata(map[string]string{"run": "1"}))

	clock := scheduler.NewManual()
	tl := timeline.New("intro",
		timeline.WithScheduler(clock),
		timeline.WithObserver(recorder),
		timeline.WithLogger(zerolog.Nop()),
	).Sleep(10 * time.Millisecond).Call(func() {})

	if !tl.Play() {
		t.Fatal("expected Play to succeed")
	}
	clock.Advance(10 * time.Millisecond)

	want := []models.EventType{
		models.EventTypeTimelinePlayed,
		models.EventTypeActionDispatched,
		models.EventTypeActionDispatched,
		models.EventTypeTimelineFinished,
	}
	got := repo.types()
	if len(got) != len(want) {
		t.Fatalf("expected %d events, got %v", len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("event %d = %q, want %q", i, got[i], want[i])
		}
	}

	for _, e := range repo.events {
		if e.EntityType != models.EntityTypeTimeline || e.EntityID != "intro" {
			t.Fatalf("unexpected entity: %s/%s", e.EntityType, e.EntityID)
		}
		if !e.Timestamp.Equal(fixed) {
			t.Fatalf("unexpected timestamp %v", e.Timestamp)
		}
		if e.Metadata["run"] != "1" {
			t.Fatalf("metadata missing: %v", e.Metadata)
		}
	}

	var dispatched models.ActionDispatchedPayload
	if err := json.Unmarshal(repo.events[2].Payload, &dispatched); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if dispatched.Action != "call" || dispatched.Index != 1 || dispatched.Length != 2 {
		t.Fatalf("unexpected dispatch payload: %+v", dispatched)
	}

	var finished models.TransitionPayload
	if err := json.Unmarshal(repo.events[3].Payload, &finished); err != nil {
		t.Fatalf("payload: %v", err)
	}
	if finished.From != "playing" || finished.To != "ready" {
		t.Fatalf("unexpected finish payload: %+v", finished)
	}

	recorded, failed := recorder.Stats()
	if recorded != 4 || failed != 0 {
		t.Fatalf("Stats() = %d, %d", recorded, failed)
	}
}

func TestRecorderCountsFailures(t *testing.T) {
	repo := &fakeRepo{err: errors.New("disk full")}
	recorder := NewRecorder(repo)
	recorder.logger = zerolog.Nop()

	recorder.OnTimelineEvent(timeline.Event{Type: timeline.EventStopped, Timeline: "intro"})
	recorder.OnTimelineEvent(timeline.Event{Type: "bogus", Timeline: "intro"})

	recorded, failed := recorder.Stats()
	if recorded != 0 || failed != 2 {
		t.Fatalf("Stats() = %d, %d", recorded, failed)
	}
}

func TestLogError(t *testing.T) {
	repo := &fakeRepo{}

	if err := LogError(context.Background(), repo, "intro", errors.New("boom"), "hook"); err != nil {
		t.Fatalf("LogError failed: %v", err)
	}
	if len(repo.events) != 1 || repo.events[0].Type != models.EventTypeError {
		t.Fatalf("unexpected events: %+v", repo.events)
	}

	if err := LogError(context.Background(), nil, "intro", errors.New("boom"), ""); err == nil {
		t.Fatal("expected error for nil repository")
	}
	if err := LogError(context.Background(), repo, "", errors.New("boom"), ""); err == nil {
		t.Fatal("expected error for missing timeline")
	}
}
