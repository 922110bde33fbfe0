package models

import (
	"encoding/json"
	"strings"
	"time"
)

// EventType categorizes events in the system.
type EventType string

const (
	// Timeline lifecycle events
	EventTypeTimelinePlayed   EventType = "timeline.played"
	EventTypeTimelineStopped  EventType = "timeline.stopped"
	EventTypeTimelineSettled  EventType = "timeline.settled"
	EventTypeTimelineFinished EventType = "timeline.finished"
	EventTypeTimelineRewound  EventType = "timeline.rewound"

	// Action events
	EventTypeActionDispatched EventType = "action.dispatched"

	// System events
	EventTypeError EventType = "error"
)

// EntityType identifies the type of entity an event relates to.
type EntityType string

const (
	EntityTypeTimeline EntityType = "timeline"
	EntityTypeSystem   EntityType = "system"
)

// Event represents an append-only log entry.
type Event struct {
	// ID is the unique identifier for the event.
	ID string `json:"id"`

	// Timestamp is when the event occurred.
	Timestamp time.Time `json:"timestamp"`

	// Type categorizes the event.
	Type EventType `json:"type"`

	// EntityType identifies what kind of entity this event relates to.
	EntityType EntityType `json:"entity_type"`

	// EntityID is the ID of the related entity. For timelines this is the
	// timeline name.
	EntityID string `json:"entity_id"`

	// Payload contains event-specific data.
	Payload json.RawMessage `json:"payload,omitempty"`

	// Metadata contains additional context.
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Validate checks if the event is valid.
func (e *Event) Validate() error {
	validation := &ValidationErrors{}
	if strings.TrimSpace(string(e.Type)) == "" {
		validation.AddMessage("type", "event type is required")
	}
	if strings.TrimSpace(string(e.EntityType)) == "" {
		validation.AddMessage("entity_type", "entity_type is required")
	}
	if strings.TrimSpace(e.EntityID) == "" {
		validation.AddMessage("entity_id", "entity_id is required")
	}
	return validation.Err()
}

// TransitionPayload is the payload for timeline state transitions.
type TransitionPayload struct {
	From            string `json:"from"`
	To              string `json:"to"`
	Cursor          int    `json:"cursor"`
	Length          int    `json:"length"`
	PendingLaunches int    `json:"pending_launches"`
}

// ActionDispatchedPayload is the payload for action.dispatched events.
type ActionDispatchedPayload struct {
	Action          string `json:"action"`
	Index           int    `json:"index"`
	Length          int    `json:"length"`
	PendingLaunches int    `json:"pending_launches"`
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Error   string `json:"error"`
	Context string `json:"context,omitempty"`
}
