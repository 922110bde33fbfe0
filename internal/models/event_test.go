package models

import (
	"errors"
	"strings"
	"testing"
)

func TestEventValidate(t *testing.T) {
	tests := []struct {
		name   string
		event  Event
		fields []string
	}{
		{
			name:  "valid",
			event: Event{Type: EventTypeTimelinePlayed, EntityType: EntityTypeTimeline, EntityID: "intro"},
		},
		{
			name:   "missing everything",
			event:  Event{},
			fields: []string{"type", "entity_type", "entity_id"},
		},
		{
			name:   "blank entity id",
			event:  Event{Type: EventTypeActionDispatched, EntityType: EntityTypeTimeline, EntityID: "  "},
			fields: []string{"entity_id"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.event.Validate()
			if len(tt.fields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}

			var verrs *ValidationErrors
			if !errors.As(err, &verrs) {
				t.Fatalf("expected ValidationErrors, got %v", err)
			}
			if len(verrs.Errors) != len(tt.fields) {
				t.Fatalf("expected %d errors, got %d: %v", len(tt.fields), len(verrs.Errors), err)
			}
			for i, field := range tt.fields {
				if verrs.Errors[i].Field != field {
					t.Errorf("error %d field = %q, want %q", i, verrs.Errors[i].Field, field)
				}
			}
			if !strings.HasPrefix(err.Error(), "validation failed: ") {
				t.Errorf("unexpected message %q", err.Error())
			}
		})
	}
}

func TestValidationErrorsEmpty(t *testing.T) {
	var v ValidationErrors
	v.Add("ignored", nil)
	if err := v.Err(); err != nil {
		t.Fatalf("expected nil, got %v", err)
	}
}
