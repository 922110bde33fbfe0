package timeline

// EventType identifies what happened to a timeline.
type EventType string

const (
	EventPlayed     EventType = "played"
	EventDispatched EventType = "dispatched"
	EventStopped    EventType = "stopped"
	EventSettled    EventType = "settled"
	EventFinished   EventType = "finished"
	EventRewound    EventType = "rewound"
)

// Event describes a transition or dispatch. Observers receive it after the
// timeline's lock has been released.
type Event struct {
	Type     EventType
	Timeline string
	From     State
	To       State
	// Cursor is the queue position after the event was applied.
	Cursor int
	// Length is the number of actions in the current run.
	Length int
	// Index and Action identify the dispatched action for EventDispatched.
	Index  int
	Action ActionKind
	// PendingLaunches is the number of detached launches still in flight.
	PendingLaunches int
}

// Observer receives timeline events.
type Observer interface {
	OnTimelineEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnTimelineEvent calls f(e).
func (f ObserverFunc) OnTimelineEvent(e Event) {
	f(e)
}

// Observers fans an event out to several observers in order.
type Observers []Observer

// OnTimelineEvent calls every non-nil observer.
func (o Observers) OnTimelineEvent(e Event) {
	for _, obs := range o {
		if obs != nil {
			obs.OnTimelineEvent(e)
		}
	}
}
