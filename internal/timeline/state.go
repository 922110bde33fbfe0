package timeline

// State is the playback state of a Timeline.
type State int

const (
	// StateReady is idle: safe to append actions and to Play.
	StateReady State = iota
	// StatePlaying is actively advancing the cursor.
	StatePlaying
	// StateWaiting is blocked on the completion of a Wait action.
	StateWaiting
	// StateStopping has accepted a Stop and is waiting for outstanding
	// launches to report before returning to StateReady.
	StateStopping
)

func (s State) String() string {
	switch s {
	case StateReady:
		return "ready"
	case StatePlaying:
		return "playing"
	case StateWaiting:
		return "waiting"
	case StateStopping:
		return "stopping"
	default:
		return "unknown"
	}
}
