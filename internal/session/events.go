package session

import (
	"time"

	"github.com/google/uuid"
)

// EventType names a change in an engine.
type EventType string

const (
	EventStarted          EventType = "started"
	EventSetUpdated       EventType = "set-updated"
	EventSetCompleted     EventType = "set-completed"
	EventRestStarted      EventType = "rest-started"
	EventRestEnded        EventType = "rest-ended"
	EventExerciseAdvanced EventType = "exercise-advanced"
	EventSummaryPending   EventType = "summary-pending"
	EventPaused           EventType = "paused"
	EventResumed          EventType = "resumed"
	EventRated            EventType = "rated"
	EventSaved            EventType = "saved"
	EventFinalized        EventType = "finalized"
	EventRescored         EventType = "rescored"
	EventCancelled        EventType = "cancelled"
	EventRejected         EventType = "rejected"
	EventTick             EventType = "tick"
)

// Event is delivered to listeners after the engine releases its lock, so
// a listener may read from the engine but must not block for long.
type Event struct {
	Type          EventType
	SessionID     uuid.UUID
	ClientID      uuid.UUID
	State         State
	Cursor        Cursor
	ElapsedSecs   int
	RestSecs      int
	RestRemaining int
	RestedSecs    int
	Volume        float64
	Overall       float64
	Rejection     *Rejection
	At            time.Time
}

// Listener receives engine events.
type Listener func(Event)
