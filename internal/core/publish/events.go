package publish

import (
	"time"

	"github.com/google/uuid"
)

type EventType uint8

const (
	// EventCreated fires once the pipe exists on disk, before the rendezvous.
	EventCreated EventType = iota + 1
	// EventServed fires after a snapshot was written and the pipe removed.
	EventServed
	// EventFailed fires for every cycle error, transient or fatal.
	EventFailed
	// EventStopped fires once when Run returns.
	EventStopped
)

func (t EventType) String() string {
	switch t {
	case EventCreated:
		return "created"
	case EventServed:
		return "served"
	case EventFailed:
		return "failed"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event describes one step of the publish loop. Handlers run on the loop
// goroutine; the next cycle does not start until they return.
type Event struct {
	Type  EventType
	Cycle uuid.UUID
	Path  string
	Bytes int
	Err   error
	At    time.Time
}

// EventHandler receives publisher events.
type EventHandler func(Event)
