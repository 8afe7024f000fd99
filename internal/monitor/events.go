package monitor

import (
	"context"
	"time"
)

// EventKind enumerates the notification kinds the engine emits.
type EventKind string

const (
	// EventTurnChange announces that the turn moved to a new player.
	EventTurnChange EventKind = "turn_change"
	// EventReminder nudges the current player about a stalled turn.
	EventReminder EventKind = "reminder"
	// EventError reports that the game server is unreachable.
	EventError EventKind = "error"
)

// Event is one structured notification. The engine never renders text; the
// transport localizes events at the boundary using the Locale carried here.
type Event struct {
	Kind    EventKind
	Locale  string
	Faction string        // display form of the active faction
	Handle  string        // subscribed chat handle, empty when nobody is bound
	Index   int           // reminder ordinal, 0-based
	Elapsed time.Duration // schedule offset that triggered a reminder
	Cause   string        // short failure description, errors only
}

// Notifier delivers one event to one destination.
type Notifier interface {
	Notify(ctx context.Context, destination int64, event Event) error
}

// Outcome is the dispatcher's verdict for one event.
type Outcome string

const (
	// OutcomeDelivered means the transport accepted the message.
	OutcomeDelivered Outcome = "delivered"
	// OutcomeSuppressed means pause, debounce, or a missing destination
	// held the message back.
	OutcomeSuppressed Outcome = "suppressed"
	// OutcomeFailed means the transport rejected the message; the failure
	// was logged and swallowed.
	OutcomeFailed Outcome = "failed"
)
