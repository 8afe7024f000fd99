package monitor

import (
	"context"
	"log"
	"time"

	"github.com/turnwatch/turnwatch/internal/journal"
)

// ErrorDebounce is the minimum gap between delivered error notifications to
// the same destination. Fetch failure storms collapse to one message per
// window.
const ErrorDebounce = 5 * time.Minute

// Dispatcher routes engine events to the transport. Turn changes and
// reminders honor the pause flag; error reports are exempt from pause but
// debounced per destination. Delivery failures are logged and swallowed so
// monitoring never stops because the chat room is unreachable. Every
// outcome is journaled best-effort.
type Dispatcher struct {
	notifier Notifier
	journal  journal.Store
	clock    func() time.Time
	debounce time.Duration

	lastErrorAt map[int64]time.Time
}

// NewDispatcher builds a Dispatcher. journalStore may be nil to disable
// journaling; clock may be nil for the wall clock.
func NewDispatcher(notifier Notifier, journalStore journal.Store, clock func() time.Time) *Dispatcher {
	if clock == nil {
		clock = time.Now
	}
	return &Dispatcher{
		notifier:    notifier,
		journal:     journalStore,
		clock:       clock,
		debounce:    ErrorDebounce,
		lastErrorAt: make(map[int64]time.Time),
	}
}

// Dispatch delivers event to destination and returns the outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, destination int64, event Event, paused bool) Outcome {
	outcome := d.decide(destination, event, paused)
	if outcome == OutcomeDelivered {
		if err := d.notifier.Notify(ctx, destination, event); err != nil {
			log.Printf("notify %s to %d: %v", event.Kind, destination, err)
			outcome = OutcomeFailed
		}
	}
	d.record(ctx, event, outcome)
	return outcome
}

func (d *Dispatcher) decide(destination int64, event Event, paused bool) Outcome {
	if destination == 0 {
		return OutcomeSuppressed
	}
	if event.Kind == EventError {
		now := d.clock()
		if last, ok := d.lastErrorAt[destination]; ok && now.Sub(last) < d.debounce {
			return OutcomeSuppressed
		}
		// The window opens even when delivery then fails, so a broken
		// transport is not hammered once per tick.
		d.lastErrorAt[destination] = now
		return OutcomeDelivered
	}
	if paused {
		return OutcomeSuppressed
	}
	return OutcomeDelivered
}

func (d *Dispatcher) record(ctx context.Context, event Event, outcome Outcome) {
	if d.journal == nil {
		return
	}
	entry := journal.Entry{
		Kind:    string(event.Kind),
		Faction: event.Faction,
		Handle:  event.Handle,
		Outcome: string(outcome),
		Detail:  event.Cause,
	}
	if _, err := d.journal.Append(ctx, entry); err != nil {
		log.Printf("journal %s notification: %v", event.Kind, err)
	}
}
