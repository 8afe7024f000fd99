package monitor

import (
	"fmt"
	"strings"
	"time"
)

// DefaultReminderSchedule nudges a stalled turn at ten minutes, again at
// thirty, and a last time at one hour.
var DefaultReminderSchedule = Schedule{10 * time.Minute, 30 * time.Minute, time.Hour}

// Schedule is an ordered list of reminder offsets measured from the start
// of a player's turn.
type Schedule []time.Duration

// ParseSchedule reads a comma-separated duration list such as "10m,30m,1h".
func ParseSchedule(raw string) (Schedule, error) {
	parts := strings.Split(raw, ",")
	schedule := make(Schedule, 0, len(parts))
	for _, part := range parts {
		offset, err := time.ParseDuration(strings.TrimSpace(part))
		if err != nil {
			return nil, fmt.Errorf("parse reminder schedule %q: %w", raw, err)
		}
		schedule = append(schedule, offset)
	}
	if err := schedule.Validate(); err != nil {
		return nil, err
	}
	return schedule, nil
}

// Validate rejects empty, non-positive, or non-increasing schedules. Offsets
// must strictly increase so reminders fire in order.
func (s Schedule) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("reminder schedule is empty")
	}
	prev := time.Duration(0)
	for i, offset := range s {
		if offset <= prev {
			return fmt.Errorf("reminder schedule must increase: offset %d (%s) not after %s", i, offset, prev)
		}
		prev = offset
	}
	return nil
}

// ReminderState tracks reminder progress for one faction's current turn.
// NextIndex only moves forward within a turn; a turn change or a resume
// from pause replaces the whole state.
type ReminderState struct {
	TurnStartedAt  time.Time
	LastRemindedAt time.Time
	NextIndex      int
}

func newReminderState(started time.Time) *ReminderState {
	return &ReminderState{TurnStartedAt: started, LastRemindedAt: started}
}

// Exhausted reports whether every reminder in schedule has fired.
func (r *ReminderState) Exhausted(schedule Schedule) bool {
	return r.NextIndex >= len(schedule)
}

// repair resets missing or future timestamps to now and reports whether
// anything changed, so the caller can persist the corrected state. Corrupt
// timers degrade to "reminders restart from now", never to a crash.
func (r *ReminderState) repair(now time.Time) bool {
	repaired := false
	if r.TurnStartedAt.IsZero() || r.TurnStartedAt.After(now) {
		r.TurnStartedAt = now
		repaired = true
	}
	if r.LastRemindedAt.IsZero() || r.LastRemindedAt.After(now) {
		r.LastRemindedAt = now
		repaired = true
	}
	if r.NextIndex < 0 {
		r.NextIndex = 0
		repaired = true
	}
	return repaired
}

// dueReminder returns the schedule index that should fire now, or -1. At
// most one reminder fires per tick; a long gap between ticks advances the
// index one step at a time.
func (r *ReminderState) dueReminder(schedule Schedule, now time.Time) int {
	if r.Exhausted(schedule) {
		return -1
	}
	due := r.TurnStartedAt.Add(schedule[r.NextIndex])
	if now.Before(due) {
		return -1
	}
	return r.NextIndex
}

// advance records that the pending reminder fired at now.
func (r *ReminderState) advance(now time.Time) {
	r.LastRemindedAt = now
	r.NextIndex++
}
