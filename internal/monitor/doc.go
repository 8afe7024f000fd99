// Package monitor implements the turn-monitoring engine.
//
// It polls a remote game's JSON state, detects when the active player
// changes, escalates reminders for stalled turns on a fixed schedule, and
// hands structured notification events to a transport. All mutable session
// state lives behind one lock; command handlers and the poll tick serialize
// against it so there is exactly one writer at any moment.
package monitor
