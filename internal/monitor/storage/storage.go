// Package storage defines the durable snapshot contract for the monitor.
package storage

import (
	"context"
	"errors"
)

// ErrNotFound reports that no snapshot has been written yet.
var ErrNotFound = errors.New("snapshot not found")

// Snapshot is the monitor state that survives a restart. Factions are
// stored by normalized key; the roster itself is rebuilt from the next
// fresh payload and deliberately absent here.
type Snapshot struct {
	GameID              string            `json:"game_id,omitempty"`
	ResourceURL         string            `json:"resource_url,omitempty"`
	ChatID              int64             `json:"chat_id,omitempty"`
	Subscriptions       map[string]string `json:"subscriptions,omitempty"`
	LastActiveKey       string            `json:"last_active_key,omitempty"`
	Locale              string            `json:"locale,omitempty"`
	PollIntervalSeconds int64             `json:"poll_interval_seconds,omitempty"`
	Paused              bool              `json:"paused,omitempty"`
}

// Store persists and recovers the monitor snapshot.
type Store interface {
	Load(ctx context.Context) (Snapshot, error)
	Save(ctx context.Context, snapshot Snapshot) error
}
