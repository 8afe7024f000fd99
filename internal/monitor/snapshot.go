package monitor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/turnwatch/turnwatch/internal/monitor/storage"
)

// Restore loads the durable snapshot and rebuilds in-memory state from it.
// A missing snapshot is a clean first start, not an error. The roster is
// not part of the snapshot; it self-heals on the first fresh payload.
func (s *Service) Restore(ctx context.Context) error {
	snapshot, err := s.snapshots.Load(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("load snapshot: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.applySnapshotLocked(snapshot)
	return nil
}

func (s *Service) applySnapshotLocked(snapshot storage.Snapshot) {
	if gameID := strings.TrimSpace(snapshot.GameID); gameID != "" {
		target := snapshot.ResourceURL
		if target == "" {
			target = s.baseURL + gameID
		}
		s.session = &Session{GameID: gameID, URL: target}
	}
	s.destination = snapshot.ChatID
	s.subscriptions = make(map[string]string, len(snapshot.Subscriptions))
	for faction, handle := range snapshot.Subscriptions {
		key := NormalizeFaction(faction)
		if key == "" || handle == "" {
			continue
		}
		s.subscriptions[key] = handle
	}
	s.turn = TurnState{}
	s.reminders = make(map[string]*ReminderState)
	if key := NormalizeFaction(snapshot.LastActiveKey); key != "" {
		// The true turn start is unknowable across a restart. Re-arming
		// from now means reminders resume late rather than replaying.
		s.turn = TurnState{Key: key, Display: key}
		s.reminders[key] = newReminderState(s.now())
	}
	if locale := strings.ToLower(strings.TrimSpace(snapshot.Locale)); locale != "" {
		s.locale = locale
	}
	if seconds := snapshot.PollIntervalSeconds; seconds > 0 {
		if interval := time.Duration(seconds) * time.Second; interval >= MinPollInterval {
			s.interval = interval
		}
	}
	s.paused = snapshot.Paused
}

func (s *Service) snapshotLocked() storage.Snapshot {
	snapshot := storage.Snapshot{
		ChatID:              s.destination,
		Locale:              s.locale,
		PollIntervalSeconds: int64(s.interval / time.Second),
		Paused:              s.paused,
	}
	if s.session != nil {
		snapshot.GameID = s.session.GameID
		snapshot.ResourceURL = s.session.URL
	}
	if len(s.subscriptions) > 0 {
		snapshot.Subscriptions = make(map[string]string, len(s.subscriptions))
		for key, handle := range s.subscriptions {
			snapshot.Subscriptions[key] = handle
		}
	}
	snapshot.LastActiveKey = s.turn.Key
	return snapshot
}
