// Package file persists the monitor snapshot as a single JSON document,
// written atomically via a temp file rename.
package file

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/turnwatch/turnwatch/internal/monitor/storage"
)

// Store reads and writes one snapshot file.
type Store struct {
	path string
}

// New creates the snapshot file's parent directory and returns a store
// bound to path.
func New(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("file: snapshot path is required")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create snapshot dir: %w", err)
		}
	}
	return &Store{path: path}, nil
}

// Load reads and decodes the snapshot. A missing file maps to
// storage.ErrNotFound; a corrupt file is surfaced as an error so the
// caller can decide between aborting and starting clean.
func (s *Store) Load(_ context.Context) (storage.Snapshot, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return storage.Snapshot{}, storage.ErrNotFound
		}
		return storage.Snapshot{}, fmt.Errorf("read snapshot: %w", err)
	}
	var snapshot storage.Snapshot
	if err := json.Unmarshal(data, &snapshot); err != nil {
		return storage.Snapshot{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return snapshot, nil
}

// Save writes the snapshot atomically: marshal, write to a temp file in
// the same directory, fsync, rename over the target. A crash mid-write
// leaves the previous snapshot intact.
func (s *Store) Save(_ context.Context, snapshot storage.Snapshot) error {
	data, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".snapshot-*.json")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
