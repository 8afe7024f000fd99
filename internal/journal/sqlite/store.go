// Package sqlite implements the notification journal on an embedded
// SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/turnwatch/turnwatch/internal/journal"
	"github.com/turnwatch/turnwatch/internal/platform/id"
	"github.com/turnwatch/turnwatch/internal/platform/storage/sqlitemigrate"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const defaultListLimit = 10

// Store is a SQLite-backed journal.
type Store struct {
	db    *sql.DB
	clock func() time.Time
	newID func() (string, error)
}

// Open creates the database file if needed, applies pending migrations,
// and returns a ready store.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create journal dir: %w", err)
		}
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open journal db: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping journal db: %w", err)
	}
	if err := sqlitemigrate.Apply(db, migrationsFS, "migrations"); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate journal db: %w", err)
	}
	return &Store{db: db, clock: time.Now, newID: id.NewID}, nil
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Append validates the entry, assigns its ID and timestamp, and inserts it.
func (s *Store) Append(ctx context.Context, entry journal.Entry) (journal.Entry, error) {
	if entry.Kind == "" || entry.Outcome == "" {
		return journal.Entry{}, journal.ErrInvalidEntry
	}
	entryID, err := s.newID()
	if err != nil {
		return journal.Entry{}, fmt.Errorf("journal id: %w", err)
	}
	entry.ID = entryID
	entry.CreatedAt = s.clock().UTC()

	const query = `INSERT INTO journal_entries (id, kind, faction, handle, outcome, detail, created_at_ms)
VALUES (?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query,
		entry.ID, entry.Kind, entry.Faction, entry.Handle, entry.Outcome, entry.Detail,
		toMillis(entry.CreatedAt)); err != nil {
		return journal.Entry{}, fmt.Errorf("append journal entry: %w", err)
	}
	return entry, nil
}

// ListRecent returns up to limit entries, newest first. A non-positive
// limit falls back to a small default.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]journal.Entry, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	const query = `SELECT id, kind, faction, handle, outcome, detail, created_at_ms
FROM journal_entries
ORDER BY created_at_ms DESC, id DESC
LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer rows.Close()

	var entries []journal.Entry
	for rows.Next() {
		var entry journal.Entry
		var createdAt int64
		if err := rows.Scan(&entry.ID, &entry.Kind, &entry.Faction, &entry.Handle,
			&entry.Outcome, &entry.Detail, &createdAt); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.CreatedAt = fromMillis(createdAt)
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
