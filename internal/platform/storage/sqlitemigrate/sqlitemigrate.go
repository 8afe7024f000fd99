// Package sqlitemigrate applies embedded SQL migrations to a sqlite database.
//
// Migrations are plain .sql files applied in lexical order, once each. The
// set of applied files is tracked in a schema_migrations table, so reruns
// are no-ops. Migrations are forward-only.
package sqlitemigrate

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// Apply runs every pending .sql file under root in fsys against db. Each
// migration executes in its own transaction together with its ledger row.
func Apply(db *sql.DB, fsys fs.FS, root string) error {
	if db == nil {
		return errors.New("sqlitemigrate: nil database")
	}
	if fsys == nil {
		return errors.New("sqlitemigrate: nil filesystem")
	}
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		name TEXT PRIMARY KEY,
		applied_at_ms INTEGER NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	names, err := listMigrations(fsys, root)
	if err != nil {
		return err
	}
	for _, name := range names {
		applied, err := isApplied(db, name)
		if err != nil {
			return err
		}
		if applied {
			continue
		}
		script, err := fs.ReadFile(fsys, path.Join(root, name))
		if err != nil {
			return fmt.Errorf("read migration %s: %w", name, err)
		}
		if err := applyOne(db, name, string(script)); err != nil {
			return fmt.Errorf("apply migration %s: %w", name, err)
		}
	}
	return nil
}

func listMigrations(fsys fs.FS, root string) ([]string, error) {
	if root == "" {
		root = "."
	}
	entries, err := fs.ReadDir(fsys, root)
	if err != nil {
		return nil, fmt.Errorf("list migrations: %w", err)
	}
	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)
	return names, nil
}

func isApplied(db *sql.DB, name string) (bool, error) {
	var count int
	err := db.QueryRow(`SELECT COUNT(1) FROM schema_migrations WHERE name = ?`, name).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check migration %s: %w", name, err)
	}
	return count > 0, nil
}

func applyOne(db *sql.DB, name, script string) error {
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	if _, err := tx.Exec(script); err != nil {
		tx.Rollback()
		return err
	}
	appliedAt := time.Now().UTC().UnixMilli()
	if _, err := tx.Exec(`INSERT INTO schema_migrations (name, applied_at_ms) VALUES (?, ?)`, name, appliedAt); err != nil {
		tx.Rollback()
		return fmt.Errorf("record migration: %w", err)
	}
	return tx.Commit()
}
