// Package catalog keeps a small SQLite catalog of recently opened session
// files, newest first and pruned to a fixed capacity.
package catalog

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// DefaultCapacity is the number of entries kept unless configured otherwise.
const DefaultCapacity = 20

// DBFileName is the catalog's file name under the application data dir.
const DBFileName = "recent.db"

// Entry is one recently opened session file.
type Entry struct {
	Path        string
	OpenedAt    time.Time
	Notes       int
	Images      int
	Connections int
}

// Config configures a Catalog.
type Config struct {
	// Path of the database file. Required.
	Path string

	// Capacity is the number of entries kept. Zero selects DefaultCapacity.
	Capacity int

	Logger *slog.Logger
}

// Catalog records recently opened sessions in SQLite. Safe for concurrent
// use through the underlying sql.DB.
type Catalog struct {
	db       *sql.DB
	capacity int
	logger   *slog.Logger
}

// Open opens or creates the catalog database and ensures its schema.
func Open(config Config) (*Catalog, error) {
	if config.Path == "" {
		return nil, errors.New("catalog: path required")
	}
	capacity := config.Capacity
	if capacity <= 0 {
		capacity = DefaultCapacity
	}

	if err := os.MkdirAll(filepath.Dir(config.Path), 0o755); err != nil {
		return nil, fmt.Errorf("create catalog directory: %w", err)
	}
	db, err := sql.Open("sqlite3", config.Path+"?_journal_mode=WAL&_busy_timeout=5000&_loc=UTC")
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("verify catalog connection: %w", err)
	}

	c := &Catalog{db: db, capacity: capacity, logger: config.Logger}
	if err := c.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return c, nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	return c.db.Close()
}

func (c *Catalog) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS recent_sessions (
	path        TEXT PRIMARY KEY,
	opened_at   TIMESTAMP NOT NULL,
	notes       INTEGER NOT NULL DEFAULT 0,
	images      INTEGER NOT NULL DEFAULT 0,
	connections INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_recent_sessions_opened_at
	ON recent_sessions (opened_at DESC);`
	if _, err := c.db.Exec(schema); err != nil {
		return fmt.Errorf("create catalog schema: %w", err)
	}
	return nil
}

// Touch records that a session file was opened, updating the existing row
// when the path is already present, then prunes to capacity.
func (c *Catalog) Touch(entry Entry) error {
	if entry.Path == "" {
		return errors.New("catalog: entry path required")
	}
	openedAt := entry.OpenedAt
	if openedAt.IsZero() {
		openedAt = time.Now()
	}

	tx, err := c.db.Begin()
	if err != nil {
		return fmt.Errorf("begin catalog transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(`
INSERT INTO recent_sessions (path, opened_at, notes, images, connections)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(path) DO UPDATE SET
	opened_at   = excluded.opened_at,
	notes       = excluded.notes,
	images      = excluded.images,
	connections = excluded.connections`,
		entry.Path, openedAt.UTC(), entry.Notes, entry.Images, entry.Connections)
	if err != nil {
		return fmt.Errorf("record session: %w", err)
	}

	_, err = tx.Exec(`
DELETE FROM recent_sessions WHERE path NOT IN (
	SELECT path FROM recent_sessions ORDER BY opened_at DESC, path LIMIT ?
)`, c.capacity)
	if err != nil {
		return fmt.Errorf("prune catalog: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog transaction: %w", err)
	}
	if c.logger != nil {
		c.logger.Debug("session recorded", "path", entry.Path)
	}
	return nil
}

// Recent returns up to limit entries, newest first. A non-positive limit
// returns up to the configured capacity.
func (c *Catalog) Recent(limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = c.capacity
	}
	rows, err := c.db.Query(`
SELECT path, opened_at, notes, images, connections
FROM recent_sessions
ORDER BY opened_at DESC, path
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent sessions: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var e Entry
		if err := rows.Scan(&e.Path, &e.OpenedAt, &e.Notes, &e.Images, &e.Connections); err != nil {
			return nil, fmt.Errorf("scan recent session: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recent sessions: %w", err)
	}
	return entries, nil
}

// Remove drops one path from the catalog. Removing an absent path is a
// no-op.
func (c *Catalog) Remove(path string) error {
	if _, err := c.db.Exec(`DELETE FROM recent_sessions WHERE path = ?`, path); err != nil {
		return fmt.Errorf("remove session: %w", err)
	}
	return nil
}

// Clear empties the catalog.
func (c *Catalog) Clear() error {
	if _, err := c.db.Exec(`DELETE FROM recent_sessions`); err != nil {
		return fmt.Errorf("clear catalog: %w", err)
	}
	return nil
}
