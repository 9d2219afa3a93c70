// Package store persists browser sessions (windows, tabs and per-view
// history) in SQLite so they can be restored on the next start.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/justyntemme/shellnav/internal/debug"
)

// MemoryPath opens a private in-memory database.
const MemoryPath = ":memory:"

var ErrSessionNotFound = errors.New("store: session not found")

type DB struct {
	conn *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id TEXT PRIMARY KEY,
	saved_at TEXT NOT NULL,
	active_tab INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS tabs (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	position INTEGER NOT NULL,
	custom_name TEXT NOT NULL DEFAULT '',
	lock_state INTEGER NOT NULL DEFAULT 0,
	current_entry INTEGER NOT NULL,
	target_mode INTEGER NOT NULL DEFAULT 0,
	show_hidden INTEGER NOT NULL DEFAULT 0,
	filter_text TEXT NOT NULL DEFAULT '',
	filter_case_sensitive INTEGER NOT NULL DEFAULT 0,
	filter_enabled INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, position)
);

CREATE TABLE IF NOT EXISTS history_entries (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	tab INTEGER NOT NULL,
	position INTEGER NOT NULL,
	location TEXT NOT NULL,
	scroll_position INTEGER NOT NULL DEFAULT 0,
	PRIMARY KEY (session_id, tab, position)
);

CREATE TABLE IF NOT EXISTS selected_items (
	session_id TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	tab INTEGER NOT NULL,
	entry INTEGER NOT NULL,
	position INTEGER NOT NULL,
	location TEXT NOT NULL,
	PRIMARY KEY (session_id, tab, entry, position)
);

CREATE TABLE IF NOT EXISTS settings (
	key TEXT PRIMARY KEY,
	value TEXT NOT NULL
);
`

// Open initializes the database connection and schema. dbPath may be
// MemoryPath.
func Open(dbPath string) (*DB, error) {
	if dbPath != MemoryPath {
		// Ensure directory exists
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, err
	}
	// Every connection to :memory: is a separate database, and a single
	// writer is all a session store needs.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		// WAL mode allows simultaneous readers and writers
		"PRAGMA journal_mode=WAL;",
		// Synchronous NORMAL is safe against app crashes, faster than FULL
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA foreign_keys=ON;",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("store: %s: %w", p, err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: schema: %w", err)
	}

	debug.Log(debug.STORE, "opened %s", dbPath)
	return &DB{conn: db}, nil
}

// Setting returns the value stored under key, or "" and false.
func (d *DB) Setting(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := d.conn.QueryRowContext(ctx, "SELECT value FROM settings WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (d *DB) SaveSetting(ctx context.Context, key, value string) error {
	// Use INSERT OR REPLACE to upsert the setting
	_, err := d.conn.ExecContext(ctx, "INSERT OR REPLACE INTO settings (key, value) VALUES (?, ?)", key, value)
	return err
}

func (d *DB) Close() error {
	if d.conn == nil {
		return nil
	}
	return d.conn.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		debug.Log(debug.STORE, "bad timestamp %q: %v", s, err)
	}
	return t
}
