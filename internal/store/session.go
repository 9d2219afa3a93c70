package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/justyntemme/shellnav/internal/browser"
	"github.com/justyntemme/shellnav/internal/debug"
	"github.com/justyntemme/shellnav/internal/location"
	"github.com/justyntemme/shellnav/internal/nav"
)

// SessionInfo summarizes a saved session.
type SessionInfo struct {
	ID        string
	SavedAt time.Time
	Tabs      int
}

// SaveSession stores w as a new session and returns its id.
func (d *DB) SaveSession(ctx context.Context, w browser.PreservedWindow) (string, error) {
	id := uuid.NewString()
	return id, d.SaveSessionAs(ctx, id, w, time.Now())
}

// SaveSessionAs stores w under id, replacing any session with that id.
func (d *DB) SaveSessionAs(ctx context.Context, id string, w browser.PreservedWindow, saved time.Time) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := deleteSession(ctx, tx, id); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx,
		"INSERT INTO sessions (id, saved_at, active_tab) VALUES (?, ?, ?)",
		id, formatTime(saved), w.ActiveTab); err != nil {
		return fmt.Errorf("store: insert session: %w", err)
	}

	for i, t := range w.Tabs {
		if err := saveTab(ctx, tx, id, i, t); err != nil {
			return fmt.Errorf("store: tab %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	debug.Log(debug.STORE, "saved session %s (%d tabs)", id, len(w.Tabs))
	return nil
}

func saveTab(ctx context.Context, tx *sql.Tx, session string, pos int, t browser.PreservedTab) error {
	b := t.Browser
	s := b.Settings
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO tabs (session_id, position, custom_name, lock_state, current_entry,
			target_mode, show_hidden, filter_text, filter_case_sensitive, filter_enabled)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		session, pos, t.CustomName, int(t.LockState), b.CurrentEntry,
		int(b.TargetMode), s.ShowHidden, s.FilterText, s.FilterCaseSensitive, s.FilterEnabled); err != nil {
		return err
	}

	for i, e := range b.History {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO history_entries (session_id, tab, position, location, scroll_position)
			VALUES (?, ?, ?, ?, ?)`,
			session, pos, i, e.Location.String(), e.ScrollPosition); err != nil {
			return err
		}
		for j, sel := range e.SelectedItems {
			if _, err := tx.ExecContext(ctx, `
				INSERT INTO selected_items (session_id, tab, entry, position, location)
				VALUES (?, ?, ?, ?, ?)`,
				session, pos, i, j, sel.String()); err != nil {
				return err
			}
		}
	}
	return nil
}

// LoadSession reads the session saved under id.
func (d *DB) LoadSession(ctx context.Context, id string) (browser.PreservedWindow, error) {
	var w browser.PreservedWindow

	err := d.conn.QueryRowContext(ctx, "SELECT active_tab FROM sessions WHERE id = ?", id).Scan(&w.ActiveTab)
	if errors.Is(err, sql.ErrNoRows) {
		return w, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err != nil {
		return w, err
	}

	tabs, err := d.loadTabs(ctx, id)
	if err != nil {
		return w, err
	}
	entries, err := d.loadEntries(ctx, id)
	if err != nil {
		return w, err
	}
	if err := d.loadSelections(ctx, id, entries); err != nil {
		return w, err
	}

	for i := range tabs {
		tabs[i].Browser.History = entries[i]
	}
	w.Tabs = tabs
	return w, nil
}

func (d *DB) loadTabs(ctx context.Context, id string) ([]browser.PreservedTab, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT custom_name, lock_state, current_entry, target_mode,
			show_hidden, filter_text, filter_case_sensitive, filter_enabled
		FROM tabs WHERE session_id = ? ORDER BY position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tabs []browser.PreservedTab
	for rows.Next() {
		var (
			t          browser.PreservedTab
			lock, mode int
		)
		s := &t.Browser.Settings
		if err := rows.Scan(&t.CustomName, &lock, &t.Browser.CurrentEntry, &mode,
			&s.ShowHidden, &s.FilterText, &s.FilterCaseSensitive, &s.FilterEnabled); err != nil {
			return nil, err
		}
		t.LockState = browser.LockState(lock)
		t.Browser.TargetMode = nav.NavigationTargetMode(mode)
		tabs = append(tabs, t)
	}
	return tabs, rows.Err()
}

// loadEntries returns the history of each tab, indexed by tab position.
func (d *DB) loadEntries(ctx context.Context, id string) (map[int][]nav.PreservedHistoryEntry, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT tab, location, scroll_position
		FROM history_entries WHERE session_id = ? ORDER BY tab ASC, position ASC`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make(map[int][]nav.PreservedHistoryEntry)
	for rows.Next() {
		var (
			tab int
			raw string
			e   nav.PreservedHistoryEntry
		)
		if err := rows.Scan(&tab, &raw, &e.ScrollPosition); err != nil {
			return nil, err
		}
		loc, err := location.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("store: tab %d: %w", tab, err)
		}
		e.Location = loc
		entries[tab] = append(entries[tab], e)
	}
	return entries, rows.Err()
}

func (d *DB) loadSelections(ctx context.Context, id string, entries map[int][]nav.PreservedHistoryEntry) error {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT tab, entry, location
		FROM selected_items WHERE session_id = ? ORDER BY tab ASC, entry ASC, position ASC`, id)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tab, entry int
			raw        string
		)
		if err := rows.Scan(&tab, &entry, &raw); err != nil {
			return err
		}
		if entry >= len(entries[tab]) {
			continue
		}
		loc, err := location.Parse(raw)
		if err != nil {
			return fmt.Errorf("store: tab %d entry %d: %w", tab, entry, err)
		}
		e := &entries[tab][entry]
		e.SelectedItems = append(e.SelectedItems, loc)
	}
	return rows.Err()
}

// Sessions lists saved sessions, newest first.
func (d *DB) Sessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := d.conn.QueryContext(ctx, `
		SELECT s.id, s.saved_at, COUNT(t.position)
		FROM sessions s LEFT JOIN tabs t ON t.session_id = s.id
		GROUP BY s.id ORDER BY s.saved_at DESC, s.rowid DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []SessionInfo
	for rows.Next() {
		var (
			info  SessionInfo
			saved string
		)
		if err := rows.Scan(&info.ID, &saved, &info.Tabs); err != nil {
			return nil, err
		}
		info.SavedAt = parseTime(saved)
		out = append(out, info)
	}
	return out, rows.Err()
}

// LatestSession loads the most recently saved session.
func (d *DB) LatestSession(ctx context.Context) (string, browser.PreservedWindow, error) {
	sessions, err := d.Sessions(ctx)
	if err != nil {
		return "", browser.PreservedWindow{}, err
	}
	if len(sessions) == 0 {
		return "", browser.PreservedWindow{}, ErrSessionNotFound
	}
	id := sessions[0].ID
	w, err := d.LoadSession(ctx, id)
	return id, w, err
}

func (d *DB) DeleteSession(ctx context.Context, id string) error {
	tx, err := d.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	n, err := deleteSession(ctx, tx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	debug.Log(debug.STORE, "deleted session %s", id)
	return nil
}

// deleteSession removes a session and its rows, returning how many
// sessions were removed.
func deleteSession(ctx context.Context, tx *sql.Tx, id string) (int64, error) {
	for _, table := range []string{"selected_items", "history_entries", "tabs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table+" WHERE session_id = ?", id); err != nil {
			return 0, err
		}
	}
	res, err := tx.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
