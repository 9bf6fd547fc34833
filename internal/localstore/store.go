// Package localstore provides the embedded client-side document store
// for daytrack entities.
//
// The store is a local SQLite database (via ncruces/go-sqlite3) opened
// in embedded mode with WAL for concurrent reads. It holds the three
// syncable entity kinds (tasks, sessions, sleep entries) plus habit
// templates, each row tagged with a sync state that the reconciliation
// engine uses to decide what to push, and what it is allowed to prune.
//
// Natural-key uniqueness is enforced locally with unique indexes so the
// local store can never hold two rows the remote side would collapse
// into one:
//   - tasks: (date, name)
//   - sessions: (date, start_time, end_time)
//   - sleep_entries: (date)
package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"
)

// Store wraps the SQLite connection with daytrack-specific operations.
type Store struct {
	conn *sql.DB
	path string
}

// Open creates a store at the specified path.
//
// The database is opened in embedded mode with WAL for concurrent
// reads. If it doesn't exist it is created; call InitSchema afterwards.
// The caller MUST call Close() when done.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	conn, err := sql.Open("sqlite3", "file:"+path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	conn.SetMaxOpenConns(25)
	conn.SetMaxIdleConns(5)
	conn.SetConnMaxLifetime(5 * time.Minute)

	s := &Store{conn: conn, path: path}

	if _, err := s.conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA busy_timeout=5000"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = s.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return s, nil
}

// Path returns the filesystem path of the database file.
func (s *Store) Path() string {
	return s.path
}

// RawDB returns the underlying sql.DB connection.
func (s *Store) RawDB() *sql.DB {
	return s.conn
}

// Close closes the connection after checkpointing the WAL.
func (s *Store) Close() error {
	if s.conn == nil {
		return nil
	}

	if _, err := s.conn.Exec("PRAGMA wal_checkpoint(TRUNCATE)"); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to checkpoint WAL: %v\n", err)
	}

	if err := s.conn.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	s.conn = nil
	return nil
}

// InitSchema creates the database schema if it doesn't exist.
// Idempotent - safe to call multiple times.
func (s *Store) InitSchema() error {
	return s.InitSchemaContext(context.Background())
}

// InitSchemaContext creates the database schema with context support.
func (s *Store) InitSchemaContext(ctx context.Context) error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		name TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'lagging',
		priority TEXT NOT NULL DEFAULT '',
		target_minutes INTEGER NOT NULL DEFAULT 0,
		description TEXT NOT NULL DEFAULT '',
		completed_description TEXT NOT NULL DEFAULT '',
		progress INTEGER NOT NULL DEFAULT 0,
		is_repeating INTEGER NOT NULL DEFAULT 0,
		template_id TEXT NOT NULL DEFAULT '',
		achiever_streak INTEGER NOT NULL DEFAULT 0,
		fighter_streak INTEGER NOT NULL DEFAULT 0,
		owner_id TEXT NOT NULL DEFAULT '',
		sync_state TEXT NOT NULL DEFAULT 'pending',
		sync_error TEXT NOT NULL DEFAULT '',
		deleted INTEGER NOT NULL DEFAULT 0,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		start_time TEXT NOT NULL,
		end_time TEXT NOT NULL,
		category TEXT NOT NULL DEFAULT '',
		custom_name TEXT NOT NULL DEFAULT '',
		task_id INTEGER NOT NULL DEFAULT 0,
		owner_id TEXT NOT NULL DEFAULT '',
		sync_state TEXT NOT NULL DEFAULT 'pending',
		sync_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sleep_entries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		date TEXT NOT NULL,
		wake_time TEXT NOT NULL DEFAULT '',
		bed_time TEXT NOT NULL DEFAULT '',
		owner_id TEXT NOT NULL DEFAULT '',
		sync_state TEXT NOT NULL DEFAULT 'pending',
		sync_error TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS habit_templates (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		priority TEXT NOT NULL DEFAULT '',
		target_minutes INTEGER NOT NULL DEFAULT 0,
		min_completion INTEGER NOT NULL DEFAULT 0,
		last_completed TEXT NOT NULL DEFAULT '',
		active INTEGER NOT NULL DEFAULT 1,
		owner_id TEXT NOT NULL DEFAULT '',
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- Natural keys
	CREATE UNIQUE INDEX IF NOT EXISTS idx_tasks_natural
	    ON tasks(date, name);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_natural
	    ON sessions(date, start_time, end_time);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_sleep_natural
	    ON sleep_entries(date);

	-- Reconciliation scans
	CREATE INDEX IF NOT EXISTS idx_tasks_sync_state ON tasks(sync_state);
	CREATE INDEX IF NOT EXISTS idx_sessions_sync_state ON sessions(sync_state);
	CREATE INDEX IF NOT EXISTS idx_sleep_sync_state ON sleep_entries(sync_state);

	-- Date navigation
	CREATE INDEX IF NOT EXISTS idx_tasks_date ON tasks(date);
	CREATE INDEX IF NOT EXISTS idx_sessions_date ON sessions(date);
	CREATE INDEX IF NOT EXISTS idx_tasks_template ON tasks(template_id);
	`

	if _, err := s.conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to initialize schema: %w", err)
	}

	return nil
}

// boolToInt converts a Go bool to its SQLite integer representation.
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// formatTime renders a timestamp column value.
func formatTime(t time.Time) string {
	return t.Format(time.RFC3339)
}

// parseTime reads a timestamp column value, tolerating empty strings.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// statePlaceholders builds a "(?, ?, ...)" fragment and the matching
// args slice for an IN clause over sync states.
func statePlaceholders(states []string) (string, []interface{}) {
	placeholders := ""
	args := make([]interface{}, 0, len(states))
	for i, st := range states {
		if i > 0 {
			placeholders += ", "
		}
		placeholders += "?"
		args = append(args, st)
	}
	return "(" + placeholders + ")", args
}
