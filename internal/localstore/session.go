package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daytrack/internal/model"
)

const sessionColumns = `id, date, start_time, end_time, category, custom_name,
	task_id, owner_id, sync_state, sync_error, created_at, updated_at`

// CreateSession inserts a session and assigns its local ID.
func (s *Store) CreateSession(sess *model.Session) error {
	return s.CreateSessionContext(context.Background(), sess)
}

// CreateSessionContext inserts a session with context support.
func (s *Store) CreateSessionContext(ctx context.Context, sess *model.Session) error {
	sess.SetDefaults()
	if err := sess.Validate(); err != nil {
		return fmt.Errorf("invalid session: %w", err)
	}

	query := `
	INSERT INTO sessions (
		date, start_time, end_time, category, custom_name,
		task_id, owner_id, sync_state, sync_error, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.conn.ExecContext(ctx, query,
		sess.Date, sess.Start, sess.End, sess.Category, sess.CustomName,
		sess.TaskID, sess.OwnerID, string(sess.SyncState), sess.SyncError,
		formatTime(sess.CreatedAt), formatTime(sess.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create session %s: %w", sess.NaturalKey(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read session id: %w", err)
	}
	sess.ID = id
	return nil
}

// GetSessionByKey looks a session up by its local natural key.
// Returns sql.ErrNoRows if no such session exists.
func (s *Store) GetSessionByKey(date, start, end string) (*model.Session, error) {
	return s.GetSessionByKeyContext(context.Background(), date, start, end)
}

// GetSessionByKeyContext looks up by natural key with context support.
func (s *Store) GetSessionByKeyContext(ctx context.Context, date, start, end string) (*model.Session, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE date = ? AND start_time = ? AND end_time = ?",
		date, start, end)
	return scanSession(row)
}

// ListSessionsByState returns sessions whose sync state is one of states.
func (s *Store) ListSessionsByState(states ...model.SyncState) ([]*model.Session, error) {
	return s.ListSessionsByStateContext(context.Background(), states...)
}

// ListSessionsByStateContext returns sessions by state with context support.
func (s *Store) ListSessionsByStateContext(ctx context.Context, states ...model.SyncState) ([]*model.Session, error) {
	raw := make([]string, len(states))
	for i, st := range states {
		raw[i] = string(st)
	}
	in, args := statePlaceholders(raw)

	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE sync_state IN "+in+" ORDER BY date ASC, start_time ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions by state: %w", err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// ListSessionsByDate returns all sessions for a single day.
func (s *Store) ListSessionsByDate(date string) ([]*model.Session, error) {
	return s.ListSessionsByDateContext(context.Background(), date)
}

// ListSessionsByDateContext returns a day's sessions with context support.
func (s *Store) ListSessionsByDateContext(ctx context.Context, date string) ([]*model.Session, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+sessionColumns+" FROM sessions WHERE date = ? ORDER BY start_time ASC", date)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions for %s: %w", date, err)
	}
	defer rows.Close()

	return scanSessions(rows)
}

// DeleteSession removes a session row. Returns nil if absent (idempotent).
func (s *Store) DeleteSession(id int64) error {
	return s.DeleteSessionContext(context.Background(), id)
}

// DeleteSessionContext removes a session with context support.
func (s *Store) DeleteSessionContext(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}
	return nil
}

// MarkSessionSynced transitions a session to synced after a confirmed upsert.
func (s *Store) MarkSessionSynced(id int64, owner string) error {
	return s.MarkSessionSyncedContext(context.Background(), id, owner)
}

// MarkSessionSyncedContext marks synced with context support.
func (s *Store) MarkSessionSyncedContext(ctx context.Context, id int64, owner string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE sessions SET sync_state = ?, sync_error = '', owner_id = ?, updated_at = ? WHERE id = ?",
		string(model.StateSynced), owner, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark session %d synced: %w", id, err)
	}
	return nil
}

// MarkSessionError records a push failure; the row stays retry-eligible.
func (s *Store) MarkSessionError(id int64, reason string) error {
	return s.MarkSessionErrorContext(context.Background(), id, reason)
}

// MarkSessionErrorContext records a push failure with context support.
func (s *Store) MarkSessionErrorContext(ctx context.Context, id int64, reason string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE sessions SET sync_state = ?, sync_error = ?, updated_at = ? WHERE id = ?",
		string(model.StateError), reason, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark session %d errored: %w", id, err)
	}
	return nil
}

// GetSessionCount returns the total number of sessions in the store.
func (s *Store) GetSessionCount() (int, error) {
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM sessions").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get session count: %w", err)
	}
	return count, nil
}

// scanSession reads one session row.
func scanSession(row rowScanner) (*model.Session, error) {
	var sess model.Session
	var state, createdAt, updatedAt string

	err := row.Scan(
		&sess.ID, &sess.Date, &sess.Start, &sess.End, &sess.Category, &sess.CustomName,
		&sess.TaskID, &sess.OwnerID, &state, &sess.SyncError, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	sess.SyncState = model.SyncState(state)
	sess.CreatedAt = parseTime(createdAt)
	sess.UpdatedAt = parseTime(updatedAt)
	return &sess, nil
}

// scanSessions reads all session rows from a result set.
func scanSessions(rows *sql.Rows) ([]*model.Session, error) {
	var sessions []*model.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}
	return sessions, nil
}
