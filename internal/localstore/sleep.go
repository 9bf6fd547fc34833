package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daytrack/internal/model"
)

const sleepColumns = `id, date, wake_time, bed_time, owner_id,
	sync_state, sync_error, created_at, updated_at`

// CreateSleepEntry inserts a sleep entry and assigns its local ID.
// The unique date index enforces at most one entry per day.
func (s *Store) CreateSleepEntry(e *model.SleepEntry) error {
	return s.CreateSleepEntryContext(context.Background(), e)
}

// CreateSleepEntryContext inserts a sleep entry with context support.
func (s *Store) CreateSleepEntryContext(ctx context.Context, e *model.SleepEntry) error {
	e.SetDefaults()
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid sleep entry: %w", err)
	}

	query := `
	INSERT INTO sleep_entries (
		date, wake_time, bed_time, owner_id,
		sync_state, sync_error, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.conn.ExecContext(ctx, query,
		e.Date, e.WakeTime, e.BedTime, e.OwnerID,
		string(e.SyncState), e.SyncError,
		formatTime(e.CreatedAt), formatTime(e.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create sleep entry %s: %w", e.Date, err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read sleep entry id: %w", err)
	}
	e.ID = id
	return nil
}

// UpdateSleepEntry rewrites the wake/bed times of an existing entry and
// marks it pending for the next push.
func (s *Store) UpdateSleepEntry(e *model.SleepEntry) error {
	return s.UpdateSleepEntryContext(context.Background(), e)
}

// UpdateSleepEntryContext rewrites a sleep entry with context support.
func (s *Store) UpdateSleepEntryContext(ctx context.Context, e *model.SleepEntry) error {
	if err := e.Validate(); err != nil {
		return fmt.Errorf("invalid sleep entry: %w", err)
	}
	e.UpdatedAt = time.Now()

	_, err := s.conn.ExecContext(ctx,
		`UPDATE sleep_entries SET wake_time = ?, bed_time = ?, owner_id = ?,
		 sync_state = ?, sync_error = ?, updated_at = ? WHERE id = ?`,
		e.WakeTime, e.BedTime, e.OwnerID,
		string(e.SyncState), e.SyncError, formatTime(e.UpdatedAt), e.ID)
	if err != nil {
		return fmt.Errorf("failed to update sleep entry %d: %w", e.ID, err)
	}
	return nil
}

// GetSleepEntryByDate looks a sleep entry up by its natural key.
// Returns sql.ErrNoRows if no entry exists for the date.
func (s *Store) GetSleepEntryByDate(date string) (*model.SleepEntry, error) {
	return s.GetSleepEntryByDateContext(context.Background(), date)
}

// GetSleepEntryByDateContext looks up by date with context support.
func (s *Store) GetSleepEntryByDateContext(ctx context.Context, date string) (*model.SleepEntry, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_entries WHERE date = ?", date)
	return scanSleepEntry(row)
}

// ListSleepEntriesByState returns entries whose state is one of states.
func (s *Store) ListSleepEntriesByState(states ...model.SyncState) ([]*model.SleepEntry, error) {
	return s.ListSleepEntriesByStateContext(context.Background(), states...)
}

// ListSleepEntriesByStateContext returns entries by state with context support.
func (s *Store) ListSleepEntriesByStateContext(ctx context.Context, states ...model.SyncState) ([]*model.SleepEntry, error) {
	raw := make([]string, len(states))
	for i, st := range states {
		raw[i] = string(st)
	}
	in, args := statePlaceholders(raw)

	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+sleepColumns+" FROM sleep_entries WHERE sync_state IN "+in+" ORDER BY date ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sleep entries by state: %w", err)
	}
	defer rows.Close()

	return scanSleepEntries(rows)
}

// DeleteSleepEntry removes an entry row. Returns nil if absent (idempotent).
func (s *Store) DeleteSleepEntry(id int64) error {
	return s.DeleteSleepEntryContext(context.Background(), id)
}

// DeleteSleepEntryContext removes an entry with context support.
func (s *Store) DeleteSleepEntryContext(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM sleep_entries WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete sleep entry %d: %w", id, err)
	}
	return nil
}

// MarkSleepEntrySynced transitions an entry to synced after a confirmed upsert.
func (s *Store) MarkSleepEntrySynced(id int64, owner string) error {
	return s.MarkSleepEntrySyncedContext(context.Background(), id, owner)
}

// MarkSleepEntrySyncedContext marks synced with context support.
func (s *Store) MarkSleepEntrySyncedContext(ctx context.Context, id int64, owner string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE sleep_entries SET sync_state = ?, sync_error = '', owner_id = ?, updated_at = ? WHERE id = ?",
		string(model.StateSynced), owner, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark sleep entry %d synced: %w", id, err)
	}
	return nil
}

// MarkSleepEntryError records a push failure; the row stays retry-eligible.
func (s *Store) MarkSleepEntryError(id int64, reason string) error {
	return s.MarkSleepEntryErrorContext(context.Background(), id, reason)
}

// MarkSleepEntryErrorContext records a push failure with context support.
func (s *Store) MarkSleepEntryErrorContext(ctx context.Context, id int64, reason string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE sleep_entries SET sync_state = ?, sync_error = ?, updated_at = ? WHERE id = ?",
		string(model.StateError), reason, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark sleep entry %d errored: %w", id, err)
	}
	return nil
}

// GetSleepEntryCount returns the total number of sleep entries.
func (s *Store) GetSleepEntryCount() (int, error) {
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM sleep_entries").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get sleep entry count: %w", err)
	}
	return count, nil
}

// scanSleepEntry reads one sleep entry row.
func scanSleepEntry(row rowScanner) (*model.SleepEntry, error) {
	var e model.SleepEntry
	var state, createdAt, updatedAt string

	err := row.Scan(
		&e.ID, &e.Date, &e.WakeTime, &e.BedTime, &e.OwnerID,
		&state, &e.SyncError, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	e.SyncState = model.SyncState(state)
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return &e, nil
}

// scanSleepEntries reads all sleep entry rows from a result set.
func scanSleepEntries(rows *sql.Rows) ([]*model.SleepEntry, error) {
	var entries []*model.SleepEntry
	for rows.Next() {
		e, err := scanSleepEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sleep entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sleep entries: %w", err)
	}
	return entries, nil
}
