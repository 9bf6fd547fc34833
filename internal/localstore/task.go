package localstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"daytrack/internal/model"
)

const taskColumns = `id, date, name, status, priority, target_minutes,
	description, completed_description, progress, is_repeating,
	template_id, achiever_streak, fighter_streak, owner_id,
	sync_state, sync_error, deleted, created_at, updated_at`

// CreateTask inserts a task and assigns its local auto-increment ID.
//
// The unique (date, name) index rejects a second task for the same day
// and name; callers see the constraint error rather than a silent
// duplicate.
func (s *Store) CreateTask(t *model.Task) error {
	return s.CreateTaskContext(context.Background(), t)
}

// CreateTaskContext inserts a task with context support.
func (s *Store) CreateTaskContext(ctx context.Context, t *model.Task) error {
	t.SetDefaults()
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}

	query := `
	INSERT INTO tasks (
		date, name, status, priority, target_minutes,
		description, completed_description, progress, is_repeating,
		template_id, achiever_streak, fighter_streak, owner_id,
		sync_state, sync_error, deleted, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	res, err := s.conn.ExecContext(ctx, query,
		t.Date, t.Name, t.Status, t.Priority, t.TargetMinutes,
		t.Description, t.CompletedDescription, t.Progress, boolToInt(t.Repeating),
		t.TemplateID, t.AchieverStreak, t.FighterStreak, t.OwnerID,
		string(t.SyncState), t.SyncError, boolToInt(t.Deleted),
		formatTime(t.CreatedAt), formatTime(t.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to create task %s: %w", t.NaturalKey(), err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to read task id: %w", err)
	}
	t.ID = id
	return nil
}

// UpdateTask rewrites all mutable columns of an existing task.
func (s *Store) UpdateTask(t *model.Task) error {
	return s.UpdateTaskContext(context.Background(), t)
}

// UpdateTaskContext rewrites a task with context support.
func (s *Store) UpdateTaskContext(ctx context.Context, t *model.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("invalid task: %w", err)
	}
	t.UpdateTimestamp()

	query := `
	UPDATE tasks SET
		date = ?, name = ?, status = ?, priority = ?, target_minutes = ?,
		description = ?, completed_description = ?, progress = ?, is_repeating = ?,
		template_id = ?, achiever_streak = ?, fighter_streak = ?, owner_id = ?,
		sync_state = ?, sync_error = ?, deleted = ?, updated_at = ?
	WHERE id = ?
	`

	_, err := s.conn.ExecContext(ctx, query,
		t.Date, t.Name, t.Status, t.Priority, t.TargetMinutes,
		t.Description, t.CompletedDescription, t.Progress, boolToInt(t.Repeating),
		t.TemplateID, t.AchieverStreak, t.FighterStreak, t.OwnerID,
		string(t.SyncState), t.SyncError, boolToInt(t.Deleted),
		formatTime(t.UpdatedAt), t.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %d: %w", t.ID, err)
	}
	return nil
}

// GetTask retrieves a single task by local ID.
// Returns sql.ErrNoRows if the task is not found.
func (s *Store) GetTask(id int64) (*model.Task, error) {
	return s.GetTaskContext(context.Background(), id)
}

// GetTaskContext retrieves a task by ID with context support.
func (s *Store) GetTaskContext(ctx context.Context, id int64) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE id = ?", id)
	return scanTask(row)
}

// GetTaskByDateName looks a task up by its local natural key.
// Returns sql.ErrNoRows if no such task exists.
func (s *Store) GetTaskByDateName(date, name string) (*model.Task, error) {
	return s.GetTaskByDateNameContext(context.Background(), date, name)
}

// GetTaskByDateNameContext looks up by natural key with context support.
func (s *Store) GetTaskByDateNameContext(ctx context.Context, date, name string) (*model.Task, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE date = ? AND name = ?", date, name)
	return scanTask(row)
}

// ListTasksByState returns all tasks whose sync state is one of states.
func (s *Store) ListTasksByState(states ...model.SyncState) ([]*model.Task, error) {
	return s.ListTasksByStateContext(context.Background(), states...)
}

// ListTasksByStateContext returns tasks by sync state with context support.
func (s *Store) ListTasksByStateContext(ctx context.Context, states ...model.SyncState) ([]*model.Task, error) {
	raw := make([]string, len(states))
	for i, st := range states {
		raw[i] = string(st)
	}
	in, args := statePlaceholders(raw)

	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE sync_state IN "+in+" ORDER BY date ASC, name ASC",
		args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks by state: %w", err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// ListTasksByDate returns all tasks for a single day.
func (s *Store) ListTasksByDate(date string) ([]*model.Task, error) {
	return s.ListTasksByDateContext(context.Background(), date)
}

// ListTasksByDateContext returns a day's tasks with context support.
func (s *Store) ListTasksByDateContext(ctx context.Context, date string) ([]*model.Task, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+taskColumns+" FROM tasks WHERE date = ? ORDER BY name ASC", date)
	if err != nil {
		return nil, fmt.Errorf("failed to query tasks for %s: %w", date, err)
	}
	defer rows.Close()

	return scanTasks(rows)
}

// DeleteTask removes a task row. Only the Prune phase may call this for
// synced rows; pending work is soft-deleted instead.
// Returns nil if the task doesn't exist (idempotent).
func (s *Store) DeleteTask(id int64) error {
	return s.DeleteTaskContext(context.Background(), id)
}

// DeleteTaskContext removes a task with context support.
func (s *Store) DeleteTaskContext(ctx context.Context, id int64) error {
	if _, err := s.conn.ExecContext(ctx, "DELETE FROM tasks WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete task %d: %w", id, err)
	}
	return nil
}

// MarkTaskSynced transitions a task to synced after a confirmed upsert,
// attaching the owning user and clearing any stale failure reason.
func (s *Store) MarkTaskSynced(id int64, owner string) error {
	return s.MarkTaskSyncedContext(context.Background(), id, owner)
}

// MarkTaskSyncedContext marks synced with context support.
func (s *Store) MarkTaskSyncedContext(ctx context.Context, id int64, owner string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE tasks SET sync_state = ?, sync_error = '', owner_id = ?, updated_at = ? WHERE id = ?",
		string(model.StateSynced), owner, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark task %d synced: %w", id, err)
	}
	return nil
}

// MarkTaskError records a push failure without losing the record; the
// row stays retry-eligible for the next cycle.
func (s *Store) MarkTaskError(id int64, reason string) error {
	return s.MarkTaskErrorContext(context.Background(), id, reason)
}

// MarkTaskErrorContext records a push failure with context support.
func (s *Store) MarkTaskErrorContext(ctx context.Context, id int64, reason string) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE tasks SET sync_state = ?, sync_error = ?, updated_at = ? WHERE id = ?",
		string(model.StateError), reason, formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to mark task %d errored: %w", id, err)
	}
	return nil
}

// UpdateTaskStreaks persists recomputed streak counters onto a task and
// marks it pending so the next Push uploads the new values.
func (s *Store) UpdateTaskStreaks(id int64, achiever, fighter int) error {
	return s.UpdateTaskStreaksContext(context.Background(), id, achiever, fighter)
}

// UpdateTaskStreaksContext persists streak counters with context support.
func (s *Store) UpdateTaskStreaksContext(ctx context.Context, id int64, achiever, fighter int) error {
	_, err := s.conn.ExecContext(ctx,
		"UPDATE tasks SET achiever_streak = ?, fighter_streak = ?, sync_state = ?, updated_at = ? WHERE id = ?",
		achiever, fighter, string(model.StatePending), formatTime(time.Now()), id)
	if err != nil {
		return fmt.Errorf("failed to update streaks for task %d: %w", id, err)
	}
	return nil
}

// GetTaskCount returns the total number of tasks in the store.
func (s *Store) GetTaskCount() (int, error) {
	var count int
	if err := s.conn.QueryRow("SELECT COUNT(*) FROM tasks").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to get task count: %w", err)
	}
	return count, nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanTask reads one task row.
func scanTask(row rowScanner) (*model.Task, error) {
	var t model.Task
	var repeating, deleted int
	var state, createdAt, updatedAt string

	err := row.Scan(
		&t.ID, &t.Date, &t.Name, &t.Status, &t.Priority, &t.TargetMinutes,
		&t.Description, &t.CompletedDescription, &t.Progress, &repeating,
		&t.TemplateID, &t.AchieverStreak, &t.FighterStreak, &t.OwnerID,
		&state, &t.SyncError, &deleted, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	t.Repeating = repeating != 0
	t.Deleted = deleted != 0
	t.SyncState = model.SyncState(state)
	t.CreatedAt = parseTime(createdAt)
	t.UpdatedAt = parseTime(updatedAt)
	return &t, nil
}

// scanTasks reads all task rows from a result set.
func scanTasks(rows *sql.Rows) ([]*model.Task, error) {
	var tasks []*model.Task
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, nil
}
