package localstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"daytrack/internal/model"
)

const templateColumns = `id, name, priority, target_minutes, min_completion,
	last_completed, active, owner_id, created_at, updated_at`

// UpsertTemplate inserts or updates a habit template by its ID.
func (s *Store) UpsertTemplate(h *model.HabitTemplate) error {
	return s.UpsertTemplateContext(context.Background(), h)
}

// UpsertTemplateContext inserts or updates a template with context support.
func (s *Store) UpsertTemplateContext(ctx context.Context, h *model.HabitTemplate) error {
	if err := h.Validate(); err != nil {
		return fmt.Errorf("invalid template: %w", err)
	}
	if h.CreatedAt.IsZero() {
		h.CreatedAt = time.Now()
	}
	h.UpdatedAt = time.Now()

	query := `
	INSERT INTO habit_templates (
		id, name, priority, target_minutes, min_completion,
		last_completed, active, owner_id, created_at, updated_at
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		name = excluded.name,
		priority = excluded.priority,
		target_minutes = excluded.target_minutes,
		min_completion = excluded.min_completion,
		last_completed = excluded.last_completed,
		active = excluded.active,
		owner_id = excluded.owner_id,
		updated_at = excluded.updated_at
	`

	_, err := s.conn.ExecContext(ctx, query,
		h.ID, h.Name, h.Priority, h.TargetMinutes, h.MinCompletion,
		h.LastCompleted, boolToInt(h.Active), h.OwnerID,
		formatTime(h.CreatedAt), formatTime(h.UpdatedAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert template %s: %w", h.ID, err)
	}
	return nil
}

// GetTemplate retrieves a template by ID.
// Returns sql.ErrNoRows if the template is not found.
func (s *Store) GetTemplate(id string) (*model.HabitTemplate, error) {
	return s.GetTemplateContext(context.Background(), id)
}

// GetTemplateContext retrieves a template with context support.
func (s *Store) GetTemplateContext(ctx context.Context, id string) (*model.HabitTemplate, error) {
	row := s.conn.QueryRowContext(ctx,
		"SELECT "+templateColumns+" FROM habit_templates WHERE id = ?", id)
	return scanTemplate(row)
}

// ListActiveTemplates returns all templates eligible for task spawning.
func (s *Store) ListActiveTemplates() ([]*model.HabitTemplate, error) {
	return s.ListActiveTemplatesContext(context.Background())
}

// ListActiveTemplatesContext returns active templates with context support.
func (s *Store) ListActiveTemplatesContext(ctx context.Context) ([]*model.HabitTemplate, error) {
	rows, err := s.conn.QueryContext(ctx,
		"SELECT "+templateColumns+" FROM habit_templates WHERE active = 1 ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to query active templates: %w", err)
	}
	defer rows.Close()

	var templates []*model.HabitTemplate
	for rows.Next() {
		h, err := scanTemplate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, h)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}
	return templates, nil
}

// SpawnTemplateTasks creates a pending task for every active template
// that does not already have a task on the given date. Returns the
// number of tasks created.
func (s *Store) SpawnTemplateTasks(ctx context.Context, date string) (int, error) {
	if !model.ValidDayKey(date) {
		return 0, fmt.Errorf("invalid day key %q", date)
	}

	templates, err := s.ListActiveTemplatesContext(ctx)
	if err != nil {
		return 0, err
	}

	created := 0
	for _, h := range templates {
		_, err := s.GetTaskByDateNameContext(ctx, date, h.Name)
		if err == nil {
			continue // already expanded for this day
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return created, fmt.Errorf("failed to check task for template %s: %w", h.ID, err)
		}

		if err := s.CreateTaskContext(ctx, h.SpawnTask(date)); err != nil {
			return created, fmt.Errorf("failed to spawn task for template %s: %w", h.ID, err)
		}
		created++
	}
	return created, nil
}

// scanTemplate reads one template row.
func scanTemplate(row rowScanner) (*model.HabitTemplate, error) {
	var h model.HabitTemplate
	var active int
	var createdAt, updatedAt string

	err := row.Scan(
		&h.ID, &h.Name, &h.Priority, &h.TargetMinutes, &h.MinCompletion,
		&h.LastCompleted, &active, &h.OwnerID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	h.Active = active != 0
	h.CreatedAt = parseTime(createdAt)
	h.UpdatedAt = parseTime(updatedAt)
	return &h, nil
}
