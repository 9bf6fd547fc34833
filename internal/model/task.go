package model

import (
	"fmt"
	"time"
)

// Task status values derived from completion progress.
const (
	StatusLagging      = "lagging"
	StatusOnTrack      = "on-track"
	StatusOverachiever = "overachiever"
)

// Task represents a unit of planned work for a calendar date.
//
// The local ID is an auto-increment rowid and never corresponds to the
// remote identifier; the pair (OwnerID, Date, Name) is the natural key
// that matches a task across the sync boundary.
type Task struct {
	// ===== Core Identification =====
	ID   int64  `json:"id"`
	Date string `json:"date"` // day key, YYYY-MM-DD
	Name string `json:"name"`

	// ===== Content =====
	Status               string `json:"status"` // lagging, on-track, overachiever
	Priority             string `json:"priority,omitempty"`
	TargetMinutes        int    `json:"target_minutes"`
	Description          string `json:"description,omitempty"`
	CompletedDescription string `json:"completed_description,omitempty"`

	// Progress is an integer percentage. Values above 100 are
	// meaningful over-achievement, not clamped.
	Progress int `json:"progress"`

	// ===== Repetition & Streaks =====
	Repeating      bool   `json:"is_repeating"`
	TemplateID     string `json:"template_id,omitempty"` // habit template that spawned this task
	AchieverStreak int    `json:"achiever_streak"`
	FighterStreak  int    `json:"fighter_streak"`

	// ===== Sync Bookkeeping =====
	OwnerID   string    `json:"owner_id,omitempty"`
	SyncState SyncState `json:"sync_state"`
	SyncError string    `json:"sync_error,omitempty"` // last push failure reason
	Deleted   bool      `json:"deleted"`              // soft-delete; pending rows are never hard-deleted

	// ===== Timestamps =====
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks that the task has the fields reconciliation depends on.
func (t *Task) Validate() error {
	if t.Name == "" {
		return fmt.Errorf("name is required")
	}
	if !ValidDayKey(t.Date) {
		return fmt.Errorf("date must be a YYYY-MM-DD day key (got %q)", t.Date)
	}
	if t.Progress < 0 {
		return fmt.Errorf("progress cannot be negative (got %d)", t.Progress)
	}
	if !t.SyncState.Valid() {
		return fmt.Errorf("invalid sync state %q", t.SyncState)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (t *Task) SetDefaults() {
	if t.Status == "" {
		t.Status = StatusForProgress(t.Progress)
	}
	if t.SyncState == "" {
		t.SyncState = StatePending
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now()
	}
	if t.UpdatedAt.IsZero() {
		t.UpdatedAt = t.CreatedAt
	}
}

// NaturalKey returns the task's cross-store identity: date plus name.
// The owner is implicit locally (a device holds one owner's data) and
// attached explicitly at the remote boundary.
func (t *Task) NaturalKey() string {
	return t.Date + "/" + t.Name
}

// HabitKey returns the identifier used for streak history lookups:
// the spawning template's ID when present, otherwise the task name.
func (t *Task) HabitKey() (templateID, name string) {
	if t.TemplateID != "" {
		return t.TemplateID, ""
	}
	return "", t.Name
}

// StatusForProgress derives the display status from a progress percentage.
func StatusForProgress(progress int) string {
	switch {
	case progress > 100:
		return StatusOverachiever
	case progress >= 100:
		return StatusOnTrack
	default:
		return StatusLagging
	}
}

// UpdateTimestamp sets UpdatedAt to current time.
func (t *Task) UpdateTimestamp() {
	t.UpdatedAt = time.Now()
}
