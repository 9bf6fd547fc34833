package model

import (
	"fmt"
	"time"
)

// DefaultMinCompletion is the completion percentage a day must reach to
// count toward the achiever streak when a habit has no template of its
// own declaring a stricter (or looser) threshold.
const DefaultMinCompletion = 60

// HabitTemplate defines a repeating task's generation rule and carries
// the template-level streak bookkeeping used when a template tracks its
// own completion directly instead of being recomputed from history.
//
// Template IDs are remote-generated UUIDs so that tasks spawned on any
// device reference the same habit.
type HabitTemplate struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Priority      string `json:"priority,omitempty"`
	TargetMinutes int    `json:"target_minutes"`

	// MinCompletion is the percentage required for a day to count as
	// achieved. Zero means "use DefaultMinCompletion".
	MinCompletion int `json:"min_completion"`

	// LastCompleted is the day key of the most recent achieved day,
	// empty if the habit has never been completed.
	LastCompleted string `json:"last_completed,omitempty"`

	Active  bool   `json:"active"`
	OwnerID string `json:"owner_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks required template fields.
func (h *HabitTemplate) Validate() error {
	if h.ID == "" {
		return fmt.Errorf("id is required")
	}
	if h.Name == "" {
		return fmt.Errorf("name is required")
	}
	if h.MinCompletion < 0 {
		return fmt.Errorf("min completion cannot be negative (got %d)", h.MinCompletion)
	}
	if h.LastCompleted != "" && !ValidDayKey(h.LastCompleted) {
		return fmt.Errorf("last completed must be a day key (got %q)", h.LastCompleted)
	}
	return nil
}

// Threshold returns the effective completion threshold for this template.
func (h *HabitTemplate) Threshold() int {
	if h.MinCompletion > 0 {
		return h.MinCompletion
	}
	return DefaultMinCompletion
}

// SpawnTask materializes a pending Task for the given date from this
// template's generation rule.
func (h *HabitTemplate) SpawnTask(date string) *Task {
	t := &Task{
		Date:          date,
		Name:          h.Name,
		Priority:      h.Priority,
		TargetMinutes: h.TargetMinutes,
		Repeating:     true,
		TemplateID:    h.ID,
		OwnerID:       h.OwnerID,
		SyncState:     StatePending,
	}
	t.SetDefaults()
	return t
}
