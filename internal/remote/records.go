package remote

import "time"

// Remote table names.
const (
	TableTasks          = "tasks"
	TableSessions       = "sessions"
	TableSleepEntries   = "sleep_entries"
	TableHabitTemplates = "habit_templates"
)

// Conflict targets: the natural key of each entity at the remote
// boundary. Local auto-increment IDs never cross this boundary.
var (
	TaskConflictKey    = []string{"user_id", "date", "name"}
	SessionConflictKey = []string{"user_id", "date", "start_time", "end_time"}
	SleepConflictKey   = []string{"user_id", "date"}
)

// TaskRow is the remote schema for a task. Field names follow the
// remote column naming, which differs from the local store's.
type TaskRow struct {
	// ID is the remote-generated row identifier (UUID). Omitted on
	// upsert so the server keeps the existing row's identity.
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Date   string `json:"date"`
	Name   string `json:"name"`

	Status               string `json:"status"`
	Priority             string `json:"priority"`
	TargetMinutes        int    `json:"target_minutes"`
	Description          string `json:"description"`
	CompletedDescription string `json:"completed_description"`
	Progress             int    `json:"progress"`
	Repeating            bool   `json:"is_repeating"`
	TemplateID           string `json:"template_id"`
	AchieverStreak       int    `json:"achiever_streak"`
	FighterStreak        int    `json:"fighter_streak"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SessionRow is the remote schema for a session.
//
// There is deliberately no task reference here: local and remote task
// identifiers never correspond 1:1, so the session-to-task link cannot
// be expressed across the boundary. Consumers match sessions to tasks
// by name instead. Known limitation, kept on purpose.
type SessionRow struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Date   string `json:"date"`

	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Category  string `json:"category"`
	Name      string `json:"name"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SleepRow is the remote schema for a sleep entry.
type SleepRow struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Date   string `json:"date"`

	WakeTime string `json:"wake_time"`
	BedTime  string `json:"bed_time"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TemplateRow is the remote schema for a habit template. Templates are
// read by the streak calculator for their completion threshold.
type TemplateRow struct {
	ID     string `json:"id,omitempty"`
	UserID string `json:"user_id"`
	Name   string `json:"name"`

	Priority      string `json:"priority"`
	TargetMinutes int    `json:"target_minutes"`
	MinCompletion int    `json:"min_completion"`
	LastCompleted string `json:"last_completed"`
	Active        bool   `json:"active"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
