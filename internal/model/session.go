package model

import (
	"fmt"
	"time"
)

// Session is a time-boxed activity interval within a date.
//
// Natural key: (OwnerID, Date, Start, End). Two sessions with identical
// times but different categories on the same day collapse to one remote
// row; this is an accepted limitation of the remote schema, matching the
// key it enforces.
type Session struct {
	ID    int64  `json:"id"`
	Date  string `json:"date"`  // day key, YYYY-MM-DD
	Start string `json:"start"` // wall-clock, HH:MM
	End   string `json:"end"`   // wall-clock, HH:MM

	Category   string `json:"category,omitempty"`
	CustomName string `json:"custom_name,omitempty"`

	// TaskID links a session to a local task. The link is local-only:
	// local and remote task identifiers never correspond, so it cannot
	// cross the sync boundary and is dropped during translation.
	// Downstream consumers match sessions to tasks by name instead.
	TaskID int64 `json:"task_id,omitempty"`

	OwnerID   string    `json:"owner_id,omitempty"`
	SyncState SyncState `json:"sync_state"`
	SyncError string    `json:"sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields reconciliation depends on.
func (s *Session) Validate() error {
	if !ValidDayKey(s.Date) {
		return fmt.Errorf("date must be a YYYY-MM-DD day key (got %q)", s.Date)
	}
	if s.Start == "" {
		return fmt.Errorf("start time is required")
	}
	if s.End == "" {
		return fmt.Errorf("end time is required")
	}
	if !s.SyncState.Valid() {
		return fmt.Errorf("invalid sync state %q", s.SyncState)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (s *Session) SetDefaults() {
	if s.SyncState == "" {
		s.SyncState = StatePending
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now()
	}
	if s.UpdatedAt.IsZero() {
		s.UpdatedAt = s.CreatedAt
	}
}

// NaturalKey returns the session's cross-store identity.
func (s *Session) NaturalKey() string {
	return s.Date + "/" + s.Start + "-" + s.End
}
