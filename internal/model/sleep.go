package model

import (
	"fmt"
	"time"
)

// SleepEntry records wake and bed times for a date.
// At most one entry exists per (OwnerID, Date), which is also its
// natural key across the sync boundary.
type SleepEntry struct {
	ID       int64  `json:"id"`
	Date     string `json:"date"` // day key, YYYY-MM-DD
	WakeTime string `json:"wake_time,omitempty"`
	BedTime  string `json:"bed_time,omitempty"`

	OwnerID   string    `json:"owner_id,omitempty"`
	SyncState SyncState `json:"sync_state"`
	SyncError string    `json:"sync_error,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Validate checks the fields reconciliation depends on.
func (e *SleepEntry) Validate() error {
	if !ValidDayKey(e.Date) {
		return fmt.Errorf("date must be a YYYY-MM-DD day key (got %q)", e.Date)
	}
	if !e.SyncState.Valid() {
		return fmt.Errorf("invalid sync state %q", e.SyncState)
	}
	return nil
}

// SetDefaults applies default values for optional fields.
func (e *SleepEntry) SetDefaults() {
	if e.SyncState == "" {
		e.SyncState = StatePending
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}
}

// NaturalKey returns the entry's cross-store identity: the date itself.
func (e *SleepEntry) NaturalKey() string {
	return e.Date
}
