// Package model provides the local data structures for daytrack entities.
//
// Every syncable entity (Task, Session, SleepEntry) carries a SyncState
// that drives the reconciliation engine: pending and error records are
// waiting to be pushed, synced records are confirmed present remotely.
// The central safety rule of the whole design is that only synced records
// may ever be deleted automatically; a pending or error record holds an
// edit the remote side has never seen.
package model

import "fmt"

// SyncState tags a local record's position in the reconciliation lifecycle.
type SyncState string

const (
	// StatePending marks a local edit not yet confirmed remote.
	StatePending SyncState = "pending"

	// StateSynced marks a record confirmed present remotely under its
	// natural key.
	StateSynced SyncState = "synced"

	// StateError marks a record whose last push attempt failed.
	// Error records are retry-eligible and treated as pending by Push.
	StateError SyncState = "error"
)

// Valid reports whether s is a recognized sync state.
func (s SyncState) Valid() bool {
	switch s {
	case StatePending, StateSynced, StateError:
		return true
	}
	return false
}

// NeedsPush reports whether a record in this state should be uploaded
// by the next Push phase.
func (s SyncState) NeedsPush() bool {
	return s == StatePending || s == StateError
}

// Prunable reports whether a record in this state may be deleted locally
// when its natural key no longer exists remotely. Only synced records
// are prunable; anything else would destroy an unconfirmed write.
func (s SyncState) Prunable() bool {
	return s == StateSynced
}

// ParseSyncState converts a stored string into a SyncState.
func ParseSyncState(raw string) (SyncState, error) {
	s := SyncState(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown sync state %q", raw)
	}
	return s, nil
}
