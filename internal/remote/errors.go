package remote

import (
	"errors"
	"fmt"
)

// Sentinel errors for cycle-level failure classification. Connectivity
// and authentication failures abort a whole reconciliation cycle;
// anything else is a per-record rejection collected into the batch
// result.
var (
	// ErrOffline wraps transport-level failures: no network path to
	// the remote store. Detected once per cycle, not per record.
	ErrOffline = errors.New("remote store unreachable")

	// ErrUnauthorized wraps credential rejections.
	ErrUnauthorized = errors.New("remote store rejected credentials")
)

// IsOffline reports whether err means the remote store is unreachable.
func IsOffline(err error) bool {
	return errors.Is(err, ErrOffline)
}

// IsUnauthorized reports whether err is a credential rejection.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// APIError is a per-record remote rejection (constraint violation,
// transient server error). It does not abort a batch.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("remote api error (status %d)", e.Status)
	}
	return fmt.Sprintf("remote api error (status %d): %s", e.Status, e.Message)
}
