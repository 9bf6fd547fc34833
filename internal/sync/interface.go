package sync

import "context"

// EntityKind names one syncable entity family.
type EntityKind string

const (
	KindTask    EntityKind = "task"
	KindSession EntityKind = "session"
	KindSleep   EntityKind = "sleep"
)

// Kinds returns all syncable entity kinds in cycle order. The order
// between kinds carries no guarantee; phases are only ordered within a
// kind.
func Kinds() []EntityKind {
	return []EntityKind{KindTask, KindSession, KindSleep}
}

// Probe reports whether a network path to the remote store currently
// exists. It is injected rather than read from ambient state so the
// engine is testable without a real network stack. A nil probe means
// "unknown": the cycle starts optimistically and relies on transport
// errors for offline detection.
type Probe func(ctx context.Context) bool

// Reconciler keeps the local store and the remote store convergent for
// every entity kind without discarding unconfirmed local writes.
//
// All operations are safe to re-run at any time: Push upserts by
// natural key, Pull only inserts, Prune re-checks remote presence on
// every invocation.
type Reconciler interface {
	// Push uploads every local record of the kind whose state is
	// pending or error, marking each synced on success. One record's
	// failure does not stop the batch. A returned error means the
	// phase could not run at all (offline, credentials, local store).
	Push(ctx context.Context, kind EntityKind) (*PhaseResult, error)

	// Pull fetches all remote records of the kind owned by the current
	// user and inserts those absent locally as synced. It never
	// overwrites an existing local row.
	Pull(ctx context.Context, kind EntityKind) (*PhaseResult, error)

	// Prune deletes local synced records of the kind whose natural key
	// no longer exists remotely. Pending and error records are skipped
	// unconditionally.
	Prune(ctx context.Context, kind EntityKind) (*PhaseResult, error)

	// RunFullCycle executes Push, Pull, Prune for each entity kind and
	// aggregates counts and per-record errors. Partial success is
	// reported with partial counts, not collapsed into total failure.
	RunFullCycle(ctx context.Context) *CycleResult

	// FetchForDate pulls remote records of all kinds for a single
	// date, used when the UI navigates to a day. Inserts only; local
	// rows are never touched.
	FetchForDate(ctx context.Context, date string) (*PhaseResult, error)
}
