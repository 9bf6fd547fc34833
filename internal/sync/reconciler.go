package sync

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"daytrack/internal/localstore"
	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// reconciler implements the Reconciler interface.
type reconciler struct {
	local  *localstore.Store
	remote remote.Store
	owner  string
	probe  Probe
	logger *log.Logger
}

// New creates a Reconciler for one owner.
//
// The local store must be opened and have its schema initialized. The
// probe may be nil (offline detection then relies on transport
// errors). If logger is nil, a default logger writing to stderr is
// used.
//
// Example:
//
//	store, err := localstore.Open(".daytrack/local.db")
//	if err != nil {
//	    return err
//	}
//	if err := store.InitSchema(); err != nil {
//	    return err
//	}
//	rec := sync.New(store, client, ownerID, nil, nil)
//	res := rec.RunFullCycle(ctx)
func New(local *localstore.Store, remoteStore remote.Store, owner string, probe Probe, logger *log.Logger) Reconciler {
	if logger == nil {
		logger = log.New(os.Stderr, "[sync] ", log.LstdFlags)
	}
	return &reconciler{
		local:  local,
		remote: remoteStore,
		owner:  owner,
		probe:  probe,
		logger: logger,
	}
}

// Push implements Reconciler.Push.
func (r *reconciler) Push(ctx context.Context, kind EntityKind) (*PhaseResult, error) {
	switch kind {
	case KindTask:
		return r.pushTasks(ctx)
	case KindSession:
		return r.pushSessions(ctx)
	case KindSleep:
		return r.pushSleepEntries(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Pull implements Reconciler.Pull.
func (r *reconciler) Pull(ctx context.Context, kind EntityKind) (*PhaseResult, error) {
	switch kind {
	case KindTask:
		return r.pullTasks(ctx, "")
	case KindSession:
		return r.pullSessions(ctx, "")
	case KindSleep:
		return r.pullSleepEntries(ctx, "")
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// Prune implements Reconciler.Prune.
func (r *reconciler) Prune(ctx context.Context, kind EntityKind) (*PhaseResult, error) {
	switch kind {
	case KindTask:
		return r.pruneTasks(ctx)
	case KindSession:
		return r.pruneSessions(ctx)
	case KindSleep:
		return r.pruneSleepEntries(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind %q", kind)
	}
}

// RunFullCycle implements Reconciler.RunFullCycle.
//
// Phase order within a kind is Push, Pull, Prune: pushing first makes
// local-only records visible remotely before Prune could mistake them
// for remotely-deleted rows.
func (r *reconciler) RunFullCycle(ctx context.Context) *CycleResult {
	start := time.Now()
	res := &CycleResult{}
	defer func() { res.Duration = time.Since(start) }()

	if r.owner == "" {
		res.Errors = append(res.Errors, "no authenticated owner; cycle aborted")
		return res
	}
	if r.probe != nil && !r.probe(ctx) {
		res.Offline = true
		r.logger.Printf("Cycle skipped: connectivity probe reports offline")
		return res
	}

	for _, kind := range Kinds() {
		pr, err := r.Push(ctx, kind)
		res.merge(pr, &res.Pushed)
		if r.fatal(res, kind, "push", err) {
			return res
		}

		pr, err = r.Pull(ctx, kind)
		res.merge(pr, &res.Pulled)
		if r.fatal(res, kind, "pull", err) {
			return res
		}

		pr, err = r.Prune(ctx, kind)
		res.merge(pr, &res.Pruned)
		if r.fatal(res, kind, "prune", err) {
			return res
		}
	}

	r.logger.Printf("Cycle complete: pushed=%d pulled=%d pruned=%d errors=%d",
		res.Pushed, res.Pulled, res.Pruned, len(res.Errors))
	return res
}

// FetchForDate implements Reconciler.FetchForDate.
func (r *reconciler) FetchForDate(ctx context.Context, date string) (*PhaseResult, error) {
	if r.owner == "" {
		return nil, fmt.Errorf("no authenticated owner")
	}
	if !model.ValidDayKey(date) {
		return nil, fmt.Errorf("invalid day key %q", date)
	}

	total := &PhaseResult{}
	for _, pull := range []func(context.Context, string) (*PhaseResult, error){
		r.pullTasks, r.pullSessions, r.pullSleepEntries,
	} {
		pr, err := pull(ctx, date)
		if pr != nil {
			total.Count += pr.Count
			total.Errors = append(total.Errors, pr.Errors...)
		}
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// fatal folds a phase-level error into the result and reports whether
// the cycle must stop. Offline is surfaced as a single condition, not
// a per-record error; completed phases stand either way.
func (r *reconciler) fatal(res *CycleResult, kind EntityKind, phase string, err error) bool {
	if err == nil {
		return false
	}
	if remote.IsOffline(err) {
		res.Offline = true
		r.logger.Printf("Cycle aborted during %s %s: offline", kind, phase)
		return true
	}
	res.Errors = append(res.Errors, fmt.Sprintf("%s %s: %v", kind, phase, err))
	r.logger.Printf("Cycle aborted during %s %s: %v", kind, phase, err)
	return true
}

// recordFatal classifies a remote error inside a batch loop: offline
// and credential failures abort the phase, anything else is a
// per-record rejection the loop collects and moves past.
func recordFatal(err error) bool {
	return remote.IsOffline(err) || remote.IsUnauthorized(err)
}
