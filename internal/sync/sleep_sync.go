package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// pushSleepEntries uploads every pending or error sleep entry.
func (r *reconciler) pushSleepEntries(ctx context.Context) (*PhaseResult, error) {
	pending, err := r.local.ListSleepEntriesByStateContext(ctx, model.StatePending, model.StateError)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	pr := &PhaseResult{}
	for _, e := range pending {
		row := sleepToRow(e, r.owner)
		if err := r.remote.Upsert(ctx, remote.TableSleepEntries, row, remote.SleepConflictKey); err != nil {
			if recordFatal(err) {
				return pr, err
			}
			pr.Errors = append(pr.Errors, fmt.Sprintf("sleep %s: %v", e.Date, err))
			if merr := r.local.MarkSleepEntryErrorContext(ctx, e.ID, err.Error()); merr != nil {
				return pr, fmt.Errorf("local store: %w", merr)
			}
			continue
		}

		if err := r.local.MarkSleepEntrySyncedContext(ctx, e.ID, r.owner); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}

// pullSleepEntries inserts remote sleep entries absent locally; date
// optionally narrows to one day.
func (r *reconciler) pullSleepEntries(ctx context.Context, date string) (*PhaseResult, error) {
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if date != "" {
		q = q.And("date", remote.OpEq, date)
	}

	var rows []remote.SleepRow
	if err := r.remote.Select(ctx, remote.TableSleepEntries, q, &rows); err != nil {
		return nil, err
	}

	pr := &PhaseResult{}
	for _, row := range rows {
		_, err := r.local.GetSleepEntryByDateContext(ctx, row.Date)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return pr, fmt.Errorf("local store: %w", err)
		}

		if err := r.local.CreateSleepEntryContext(ctx, sleepFromRow(row)); err != nil {
			pr.Errors = append(pr.Errors, fmt.Sprintf("sleep %s: insert: %v", row.Date, err))
			continue
		}
		pr.Count++
	}
	return pr, nil
}

// pruneSleepEntries deletes local synced entries gone from the remote.
func (r *reconciler) pruneSleepEntries(ctx context.Context) (*PhaseResult, error) {
	synced, err := r.local.ListSleepEntriesByStateContext(ctx, model.StateSynced)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	pr := &PhaseResult{}
	if len(synced) == 0 {
		return pr, nil
	}

	var rows []remote.SleepRow
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if err := r.remote.Select(ctx, remote.TableSleepEntries, q, &rows); err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		present[row.Date] = true
	}

	for _, e := range synced {
		if present[e.NaturalKey()] {
			continue
		}
		if err := r.local.DeleteSleepEntryContext(ctx, e.ID); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}
