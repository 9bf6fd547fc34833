package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// pushSessions uploads every pending or error session.
func (r *reconciler) pushSessions(ctx context.Context) (*PhaseResult, error) {
	pending, err := r.local.ListSessionsByStateContext(ctx, model.StatePending, model.StateError)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	pr := &PhaseResult{}
	for _, s := range pending {
		row := sessionToRow(s, r.owner)
		if err := r.remote.Upsert(ctx, remote.TableSessions, row, remote.SessionConflictKey); err != nil {
			if recordFatal(err) {
				return pr, err
			}
			pr.Errors = append(pr.Errors, fmt.Sprintf("session %s: %v", s.NaturalKey(), err))
			if merr := r.local.MarkSessionErrorContext(ctx, s.ID, err.Error()); merr != nil {
				return pr, fmt.Errorf("local store: %w", merr)
			}
			continue
		}

		if err := r.local.MarkSessionSyncedContext(ctx, s.ID, r.owner); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}

// pullSessions inserts remote sessions absent locally; date optionally
// narrows to one day.
func (r *reconciler) pullSessions(ctx context.Context, date string) (*PhaseResult, error) {
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if date != "" {
		q = q.And("date", remote.OpEq, date)
	}

	var rows []remote.SessionRow
	if err := r.remote.Select(ctx, remote.TableSessions, q, &rows); err != nil {
		return nil, err
	}

	pr := &PhaseResult{}
	for _, row := range rows {
		_, err := r.local.GetSessionByKeyContext(ctx, row.Date, row.StartTime, row.EndTime)
		if err == nil {
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return pr, fmt.Errorf("local store: %w", err)
		}

		if err := r.local.CreateSessionContext(ctx, sessionFromRow(row)); err != nil {
			pr.Errors = append(pr.Errors, fmt.Sprintf("session %s/%s-%s: insert: %v",
				row.Date, row.StartTime, row.EndTime, err))
			continue
		}
		pr.Count++
	}
	return pr, nil
}

// pruneSessions deletes local synced sessions gone from the remote.
func (r *reconciler) pruneSessions(ctx context.Context) (*PhaseResult, error) {
	synced, err := r.local.ListSessionsByStateContext(ctx, model.StateSynced)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	pr := &PhaseResult{}
	if len(synced) == 0 {
		return pr, nil
	}

	var rows []remote.SessionRow
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if err := r.remote.Select(ctx, remote.TableSessions, q, &rows); err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		present[row.Date+"/"+row.StartTime+"-"+row.EndTime] = true
	}

	for _, s := range synced {
		if present[s.NaturalKey()] {
			continue
		}
		if err := r.local.DeleteSessionContext(ctx, s.ID); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}
