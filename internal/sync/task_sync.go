package sync

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// pushTasks uploads every pending or error task. Each record is
// attempted independently so one rejection cannot block the rest.
func (r *reconciler) pushTasks(ctx context.Context) (*PhaseResult, error) {
	pending, err := r.local.ListTasksByStateContext(ctx, model.StatePending, model.StateError)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}

	pr := &PhaseResult{}
	for _, t := range pending {
		if t.Deleted {
			// A soft-deleted row still holds an unconfirmed write: the
			// remote side must see the deletion before the row may go.
			if err := r.pushTaskDeletion(ctx, t); err != nil {
				if recordFatal(err) {
					return pr, err
				}
				pr.Errors = append(pr.Errors, fmt.Sprintf("task %s: delete: %v", t.NaturalKey(), err))
				continue
			}
			pr.Count++
			continue
		}

		row := taskToRow(t, r.owner)
		if err := r.remote.Upsert(ctx, remote.TableTasks, row, remote.TaskConflictKey); err != nil {
			if recordFatal(err) {
				return pr, err
			}
			pr.Errors = append(pr.Errors, fmt.Sprintf("task %s: %v", t.NaturalKey(), err))
			if merr := r.local.MarkTaskErrorContext(ctx, t.ID, err.Error()); merr != nil {
				return pr, fmt.Errorf("local store: %w", merr)
			}
			continue
		}

		if err := r.local.MarkTaskSyncedContext(ctx, t.ID, r.owner); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}

// pushTaskDeletion propagates a soft-deleted task to the remote store
// and then removes the local row.
func (r *reconciler) pushTaskDeletion(ctx context.Context, t *model.Task) error {
	q := remote.Where("user_id", remote.OpEq, r.owner).
		And("date", remote.OpEq, t.Date).
		And("name", remote.OpEq, t.Name)
	if err := r.remote.Delete(ctx, remote.TableTasks, q); err != nil {
		return err
	}
	if err := r.local.DeleteTaskContext(ctx, t.ID); err != nil {
		return fmt.Errorf("local store: %w", err)
	}
	return nil
}

// pullTasks inserts remote tasks absent locally. date narrows the
// fetch to one day when non-empty. Existing local rows are never
// touched: a pending local edit outranks whatever the remote holds.
func (r *reconciler) pullTasks(ctx context.Context, date string) (*PhaseResult, error) {
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if date != "" {
		q = q.And("date", remote.OpEq, date)
	}

	var rows []remote.TaskRow
	if err := r.remote.Select(ctx, remote.TableTasks, q, &rows); err != nil {
		return nil, err
	}

	pr := &PhaseResult{}
	for _, row := range rows {
		_, err := r.local.GetTaskByDateNameContext(ctx, row.Date, row.Name)
		if err == nil {
			continue // present locally, whatever its state
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return pr, fmt.Errorf("local store: %w", err)
		}

		if err := r.local.CreateTaskContext(ctx, taskFromRow(row)); err != nil {
			// Most likely a natural-key race with a concurrent writer;
			// the row exists now, which is the outcome Pull wanted.
			pr.Errors = append(pr.Errors, fmt.Sprintf("task %s/%s: insert: %v", row.Date, row.Name, err))
			continue
		}
		pr.Count++
	}
	return pr, nil
}

// pruneTasks deletes local synced tasks whose natural key no longer
// exists remotely. Pending and error rows are never considered.
func (r *reconciler) pruneTasks(ctx context.Context) (*PhaseResult, error) {
	synced, err := r.local.ListTasksByStateContext(ctx, model.StateSynced)
	if err != nil {
		return nil, fmt.Errorf("local store: %w", err)
	}
	pr := &PhaseResult{}
	if len(synced) == 0 {
		return pr, nil
	}

	var rows []remote.TaskRow
	q := remote.Where("user_id", remote.OpEq, r.owner)
	if err := r.remote.Select(ctx, remote.TableTasks, q, &rows); err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(rows))
	for _, row := range rows {
		present[row.Date+"/"+row.Name] = true
	}

	for _, t := range synced {
		if present[t.NaturalKey()] {
			continue
		}
		if err := r.local.DeleteTaskContext(ctx, t.ID); err != nil {
			return pr, fmt.Errorf("local store: %w", err)
		}
		pr.Count++
	}
	return pr, nil
}
