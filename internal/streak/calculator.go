// Package streak derives consecutive-day habit counters from the
// remote store's history.
//
// Two counters exist per habit: the achiever streak counts consecutive
// days meeting the habit's minimum completion percentage, the fighter
// streak counts consecutive days strictly exceeding 100%. Both are
// recomputed from actually-stored progress values every time; cached
// counters on prior rows are never trusted, so correcting one day's
// progress self-heals every dependent day on its next recompute. A
// missing day is a hard break for both chains.
package streak

import (
	"context"
	"fmt"
	"log"
	"os"

	"daytrack/internal/localstore"
	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// historyWindowDays bounds how far back a streak walk will fetch.
// Anything older than a year cannot extend a current streak worth
// rendering.
const historyWindowDays = 365

// HabitKey identifies a habit's history: the spawning template's ID
// when the task came from one, otherwise the task name.
type HabitKey struct {
	TemplateID string
	Name       string
}

// KeyForTask derives the habit key from a task.
func KeyForTask(t *model.Task) HabitKey {
	tid, name := t.HabitKey()
	return HabitKey{TemplateID: tid, Name: name}
}

// Empty reports whether there is nothing to look history up by.
func (k HabitKey) Empty() bool {
	return k.TemplateID == "" && k.Name == ""
}

// cond returns the history filter for this key.
func (k HabitKey) cond() remote.Cond {
	if k.TemplateID != "" {
		return remote.Eq("template_id", k.TemplateID)
	}
	return remote.Eq("name", k.Name)
}

// Streaks holds the two derived counters.
type Streaks struct {
	Achiever int
	Fighter  int
}

// Calculator computes streaks from remote history.
type Calculator struct {
	remote remote.Store
	local  *localstore.Store
	logger *log.Logger
}

// New creates a Calculator.
//
// The local store is only needed by RefreshTask; pass nil when the
// calculator is used purely for reads. If logger is nil, a default
// logger writing to stderr is used.
func New(remoteStore remote.Store, local *localstore.Store, logger *log.Logger) *Calculator {
	if logger == nil {
		logger = log.New(os.Stderr, "[streak] ", log.LstdFlags)
	}
	return &Calculator{remote: remoteStore, local: local, logger: logger}
}

// ComputeStreaks derives the two counters for a habit as of targetDate
// with today's progress at targetProgress.
//
// The walk starts at targetDate−1 and requires each fetched row's date
// to exactly equal the expected previous day; any gap terminates both
// chains immediately. Today's own contribution is added afterwards and
// is not subject to the gap check.
//
// An empty habit key yields (0, 0) without querying history.
func (c *Calculator) ComputeStreaks(ctx context.Context, owner string, key HabitKey, targetDate string, targetProgress int) (Streaks, error) {
	var s Streaks
	if key.Empty() {
		return s, nil
	}
	if !model.ValidDayKey(targetDate) {
		return s, fmt.Errorf("invalid target date %q", targetDate)
	}
	if targetProgress < 0 {
		return s, fmt.Errorf("target progress cannot be negative (got %d)", targetProgress)
	}

	threshold, err := c.threshold(ctx, owner, key)
	if err != nil {
		return s, err
	}

	rows, err := c.history(ctx, owner, key, targetDate, true)
	if err != nil {
		return s, err
	}

	expected, err := model.PrevDay(targetDate)
	if err != nil {
		return s, err
	}

	achieverAlive, fighterAlive := true, true
	for _, row := range rows {
		if !achieverAlive && !fighterAlive {
			break
		}
		if row.Date != expected {
			// Missing day: both chains end here. No leniency.
			break
		}
		if achieverAlive {
			if row.Progress >= threshold {
				s.Achiever++
			} else {
				achieverAlive = false
			}
		}
		if fighterAlive {
			if row.Progress > 100 {
				s.Fighter++
			} else {
				fighterAlive = false
			}
		}
		if expected, err = model.PrevDay(expected); err != nil {
			return s, err
		}
	}

	// Today is always contiguous with itself.
	if targetProgress >= threshold {
		s.Achiever++
	}
	if targetProgress > 100 {
		s.Fighter++
	}
	return s, nil
}

// RefreshTask recomputes a local task's streaks from remote history,
// persists the counters onto the row, and marks it pending so the next
// push uploads them. The task struct is updated in place.
func (c *Calculator) RefreshTask(ctx context.Context, owner string, t *model.Task) (Streaks, error) {
	if c.local == nil {
		return Streaks{}, fmt.Errorf("calculator has no local store")
	}

	s, err := c.ComputeStreaks(ctx, owner, KeyForTask(t), t.Date, t.Progress)
	if err != nil {
		return s, err
	}
	if err := c.local.UpdateTaskStreaksContext(ctx, t.ID, s.Achiever, s.Fighter); err != nil {
		return s, err
	}
	t.AchieverStreak = s.Achiever
	t.FighterStreak = s.Fighter
	t.SyncState = model.StatePending
	return s, nil
}

// threshold fetches the habit's minimum completion percentage. Every
// "not found" condition degrades to the default rather than failing
// the caller; only transport errors propagate.
func (c *Calculator) threshold(ctx context.Context, owner string, key HabitKey) (int, error) {
	if key.TemplateID == "" {
		return model.DefaultMinCompletion, nil
	}

	var rows []remote.TemplateRow
	q := remote.Where("user_id", remote.OpEq, owner).
		And("id", remote.OpEq, key.TemplateID).
		Take(1)
	if err := c.remote.Select(ctx, remote.TableHabitTemplates, q, &rows); err != nil {
		return 0, fmt.Errorf("fetch template %s: %w", key.TemplateID, err)
	}
	if len(rows) == 0 || rows[0].MinCompletion <= 0 {
		return model.DefaultMinCompletion, nil
	}
	return rows[0].MinCompletion, nil
}

// history fetches up to a year of the habit's rows strictly before
// cutoff, newest-first when desc is set.
func (c *Calculator) history(ctx context.Context, owner string, key HabitKey, cutoff string, desc bool) ([]remote.TaskRow, error) {
	windowStart, err := model.DaysAgo(cutoff, historyWindowDays)
	if err != nil {
		return nil, err
	}

	q := remote.Where("user_id", remote.OpEq, owner)
	q.Conds = append(q.Conds, key.cond())
	q = q.And("date", remote.OpLt, cutoff).
		And("date", remote.OpGte, windowStart).
		Order("date", desc)

	var rows []remote.TaskRow
	if err := c.remote.Select(ctx, remote.TableTasks, q, &rows); err != nil {
		return nil, fmt.Errorf("fetch history: %w", err)
	}
	return rows, nil
}
