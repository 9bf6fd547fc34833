package streak

import (
	"context"
	"fmt"
	"strings"

	"daytrack/internal/model"
	"daytrack/internal/remote"
)

// maxSummaryErrors bounds the error list a chain summary displays.
const maxSummaryErrors = 5

// ChainResult reports a RecalculateChain run.
type ChainResult struct {
	// Scanned is the number of historical rows walked.
	Scanned int

	// Updated is how many rows had their stored counters corrected.
	Updated int

	// Unchanged is how many rows already held the derived values.
	Unchanged int

	// Errors holds per-row persistence failures; the walk continued
	// past each of them so later rows are still derived from the same
	// in-memory chain state.
	Errors []string
}

// Summary renders the repair run as a multi-line report with a
// truncated error list ("+N more" past the first few).
func (r *ChainResult) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "streak recalculation: scanned=%d updated=%d unchanged=%d\n",
		r.Scanned, r.Updated, r.Unchanged)
	if len(r.Errors) > 0 {
		fmt.Fprintf(&b, "errors (%d):\n", len(r.Errors))
		shown := r.Errors
		if len(shown) > maxSummaryErrors {
			shown = shown[:maxSummaryErrors]
		}
		for _, e := range shown {
			fmt.Fprintf(&b, "  - %s\n", e)
		}
		if extra := len(r.Errors) - len(shown); extra > 0 {
			fmt.Fprintf(&b, "  ... +%d more\n", extra)
		}
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// RecalculateChain recomputes and persists both counters for every
// historical record of a habit, oldest to newest. This is the
// repair/backfill path: both counters reset to zero whenever the gap
// from the previous record's date is not exactly one day, then each
// day's own increment is re-derived from its stored progress exactly
// as the incremental path would.
func (c *Calculator) RecalculateChain(ctx context.Context, owner string, key HabitKey) (*ChainResult, error) {
	res := &ChainResult{}
	if key.Empty() {
		return res, nil
	}

	threshold, err := c.threshold(ctx, owner, key)
	if err != nil {
		return res, err
	}

	q := remote.Where("user_id", remote.OpEq, owner)
	q.Conds = append(q.Conds, key.cond())
	q = q.Order("date", false)

	var rows []remote.TaskRow
	if err := c.remote.Select(ctx, remote.TableTasks, q, &rows); err != nil {
		return res, fmt.Errorf("fetch history: %w", err)
	}

	achiever, fighter := 0, 0
	prev := ""
	for _, row := range rows {
		res.Scanned++

		if prev != "" {
			gap, err := model.DaysBetween(prev, row.Date)
			if err != nil {
				res.Errors = append(res.Errors, fmt.Sprintf("row %s: bad date %q: %v", row.ID, row.Date, err))
				prev = row.Date
				achiever, fighter = 0, 0
				continue
			}
			if gap != 1 {
				achiever, fighter = 0, 0
			}
		}
		prev = row.Date

		if row.Progress >= threshold {
			achiever++
		} else {
			achiever = 0
		}
		if row.Progress > 100 {
			fighter++
		} else {
			fighter = 0
		}

		if row.AchieverStreak == achiever && row.FighterStreak == fighter {
			res.Unchanged++
			continue
		}

		patch := map[string]int{
			"achiever_streak": achiever,
			"fighter_streak":  fighter,
		}
		uq := remote.Where("id", remote.OpEq, row.ID)
		if err := c.remote.Update(ctx, remote.TableTasks, patch, uq); err != nil {
			if remote.IsOffline(err) || remote.IsUnauthorized(err) {
				return res, err
			}
			res.Errors = append(res.Errors, fmt.Sprintf("row %s (%s): %v", row.ID, row.Date, err))
			continue
		}
		res.Updated++
	}

	c.logger.Printf("Recalculated chain for %+v: scanned=%d updated=%d errors=%d",
		key, res.Scanned, res.Updated, len(res.Errors))
	return res, nil
}
