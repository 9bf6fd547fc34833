package streak

import (
	"context"
	"strings"
	"testing"

	"daytrack/internal/remote"
)

// chainStreaks reads back the stored counters ordered by date.
func chainStreaks(t *testing.T, mem *remote.MemStore) [][2]int {
	t.Helper()

	var rows []remote.TaskRow
	q := remote.Where("user_id", remote.OpEq, testOwner).Order("date", false)
	if err := mem.Select(context.Background(), remote.TableTasks, q, &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	out := make([][2]int, len(rows))
	for i, row := range rows {
		out[i] = [2]int{row.AchieverStreak, row.FighterStreak}
	}
	return out
}

func TestRecalculateChain(t *testing.T) {
	calc, mem := newTestCalculator(t)
	// Middle day misses the default threshold, so the chain resets.
	seedHistory(t, mem, map[string]int{
		"2025-06-07": 70,
		"2025-06-08": 55,
		"2025-06-09": 80,
	})

	res, err := calc.RecalculateChain(context.Background(), testOwner, readingKey())
	if err != nil {
		t.Fatalf("RecalculateChain failed: %v", err)
	}
	if res.Scanned != 3 {
		t.Errorf("scanned = %d, want 3", res.Scanned)
	}

	got := chainStreaks(t, mem)
	want := [][2]int{{1, 0}, {0, 0}, {1, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d counters = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecalculateChainGapResets(t *testing.T) {
	calc, mem := newTestCalculator(t)
	// Three qualifying days, but 2025-06-08 is missing.
	seedHistory(t, mem, map[string]int{
		"2025-06-06": 120,
		"2025-06-07": 120,
		"2025-06-09": 120,
	})

	if _, err := calc.RecalculateChain(context.Background(), testOwner, readingKey()); err != nil {
		t.Fatalf("RecalculateChain failed: %v", err)
	}

	got := chainStreaks(t, mem)
	want := [][2]int{{1, 1}, {2, 2}, {1, 1}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d counters = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecalculateChainIdempotent(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-08": 70,
		"2025-06-09": 80,
	})

	first, err := calc.RecalculateChain(context.Background(), testOwner, readingKey())
	if err != nil {
		t.Fatalf("RecalculateChain failed: %v", err)
	}
	if first.Updated != 2 {
		t.Errorf("first run updated = %d, want 2", first.Updated)
	}

	second, err := calc.RecalculateChain(context.Background(), testOwner, readingKey())
	if err != nil {
		t.Fatalf("second RecalculateChain failed: %v", err)
	}
	if second.Updated != 0 || second.Unchanged != 2 {
		t.Errorf("second run should change nothing: %+v", second)
	}
}

func TestRecalculateChainRepairsCorrection(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-07": 70,
		"2025-06-08": 70,
		"2025-06-09": 70,
	})

	if _, err := calc.RecalculateChain(context.Background(), testOwner, readingKey()); err != nil {
		t.Fatalf("RecalculateChain failed: %v", err)
	}

	// The middle day's progress is corrected downward after the fact;
	// a recompute must ripple through every dependent day.
	patch := map[string]int{"progress": 10}
	uq := remote.Where("user_id", remote.OpEq, testOwner).And("date", remote.OpEq, "2025-06-08")
	if err := mem.Update(context.Background(), remote.TableTasks, patch, uq); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if _, err := calc.RecalculateChain(context.Background(), testOwner, readingKey()); err != nil {
		t.Fatalf("repair RecalculateChain failed: %v", err)
	}

	got := chainStreaks(t, mem)
	want := [][2]int{{1, 0}, {0, 0}, {1, 0}}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("day %d counters = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestRecalculateChainEmptyKey(t *testing.T) {
	calc, _ := newTestCalculator(t)

	res, err := calc.RecalculateChain(context.Background(), testOwner, HabitKey{})
	if err != nil {
		t.Fatalf("RecalculateChain failed: %v", err)
	}
	if res.Scanned != 0 {
		t.Errorf("empty key should scan nothing, got %d", res.Scanned)
	}
}

func TestRecalculateChainAbortsOffline(t *testing.T) {
	calc, mem := newTestCalculator(t)
	mem.SetErr(remote.ErrOffline)

	_, err := calc.RecalculateChain(context.Background(), testOwner, readingKey())
	if !remote.IsOffline(err) {
		t.Fatalf("expected offline error, got %v", err)
	}
}

func TestChainResultSummary(t *testing.T) {
	res := &ChainResult{Scanned: 10, Updated: 3, Unchanged: 7}
	for i := 0; i < 8; i++ {
		res.Errors = append(res.Errors, "row x: rejected")
	}

	summary := res.Summary()
	if !strings.Contains(summary, "scanned=10 updated=3 unchanged=7") {
		t.Errorf("summary missing counts:\n%s", summary)
	}
	if !strings.Contains(summary, "+3 more") {
		t.Errorf("summary should truncate the error list:\n%s", summary)
	}
}
