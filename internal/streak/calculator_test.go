package streak

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"testing"

	"daytrack/internal/localstore"
	"daytrack/internal/model"
	"daytrack/internal/remote"
)

const testOwner = "user-1"

func newTestCalculator(t *testing.T) (*Calculator, *remote.MemStore) {
	t.Helper()

	mem := remote.NewMemStore()
	calc := New(mem, nil, log.New(os.Stderr, "[test] ", 0))
	return calc, mem
}

// seedHistory stores one task row per (date, progress) pair for the
// habit named "reading".
func seedHistory(t *testing.T, mem *remote.MemStore, days map[string]int) {
	t.Helper()

	for date, progress := range days {
		row := remote.TaskRow{
			UserID:   testOwner,
			Date:     date,
			Name:     "reading",
			Progress: progress,
		}
		if err := mem.Seed(remote.TableTasks, row); err != nil {
			t.Fatalf("failed to seed history: %v", err)
		}
	}
}

func readingKey() HabitKey {
	return HabitKey{Name: "reading"}
}

func TestComputeStreaksContiguous(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-07": 65,
		"2025-06-08": 70,
		"2025-06-09": 110,
	})

	s, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 80)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	if s.Achiever != 4 {
		t.Errorf("achiever = %d, want 4", s.Achiever)
	}
	// Yesterday's 110 exceeds 100; today's 80 adds nothing on top.
	if s.Fighter != 1 {
		t.Errorf("fighter = %d, want 1", s.Fighter)
	}
}

func TestComputeStreaksGapBreaksChain(t *testing.T) {
	calc, mem := newTestCalculator(t)
	// 2025-06-08 is missing entirely.
	seedHistory(t, mem, map[string]int{
		"2025-06-06": 90,
		"2025-06-07": 90,
		"2025-06-09": 90,
	})

	s, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 80)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	// Yesterday counts, then the gap ends the walk. The two older
	// qualifying days before the gap contribute nothing.
	if s.Achiever != 2 {
		t.Errorf("achiever = %d, want 2 (gap must break the chain)", s.Achiever)
	}
}

func TestComputeStreaksFighterStrict(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-08": 101,
		"2025-06-09": 100, // exactly 100 does not qualify
	})

	s, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 150)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	// Yesterday's 100 ends the fighter chain before the 101 day is
	// reached; today's 150 still counts.
	if s.Fighter != 1 {
		t.Errorf("fighter = %d, want 1 (100 is not over-achievement)", s.Fighter)
	}
	// Both days plus today clear the default achiever threshold.
	if s.Achiever != 3 {
		t.Errorf("achiever = %d, want 3", s.Achiever)
	}
}

func TestComputeStreaksTodayBelowThreshold(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-08": 70,
		"2025-06-09": 70,
	})

	s, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 10)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	// History still counts; today simply adds nothing yet. Progress
	// updates later in the day will recompute.
	if s.Achiever != 2 {
		t.Errorf("achiever = %d, want 2", s.Achiever)
	}
}

func TestComputeStreaksEmptyKey(t *testing.T) {
	calc, mem := newTestCalculator(t)
	mem.SetErr(remote.ErrOffline) // any query would fail loudly

	s, err := calc.ComputeStreaks(context.Background(), testOwner, HabitKey{}, "2025-06-10", 80)
	if err != nil {
		t.Fatalf("empty key must not query: %v", err)
	}
	if s.Achiever != 0 || s.Fighter != 0 {
		t.Errorf("empty key yields zero streaks, got %+v", s)
	}
}

func TestComputeStreaksIgnoresStoredCounters(t *testing.T) {
	calc, mem := newTestCalculator(t)

	// The stored row carries a wildly wrong cached counter; the
	// computation must derive from progress alone.
	row := remote.TaskRow{
		UserID:         testOwner,
		Date:           "2025-06-09",
		Name:           "reading",
		Progress:       10,
		AchieverStreak: 99,
	}
	if err := mem.Seed(remote.TableTasks, row); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	s, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 80)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	if s.Achiever != 1 {
		t.Errorf("achiever = %d, want 1 (stored counters must be ignored)", s.Achiever)
	}
}

func TestComputeStreaksIdempotent(t *testing.T) {
	calc, mem := newTestCalculator(t)
	seedHistory(t, mem, map[string]int{
		"2025-06-08": 70,
		"2025-06-09": 70,
	})

	first, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 80)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	second, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", 80)
	if err != nil {
		t.Fatalf("second ComputeStreaks failed: %v", err)
	}
	if first != second {
		t.Errorf("recompute diverged: %+v vs %+v", first, second)
	}
}

func TestTemplateThresholdApplied(t *testing.T) {
	calc, mem := newTestCalculator(t)

	tmpl := remote.TemplateRow{ID: "t-1", UserID: testOwner, Name: "meditate", MinCompletion: 80, Active: true}
	if err := mem.Seed(remote.TableHabitTemplates, tmpl); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	// 70 clears the default threshold but not the template's 80.
	row := remote.TaskRow{UserID: testOwner, Date: "2025-06-09", Name: "meditate", TemplateID: "t-1", Progress: 70}
	if err := mem.Seed(remote.TableTasks, row); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	key := HabitKey{TemplateID: "t-1"}
	s, err := calc.ComputeStreaks(context.Background(), testOwner, key, "2025-06-10", 85)
	if err != nil {
		t.Fatalf("ComputeStreaks failed: %v", err)
	}
	if s.Achiever != 1 {
		t.Errorf("achiever = %d, want 1 (yesterday's 70 misses the 80%% bar)", s.Achiever)
	}
}

func TestThresholdDefaultsWhenTemplateMissing(t *testing.T) {
	calc, mem := newTestCalculator(t)

	// The task references a template the remote no longer has.
	row := remote.TaskRow{UserID: testOwner, Date: "2025-06-09", Name: "meditate", TemplateID: "t-gone", Progress: 70}
	if err := mem.Seed(remote.TableTasks, row); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	key := HabitKey{TemplateID: "t-gone"}
	s, err := calc.ComputeStreaks(context.Background(), testOwner, key, "2025-06-10", 70)
	if err != nil {
		t.Fatalf("missing template must degrade to the default: %v", err)
	}
	if s.Achiever != 2 {
		t.Errorf("achiever = %d, want 2 under the default threshold", s.Achiever)
	}
}

func TestComputeStreaksRejectsBadInput(t *testing.T) {
	calc, _ := newTestCalculator(t)

	if _, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "June 10", 80); err == nil {
		t.Error("invalid target date should be rejected")
	}
	if _, err := calc.ComputeStreaks(context.Background(), testOwner, readingKey(), "2025-06-10", -1); err == nil {
		t.Error("negative progress should be rejected")
	}
}

func TestRefreshTask(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	store, err := localstore.Open(dbPath)
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	if err := store.InitSchema(); err != nil {
		t.Fatalf("failed to init schema: %v", err)
	}

	mem := remote.NewMemStore()
	calc := New(mem, store, log.New(os.Stderr, "[test] ", 0))

	seedHistory(t, mem, map[string]int{"2025-06-09": 70})

	task := &model.Task{Date: "2025-06-10", Name: "reading", Progress: 80}
	if err := store.CreateTask(task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := store.MarkTaskSynced(task.ID, testOwner); err != nil {
		t.Fatalf("MarkTaskSynced failed: %v", err)
	}

	s, err := calc.RefreshTask(context.Background(), testOwner, task)
	if err != nil {
		t.Fatalf("RefreshTask failed: %v", err)
	}
	if s.Achiever != 2 {
		t.Errorf("achiever = %d, want 2", s.Achiever)
	}
	if task.AchieverStreak != 2 || task.SyncState != model.StatePending {
		t.Errorf("task struct not updated in place: %+v", task)
	}

	got, err := store.GetTask(task.ID)
	if err != nil {
		t.Fatalf("GetTask failed: %v", err)
	}
	if got.AchieverStreak != 2 || got.SyncState != model.StatePending {
		t.Errorf("persisted row = streak %d state %s, want 2 pending", got.AchieverStreak, got.SyncState)
	}
}
