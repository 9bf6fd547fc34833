package remote

import (
	"context"
	"testing"
)

func TestMemStoreUpsertNoDuplicates(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	row := TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "reading", Progress: 50}
	if err := m.Upsert(ctx, TableTasks, row, TaskConflictKey); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	row.Progress = 80
	if err := m.Upsert(ctx, TableTasks, row, TaskConflictKey); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}

	if got := m.Count(TableTasks); got != 1 {
		t.Fatalf("expected 1 row after re-upsert, got %d", got)
	}

	var rows []TaskRow
	if err := m.Select(ctx, TableTasks, Where("user_id", OpEq, "user-1"), &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 1 || rows[0].Progress != 80 {
		t.Errorf("upsert did not merge new values: %+v", rows)
	}
}

func TestMemStoreUpsertKeepsIdentity(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	row := TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "reading"}
	if err := m.Upsert(ctx, TableTasks, row, TaskConflictKey); err != nil {
		t.Fatalf("Upsert failed: %v", err)
	}

	first := m.Rows(TableTasks)[0]["id"]
	if first == "" {
		t.Fatal("insert should assign an id")
	}

	row.Progress = 40
	if err := m.Upsert(ctx, TableTasks, row, TaskConflictKey); err != nil {
		t.Fatalf("second Upsert failed: %v", err)
	}
	if got := m.Rows(TableTasks)[0]["id"]; got != first {
		t.Errorf("upsert changed row identity: %v != %v", got, first)
	}
}

func TestMemStoreSelectFilterOrderLimit(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	dates := []string{"2025-06-03", "2025-06-01", "2025-06-02", "2025-05-20"}
	for _, d := range dates {
		err := m.Seed(TableTasks, TaskRow{UserID: "user-1", Date: d, Name: "reading"})
		if err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}
	// Another owner's row must never match.
	if err := m.Seed(TableTasks, TaskRow{UserID: "user-2", Date: "2025-06-02", Name: "reading"}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}

	var rows []TaskRow
	q := Where("user_id", OpEq, "user-1").
		And("date", OpGte, "2025-06-01").
		Order("date", true).
		Take(2)
	if err := m.Select(ctx, TableTasks, q, &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if len(rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(rows))
	}
	if rows[0].Date != "2025-06-03" || rows[1].Date != "2025-06-02" {
		t.Errorf("unexpected order: %s, %s", rows[0].Date, rows[1].Date)
	}
}

func TestMemStoreSetErr(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	m.SetErr(ErrOffline)
	err := m.Insert(ctx, TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "reading"})
	if !IsOffline(err) {
		t.Fatalf("expected offline error, got %v", err)
	}

	m.SetErr(nil)
	err = m.Insert(ctx, TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "reading"})
	if err != nil {
		t.Fatalf("Insert after clearing error failed: %v", err)
	}
}

func TestMemStoreRejectWhere(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	apiErr := &APIError{Status: 409, Message: "constraint violated"}
	m.RejectWhere(TableTasks, "name", "cursed", apiErr)

	err := m.Upsert(ctx, TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "cursed"}, TaskConflictKey)
	if err == nil {
		t.Fatal("rejected row should fail")
	}
	if IsOffline(err) || IsUnauthorized(err) {
		t.Errorf("rejection must be a per-record error, got %v", err)
	}

	// Other rows are untouched.
	err = m.Upsert(ctx, TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "fine"}, TaskConflictKey)
	if err != nil {
		t.Fatalf("non-rejected row failed: %v", err)
	}
	if got := m.Count(TableTasks); got != 1 {
		t.Errorf("expected 1 stored row, got %d", got)
	}
}

func TestMemStoreDelete(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	for _, name := range []string{"reading", "running"} {
		if err := m.Seed(TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: name}); err != nil {
			t.Fatalf("Seed failed: %v", err)
		}
	}

	q := Where("user_id", OpEq, "user-1").And("name", OpEq, "reading")
	if err := m.Delete(ctx, TableTasks, q); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if got := m.Count(TableTasks); got != 1 {
		t.Errorf("expected 1 row after delete, got %d", got)
	}
	// Deleting an absent row is a no-op, matching the wire behavior.
	if err := m.Delete(ctx, TableTasks, q); err != nil {
		t.Fatalf("repeat Delete failed: %v", err)
	}
}

func TestMemStoreUpdate(t *testing.T) {
	m := NewMemStore()
	ctx := context.Background()

	if err := m.Seed(TableTasks, TaskRow{UserID: "user-1", Date: "2025-06-01", Name: "reading", Progress: 70}); err != nil {
		t.Fatalf("Seed failed: %v", err)
	}
	id := m.Rows(TableTasks)[0]["id"].(string)

	patch := map[string]int{"achiever_streak": 3, "fighter_streak": 1}
	if err := m.Update(ctx, TableTasks, patch, Where("id", OpEq, id)); err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	var rows []TaskRow
	if err := m.Select(ctx, TableTasks, Where("id", OpEq, id), &rows); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if len(rows) != 1 || rows[0].AchieverStreak != 3 || rows[0].FighterStreak != 1 {
		t.Errorf("patch not applied: %+v", rows)
	}
}

func TestQueryEncode(t *testing.T) {
	q := Where("user_id", OpEq, "user-1").
		And("date", OpLt, "2025-06-01").
		Order("date", true).
		Take(10)

	got := q.Encode()
	want := "date=lt.2025-06-01&limit=10&order=date.desc&user_id=eq.user-1"
	if got != want {
		t.Errorf("Encode() = %q, want %q", got, want)
	}
}
