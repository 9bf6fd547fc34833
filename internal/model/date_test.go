package model

import "testing"

func TestParseDayKey(t *testing.T) {
	valid := []string{"2025-01-01", "2024-02-29", "1999-12-31"}
	for _, s := range valid {
		if _, err := ParseDayKey(s); err != nil {
			t.Errorf("ParseDayKey(%q) failed: %v", s, err)
		}
	}

	invalid := []string{"", "2025-1-1", "2025/01/01", "2025-13-01", "2025-02-30", "today", "2025-01-01T00:00:00Z"}
	for _, s := range invalid {
		if _, err := ParseDayKey(s); err == nil {
			t.Errorf("ParseDayKey(%q) should have failed", s)
		}
	}
}

func TestPrevNextDay(t *testing.T) {
	prev, err := PrevDay("2025-03-01")
	if err != nil {
		t.Fatalf("PrevDay failed: %v", err)
	}
	if prev != "2025-02-28" {
		t.Errorf("expected 2025-02-28, got %s", prev)
	}

	next, err := NextDay("2024-02-28")
	if err != nil {
		t.Fatalf("NextDay failed: %v", err)
	}
	if next != "2024-02-29" {
		t.Errorf("expected leap day 2024-02-29, got %s", next)
	}

	// Year boundary
	prev, err = PrevDay("2025-01-01")
	if err != nil {
		t.Fatalf("PrevDay failed: %v", err)
	}
	if prev != "2024-12-31" {
		t.Errorf("expected 2024-12-31, got %s", prev)
	}
}

func TestDaysBetween(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"2025-06-01", "2025-06-02", 1},
		{"2025-06-01", "2025-06-01", 0},
		{"2025-06-02", "2025-06-01", -1},
		{"2025-02-27", "2025-03-02", 3},
		{"2024-12-31", "2025-01-01", 1},
	}
	for _, tt := range tests {
		got, err := DaysBetween(tt.a, tt.b)
		if err != nil {
			t.Fatalf("DaysBetween(%s, %s) failed: %v", tt.a, tt.b, err)
		}
		if got != tt.want {
			t.Errorf("DaysBetween(%s, %s) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestDayKeysCompareAsStrings(t *testing.T) {
	// The whole design relies on day keys ordering lexicographically.
	if !("2025-01-09" < "2025-01-10") {
		t.Error("day keys must order as strings")
	}
	if !("2024-12-31" < "2025-01-01") {
		t.Error("day keys must order as strings across years")
	}
}
