package model

import (
	"fmt"
	"time"
)

// DayKeyFormat is the canonical calendar-date layout used everywhere a
// "date" field appears. Day keys are semantic day identifiers, not
// timestamps, and compare correctly as plain strings.
const DayKeyFormat = "2006-01-02"

// ParseDayKey parses a day key, rejecting anything that is not a
// canonical YYYY-MM-DD date.
func ParseDayKey(s string) (time.Time, error) {
	t, err := time.Parse(DayKeyFormat, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid day key %q: %w", s, err)
	}
	return t, nil
}

// ValidDayKey reports whether s is a canonical day key.
func ValidDayKey(s string) bool {
	_, err := ParseDayKey(s)
	return err == nil
}

// DayKey formats a time as a day key in its own location.
func DayKey(t time.Time) string {
	return t.Format(DayKeyFormat)
}

// PrevDay returns the day key immediately before s.
func PrevDay(s string) (string, error) {
	t, err := ParseDayKey(s)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -1).Format(DayKeyFormat), nil
}

// NextDay returns the day key immediately after s.
func NextDay(s string) (string, error) {
	t, err := ParseDayKey(s)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, 1).Format(DayKeyFormat), nil
}

// DaysBetween returns b minus a in whole days. Consecutive days yield 1.
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDayKey(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDayKey(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta).Hours() / 24), nil
}

// DaysAgo returns the day key n days before s.
func DaysAgo(s string, n int) (string, error) {
	t, err := ParseDayKey(s)
	if err != nil {
		return "", err
	}
	return t.AddDate(0, 0, -n).Format(DayKeyFormat), nil
}
