package domain

import "time"

// Time-window helpers. Daily windows are UTC calendar days; monthly
// windows are rolling, anchored to the last reset. All functions are
// pure — callers supply the clock.

// StartOfDay truncates t to UTC midnight.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// DayKey returns the UTC calendar day as "YYYY-MM-DD".
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

// SameDay reports whether a and b fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return StartOfDay(a).Equal(StartOfDay(b))
}

// DaysBetween returns the number of whole UTC calendar days from
// earlier to later. Negative if later precedes earlier.
func DaysBetween(earlier, later time.Time) int {
	return int(StartOfDay(later).Sub(StartOfDay(earlier)) / (24 * time.Hour))
}

// DailyDue reports whether a counter last reset at lastReset has
// crossed a UTC midnight boundary by now.
func DailyDue(lastReset, now time.Time) bool {
	return lastReset.IsZero() || !SameDay(lastReset, now)
}

// MonthlyDue reports whether a rolling monthly reset scheduled for
// resetAt is due. A zero resetAt means no reset is scheduled.
func MonthlyDue(resetAt, now time.Time) bool {
	return !resetAt.IsZero() && now.After(resetAt)
}

// NextMonthly returns the next rolling monthly boundary, anchored to
// the supplied time rather than the original cycle date.
func NextMonthly(now time.Time) time.Time {
	return now.UTC().AddDate(0, 1, 0)
}
