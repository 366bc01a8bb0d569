package domain

import "time"

// Streak is a user's daily check-in state. Comparison is at UTC
// calendar-day granularity; time of day is discarded.
type Streak struct {
	UserID        string    `json:"user_id"`
	Current       int       `json:"current_streak"`
	Longest       int       `json:"longest_streak"`
	LastCheckIn   time.Time `json:"last_check_in"` // zero = never checked in
	TotalCheckIns int       `json:"total_check_ins"`
	Points        int       `json:"streak_points"`
	Freezes       int       `json:"streak_freezes"`
}

// StreakMilestones maps a streak length to the point bonus awarded the
// day the streak reaches it.
var StreakMilestones = map[int]int{
	3:   50,
	7:   100,
	14:  250,
	30:  500,
	100: 1000,
}

// MilestoneBonus returns the point bonus for reaching the given streak
// length, or 0 if it is not a milestone.
func MilestoneBonus(streak int) int {
	return StreakMilestones[streak]
}

// FreezeCost is the power-up credit price of one streak freeze.
const FreezeCost = 5

// CheckInResult reports the outcome of a daily check-in.
// AlreadyCheckedIn is a success-shaped no-op, not an error.
type CheckInResult struct {
	AlreadyCheckedIn bool   `json:"already_checked_in"`
	FreezeConsumed   bool   `json:"freeze_consumed"`
	MilestoneBonus   int    `json:"milestone_bonus"`
	Streak           Streak `json:"streak"`
}

// ApplyCheckIn runs the streak state machine for a check-in on the
// given day and returns the successor state. Pure — persistence and
// concurrency control are the caller's concern.
//
//   - same day as LastCheckIn: AlreadyCheckedIn, state unchanged
//   - gap ≤ 1 day: continuation
//   - gap == 2 days with a freeze available: consume one freeze,
//     protected continuation
//   - otherwise: streak resets to 1 on this check-in
func ApplyCheckIn(s Streak, today time.Time) CheckInResult {
	if !s.LastCheckIn.IsZero() && SameDay(s.LastCheckIn, today) {
		return CheckInResult{AlreadyCheckedIn: true, Streak: s}
	}

	res := CheckInResult{}
	switch gap := DaysBetween(s.LastCheckIn, today); {
	case s.LastCheckIn.IsZero():
		s.Current = 1
	case gap <= 1:
		s.Current++
	case gap == 2 && s.Freezes > 0:
		s.Freezes--
		s.Current++
		res.FreezeConsumed = true
	default:
		s.Current = 1
	}

	if s.Current > s.Longest {
		s.Longest = s.Current
	}
	s.TotalCheckIns++
	s.LastCheckIn = StartOfDay(today)

	if bonus := MilestoneBonus(s.Current); bonus > 0 {
		s.Points += bonus
		res.MilestoneBonus = bonus
	}

	res.Streak = s
	return res
}
