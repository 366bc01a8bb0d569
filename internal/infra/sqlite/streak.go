package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Streaks ────────────────────────────────────────────────────────────────

// EnsureStreak creates the streak row on first access and returns the
// current state.
func (d *DB) EnsureStreak(userID string) (domain.Streak, error) {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO streaks (user_id) VALUES (?)`, userID,
	)
	if err != nil {
		return domain.Streak{}, err
	}
	return d.GetStreak(userID)
}

// GetStreak retrieves a user's streak state. A missing row reads as a
// zero streak.
func (d *DB) GetStreak(userID string) (domain.Streak, error) {
	row := d.db.QueryRow(
		`SELECT user_id, current_streak, longest_streak, last_check_in, total_check_ins, points, freezes
		 FROM streaks WHERE user_id = ?`, userID,
	)
	s, err := scanStreak(row)
	if err == sql.ErrNoRows {
		return domain.Streak{UserID: userID}, nil
	}
	return s, err
}

// CommitCheckIn persists a check-in transition, guarded by the
// last_check_in value the transition was computed from. Returns false
// if another request got there first — the caller re-reads and
// re-decides.
func (d *DB) CommitCheckIn(userID string, prev, next domain.Streak) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE streaks SET
			current_streak = ?, longest_streak = ?, last_check_in = ?,
			total_check_ins = ?, points = ?, freezes = ?
		 WHERE user_id = ? AND last_check_in = ?`,
		next.Current, next.Longest, dayKeyOrEmpty(next.LastCheckIn),
		next.TotalCheckIns, next.Points, next.Freezes,
		userID, dayKeyOrEmpty(prev.LastCheckIn),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AddStreakPoints adds reward points to a user's streak balance.
func (d *DB) AddStreakPoints(userID string, points int) error {
	_, err := d.db.Exec(
		`UPDATE streaks SET points = points + ? WHERE user_id = ?`, points, userID,
	)
	return err
}

// AddStreakFreezes adds freezes outside the purchase path (wheel
// prize).
func (d *DB) AddStreakFreezes(userID string, n int) error {
	_, err := d.db.Exec(
		`UPDATE streaks SET freezes = freezes + ? WHERE user_id = ?`, n, userID,
	)
	return err
}

func scanStreak(s scanner) (domain.Streak, error) {
	var st domain.Streak
	var lastCheckIn string
	err := s.Scan(&st.UserID, &st.Current, &st.Longest, &lastCheckIn,
		&st.TotalCheckIns, &st.Points, &st.Freezes)
	if err != nil {
		return st, err
	}
	if lastCheckIn != "" {
		t, perr := time.ParseInLocation("2006-01-02", lastCheckIn, time.UTC)
		if perr == nil {
			st.LastCheckIn = t
		}
	}
	return st, nil
}

func dayKeyOrEmpty(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return domain.DayKey(t)
}
