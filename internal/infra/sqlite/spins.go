package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Daily Spin Budgets ─────────────────────────────────────────────────────

// GetSpinState retrieves a user's spin state for a game. A missing row
// reads as a zero state (never reset).
func (d *DB) GetSpinState(userID string, game domain.SpinGame) (domain.SpinState, error) {
	row := d.db.QueryRow(
		`SELECT user_id, game, spins_used, spins_total, last_reset_at, session_score
		 FROM spin_states WHERE user_id = ? AND game = ?`,
		userID, string(game),
	)

	var s domain.SpinState
	var g string
	var lastReset int64
	err := row.Scan(&s.UserID, &g, &s.Used, &s.Total, &lastReset, &s.SessionScore)
	if err == sql.ErrNoRows {
		return domain.SpinState{UserID: userID, Game: game}, nil
	}
	if err != nil {
		return domain.SpinState{}, err
	}
	s.Game = domain.SpinGame(g)
	s.LastResetAt = time.Unix(lastReset, 0).UTC()
	return s, nil
}

// ResetSpinState writes the day's budget snapshot. The total is fixed
// here and not re-derived mid-day. Upsert: first access of the day
// either creates the row or rolls it over.
func (d *DB) ResetSpinState(userID string, game domain.SpinGame, total int, now time.Time) error {
	_, err := d.db.Exec(
		`INSERT INTO spin_states (user_id, game, spins_used, spins_total, last_reset_at, session_score)
		 VALUES (?, ?, 0, ?, ?, 0)
		 ON CONFLICT(user_id, game) DO UPDATE SET
			spins_used=0, spins_total=excluded.spins_total,
			last_reset_at=excluded.last_reset_at, session_score=0`,
		userID, string(game), total, now.Unix(),
	)
	return err
}

// ConsumeSpin decrements the day's budget. The spins_used <
// spins_total guard keeps two concurrent spins from both passing the
// "one left" check.
func (d *DB) ConsumeSpin(userID string, game domain.SpinGame) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE spin_states SET spins_used = spins_used + 1
		 WHERE user_id = ? AND game = ? AND spins_used < spins_total`,
		userID, string(game),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// AddSessionScore accumulates a slot spin's score into the running
// daily total and returns the new total.
func (d *DB) AddSessionScore(userID string, game domain.SpinGame, score int) (int, error) {
	_, err := d.db.Exec(
		`UPDATE spin_states SET session_score = session_score + ?
		 WHERE user_id = ? AND game = ?`,
		score, userID, string(game),
	)
	if err != nil {
		return 0, err
	}
	var total int
	err = d.db.QueryRow(
		`SELECT session_score FROM spin_states WHERE user_id = ? AND game = ?`,
		userID, string(game),
	).Scan(&total)
	return total, err
}
