package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Daily Challenges ───────────────────────────────────────────────────────

// InsertChallenge creates a user's challenge for a day. Returns false
// if one already exists for that day.
func (d *DB) InsertChallenge(c domain.Challenge) (bool, error) {
	res, err := d.db.Exec(
		`INSERT OR IGNORE INTO challenges
			(user_id, day, action_kind, target, progress, completed, reward_credits, created_at)
		 VALUES (?, ?, ?, ?, 0, 0, ?, ?)`,
		c.UserID, c.Day, string(c.Requirement.Action()), c.Requirement.Target(),
		c.RewardCredits, c.CreatedAt.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetChallenge retrieves a user's challenge for a day, or nil if none
// was drawn yet.
func (d *DB) GetChallenge(userID, day string) (*domain.Challenge, error) {
	row := d.db.QueryRow(
		`SELECT user_id, day, action_kind, target, progress, completed, reward_credits, created_at
		 FROM challenges WHERE user_id = ? AND day = ?`, userID, day,
	)

	var c domain.Challenge
	var kind string
	var target int
	var createdAt int64
	err := row.Scan(&c.UserID, &c.Day, &kind, &target, &c.Progress, &c.Completed,
		&c.RewardCredits, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Requirement = domain.RequirementFor(domain.ActionKind(kind), target)
	c.Description = c.Requirement.Describe()
	c.CreatedAt = time.Unix(createdAt, 0).UTC()
	return &c, nil
}

// AdvanceChallenge adds progress toward an uncompleted challenge whose
// requirement matches the action kind. Progress is clamped at target.
func (d *DB) AdvanceChallenge(userID, day string, kind domain.ActionKind, delta int) error {
	_, err := d.db.Exec(
		`UPDATE challenges SET progress = MIN(progress + ?, target)
		 WHERE user_id = ? AND day = ? AND action_kind = ? AND completed = 0`,
		delta, userID, day, string(kind),
	)
	return err
}

// CompleteChallenge flips the one-shot completion flag once progress
// has reached the target. Returns false if it was already completed or
// the target is not met.
func (d *DB) CompleteChallenge(userID, day string) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE challenges SET completed = 1
		 WHERE user_id = ? AND day = ? AND completed = 0 AND progress >= target`,
		userID, day,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ─── Action Counters ────────────────────────────────────────────────────────

// IncrementAction bumps a user's lifetime counter for an action kind
// and returns the new count.
func (d *DB) IncrementAction(userID string, kind domain.ActionKind) (int, error) {
	_, err := d.db.Exec(
		`INSERT INTO action_counts (user_id, kind, count) VALUES (?, ?, 1)
		 ON CONFLICT(user_id, kind) DO UPDATE SET count = count + 1`,
		userID, string(kind),
	)
	if err != nil {
		return 0, err
	}
	return d.ActionCount(userID, kind)
}

// ActionCount returns a user's lifetime counter for an action kind.
func (d *DB) ActionCount(userID string, kind domain.ActionKind) (int, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT count FROM action_counts WHERE user_id = ? AND kind = ?`,
		userID, string(kind),
	).Scan(&count)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	return count, err
}
