package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Power-Up Ledger ────────────────────────────────────────────────────────

// EnsureLedger creates the ledger row on first access with the given
// allowance and reset schedule, then returns the current state.
func (d *DB) EnsureLedger(userID string, allowance int, resetAt time.Time) (domain.Ledger, error) {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO power_up_ledgers (user_id, allowance, used, reset_at)
		 VALUES (?, ?, 0, ?)`,
		userID, allowance, resetAt.Unix(),
	)
	if err != nil {
		return domain.Ledger{}, err
	}
	return d.GetLedger(userID)
}

// GetLedger retrieves a user's ledger. A missing row reads as a zero
// ledger for that user.
func (d *DB) GetLedger(userID string) (domain.Ledger, error) {
	row := d.db.QueryRow(
		`SELECT user_id, allowance, used, reset_at FROM power_up_ledgers WHERE user_id = ?`,
		userID,
	)

	var l domain.Ledger
	var resetAt sql.NullInt64
	err := row.Scan(&l.UserID, &l.Allowance, &l.Used, &resetAt)
	if err == sql.ErrNoRows {
		return domain.Ledger{UserID: userID}, nil
	}
	if err != nil {
		return domain.Ledger{}, err
	}
	l.ResetAt = nullTime(resetAt)
	return l, nil
}

// ResetLedgerIfDue zeroes the used counter and re-anchors the reset
// timestamp, but only if the scheduled reset has actually passed. The
// condition lives in the statement so concurrent callers cannot both
// apply it.
func (d *DB) ResetLedgerIfDue(userID string, now, nextReset time.Time) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE power_up_ledgers SET used = 0, reset_at = ?
		 WHERE user_id = ? AND reset_at IS NOT NULL AND reset_at < ?`,
		nextReset.Unix(), userID, now.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ConsumePowerUp charges one credit for a (conversation, kind) scope.
// The activation check runs before the balance check: an already
// unlocked power-up is free even on a drained balance. The whole
// sequence is one transaction.
func (d *DB) ConsumePowerUp(userID, conversationID string, kind domain.PowerUpKind, now time.Time) (domain.ConsumeResult, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return domain.ConsumeResult{}, err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRow(
		`SELECT COUNT(*) FROM conversation_power_ups WHERE conversation_id = ? AND kind = ?`,
		conversationID, string(kind),
	).Scan(&exists)
	if err != nil {
		return domain.ConsumeResult{}, err
	}

	var allowance, used int
	err = tx.QueryRow(
		`SELECT allowance, used FROM power_up_ledgers WHERE user_id = ?`, userID,
	).Scan(&allowance, &used)
	if err != nil && err != sql.ErrNoRows {
		return domain.ConsumeResult{}, err
	}

	if exists > 0 {
		// Already paid for in this conversation — no charge.
		if err := tx.Commit(); err != nil {
			return domain.ConsumeResult{}, err
		}
		return domain.ConsumeResult{AlreadyActive: true, Remaining: max(allowance-used, 0)}, nil
	}

	res, err := tx.Exec(
		`UPDATE power_up_ledgers SET used = used + 1 WHERE user_id = ? AND used < allowance`,
		userID,
	)
	if err != nil {
		return domain.ConsumeResult{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ConsumeResult{}, &domain.InsufficientCreditsError{Remaining: 0, Total: allowance}
	}

	if _, err := tx.Exec(
		`INSERT INTO conversation_power_ups (conversation_id, kind, user_id, created_at)
		 VALUES (?, ?, ?, ?)`,
		conversationID, string(kind), userID, now.Unix(),
	); err != nil {
		return domain.ConsumeResult{}, err
	}

	if err := tx.Commit(); err != nil {
		return domain.ConsumeResult{}, err
	}
	return domain.ConsumeResult{Remaining: allowance - used - 1}, nil
}

// GrantAllowance adds credits to (or, with a negative amount, removes
// credits from) a user's allowance. The used counter is untouched.
func (d *DB) GrantAllowance(userID string, amount int) error {
	_, err := d.db.Exec(
		`UPDATE power_up_ledgers SET allowance = allowance + ? WHERE user_id = ?`,
		amount, userID,
	)
	return err
}

// ListActivations returns a user's paid power-up scopes, newest first.
func (d *DB) ListActivations(userID string, limit int) ([]domain.Activation, error) {
	rows, err := d.db.Query(
		`SELECT conversation_id, kind, user_id, created_at
		 FROM conversation_power_ups WHERE user_id = ?
		 ORDER BY created_at DESC LIMIT ?`, userID, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var acts []domain.Activation
	for rows.Next() {
		var a domain.Activation
		var kind string
		var createdAt int64
		if err := rows.Scan(&a.ConversationID, &kind, &a.UserID, &createdAt); err != nil {
			return nil, err
		}
		a.Kind = domain.PowerUpKind(kind)
		a.CreatedAt = time.Unix(createdAt, 0).UTC()
		acts = append(acts, a)
	}
	return acts, rows.Err()
}

// PurchaseFreezes debits the ledger and credits streak freezes in one
// transaction — both commit or neither. Returns false when the balance
// cannot cover the cost.
func (d *DB) PurchaseFreezes(userID string, quantity, cost int) (bool, error) {
	tx, err := d.db.Begin()
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`UPDATE power_up_ledgers SET used = used + ?
		 WHERE user_id = ? AND allowance - used >= ?`,
		cost, userID, cost,
	)
	if err != nil {
		return false, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return false, nil
	}

	if _, err := tx.Exec(
		`UPDATE streaks SET freezes = freezes + ? WHERE user_id = ?`,
		quantity, userID,
	); err != nil {
		return false, err
	}

	if err := tx.Commit(); err != nil {
		return false, err
	}
	return true, nil
}
