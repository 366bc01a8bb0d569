package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Referrals ──────────────────────────────────────────────────────────────

// InsertReferral stores a freshly generated invitation. Returns false
// on a code collision (primary-key conflict) so the caller can retry
// with a new code.
func (d *DB) InsertReferral(r domain.Referral) (bool, error) {
	res, err := d.db.Exec(
		`INSERT OR IGNORE INTO referrals (code, referrer_id, status, created_at)
		 VALUES (?, ?, ?, ?)`,
		r.Code, r.ReferrerID, string(r.Status), r.CreatedAt.Unix(),
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// GetReferral retrieves a referral by code, or nil if unknown.
func (d *DB) GetReferral(code string) (*domain.Referral, error) {
	row := d.db.QueryRow(
		`SELECT code, referrer_id, invited_user_id, status, signup_reward_given,
			hire_reward_given, created_at, signed_up_at, hired_at
		 FROM referrals WHERE code = ?`, code,
	)
	r, err := scanReferral(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// CountReferrals returns how many invitation codes a referrer has
// generated, used against the tier cap.
func (d *DB) CountReferrals(referrerID string) (int, error) {
	var count int
	err := d.db.QueryRow(
		`SELECT COUNT(*) FROM referrals WHERE referrer_id = ?`, referrerID,
	).Scan(&count)
	return count, err
}

// ListReferrals returns a referrer's invitations, newest first.
func (d *DB) ListReferrals(referrerID string) ([]domain.Referral, error) {
	rows, err := d.db.Query(
		`SELECT code, referrer_id, invited_user_id, status, signup_reward_given,
			hire_reward_given, created_at, signed_up_at, hired_at
		 FROM referrals WHERE referrer_id = ? ORDER BY created_at DESC`, referrerID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var refs []domain.Referral
	for rows.Next() {
		r, err := scanReferral(rows)
		if err != nil {
			return nil, err
		}
		refs = append(refs, r)
	}
	return refs, rows.Err()
}

// ClaimSignup binds an invited user to a code, exactly once. The
// invited_user_id IS NULL guard makes a second redemption of the same
// code fail regardless of interleaving.
func (d *DB) ClaimSignup(code, invitedUserID string, now time.Time) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE referrals SET
			invited_user_id = ?, status = ?, signup_reward_given = 1, signed_up_at = ?
		 WHERE code = ? AND invited_user_id IS NULL`,
		invitedUserID, string(domain.ReferralSignedUp), now.Unix(), code,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// FindHireEligible returns the referral that would pay out a first-hire
// reward for this user, or nil if none remains.
func (d *DB) FindHireEligible(invitedUserID string) (*domain.Referral, error) {
	row := d.db.QueryRow(
		`SELECT code, referrer_id, invited_user_id, status, signup_reward_given,
			hire_reward_given, created_at, signed_up_at, hired_at
		 FROM referrals
		 WHERE invited_user_id = ? AND signup_reward_given = 1 AND hire_reward_given = 0`,
		invitedUserID,
	)
	r, err := scanReferral(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &r, nil
}

// ClaimFirstHire flips the one-shot hire reward flag. The
// hire_reward_given = 0 guard makes duplicate deliveries converge to a
// no-op.
func (d *DB) ClaimFirstHire(code string, now time.Time) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE referrals SET status = ?, hire_reward_given = 1, hired_at = ?
		 WHERE code = ? AND signup_reward_given = 1 AND hire_reward_given = 0`,
		string(domain.ReferralBotHired), now.Unix(), code,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

func scanReferral(s scanner) (domain.Referral, error) {
	var r domain.Referral
	var invited sql.NullString
	var status string
	var createdAt int64
	var signedUpAt, hiredAt sql.NullInt64
	err := s.Scan(&r.Code, &r.ReferrerID, &invited, &status,
		&r.SignupRewardGiven, &r.HireRewardGiven, &createdAt, &signedUpAt, &hiredAt)
	if err != nil {
		return r, err
	}
	if invited.Valid {
		r.InvitedUserID = invited.String
	}
	r.Status = domain.ReferralStatus(status)
	r.CreatedAt = time.Unix(createdAt, 0).UTC()
	r.SignedUpAt = nullTime(signedUpAt)
	r.HiredAt = nullTime(hiredAt)
	return r, nil
}
