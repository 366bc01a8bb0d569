package sqlite

import (
	"database/sql"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Accounts ───────────────────────────────────────────────────────────────

// EnsureAccount creates the account row on first access (Free tier)
// and returns the current state.
func (d *DB) EnsureAccount(userID string, now time.Time) (domain.Account, error) {
	_, err := d.db.Exec(
		`INSERT OR IGNORE INTO accounts (user_id, base_tier, created_at) VALUES (?, ?, ?)`,
		userID, int(domain.TierFree), now.Unix(),
	)
	if err != nil {
		return domain.Account{}, err
	}
	return d.GetAccount(userID)
}

// GetAccount retrieves an account. Returns ErrAccountNotFound if it
// was never provisioned.
func (d *DB) GetAccount(userID string) (domain.Account, error) {
	row := d.db.QueryRow(
		`SELECT user_id, base_tier, promo_tier, promo_expires_at, welcome_bonus_given, created_at
		 FROM accounts WHERE user_id = ?`, userID,
	)

	var a domain.Account
	var baseTier, promoTier int
	var promoExpires sql.NullInt64
	var createdAt int64
	err := row.Scan(&a.UserID, &baseTier, &promoTier, &promoExpires, &a.WelcomeBonusGiven, &createdAt)
	if err == sql.ErrNoRows {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	if err != nil {
		return domain.Account{}, err
	}

	a.BaseTier = domain.Tier(baseTier)
	a.PromoTier = domain.Tier(promoTier)
	if promoExpires.Valid {
		a.PromoExpiresAt = time.Unix(promoExpires.Int64, 0).UTC()
	}
	a.CreatedAt = time.Unix(createdAt, 0).UTC()
	return a, nil
}

// SetBaseTier updates the subscription tier. Called only on confirmed
// payment events.
func (d *DB) SetBaseTier(userID string, tier domain.Tier) error {
	res, err := d.db.Exec(
		`UPDATE accounts SET base_tier = ? WHERE user_id = ?`, int(tier), userID,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// ClaimWelcomeBonus flips the one-shot welcome bonus flag. Returns
// false if the bonus was already claimed — callers must not grant
// anything in that case.
func (d *DB) ClaimWelcomeBonus(userID string) (bool, error) {
	res, err := d.db.Exec(
		`UPDATE accounts SET welcome_bonus_given = 1
		 WHERE user_id = ? AND welcome_bonus_given = 0`, userID,
	)
	if err != nil {
		return false, err
	}
	n, _ := res.RowsAffected()
	return n > 0, nil
}

// ─── Promo Codes ────────────────────────────────────────────────────────────

// UpsertPromoCode creates or replaces a promo code definition.
func (d *DB) UpsertPromoCode(p domain.PromoCode) error {
	var expires sql.NullInt64
	if !p.ExpiresAt.IsZero() {
		expires = sql.NullInt64{Int64: p.ExpiresAt.Unix(), Valid: true}
	}
	_, err := d.db.Exec(
		`INSERT INTO promo_codes (code, tier, duration_days, max_uses, uses, expires_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(code) DO UPDATE SET
			tier=excluded.tier,
			duration_days=excluded.duration_days,
			max_uses=excluded.max_uses,
			expires_at=excluded.expires_at`,
		p.Code, int(p.Tier), p.DurationDays, p.MaxUses, p.Uses, expires,
	)
	return err
}

// GetPromoCode retrieves a promo code definition, or nil if unknown.
func (d *DB) GetPromoCode(code string) (*domain.PromoCode, error) {
	row := d.db.QueryRow(
		`SELECT code, tier, duration_days, max_uses, uses, expires_at
		 FROM promo_codes WHERE code = ?`, code,
	)

	var p domain.PromoCode
	var tier int
	var expires sql.NullInt64
	err := row.Scan(&p.Code, &tier, &p.DurationDays, &p.MaxUses, &p.Uses, &expires)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Tier = domain.Tier(tier)
	if expires.Valid {
		p.ExpiresAt = time.Unix(expires.Int64, 0).UTC()
	}
	return &p, nil
}

// RedeemPromoCode applies a promo redemption atomically: it records
// the (code, user) pair, bumps the use counter under its cap, and sets
// the account's promo fields. Returns ErrPromoAlreadyUsed if this user
// redeemed the code before, ErrPromoExpired if the use cap is reached.
func (d *DB) RedeemPromoCode(code, userID string, tier domain.Tier, expiresAt time.Time, now time.Time) error {
	tx, err := d.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		`INSERT OR IGNORE INTO promo_redemptions (code, user_id, redeemed_at) VALUES (?, ?, ?)`,
		code, userID, now.Unix(),
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPromoAlreadyUsed
	}

	res, err = tx.Exec(
		`UPDATE promo_codes SET uses = uses + 1
		 WHERE code = ? AND (max_uses = 0 OR uses < max_uses)`, code,
	)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrPromoExpired
	}

	if _, err := tx.Exec(
		`UPDATE accounts SET promo_tier = ?, promo_expires_at = ? WHERE user_id = ?`,
		int(tier), expiresAt.Unix(), userID,
	); err != nil {
		return err
	}

	return tx.Commit()
}
