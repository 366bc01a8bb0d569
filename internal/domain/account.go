// Package domain holds the pure types of the entitlement and rewards
// engine: accounts, power-up ledgers, streaks, referrals, spin budgets,
// challenges, and notifications. Nothing in this package touches
// storage or the clock — every time-dependent rule takes `now`
// explicitly so the engine stays deterministic under test.
package domain

import "time"

// Tier is a subscription tier. Higher is better.
type Tier int

const (
	TierFree    Tier = 1
	TierPro     Tier = 2
	TierPremium Tier = 3
)

// String returns the human-readable tier name.
func (t Tier) String() string {
	switch t {
	case TierFree:
		return "free"
	case TierPro:
		return "pro"
	case TierPremium:
		return "premium"
	default:
		return "unknown"
	}
}

// Valid reports whether t is one of the defined tiers.
func (t Tier) Valid() bool {
	return t >= TierFree && t <= TierPremium
}

// ReferralCap returns the maximum number of outstanding referral codes
// for the tier. -1 means unbounded.
func (t Tier) ReferralCap() int {
	switch t {
	case TierFree:
		return 2
	case TierPro:
		return 5
	default:
		return -1
	}
}

// MonthlyPowerUps returns the tier's monthly power-up allowance, used
// when a ledger is first provisioned.
func (t Tier) MonthlyPowerUps() int {
	switch t {
	case TierPro:
		return 50
	case TierPremium:
		return 150
	default:
		return 5
	}
}

// Account is a user's subscription identity. BaseTier is mutated only
// by confirmed payments; the promo fields are set by promo-code
// redemption and simply ignored once expired — never cleared.
type Account struct {
	UserID            string    `json:"user_id"`
	BaseTier          Tier      `json:"base_tier"`
	PromoTier         Tier      `json:"promo_tier,omitempty"`       // 0 = no promotion
	PromoExpiresAt    time.Time `json:"promo_expires_at,omitempty"` // zero = no promotion
	WelcomeBonusGiven bool      `json:"welcome_bonus_given"`
	CreatedAt         time.Time `json:"created_at"`
}

// EffectiveTier resolves the tier the account is entitled to right now.
// A promotion only ever raises the effective tier: an expired promo, or
// one at or below the base tier, is irrelevant but harmless.
func (a Account) EffectiveTier(now time.Time) Tier {
	if a.PromoTier > a.BaseTier && a.PromoExpiresAt.After(now) {
		return a.PromoTier
	}
	return a.BaseTier
}

// PromoCode is a redeemable tier promotion. MaxUses = 0 means
// unlimited redemptions.
type PromoCode struct {
	Code         string    `json:"code"`
	Tier         Tier      `json:"tier"`
	DurationDays int       `json:"duration_days"`
	MaxUses      int       `json:"max_uses"`
	Uses         int       `json:"uses"`
	ExpiresAt    time.Time `json:"expires_at"` // zero = code never expires
}

// Redeemable reports whether the code itself can still be redeemed.
// Per-user double redemption is enforced separately.
func (p PromoCode) Redeemable(now time.Time) bool {
	if !p.ExpiresAt.IsZero() && !p.ExpiresAt.After(now) {
		return false
	}
	return p.MaxUses == 0 || p.Uses < p.MaxUses
}
