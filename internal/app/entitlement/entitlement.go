// Package entitlement resolves a user's effective subscription tier
// and handles promo-code redemption. Tier resolution itself is pure
// (domain.Account.EffectiveTier); this service adds the account and
// promo-code persistence around it.
package entitlement

import (
	"fmt"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Service manages accounts and promotions.
type Service struct {
	db       *sqlite.DB
	notifier domain.Notifier
}

// NewService creates an entitlement service.
func NewService(db *sqlite.DB, notifier domain.Notifier) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Service{db: db, notifier: notifier}
}

// Account returns the user's account, provisioning it on first access.
func (s *Service) Account(userID string, now time.Time) (domain.Account, error) {
	return s.db.EnsureAccount(userID, now)
}

// EffectiveTier resolves the tier the user is entitled to right now.
func (s *Service) EffectiveTier(userID string, now time.Time) (domain.Tier, error) {
	account, err := s.db.EnsureAccount(userID, now)
	if err != nil {
		return 0, err
	}
	return account.EffectiveTier(now), nil
}

// SetBaseTier mutates the subscription tier. Only the payment
// confirmation collaborator calls this; the engine trusts it.
func (s *Service) SetBaseTier(userID string, tier domain.Tier, now time.Time) error {
	if !tier.Valid() {
		return fmt.Errorf("invalid tier %d", tier)
	}
	if _, err := s.db.EnsureAccount(userID, now); err != nil {
		return err
	}
	return s.db.SetBaseTier(userID, tier)
}

// RedeemPromo applies a promo code to the user's account. Unknown
// codes fail with ErrPromoInvalid; expired or exhausted codes with
// ErrPromoExpired; a second redemption by the same user with
// ErrPromoAlreadyUsed. The promotion only ever raises the effective
// tier — redeeming a code below the base tier succeeds but is inert.
func (s *Service) RedeemPromo(userID, code string, now time.Time) (domain.Account, error) {
	if _, err := s.db.EnsureAccount(userID, now); err != nil {
		return domain.Account{}, err
	}

	promo, err := s.db.GetPromoCode(code)
	if err != nil {
		return domain.Account{}, fmt.Errorf("load promo code: %w", err)
	}
	if promo == nil {
		return domain.Account{}, domain.ErrPromoInvalid
	}
	if !promo.Redeemable(now) {
		return domain.Account{}, domain.ErrPromoExpired
	}

	expiresAt := now.AddDate(0, 0, promo.DurationDays)
	if err := s.db.RedeemPromoCode(code, userID, promo.Tier, expiresAt, now); err != nil {
		return domain.Account{}, err
	}
	metrics.PromoRedemptions.Inc()

	s.notifier.Notify(domain.Notification{
		UserID: userID,
		Type:   domain.NotifyPromo,
		Title:  "Promotion activated",
		Body: fmt.Sprintf("Your account is boosted to %s until %s.",
			promo.Tier, expiresAt.UTC().Format("Jan 2, 2006")),
		Link:      "/account",
		CreatedAt: now,
	})

	return s.db.GetAccount(userID)
}

// CreatePromoCode registers a promo code definition (admin surface).
func (s *Service) CreatePromoCode(p domain.PromoCode) error {
	if !p.Tier.Valid() {
		return fmt.Errorf("invalid promo tier %d", p.Tier)
	}
	if p.DurationDays <= 0 {
		return fmt.Errorf("promo duration must be positive, got %d", p.DurationDays)
	}
	return s.db.UpsertPromoCode(p)
}
