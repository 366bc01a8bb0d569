package domain

import (
	"errors"
	"fmt"
)

// ─── Sentinel Errors ────────────────────────────────────────────────────────
// Domain errors are pure — no infrastructure dependency. Precondition
// failures are expected, user-facing outcomes; integrity failures are
// rare and propagate as generic server errors.

var (
	// Precondition failures
	ErrInsufficientCredits = errors.New("insufficient power-up credits")
	ErrNoSpinsRemaining    = errors.New("no spins remaining today")
	ErrReferralLimit       = errors.New("referral limit reached for tier")
	ErrCodeInvalid         = errors.New("referral code not found")
	ErrCodeAlreadyUsed     = errors.New("referral code already redeemed")
	ErrSelfReferral        = errors.New("cannot redeem your own referral code")
	ErrPromoInvalid        = errors.New("promo code not found")
	ErrPromoExpired        = errors.New("promo code expired or exhausted")
	ErrPromoAlreadyUsed    = errors.New("promo code already redeemed by this user")
	ErrUnknownPowerUp      = errors.New("unknown power-up kind")
	ErrUnknownAction       = errors.New("unknown action kind")

	// Integrity failures
	ErrAccountNotFound = errors.New("account not found")
	ErrCodeExhausted   = errors.New("referral code generation exhausted retry budget")
)

// InsufficientCreditsError carries the balance that caused a consume
// or purchase to fail. It matches ErrInsufficientCredits under
// errors.Is so callers can branch without unpacking.
type InsufficientCreditsError struct {
	Remaining int
	Total     int
}

func (e *InsufficientCreditsError) Error() string {
	return fmt.Sprintf("insufficient power-up credits: %d of %d remaining", e.Remaining, e.Total)
}

func (e *InsufficientCreditsError) Is(target error) bool {
	return target == ErrInsufficientCredits
}
