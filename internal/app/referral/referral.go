// Package referral implements the invitation funnel: code generation
// under a tier cap, the signup redemption, and the one-shot first-hire
// reward. Every transition is one-directional and every reward flag
// flips at most once, so duplicate deliveries converge to no-ops.
package referral

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Reward amounts. Referrer points ride on notifications only; credit
// rewards go through the ledger.
const (
	WelcomeBonusCredits = 10 // invited user, on signup
	SignupRewardPoints  = 50 // referrer, notification-only
	HireRewardCredits   = 15 // referrer, on invited user's first hire
	HireBonusCredits    = 5  // invited user, on their first hire
)

// codeAttempts bounds collision retries during generation. Exhaustion
// is treated as an integrity failure.
const codeAttempts = 5

// Service manages the referral funnel.
type Service struct {
	db       *sqlite.DB
	ledger   *powerup.Service
	notifier domain.Notifier
	log      *logrus.Logger
}

// NewService creates a referral service.
func NewService(db *sqlite.DB, ledger *powerup.Service, notifier domain.Notifier, log *logrus.Logger) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: db, ledger: ledger, notifier: notifier, log: log}
}

// Generate creates a new invitation code for the referrer, enforcing
// the effective-tier cap (2 for Free, 5 for Pro, unbounded for
// Premium).
func (s *Service) Generate(referrerID string, now time.Time) (domain.Referral, error) {
	account, err := s.db.EnsureAccount(referrerID, now)
	if err != nil {
		return domain.Referral{}, fmt.Errorf("ensure account: %w", err)
	}

	if limit := account.EffectiveTier(now).ReferralCap(); limit >= 0 {
		count, err := s.db.CountReferrals(referrerID)
		if err != nil {
			return domain.Referral{}, fmt.Errorf("count referrals: %w", err)
		}
		if count >= limit {
			return domain.Referral{}, domain.ErrReferralLimit
		}
	}

	for attempt := 0; attempt < codeAttempts; attempt++ {
		code, err := newCode()
		if err != nil {
			return domain.Referral{}, fmt.Errorf("generate code: %w", err)
		}
		ref := domain.Referral{
			Code:       code,
			ReferrerID: referrerID,
			Status:     domain.ReferralPending,
			CreatedAt:  now,
		}
		ok, err := s.db.InsertReferral(ref)
		if err != nil {
			return domain.Referral{}, fmt.Errorf("insert referral: %w", err)
		}
		if ok {
			metrics.ReferralTransitions.WithLabelValues(string(domain.ReferralPending)).Inc()
			return ref, nil
		}
		// Collision — retry with a fresh code.
	}
	return domain.Referral{}, domain.ErrCodeExhausted
}

// RedeemOnSignup binds a new user to an invitation code. Fails with
// ErrCodeInvalid for unknown codes and ErrCodeAlreadyUsed once any
// user has redeemed it. On success the referrer gets a point
// notification and the new user gets the one-shot welcome bonus.
func (s *Service) RedeemOnSignup(code, newUserID string, now time.Time) error {
	ref, err := s.db.GetReferral(code)
	if err != nil {
		return fmt.Errorf("load referral: %w", err)
	}
	if ref == nil {
		return domain.ErrCodeInvalid
	}
	if ref.ReferrerID == newUserID {
		return domain.ErrSelfReferral
	}

	if _, err := s.db.EnsureAccount(newUserID, now); err != nil {
		return fmt.Errorf("ensure account: %w", err)
	}

	ok, err := s.db.ClaimSignup(code, newUserID, now)
	if err != nil {
		return fmt.Errorf("claim signup: %w", err)
	}
	if !ok {
		return domain.ErrCodeAlreadyUsed
	}
	metrics.ReferralTransitions.WithLabelValues(string(domain.ReferralSignedUp)).Inc()

	s.notifier.Notify(domain.Notification{
		UserID: ref.ReferrerID,
		Type:   domain.NotifyReferral,
		Title:  "Your invite was accepted",
		Body:   fmt.Sprintf("Someone joined with your code %s — +%d points!", code, SignupRewardPoints),
		Link:   "/referrals",
	})

	// Welcome bonus is gated by the account's one-shot flag so a user
	// can never claim it twice, even via request retries.
	claimed, err := s.db.ClaimWelcomeBonus(newUserID)
	if err != nil {
		return fmt.Errorf("claim welcome bonus: %w", err)
	}
	if claimed {
		if _, err := s.ledger.Grant(newUserID, WelcomeBonusCredits, "welcome_bonus", now); err != nil {
			return fmt.Errorf("grant welcome bonus: %w", err)
		}
	}
	return nil
}

// RedeemOnFirstHire pays out the hire-stage reward once the invited
// user hires their first bot. Fire-and-forget: nothing is surfaced to
// the caller, duplicate calls find no eligible row, and a user who
// already had bots before the referral resolved never triggers it
// (hire count must be exactly 1 at call time).
func (s *Service) RedeemOnFirstHire(userID string, now time.Time) {
	hires, err := s.db.ActionCount(userID, domain.ActionHireBot)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("first-hire reward: count lookup failed")
		return
	}
	if hires != 1 {
		return
	}

	ref, err := s.db.FindHireEligible(userID)
	if err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("first-hire reward: lookup failed")
		return
	}
	if ref == nil {
		return
	}

	ok, err := s.db.ClaimFirstHire(ref.Code, now)
	if err != nil {
		s.log.WithError(err).WithField("code", ref.Code).Warn("first-hire reward: claim failed")
		return
	}
	if !ok {
		return // another delivery won the flag
	}
	metrics.ReferralTransitions.WithLabelValues(string(domain.ReferralBotHired)).Inc()

	if _, err := s.ledger.Grant(ref.ReferrerID, HireRewardCredits, "referral_hire", now); err != nil {
		s.log.WithError(err).WithField("user", ref.ReferrerID).Warn("first-hire reward: referrer grant failed")
	}
	if _, err := s.ledger.Grant(userID, HireBonusCredits, "referral_hire", now); err != nil {
		s.log.WithError(err).WithField("user", userID).Warn("first-hire reward: invitee grant failed")
	}

	s.notifier.Notify(domain.Notification{
		UserID: ref.ReferrerID,
		Type:   domain.NotifyReferral,
		Title:  "Referral completed",
		Body: fmt.Sprintf("Your invitee hired their first bot — +%d power-up credits!",
			HireRewardCredits),
		Link: "/referrals",
	})
}

// List returns a referrer's invitations.
func (s *Service) List(referrerID string) ([]domain.Referral, error) {
	return s.db.ListReferrals(referrerID)
}

// newCode draws 8 symbols from the unambiguous 32-symbol alphabet
// using crypto/rand.
func newCode() (string, error) {
	buf := make([]byte, domain.ReferralCodeLength)
	alphabetLen := big.NewInt(int64(len(domain.ReferralCodeAlphabet)))
	for i := range buf {
		n, err := rand.Int(rand.Reader, alphabetLen)
		if err != nil {
			return "", err
		}
		buf[i] = domain.ReferralCodeAlphabet[n.Int64()]
	}
	return string(buf), nil
}
