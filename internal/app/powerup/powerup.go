// Package powerup implements the power-up credit ledger: a monthly
// allowance, a used counter, and idempotent per-conversation
// activation. Resets are lazy — every ledger-touching operation runs
// ResetIfDue first; there is no background timer.
package powerup

import (
	"errors"
	"fmt"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Service manages power-up ledgers.
type Service struct {
	db *sqlite.DB
}

// NewService creates a ledger service.
func NewService(db *sqlite.DB) *Service {
	return &Service{db: db}
}

// Ledger returns the user's ledger after lazily provisioning it and
// applying any due monthly reset.
func (s *Service) Ledger(userID string, now time.Time) (domain.Ledger, error) {
	account, err := s.db.EnsureAccount(userID, now)
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ensure account: %w", err)
	}

	allowance := account.EffectiveTier(now).MonthlyPowerUps()
	ledger, err := s.db.EnsureLedger(userID, allowance, domain.NextMonthly(now))
	if err != nil {
		return domain.Ledger{}, fmt.Errorf("ensure ledger: %w", err)
	}

	return s.resetIfDue(ledger, now)
}

// resetIfDue applies the rolling monthly reset: used drops to 0 and
// the next reset is anchored to the call time, not the original cycle
// date.
func (s *Service) resetIfDue(ledger domain.Ledger, now time.Time) (domain.Ledger, error) {
	if !domain.MonthlyDue(ledger.ResetAt, now) {
		return ledger, nil
	}
	if _, err := s.db.ResetLedgerIfDue(ledger.UserID, now, domain.NextMonthly(now)); err != nil {
		return domain.Ledger{}, fmt.Errorf("reset ledger: %w", err)
	}
	return s.db.GetLedger(ledger.UserID)
}

// Consume charges one credit for a (conversation, kind) scope,
// idempotently. A scope that was already paid for succeeds without a
// charge even on a drained balance. Insufficient credits is a normal,
// reportable outcome.
func (s *Service) Consume(userID, conversationID string, kind domain.PowerUpKind, now time.Time) (domain.ConsumeResult, error) {
	if !domain.ValidPowerUpKind(kind) {
		return domain.ConsumeResult{}, domain.ErrUnknownPowerUp
	}
	if _, err := s.Ledger(userID, now); err != nil {
		return domain.ConsumeResult{}, err
	}

	res, err := s.db.ConsumePowerUp(userID, conversationID, kind, now)
	if err != nil {
		if errors.Is(err, domain.ErrInsufficientCredits) {
			metrics.PowerUpsDenied.Inc()
		}
		return domain.ConsumeResult{}, err
	}

	if !res.AlreadyActive {
		metrics.PowerUpsConsumed.WithLabelValues(string(kind)).Inc()
	}
	return res, nil
}

// Grant adds amount credits to the user's allowance (negative amounts
// debit it). Used by payment confirmation, referral rewards, and the
// admin credit tool. Neither field is reset.
func (s *Service) Grant(userID string, amount int, source string, now time.Time) (domain.Ledger, error) {
	if _, err := s.Ledger(userID, now); err != nil {
		return domain.Ledger{}, err
	}
	if err := s.db.GrantAllowance(userID, amount); err != nil {
		return domain.Ledger{}, fmt.Errorf("grant allowance: %w", err)
	}
	if amount > 0 {
		metrics.CreditsGranted.WithLabelValues(source).Add(float64(amount))
	}
	return s.db.GetLedger(userID)
}

// Activations lists the user's paid power-up scopes.
func (s *Service) Activations(userID string, limit int) ([]domain.Activation, error) {
	return s.db.ListActivations(userID, limit)
}

