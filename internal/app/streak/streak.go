// Package streak implements the daily check-in state machine:
// continuation, break, freeze protection, and milestone bonuses. The
// transition itself is pure (domain.ApplyCheckIn); this service adds
// persistence with an optimistic guard on the previous check-in day.
package streak

import (
	"fmt"
	"time"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Service manages streak state. The ledger service is its one
// composition point, used for freeze purchases.
type Service struct {
	db       *sqlite.DB
	ledger   *powerup.Service
	notifier domain.Notifier
}

// NewService creates a streak service.
func NewService(db *sqlite.DB, ledger *powerup.Service, notifier domain.Notifier) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	return &Service{db: db, ledger: ledger, notifier: notifier}
}

// Current returns the user's streak state, provisioning it on first
// access.
func (s *Service) Current(userID string) (domain.Streak, error) {
	return s.db.EnsureStreak(userID)
}

// CheckIn applies a daily check-in. Checking in twice on the same day
// is a success-shaped no-op. The commit is guarded by the previous
// last-check-in day, so two concurrent requests cannot both increment;
// the loser re-reads and reports AlreadyCheckedIn.
func (s *Service) CheckIn(userID string, now time.Time) (domain.CheckInResult, error) {
	for attempt := 0; attempt < 2; attempt++ {
		prev, err := s.db.EnsureStreak(userID)
		if err != nil {
			return domain.CheckInResult{}, fmt.Errorf("load streak: %w", err)
		}

		res := domain.ApplyCheckIn(prev, now)
		if res.AlreadyCheckedIn {
			return res, nil
		}

		ok, err := s.db.CommitCheckIn(userID, prev, res.Streak)
		if err != nil {
			return domain.CheckInResult{}, fmt.Errorf("commit check-in: %w", err)
		}
		if !ok {
			continue // lost the race — re-read and re-decide
		}

		metrics.CheckIns.Inc()
		if res.FreezeConsumed {
			metrics.FreezesConsumed.Inc()
		}
		if res.MilestoneBonus > 0 {
			metrics.Milestones.WithLabelValues(fmt.Sprint(res.Streak.Current)).Inc()
			s.notifier.Notify(domain.Notification{
				UserID: userID,
				Type:   domain.NotifyMilestone,
				Title:  fmt.Sprintf("%d-day streak!", res.Streak.Current),
				Body: fmt.Sprintf("You reached a %d-day streak and earned %d points.",
					res.Streak.Current, res.MilestoneBonus),
				Link:      "/streak",
				CreatedAt: now,
			})
		}
		return res, nil
	}

	// Both attempts lost the guard: someone else checked in today.
	cur, err := s.db.GetStreak(userID)
	if err != nil {
		return domain.CheckInResult{}, err
	}
	return domain.CheckInResult{AlreadyCheckedIn: true, Streak: cur}, nil
}

// BuyFreeze purchases streak freezes at domain.FreezeCost credits each.
// The ledger debit and the freeze credit commit together or not at
// all.
func (s *Service) BuyFreeze(userID string, quantity int, now time.Time) (domain.Streak, domain.Ledger, error) {
	if quantity <= 0 {
		return domain.Streak{}, domain.Ledger{}, fmt.Errorf("freeze quantity must be positive, got %d", quantity)
	}

	if _, err := s.db.EnsureStreak(userID); err != nil {
		return domain.Streak{}, domain.Ledger{}, err
	}
	ledger, err := s.ledger.Ledger(userID, now) // provisions and resets lazily
	if err != nil {
		return domain.Streak{}, domain.Ledger{}, err
	}

	cost := domain.FreezeCost * quantity
	if ledger.Remaining() < cost {
		return domain.Streak{}, domain.Ledger{}, &domain.InsufficientCreditsError{
			Remaining: ledger.Remaining(),
			Total:     ledger.Allowance,
		}
	}

	ok, err := s.db.PurchaseFreezes(userID, quantity, cost)
	if err != nil {
		return domain.Streak{}, domain.Ledger{}, fmt.Errorf("purchase freezes: %w", err)
	}
	if !ok {
		// Balance moved between the check and the debit.
		ledger, _ = s.db.GetLedger(userID)
		return domain.Streak{}, domain.Ledger{}, &domain.InsufficientCreditsError{
			Remaining: ledger.Remaining(),
			Total:     ledger.Allowance,
		}
	}

	streak, err := s.db.GetStreak(userID)
	if err != nil {
		return domain.Streak{}, domain.Ledger{}, err
	}
	ledger, err = s.db.GetLedger(userID)
	if err != nil {
		return domain.Streak{}, domain.Ledger{}, err
	}
	return streak, ledger, nil
}

// AddPoints credits reward points (wheel prizes, referral bonuses).
func (s *Service) AddPoints(userID string, points int) error {
	if _, err := s.db.EnsureStreak(userID); err != nil {
		return err
	}
	return s.db.AddStreakPoints(userID, points)
}

// AddFreezes credits freezes outside the purchase path (wheel prize).
func (s *Service) AddFreezes(userID string, n int) error {
	if _, err := s.db.EnsureStreak(userID); err != nil {
		return err
	}
	return s.db.AddStreakFreezes(userID, n)
}
