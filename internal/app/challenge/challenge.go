// Package challenge tracks daily challenges. The platform reports
// engagement actions through RecordAction; the engine draws one
// challenge per user per UTC day from a template pool, advances its
// progress, and pays out the completion reward exactly once.
package challenge

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// template binds a requirement to its completion reward.
type template struct {
	req     domain.Requirement
	credits int
}

// templatePool is the set of possible daily challenges.
var templatePool = []template{
	{req: domain.ChatWithBots{Count: 3}, credits: 2},
	{req: domain.ChatWithBots{Count: 10}, credits: 5},
	{req: domain.HireBots{Count: 1}, credits: 3},
	{req: domain.ForumPosts{Count: 1}, credits: 2},
	{req: domain.ForumPosts{Count: 3}, credits: 4},
	{req: domain.UploadFiles{Count: 1}, credits: 2},
	{req: domain.UploadFiles{Count: 3}, credits: 4},
}

// Service tracks actions and daily challenges.
type Service struct {
	db       *sqlite.DB
	ledger   *powerup.Service
	notifier domain.Notifier

	mu  sync.Mutex
	rng *rand.Rand
}

// NewService creates a challenge service. A nil rng gets a time-seeded
// source.
func NewService(db *sqlite.DB, ledger *powerup.Service, notifier domain.Notifier, rng *rand.Rand) *Service {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{db: db, ledger: ledger, notifier: notifier, rng: rng}
}

// Today returns the user's challenge for the current UTC day, drawing
// one from the pool on first access. Concurrent first accesses race on
// an INSERT OR IGNORE, so exactly one draw wins.
func (s *Service) Today(userID string, now time.Time) (domain.Challenge, error) {
	day := domain.DayKey(now)

	existing, err := s.db.GetChallenge(userID, day)
	if err != nil {
		return domain.Challenge{}, err
	}
	if existing != nil {
		return *existing, nil
	}

	s.mu.Lock()
	tmpl := templatePool[s.rng.Intn(len(templatePool))]
	s.mu.Unlock()

	c := domain.Challenge{
		UserID:        userID,
		Day:           day,
		Requirement:   tmpl.req,
		RewardCredits: tmpl.credits,
		CreatedAt:     now,
	}
	if _, err := s.db.InsertChallenge(c); err != nil {
		return domain.Challenge{}, fmt.Errorf("insert challenge: %w", err)
	}

	stored, err := s.db.GetChallenge(userID, day)
	if err != nil {
		return domain.Challenge{}, err
	}
	return *stored, nil
}

// RecordAction registers one engagement action: it bumps the user's
// lifetime counter for the kind, advances today's challenge if the
// requirement matches, and pays out the completion reward once.
// Returns the new lifetime count for the kind.
func (s *Service) RecordAction(userID string, kind domain.ActionKind, now time.Time) (int, error) {
	if !domain.ValidActionKind(kind) {
		return 0, domain.ErrUnknownAction
	}

	count, err := s.db.IncrementAction(userID, kind)
	if err != nil {
		return 0, fmt.Errorf("increment action: %w", err)
	}

	ch, err := s.Today(userID, now)
	if err != nil {
		return count, err
	}
	if ch.Completed || ch.Requirement.Action() != kind {
		return count, nil
	}

	day := domain.DayKey(now)
	if err := s.db.AdvanceChallenge(userID, day, kind, 1); err != nil {
		return count, fmt.Errorf("advance challenge: %w", err)
	}

	// CompleteChallenge only fires when progress has reached the
	// target and the one-shot flag is still clear.
	done, err := s.db.CompleteChallenge(userID, day)
	if err != nil {
		return count, fmt.Errorf("complete challenge: %w", err)
	}
	if done {
		if _, err := s.ledger.Grant(userID, ch.RewardCredits, "challenge", now); err != nil {
			return count, fmt.Errorf("grant challenge reward: %w", err)
		}
		s.notifier.Notify(domain.Notification{
			UserID:    userID,
			Type:      domain.NotifyChallenge,
			Title:     "Challenge complete",
			Body:      fmt.Sprintf("%s — done! +%d power-up credits.", ch.Description, ch.RewardCredits),
			Link:      "/challenges",
			CreatedAt: now,
		})
	}

	return count, nil
}
