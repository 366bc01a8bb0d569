package reward

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/app/streak"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// wheelTable is the 8-segment daily wheel: credit amounts, point
// amounts, and a rare freeze prize. Order matters for the draw.
var wheelTable = []Weighted[domain.Prize]{
	{Outcome: domain.Prize{Kind: domain.PrizeCredits, Amount: 1, Label: "1 credit"}, Weight: 30},
	{Outcome: domain.Prize{Kind: domain.PrizePoints, Amount: 25, Label: "25 points"}, Weight: 20},
	{Outcome: domain.Prize{Kind: domain.PrizeCredits, Amount: 2, Label: "2 credits"}, Weight: 16},
	{Outcome: domain.Prize{Kind: domain.PrizePoints, Amount: 50, Label: "50 points"}, Weight: 12},
	{Outcome: domain.Prize{Kind: domain.PrizeCredits, Amount: 5, Label: "5 credits"}, Weight: 9},
	{Outcome: domain.Prize{Kind: domain.PrizePoints, Amount: 100, Label: "100 points"}, Weight: 6},
	{Outcome: domain.Prize{Kind: domain.PrizeCredits, Amount: 10, Label: "10 credits"}, Weight: 4},
	{Outcome: domain.Prize{Kind: domain.PrizeFreeze, Amount: 1, Label: "streak freeze"}, Weight: 3},
}

// Wheel runs the daily prize wheel.
type Wheel struct {
	db       *sqlite.DB
	ledger   *powerup.Service
	streaks  *streak.Service
	notifier domain.Notifier

	mu  sync.Mutex
	rng *rand.Rand
}

// NewWheel creates the wheel service. A nil rng gets a time-seeded
// source.
func NewWheel(db *sqlite.DB, ledger *powerup.Service, streaks *streak.Service, notifier domain.Notifier, rng *rand.Rand) *Wheel {
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Wheel{db: db, ledger: ledger, streaks: streaks, notifier: notifier, rng: rng}
}

// State returns today's wheel budget, rolling it over on the first
// access of the day. The budget is snapshotted here — completing the
// challenge later today does not retroactively add a spin.
func (w *Wheel) State(userID string, now time.Time) (domain.SpinState, error) {
	st, err := w.db.GetSpinState(userID, domain.GameWheel)
	if err != nil {
		return domain.SpinState{}, err
	}
	if !domain.DailyDue(st.LastResetAt, now) {
		return st, nil
	}

	strk, err := w.streaks.Current(userID)
	if err != nil {
		return domain.SpinState{}, fmt.Errorf("load streak: %w", err)
	}
	ch, err := w.db.GetChallenge(userID, domain.DayKey(now))
	if err != nil {
		return domain.SpinState{}, fmt.Errorf("load challenge: %w", err)
	}

	total := domain.WheelBudget(strk.Current, ch != nil && ch.Completed)
	if err := w.db.ResetSpinState(userID, domain.GameWheel, total, now); err != nil {
		return domain.SpinState{}, fmt.Errorf("reset wheel budget: %w", err)
	}
	return w.db.GetSpinState(userID, domain.GameWheel)
}

// Spin consumes one spin and pays out the drawn prize. No spins
// remaining is a reportable precondition failure.
func (w *Wheel) Spin(userID string, now time.Time) (domain.Prize, domain.SpinState, error) {
	if _, err := w.State(userID, now); err != nil {
		return domain.Prize{}, domain.SpinState{}, err
	}

	ok, err := w.db.ConsumeSpin(userID, domain.GameWheel)
	if err != nil {
		return domain.Prize{}, domain.SpinState{}, fmt.Errorf("consume spin: %w", err)
	}
	if !ok {
		metrics.SpinsDenied.WithLabelValues(string(domain.GameWheel)).Inc()
		return domain.Prize{}, domain.SpinState{}, domain.ErrNoSpinsRemaining
	}
	metrics.Spins.WithLabelValues(string(domain.GameWheel)).Inc()

	w.mu.Lock()
	prize := Draw(wheelTable, w.rng)
	w.mu.Unlock()

	if err := w.payout(userID, prize, now); err != nil {
		return domain.Prize{}, domain.SpinState{}, err
	}

	w.notifier.Notify(domain.Notification{
		UserID:    userID,
		Type:      domain.NotifyReward,
		Title:     "Daily wheel",
		Body:      fmt.Sprintf("You won %s!", prize.Label),
		Link:      "/wheel",
		CreatedAt: now,
	})

	st, err := w.db.GetSpinState(userID, domain.GameWheel)
	if err != nil {
		return domain.Prize{}, domain.SpinState{}, err
	}
	return prize, st, nil
}

func (w *Wheel) payout(userID string, prize domain.Prize, now time.Time) error {
	switch prize.Kind {
	case domain.PrizeCredits:
		_, err := w.ledger.Grant(userID, prize.Amount, "wheel", now)
		return err
	case domain.PrizePoints:
		return w.streaks.AddPoints(userID, prize.Amount)
	case domain.PrizeFreeze:
		return w.streaks.AddFreezes(userID, prize.Amount)
	default:
		return fmt.Errorf("unknown prize kind %q", prize.Kind)
	}
}

// Table exposes the wheel segments for display.
func (w *Wheel) Table() []domain.Prize {
	prizes := make([]domain.Prize, len(wheelTable))
	for i, e := range wheelTable {
		prizes[i] = e.Outcome
	}
	return prizes
}
