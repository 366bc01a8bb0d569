package reward

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/leaderboard"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Reel symbols and their jackpot scores. Rarer symbols pay more.
var slotReel = []Weighted[domain.SlotSymbol]{
	{Outcome: "bolt", Weight: 28},
	{Outcome: "gear", Weight: 26},
	{Outcome: "chip", Weight: 20},
	{Outcome: "gem", Weight: 14},
	{Outcome: "crown", Weight: 12},
}

var jackpotScores = map[domain.SlotSymbol]int{
	"bolt":  100,
	"gear":  100,
	"chip":  150,
	"gem":   250,
	"crown": 500,
}

// consolationScore is awarded when nothing matches.
const consolationScore = 5

// SlotBoard is the leaderboard namespace for daily slot sessions.
const SlotBoard = "slots"

// Slots runs the daily slot game: a fixed 10-spin budget, three
// independent reel draws per spin, and a cumulative session score that
// is submitted to the leaderboard only by the final spin of the day.
type Slots struct {
	db       *sqlite.DB
	board    leaderboard.Board
	notifier domain.Notifier
	log      *logrus.Logger

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSlots creates the slot-game service.
func NewSlots(db *sqlite.DB, board leaderboard.Board, notifier domain.Notifier, log *logrus.Logger, rng *rand.Rand) *Slots {
	if board == nil {
		board = leaderboard.Nop{}
	}
	if notifier == nil {
		notifier = domain.NopNotifier{}
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Slots{db: db, board: board, notifier: notifier, log: log, rng: rng}
}

// State returns today's slot budget, rolling it (and the session
// score) over on the first access of the day.
func (s *Slots) State(userID string, now time.Time) (domain.SpinState, error) {
	st, err := s.db.GetSpinState(userID, domain.GameSlots)
	if err != nil {
		return domain.SpinState{}, err
	}
	if !domain.DailyDue(st.LastResetAt, now) {
		return st, nil
	}
	if err := s.db.ResetSpinState(userID, domain.GameSlots, domain.SlotSpinsPerDay, now); err != nil {
		return domain.SpinState{}, fmt.Errorf("reset slot budget: %w", err)
	}
	return s.db.GetSpinState(userID, domain.GameSlots)
}

// Spin plays one slot round. Three-of-a-kind pays the symbol's jackpot
// score, two-of-a-kind a fifth of it, anything else the consolation
// score. The final spin of the day submits the cumulative session
// total to the leaderboard; submission failure never rolls the spin
// back.
func (s *Slots) Spin(ctx context.Context, userID string, now time.Time) (domain.SlotResult, error) {
	if _, err := s.State(userID, now); err != nil {
		return domain.SlotResult{}, err
	}

	ok, err := s.db.ConsumeSpin(userID, domain.GameSlots)
	if err != nil {
		return domain.SlotResult{}, fmt.Errorf("consume spin: %w", err)
	}
	if !ok {
		metrics.SpinsDenied.WithLabelValues(string(domain.GameSlots)).Inc()
		return domain.SlotResult{}, domain.ErrNoSpinsRemaining
	}
	metrics.Spins.WithLabelValues(string(domain.GameSlots)).Inc()

	s.mu.Lock()
	symbols := [3]domain.SlotSymbol{
		Draw(slotReel, s.rng),
		Draw(slotReel, s.rng),
		Draw(slotReel, s.rng),
	}
	s.mu.Unlock()

	res := score(symbols)
	res.SessionScore, err = s.db.AddSessionScore(userID, domain.GameSlots, res.Score)
	if err != nil {
		return domain.SlotResult{}, fmt.Errorf("add session score: %w", err)
	}

	st, err := s.db.GetSpinState(userID, domain.GameSlots)
	if err != nil {
		return domain.SlotResult{}, err
	}
	res.SpinsLeft = st.Remaining()

	if res.SpinsLeft == 0 {
		boardKey := SlotBoard + ":" + domain.DayKey(now)
		if err := s.board.Submit(ctx, boardKey, userID, res.SessionScore); err != nil {
			s.log.WithError(err).WithField("user", userID).Warn("leaderboard submit failed")
		} else {
			res.Submitted = true
		}
	}

	if res.Tier == domain.SlotJackpot {
		s.notifier.Notify(domain.Notification{
			UserID:    userID,
			Type:      domain.NotifyReward,
			Title:     "Jackpot!",
			Body:      fmt.Sprintf("Three %ss — %d points on the board!", symbols[0], res.Score),
			Link:      "/slots",
			CreatedAt: now,
		})
	}

	return res, nil
}

// Top returns today's top slot sessions.
func (s *Slots) Top(ctx context.Context, now time.Time, n int) ([]leaderboard.Entry, error) {
	return s.board.Top(ctx, SlotBoard+":"+domain.DayKey(now), n)
}

// score classifies three drawn symbols into a payout tier.
func score(symbols [3]domain.SlotSymbol) domain.SlotResult {
	res := domain.SlotResult{Symbols: symbols}

	switch {
	case symbols[0] == symbols[1] && symbols[1] == symbols[2]:
		res.Tier = domain.SlotJackpot
		res.Score = jackpotScores[symbols[0]]
	case symbols[0] == symbols[1] || symbols[1] == symbols[2] || symbols[0] == symbols[2]:
		res.Tier = domain.SlotMatch
		res.Score = jackpotScores[matchedSymbol(symbols)] / 5
	default:
		res.Tier = domain.SlotConsolation
		res.Score = consolationScore
	}
	return res
}

func matchedSymbol(symbols [3]domain.SlotSymbol) domain.SlotSymbol {
	if symbols[0] == symbols[1] || symbols[0] == symbols[2] {
		return symbols[0]
	}
	return symbols[1]
}
