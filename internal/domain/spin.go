package domain

import "time"

// SpinGame distinguishes the two daily reward games. They share the
// budget shape but keep separate counters.
type SpinGame string

const (
	GameWheel SpinGame = "wheel"
	GameSlots SpinGame = "slots"
)

// SpinState is a user's per-game daily spin budget. Total is computed
// once at the first access of the day and stays fixed even if the
// bonus-granting conditions change later that day.
type SpinState struct {
	UserID       string    `json:"user_id"`
	Game         SpinGame  `json:"game"`
	Used         int       `json:"spins_used"`
	Total        int       `json:"spins_total"`
	LastResetAt  time.Time `json:"last_reset_at"`
	SessionScore int       `json:"session_score"` // slots only: running daily total
}

// Remaining returns how many spins are left today.
func (s SpinState) Remaining() int {
	if r := s.Total - s.Used; r > 0 {
		return r
	}
	return 0
}

// SlotSpinsPerDay is the fixed daily slot-game budget.
const SlotSpinsPerDay = 10

// WheelBudget computes the daily wheel budget snapshot:
// one base spin, +1 for an active streak of 7 or more days, +1 if
// today's challenge is already completed at snapshot time.
func WheelBudget(streakDays int, challengeDone bool) int {
	total := 1
	if streakDays >= 7 {
		total++
	}
	if challengeDone {
		total++
	}
	return total
}

// PrizeKind categorizes what a wheel segment pays out.
type PrizeKind string

const (
	PrizeCredits PrizeKind = "credits"
	PrizePoints  PrizeKind = "points"
	PrizeFreeze  PrizeKind = "freeze"
)

// Prize is a wheel outcome.
type Prize struct {
	Kind   PrizeKind `json:"kind"`
	Amount int       `json:"amount"`
	Label  string    `json:"label"`
}

// SlotSymbol is one reel symbol.
type SlotSymbol string

// SlotTier classifies a slot spin by how many symbols matched.
type SlotTier string

const (
	SlotJackpot     SlotTier = "jackpot"     // three of a kind
	SlotMatch       SlotTier = "match"       // two of a kind
	SlotConsolation SlotTier = "consolation" // no match
)

// SlotResult is the outcome of one slot spin.
type SlotResult struct {
	Symbols      [3]SlotSymbol `json:"symbols"`
	Tier         SlotTier      `json:"tier"`
	Score        int           `json:"score"`
	SessionScore int           `json:"session_score"`
	SpinsLeft    int           `json:"spins_left"`
	Submitted    bool          `json:"submitted"` // final spin posted session score
}
