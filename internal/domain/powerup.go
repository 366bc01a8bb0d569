package domain

import "time"

// PowerUpKind identifies a per-conversation bot capability that costs
// one credit to unlock.
type PowerUpKind string

const (
	PowerTurbo  PowerUpKind = "turbo"  // faster model for this conversation
	PowerVision PowerUpKind = "vision" // image understanding
	PowerVoice  PowerUpKind = "voice"  // speech output
	PowerMemory PowerUpKind = "memory" // long-term conversation memory
)

// ValidPowerUpKind reports whether k names a known power-up.
func ValidPowerUpKind(k PowerUpKind) bool {
	switch k {
	case PowerTurbo, PowerVision, PowerVoice, PowerMemory:
		return true
	}
	return false
}

// Ledger is a user's power-up credit balance. Used never exceeds
// Allowance in steady state; a due reset clamps Used to 0 before any
// new consumption is allowed.
type Ledger struct {
	UserID    string    `json:"user_id"`
	Allowance int       `json:"allowance"`
	Used      int       `json:"used"`
	ResetAt   time.Time `json:"reset_at"` // zero = no scheduled reset
}

// Remaining returns the spendable credit count.
func (l Ledger) Remaining() int {
	if r := l.Allowance - l.Used; r > 0 {
		return r
	}
	return 0
}

// Activation records that a power-up has been paid for in a
// conversation. Its presence makes any further use of the same kind in
// that conversation free.
type Activation struct {
	ConversationID string      `json:"conversation_id"`
	Kind           PowerUpKind `json:"kind"`
	UserID         string      `json:"user_id"`
	CreatedAt      time.Time   `json:"created_at"`
}

// ConsumeResult reports the outcome of a power-up activation.
// AlreadyActive means the scope was unlocked earlier and no credit was
// charged this time.
type ConsumeResult struct {
	AlreadyActive bool `json:"already_active"`
	Remaining     int  `json:"remaining"`
}
