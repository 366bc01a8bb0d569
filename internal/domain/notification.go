package domain

import "time"

// NotificationType categorizes engine notifications.
type NotificationType string

const (
	NotifyMilestone NotificationType = "milestone"
	NotifyReferral  NotificationType = "referral"
	NotifyReward    NotificationType = "reward"
	NotifyPromo     NotificationType = "promo"
	NotifyChallenge NotificationType = "challenge"
	NotifyCredit    NotificationType = "credit"
)

// Notification is a user-facing message emitted by the engine. The
// engine only produces these; delivery, ordering, and retry belong to
// the sink.
type Notification struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Body      string           `json:"body"`
	Link      string           `json:"link,omitempty"`
	CreatedAt time.Time        `json:"created_at"`
	Shown     bool             `json:"shown"`
}

// Notifier receives engine notifications. Emission is fire-and-forget:
// implementations must never cause a state transition to roll back, so
// the interface surfaces no error.
type Notifier interface {
	Notify(n Notification)
}

// NopNotifier discards all notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(Notification) {}
