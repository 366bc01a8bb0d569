// Package notify is the engine's notification sink adapter. The engine
// emits (user, type, title, body, link) tuples; this service appends
// them to the delivery log. Emission is fire-and-forget: a failed
// insert is logged and swallowed so it can never roll back the state
// transition that triggered it.
package notify

import (
	"time"

	"github.com/sirupsen/logrus"

	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/metrics"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

// Service persists notifications for the delivery layer to pick up.
type Service struct {
	db  *sqlite.DB
	log *logrus.Logger
	now func() time.Time
}

// NewService creates a notification service.
func NewService(db *sqlite.DB, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Service{db: db, log: log, now: time.Now}
}

// Notify appends a notification. Implements domain.Notifier.
func (s *Service) Notify(n domain.Notification) {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = s.now()
	}
	if _, err := s.db.InsertNotification(n); err != nil {
		s.log.WithFields(logrus.Fields{
			"user": n.UserID,
			"type": n.Type,
		}).WithError(err).Warn("notification dropped")
		return
	}
	metrics.Notifications.WithLabelValues(string(n.Type)).Inc()
}

// Pending returns a user's recent notifications.
func (s *Service) Pending(userID string, limit int) ([]domain.Notification, error) {
	return s.db.ListNotifications(userID, limit)
}

// MarkShown marks a notification as delivered.
func (s *Service) MarkShown(id int64) error {
	return s.db.MarkNotificationShown(id)
}
