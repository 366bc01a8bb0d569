// Package api provides the HTTP server for the rewards engine.
// It exposes the engine's operations as a REST API for the platform
// frontend and internal collaborators.
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/robotrecruit/rewards/internal/app/challenge"
	"github.com/robotrecruit/rewards/internal/app/entitlement"
	"github.com/robotrecruit/rewards/internal/app/notify"
	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/app/referral"
	"github.com/robotrecruit/rewards/internal/app/reward"
	"github.com/robotrecruit/rewards/internal/app/streak"
	"github.com/robotrecruit/rewards/internal/domain"
)

// Server is the rewards HTTP API server.
type Server struct {
	Entitlements  *entitlement.Service
	PowerUps      *powerup.Service
	Streaks       *streak.Service
	Referrals     *referral.Service
	Wheel         *reward.Wheel
	Slots         *reward.Slots
	Challenges    *challenge.Service
	Notifications *notify.Service

	metricsEnabled bool
	now            func() time.Time
}

// NewServer creates a new API server over the given services.
func NewServer(
	ents *entitlement.Service,
	powerups *powerup.Service,
	streaks *streak.Service,
	referrals *referral.Service,
	wheel *reward.Wheel,
	slots *reward.Slots,
	challenges *challenge.Service,
	notifications *notify.Service,
) *Server {
	return &Server{
		Entitlements:  ents,
		PowerUps:      powerups,
		Streaks:       streaks,
		Referrals:     referrals,
		Wheel:         wheel,
		Slots:         slots,
		Challenges:    challenges,
		Notifications: notifications,
		now:           time.Now,
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetClock overrides the server's clock. Tests only.
func (s *Server) SetClock(now func() time.Time) { s.now = now }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(corsMiddleware)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"status": "ok",
		})
	})

	r.Route("/api", func(r chi.Router) {
		r.Get("/account", s.handleAccount)
		r.Post("/account/tier", s.handleSetTier)
		r.Post("/promo/redeem", s.handleRedeemPromo)

		r.Get("/powerups", s.handleLedger)
		r.Post("/powerups/activate", s.handleActivatePowerUp)
		r.Post("/powerups/grant", s.handleGrantCredits)
		r.Get("/powerups/activations", s.handleActivations)

		r.Get("/streak", s.handleStreak)
		r.Post("/streak/checkin", s.handleCheckIn)
		r.Post("/streak/freezes", s.handleBuyFreeze)

		r.Get("/referrals", s.handleListReferrals)
		r.Post("/referrals", s.handleGenerateReferral)
		r.Post("/referrals/redeem", s.handleRedeemReferral)

		r.Get("/wheel", s.handleWheelState)
		r.Post("/wheel/spin", s.handleWheelSpin)

		r.Get("/slots", s.handleSlotState)
		r.Post("/slots/spin", s.handleSlotSpin)
		r.Get("/slots/leaderboard", s.handleSlotLeaderboard)

		r.Get("/challenge", s.handleChallenge)
		r.Post("/actions", s.handleRecordAction)

		r.Get("/notifications", s.handleNotifications)
		r.Post("/notifications/{id}/shown", s.handleNotificationShown)
	})

	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	return r
}

// userID extracts the caller identity set by the platform's session
// layer. Writes a 401 and returns "" when the header is missing.
func userID(w http.ResponseWriter, r *http.Request) string {
	id := r.Header.Get("X-User-ID")
	if id == "" {
		writeError(w, http.StatusUnauthorized, "missing X-User-ID header")
	}
	return id
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}

// writeDomainError maps engine errors onto HTTP statuses. Precondition
// failures are client-visible outcomes; everything else is a server
// error.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInsufficientCredits),
		errors.Is(err, domain.ErrNoSpinsRemaining),
		errors.Is(err, domain.ErrReferralLimit):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrCodeAlreadyUsed),
		errors.Is(err, domain.ErrPromoAlreadyUsed):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, domain.ErrCodeInvalid),
		errors.Is(err, domain.ErrPromoInvalid):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrSelfReferral),
		errors.Is(err, domain.ErrPromoExpired),
		errors.Is(err, domain.ErrUnknownPowerUp),
		errors.Is(err, domain.ErrUnknownAction):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

// corsMiddleware adds CORS headers for local development.
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
