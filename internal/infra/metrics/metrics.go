// Package metrics provides Prometheus metrics for the rewards engine:
// counters and gauges for check-ins, power-up consumption, spins,
// referrals, and notifications.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Streaks ────────────────────────────────────────────────────────────────

// CheckIns tracks applied daily check-ins (idempotent repeats excluded).
var CheckIns = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "checkins_total",
	Help:      "Total applied daily check-ins.",
})

// Milestones tracks streak milestone bonuses by streak length.
var Milestones = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "streak_milestones_total",
	Help:      "Total streak milestone bonuses awarded.",
}, []string{"streak"})

// FreezesConsumed tracks automatic freeze consumption on check-in.
var FreezesConsumed = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "streak_freezes_consumed_total",
	Help:      "Total streak freezes consumed to protect a streak.",
})

// ─── Power-Ups ──────────────────────────────────────────────────────────────

// PowerUpsConsumed tracks charged power-up activations by kind.
var PowerUpsConsumed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "powerups_consumed_total",
	Help:      "Total power-up credits charged.",
}, []string{"kind"})

// PowerUpsDenied tracks consume attempts rejected for lack of credits.
var PowerUpsDenied = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "powerups_denied_total",
	Help:      "Total power-up activations denied for insufficient credits.",
})

// CreditsGranted tracks allowance credits granted by source.
var CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "credits_granted_total",
	Help:      "Total power-up credits granted.",
}, []string{"source"})

// ─── Games ──────────────────────────────────────────────────────────────────

// Spins tracks spins played per game.
var Spins = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "spins_total",
	Help:      "Total spins played.",
}, []string{"game"})

// SpinsDenied tracks spin attempts with an exhausted daily budget.
var SpinsDenied = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "spins_denied_total",
	Help:      "Total spins denied with no budget remaining.",
}, []string{"game"})

// ─── Referrals ──────────────────────────────────────────────────────────────

// ReferralTransitions tracks funnel transitions by stage.
var ReferralTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "referral_transitions_total",
	Help:      "Total referral funnel transitions.",
}, []string{"stage"})

// ─── Promotions ─────────────────────────────────────────────────────────────

// PromoRedemptions tracks successful promo-code redemptions.
var PromoRedemptions = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "promo_redemptions_total",
	Help:      "Total successful promo-code redemptions.",
})

// ─── Notifications ──────────────────────────────────────────────────────────

// Notifications tracks emitted notifications by type.
var Notifications = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "rewards",
	Name:      "notifications_total",
	Help:      "Total notifications emitted.",
}, []string{"type"})
