package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/robotrecruit/rewards/internal/domain"
)

// ─── Account & Promotions ───────────────────────────────────────────────────

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	now := s.now()

	account, err := s.Entitlements.Account(uid, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	tier := account.EffectiveTier(now)

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":        account,
		"effective_tier": tier.String(),
		"referral_cap":   tier.ReferralCap(),
	})
}

type setTierRequest struct {
	Tier int `json:"tier"`
}

// handleSetTier is the payment-confirmation hook. The engine trusts
// the caller; authentication of the payment collaborator is the
// gateway's job.
func (s *Server) handleSetTier(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req setTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Entitlements.SetBaseTier(uid, domain.Tier(req.Tier), s.now()); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type redeemPromoRequest struct {
	Code string `json:"code"`
}

func (s *Server) handleRedeemPromo(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req redeemPromoRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	account, err := s.Entitlements.RedeemPromo(uid, req.Code, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"account":        account,
		"effective_tier": account.EffectiveTier(now).String(),
	})
}

// ─── Power-Up Ledger ────────────────────────────────────────────────────────

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	ledger, err := s.PowerUps.Ledger(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ledger":    ledger,
		"remaining": ledger.Remaining(),
	})
}

type activateRequest struct {
	ConversationID string `json:"conversation_id"`
	Kind           string `json:"kind"`
}

func (s *Server) handleActivatePowerUp(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req activateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.ConversationID == "" {
		writeError(w, http.StatusBadRequest, "conversation_id is required")
		return
	}

	res, err := s.PowerUps.Consume(uid, req.ConversationID, domain.PowerUpKind(req.Kind), s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type grantRequest struct {
	Amount int    `json:"amount"`
	Source string `json:"source"`
}

// handleGrantCredits is the internal credit-adjustment surface used by
// payment confirmation and support tooling.
func (s *Server) handleGrantCredits(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req grantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be non-zero")
		return
	}
	if req.Source == "" {
		req.Source = "manual"
	}

	now := s.now()
	ledger, err := s.PowerUps.Grant(uid, req.Amount, req.Source, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if req.Amount > 0 {
		s.Notifications.Notify(domain.Notification{
			UserID:    uid,
			Type:      domain.NotifyCredit,
			Title:     "Credits added",
			Body:      "+" + strconv.Itoa(req.Amount) + " power-up credits were added to your account.",
			Link:      "/powerups",
			CreatedAt: now,
		})
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"ledger":    ledger,
		"remaining": ledger.Remaining(),
	})
}

func (s *Server) handleActivations(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	activations, err := s.PowerUps.Activations(uid, queryLimit(r, 50))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"activations": activations,
	})
}

// ─── Streaks ────────────────────────────────────────────────────────────────

func (s *Server) handleStreak(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	streak, err := s.Streaks.Current(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, streak)
}

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	res, err := s.Streaks.CheckIn(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

type buyFreezeRequest struct {
	Quantity int `json:"quantity"`
}

func (s *Server) handleBuyFreeze(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	req := buyFreezeRequest{Quantity: 1}
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Quantity <= 0 {
		writeError(w, http.StatusBadRequest, "quantity must be positive")
		return
	}

	streak, ledger, err := s.Streaks.BuyFreeze(uid, req.Quantity, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"streak": streak,
		"ledger": ledger,
	})
}

// ─── Referrals ──────────────────────────────────────────────────────────────

func (s *Server) handleListReferrals(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	refs, err := s.Referrals.List(uid)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	type referralView struct {
		domain.Referral
		Label string `json:"label"`
	}
	out := make([]referralView, len(refs))
	for i, ref := range refs {
		out[i] = referralView{Referral: ref, Label: ref.Status.ReportingLabel()}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"referrals": out,
	})
}

func (s *Server) handleGenerateReferral(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	ref, err := s.Referrals.Generate(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, ref)
}

type redeemReferralRequest struct {
	Code string `json:"code"`
}

// handleRedeemReferral is called by the signup flow for the newly
// registered user.
func (s *Server) handleRedeemReferral(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req redeemReferralRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	if err := s.Referrals.RedeemOnSignup(req.Code, uid, s.now()); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ─── Daily Wheel ────────────────────────────────────────────────────────────

func (s *Server) handleWheelState(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	st, err := s.Wheel.State(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state":  st,
		"left":   st.Remaining(),
		"prizes": s.Wheel.Table(),
	})
}

func (s *Server) handleWheelSpin(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	prize, st, err := s.Wheel.Spin(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prize": prize,
		"left":  st.Remaining(),
	})
}

// ─── Slot Game ──────────────────────────────────────────────────────────────

func (s *Server) handleSlotState(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	st, err := s.Slots.State(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"state": st,
		"left":  st.Remaining(),
	})
}

func (s *Server) handleSlotSpin(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	res, err := s.Slots.Spin(r.Context(), uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSlotLeaderboard(w http.ResponseWriter, r *http.Request) {
	entries, err := s.Slots.Top(r.Context(), s.now(), queryLimit(r, 10))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}

// ─── Challenges & Actions ───────────────────────────────────────────────────

func (s *Server) handleChallenge(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	ch, err := s.Challenges.Today(uid, s.now())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"challenge": ch,
		"target":    ch.Requirement.Target(),
	})
}

type recordActionRequest struct {
	Kind string `json:"kind"`
}

// handleRecordAction is the platform's engagement hook. A hire action
// additionally resolves any referral waiting on the user's first hire.
func (s *Server) handleRecordAction(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}
	var req recordActionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	now := s.now()
	kind := domain.ActionKind(req.Kind)
	count, err := s.Challenges.RecordAction(uid, kind, now)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	if kind == domain.ActionHireBot {
		s.Referrals.RedeemOnFirstHire(uid, now)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"kind":  kind,
		"count": count,
	})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	notifications, err := s.Notifications.Pending(uid, queryLimit(r, 50))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"notifications": notifications,
	})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	uid := userID(w, r)
	if uid == "" {
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.Notifications.MarkShown(id); err != nil {
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
}

// queryLimit parses ?limit=N with a fallback.
func queryLimit(r *http.Request, fallback int) int {
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}
