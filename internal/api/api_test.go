package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/robotrecruit/rewards/internal/app/challenge"
	"github.com/robotrecruit/rewards/internal/app/entitlement"
	"github.com/robotrecruit/rewards/internal/app/notify"
	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/app/referral"
	"github.com/robotrecruit/rewards/internal/app/reward"
	"github.com/robotrecruit/rewards/internal/app/streak"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/leaderboard"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	notifications := notify.NewService(db, nil)
	powerups := powerup.NewService(db)
	ents := entitlement.NewService(db, notifications)
	streaks := streak.NewService(db, powerups, notifications)
	referrals := referral.NewService(db, powerups, notifications, nil)
	challenges := challenge.NewService(db, powerups, notifications, nil)
	wheel := reward.NewWheel(db, powerups, streaks, notifications, nil)
	slots := reward.NewSlots(db, leaderboard.NewMemory(), notifications, nil, nil)

	srv := NewServer(ents, powerups, streaks, referrals, wheel, slots, challenges, notifications)
	srv.SetClock(func() time.Time { return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC) })
	return srv
}

func do(t *testing.T, srv *Server, method, path, user, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if user != "" {
		req.Header.Set("X-User-ID", user)
	}
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

// ─── Health & Identity ──────────────────────────────────────────────────────

func TestAPI_Health(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "GET", "/health", "", "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
}

func TestAPI_MissingUserID(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "GET", "/api/account", "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// ─── Account ────────────────────────────────────────────────────────────────

func TestAPI_Account(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "GET", "/api/account", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}

	var body struct {
		EffectiveTier string `json:"effective_tier"`
		ReferralCap   int    `json:"referral_cap"`
	}
	decode(t, w, &body)
	if body.EffectiveTier != "free" {
		t.Errorf("effective_tier = %q, want free", body.EffectiveTier)
	}
	if body.ReferralCap != 2 {
		t.Errorf("referral_cap = %d, want 2", body.ReferralCap)
	}
}

func TestAPI_SetTierThenAccount(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/account/tier", "alice", `{"tier":3}`)
	if w.Code != http.StatusOK {
		t.Fatalf("set tier status = %d, body %s", w.Code, w.Body)
	}

	w = do(t, srv, "GET", "/api/account", "alice", "")
	var body struct {
		EffectiveTier string `json:"effective_tier"`
	}
	decode(t, w, &body)
	if body.EffectiveTier != "premium" {
		t.Errorf("effective_tier = %q, want premium", body.EffectiveTier)
	}
}

// ─── Power-Ups ──────────────────────────────────────────────────────────────

func TestAPI_PowerUpActivate(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/powerups/activate", "alice",
		`{"conversation_id":"c1","kind":"turbo"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var res domain.ConsumeResult
	decode(t, w, &res)
	if res.AlreadyActive || res.Remaining != 4 {
		t.Errorf("result = %+v, want fresh charge leaving 4", res)
	}

	// Same scope again: no charge.
	w = do(t, srv, "POST", "/api/powerups/activate", "alice",
		`{"conversation_id":"c1","kind":"turbo"}`)
	decode(t, w, &res)
	if !res.AlreadyActive || res.Remaining != 4 {
		t.Errorf("repeat = %+v, want already_active with 4 left", res)
	}
}

func TestAPI_PowerUpExhaustion(t *testing.T) {
	srv := newTestServer(t)

	for i := 0; i < 5; i++ {
		w := do(t, srv, "POST", "/api/powerups/activate", "alice",
			fmt.Sprintf(`{"conversation_id":"c%d","kind":"turbo"}`, i))
		if w.Code != http.StatusOK {
			t.Fatalf("activation %d status = %d", i, w.Code)
		}
	}

	w := do(t, srv, "POST", "/api/powerups/activate", "alice",
		`{"conversation_id":"c99","kind":"turbo"}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAPI_PowerUpBadRequests(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/powerups/activate", "alice",
		`{"conversation_id":"c1","kind":"jetpack"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", w.Code)
	}

	w = do(t, srv, "POST", "/api/powerups/activate", "alice", `{"kind":"turbo"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing conversation status = %d, want 400", w.Code)
	}
}

func TestAPI_GrantCredits(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/powerups/grant", "alice", `{"amount":20,"source":"support"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var body struct {
		Remaining int `json:"remaining"`
	}
	decode(t, w, &body)
	if body.Remaining != 25 {
		t.Errorf("remaining = %d, want 25", body.Remaining)
	}

	// The grant leaves a notification behind.
	w = do(t, srv, "GET", "/api/notifications", "alice", "")
	var notifs struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	decode(t, w, &notifs)
	if len(notifs.Notifications) != 1 || notifs.Notifications[0].Type != domain.NotifyCredit {
		t.Errorf("notifications = %+v, want one credit notice", notifs.Notifications)
	}
}

// ─── Streak ─────────────────────────────────────────────────────────────────

func TestAPI_StreakCheckIn(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/streak/checkin", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var res domain.CheckInResult
	decode(t, w, &res)
	if res.Streak.Current != 1 {
		t.Errorf("Current = %d, want 1", res.Streak.Current)
	}

	// Same day again: success-shaped no-op.
	w = do(t, srv, "POST", "/api/streak/checkin", "alice", "")
	decode(t, w, &res)
	if !res.AlreadyCheckedIn {
		t.Error("second check-in not reported as duplicate")
	}
}

func TestAPI_BuyFreezeInsufficient(t *testing.T) {
	srv := newTestServer(t)

	// Two freezes cost 10; a free account has 5 credits.
	w := do(t, srv, "POST", "/api/streak/freezes", "alice", `{"quantity":2}`)
	if w.Code != http.StatusForbidden {
		t.Errorf("status = %d, want %d", w.Code, http.StatusForbidden)
	}

	w = do(t, srv, "POST", "/api/streak/freezes", "alice", `{"quantity":1}`)
	if w.Code != http.StatusOK {
		t.Fatalf("affordable purchase status = %d, body %s", w.Code, w.Body)
	}
}

// ─── Referrals ──────────────────────────────────────────────────────────────

func TestAPI_ReferralFlow(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/referrals", "alice", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("generate status = %d, body %s", w.Code, w.Body)
	}
	var ref domain.Referral
	decode(t, w, &ref)

	w = do(t, srv, "POST", "/api/referrals/redeem", "bob",
		fmt.Sprintf(`{"code":%q}`, ref.Code))
	if w.Code != http.StatusOK {
		t.Fatalf("redeem status = %d, body %s", w.Code, w.Body)
	}

	// Second redemption conflicts.
	w = do(t, srv, "POST", "/api/referrals/redeem", "carol",
		fmt.Sprintf(`{"code":%q}`, ref.Code))
	if w.Code != http.StatusConflict {
		t.Errorf("reused code status = %d, want %d", w.Code, http.StatusConflict)
	}

	// Unknown code is a 404.
	w = do(t, srv, "POST", "/api/referrals/redeem", "carol", `{"code":"XXXXXXXX"}`)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown code status = %d, want %d", w.Code, http.StatusNotFound)
	}

	w = do(t, srv, "GET", "/api/referrals", "alice", "")
	var list struct {
		Referrals []struct {
			Status string `json:"status"`
			Label  string `json:"label"`
		} `json:"referrals"`
	}
	decode(t, w, &list)
	if len(list.Referrals) != 1 || list.Referrals[0].Status != "signed_up" {
		t.Errorf("referrals = %+v, want one signed_up", list.Referrals)
	}
}

func TestAPI_ReferralHireCompletesViaActions(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/referrals", "alice", "")
	var ref domain.Referral
	decode(t, w, &ref)

	if w := do(t, srv, "POST", "/api/referrals/redeem", "bob",
		fmt.Sprintf(`{"code":%q}`, ref.Code)); w.Code != http.StatusOK {
		t.Fatalf("redeem status = %d", w.Code)
	}

	// Bob's first hire arrives through the action hook.
	w = do(t, srv, "POST", "/api/actions", "bob", `{"kind":"hire_bot"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("action status = %d, body %s", w.Code, w.Body)
	}

	w = do(t, srv, "GET", "/api/referrals", "alice", "")
	var list struct {
		Referrals []struct {
			Status string `json:"status"`
			Label  string `json:"label"`
		} `json:"referrals"`
	}
	decode(t, w, &list)
	if len(list.Referrals) != 1 || list.Referrals[0].Status != "bot_hired" {
		t.Fatalf("referrals = %+v, want one bot_hired", list.Referrals)
	}
	if list.Referrals[0].Label != "completed" {
		t.Errorf("label = %q, want completed", list.Referrals[0].Label)
	}
}

// ─── Reward Games ───────────────────────────────────────────────────────────

func TestAPI_WheelSpinAndExhaustion(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "GET", "/api/wheel", "alice", "")
	var state struct {
		Left int `json:"left"`
	}
	decode(t, w, &state)
	if state.Left != 1 {
		t.Fatalf("left = %d, want 1", state.Left)
	}

	w = do(t, srv, "POST", "/api/wheel/spin", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("spin status = %d, body %s", w.Code, w.Body)
	}
	var spin struct {
		Prize domain.Prize `json:"prize"`
		Left  int          `json:"left"`
	}
	decode(t, w, &spin)
	if spin.Prize.Kind == "" || spin.Left != 0 {
		t.Errorf("spin = %+v, want a prize and 0 left", spin)
	}

	w = do(t, srv, "POST", "/api/wheel/spin", "alice", "")
	if w.Code != http.StatusForbidden {
		t.Errorf("exhausted spin status = %d, want %d", w.Code, http.StatusForbidden)
	}
}

func TestAPI_SlotsSpin(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/slots/spin", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var res domain.SlotResult
	decode(t, w, &res)
	if res.SpinsLeft != 9 {
		t.Errorf("SpinsLeft = %d, want 9", res.SpinsLeft)
	}
	if res.Score <= 0 {
		t.Errorf("Score = %d, want positive", res.Score)
	}
}

// ─── Challenge & Notifications ──────────────────────────────────────────────

func TestAPI_Challenge(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "GET", "/api/challenge", "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", w.Code, w.Body)
	}
	var body struct {
		Challenge domain.Challenge `json:"challenge"`
		Target    int              `json:"target"`
	}
	decode(t, w, &body)
	if body.Challenge.Description == "" || body.Target <= 0 {
		t.Errorf("challenge = %+v target = %d", body.Challenge, body.Target)
	}
}

func TestAPI_RecordUnknownAction(t *testing.T) {
	srv := newTestServer(t)

	w := do(t, srv, "POST", "/api/actions", "alice", `{"kind":"levitate"}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestAPI_NotificationShown(t *testing.T) {
	srv := newTestServer(t)

	// Produce a notification via a credit grant.
	do(t, srv, "POST", "/api/powerups/grant", "alice", `{"amount":5}`)

	w := do(t, srv, "GET", "/api/notifications", "alice", "")
	var notifs struct {
		Notifications []domain.Notification `json:"notifications"`
	}
	decode(t, w, &notifs)
	if len(notifs.Notifications) == 0 {
		t.Fatal("no notifications")
	}

	id := notifs.Notifications[0].ID
	w = do(t, srv, "POST", fmt.Sprintf("/api/notifications/%d/shown", id), "alice", "")
	if w.Code != http.StatusOK {
		t.Fatalf("mark shown status = %d", w.Code)
	}

	w = do(t, srv, "GET", "/api/notifications", "alice", "")
	decode(t, w, &notifs)
	if !notifs.Notifications[0].Shown {
		t.Error("notification not marked shown")
	}
}
