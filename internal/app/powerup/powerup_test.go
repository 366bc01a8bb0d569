package powerup

import (
	"errors"
	"testing"
	"time"

	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

func testService(t *testing.T) (*Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return NewService(db), db
}

func ts(s string) time.Time {
	tm, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return tm
}

func TestLedger_ProvisionsFromTier(t *testing.T) {
	svc, _ := testService(t)
	now := ts("2026-03-10")

	ledger, err := svc.Ledger("u1", now)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}

	// Fresh accounts are free tier.
	if ledger.Allowance != domain.TierFree.MonthlyPowerUps() {
		t.Errorf("Allowance = %d, want %d", ledger.Allowance, domain.TierFree.MonthlyPowerUps())
	}
	if ledger.Used != 0 {
		t.Errorf("Used = %d, want 0", ledger.Used)
	}
	if !ledger.ResetAt.Equal(domain.NextMonthly(now)) {
		t.Errorf("ResetAt = %v, want %v", ledger.ResetAt, domain.NextMonthly(now))
	}
}

func TestConsume_ChargesOnce(t *testing.T) {
	svc, _ := testService(t)
	now := ts("2026-03-10")

	res, err := svc.Consume("u1", "conv-1", domain.PowerTurbo, now)
	if err != nil {
		t.Fatalf("Consume: %v", err)
	}
	if res.AlreadyActive {
		t.Error("first activation reported as already active")
	}
	if res.Remaining != 4 {
		t.Errorf("Remaining = %d, want 4", res.Remaining)
	}
}

func TestConsume_IdempotentPerConversation(t *testing.T) {
	svc, _ := testService(t)
	now := ts("2026-03-10")

	if _, err := svc.Consume("u1", "conv-1", domain.PowerVision, now); err != nil {
		t.Fatalf("first Consume: %v", err)
	}
	res, err := svc.Consume("u1", "conv-1", domain.PowerVision, now)
	if err != nil {
		t.Fatalf("second Consume: %v", err)
	}
	if !res.AlreadyActive {
		t.Error("repeat activation not reported as already active")
	}
	if res.Remaining != 4 {
		t.Errorf("Remaining = %d, want 4 (no second charge)", res.Remaining)
	}

	// A different kind in the same conversation is a separate charge.
	res, err = svc.Consume("u1", "conv-1", domain.PowerVoice, now)
	if err != nil {
		t.Fatalf("Consume voice: %v", err)
	}
	if res.AlreadyActive || res.Remaining != 3 {
		t.Errorf("voice activation = %+v, want fresh charge leaving 3", res)
	}
}

func TestConsume_DrainedBalance(t *testing.T) {
	svc, _ := testService(t)
	now := ts("2026-03-10")

	convs := []string{"c1", "c2", "c3", "c4", "c5"}
	for _, c := range convs {
		if _, err := svc.Consume("u1", c, domain.PowerTurbo, now); err != nil {
			t.Fatalf("Consume %s: %v", c, err)
		}
	}

	_, err := svc.Consume("u1", "c6", domain.PowerTurbo, now)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}

	// The already-active scope stays free even with zero balance.
	res, err := svc.Consume("u1", "c1", domain.PowerTurbo, now)
	if err != nil {
		t.Fatalf("Consume active scope on empty balance: %v", err)
	}
	if !res.AlreadyActive {
		t.Error("active scope charged on empty balance")
	}
}

func TestConsume_UnknownKind(t *testing.T) {
	svc, _ := testService(t)

	_, err := svc.Consume("u1", "c1", "jetpack", ts("2026-03-10"))
	if !errors.Is(err, domain.ErrUnknownPowerUp) {
		t.Fatalf("err = %v, want ErrUnknownPowerUp", err)
	}
}

func TestLedger_MonthlyLazyReset(t *testing.T) {
	svc, _ := testService(t)
	start := ts("2026-03-10")

	for _, c := range []string{"c1", "c2", "c3"} {
		if _, err := svc.Consume("u1", c, domain.PowerTurbo, start); err != nil {
			t.Fatalf("Consume: %v", err)
		}
	}

	// 40 days later: the cycle has lapsed, the next read resets.
	later := ts("2026-04-19")
	ledger, err := svc.Ledger("u1", later)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if ledger.Used != 0 {
		t.Errorf("Used = %d, want 0 after lazy reset", ledger.Used)
	}
	// Rolling window: the new reset anchors to the access time.
	if !ledger.ResetAt.Equal(domain.NextMonthly(later)) {
		t.Errorf("ResetAt = %v, want %v", ledger.ResetAt, domain.NextMonthly(later))
	}
}

func TestLedger_NoResetBeforeDue(t *testing.T) {
	svc, _ := testService(t)
	start := ts("2026-03-10")

	if _, err := svc.Consume("u1", "c1", domain.PowerTurbo, start); err != nil {
		t.Fatalf("Consume: %v", err)
	}

	ledger, err := svc.Ledger("u1", ts("2026-03-25"))
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if ledger.Used != 1 {
		t.Errorf("Used = %d, want 1 mid-cycle", ledger.Used)
	}
}

func TestGrant_AdjustsAllowance(t *testing.T) {
	svc, _ := testService(t)
	now := ts("2026-03-10")

	ledger, err := svc.Grant("u1", 20, "test", now)
	if err != nil {
		t.Fatalf("Grant: %v", err)
	}
	if ledger.Allowance != 25 {
		t.Errorf("Allowance = %d, want 25", ledger.Allowance)
	}

	ledger, err = svc.Grant("u1", -10, "test", now)
	if err != nil {
		t.Fatalf("debit Grant: %v", err)
	}
	if ledger.Allowance != 15 {
		t.Errorf("Allowance = %d, want 15 after debit", ledger.Allowance)
	}
}
