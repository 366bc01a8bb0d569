package streak

import (
	"errors"
	"testing"
	"time"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

func testService(t *testing.T) (*Service, *powerup.Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ledger := powerup.NewService(db)
	return NewService(db, ledger, nil), ledger, db
}

func ts(s string) time.Time {
	tm, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return tm
}

func TestCheckIn_FirstAndContinuation(t *testing.T) {
	svc, _, _ := testService(t)

	res, err := svc.CheckIn("u1", ts("2026-03-10"))
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if res.Streak.Current != 1 {
		t.Errorf("Current = %d, want 1", res.Streak.Current)
	}

	res, err = svc.CheckIn("u1", ts("2026-03-11"))
	if err != nil {
		t.Fatalf("CheckIn day 2: %v", err)
	}
	if res.Streak.Current != 2 {
		t.Errorf("Current = %d, want 2", res.Streak.Current)
	}
	if res.Streak.TotalCheckIns != 2 {
		t.Errorf("TotalCheckIns = %d, want 2", res.Streak.TotalCheckIns)
	}
}

func TestCheckIn_SameDayIdempotent(t *testing.T) {
	svc, _, _ := testService(t)

	if _, err := svc.CheckIn("u1", ts("2026-03-10")); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	res, err := svc.CheckIn("u1", ts("2026-03-10").Add(8*time.Hour))
	if err != nil {
		t.Fatalf("second CheckIn: %v", err)
	}
	if !res.AlreadyCheckedIn {
		t.Error("same-day check-in not reported as duplicate")
	}
	if res.Streak.Current != 1 || res.Streak.TotalCheckIns != 1 {
		t.Errorf("state changed on duplicate: %+v", res.Streak)
	}
}

func TestCheckIn_BreakAndMilestone(t *testing.T) {
	svc, _, _ := testService(t)

	days := []string{"2026-03-10", "2026-03-11", "2026-03-12"}
	var res domain.CheckInResult
	var err error
	for _, d := range days {
		res, err = svc.CheckIn("u1", ts(d))
		if err != nil {
			t.Fatalf("CheckIn %s: %v", d, err)
		}
	}
	if res.MilestoneBonus != 50 {
		t.Errorf("MilestoneBonus = %d, want 50 at 3 days", res.MilestoneBonus)
	}
	if res.Streak.Points != 50 {
		t.Errorf("Points = %d, want 50", res.Streak.Points)
	}

	// Two missed days with no freeze: reset.
	res, err = svc.CheckIn("u1", ts("2026-03-16"))
	if err != nil {
		t.Fatalf("CheckIn after gap: %v", err)
	}
	if res.Streak.Current != 1 {
		t.Errorf("Current = %d, want 1 after break", res.Streak.Current)
	}
	if res.Streak.Longest != 3 {
		t.Errorf("Longest = %d, want 3 preserved", res.Streak.Longest)
	}
}

func TestCheckIn_FreezeConsumedOnGap(t *testing.T) {
	svc, _, _ := testService(t)

	if _, err := svc.CheckIn("u1", ts("2026-03-10")); err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if err := svc.AddFreezes("u1", 1); err != nil {
		t.Fatalf("AddFreezes: %v", err)
	}

	res, err := svc.CheckIn("u1", ts("2026-03-12")) // missed one day
	if err != nil {
		t.Fatalf("CheckIn: %v", err)
	}
	if !res.FreezeConsumed {
		t.Fatal("freeze not consumed")
	}
	if res.Streak.Current != 2 {
		t.Errorf("Current = %d, want 2 (protected)", res.Streak.Current)
	}
	if res.Streak.Freezes != 0 {
		t.Errorf("Freezes = %d, want 0", res.Streak.Freezes)
	}
}

func TestBuyFreeze_DebitsLedger(t *testing.T) {
	svc, ledger, _ := testService(t)
	now := ts("2026-03-10")

	// Free tier starts with 5 credits; a freeze costs 5.
	streak, lg, err := svc.BuyFreeze("u1", 1, now)
	if err != nil {
		t.Fatalf("BuyFreeze: %v", err)
	}
	if streak.Freezes != 1 {
		t.Errorf("Freezes = %d, want 1", streak.Freezes)
	}
	if lg.Remaining() != 0 {
		t.Errorf("Remaining = %d, want 0", lg.Remaining())
	}

	// Second purchase on an empty balance fails and changes nothing.
	_, _, err = svc.BuyFreeze("u1", 1, now)
	if !errors.Is(err, domain.ErrInsufficientCredits) {
		t.Fatalf("err = %v, want ErrInsufficientCredits", err)
	}
	var ice *domain.InsufficientCreditsError
	if !errors.As(err, &ice) {
		t.Fatal("error does not carry balance detail")
	}

	got, err := ledger.Ledger("u1", now)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	if got.Used != 5 {
		t.Errorf("Used = %d, want 5 (failed purchase must not debit)", got.Used)
	}
}

func TestBuyFreeze_RejectsNonPositiveQuantity(t *testing.T) {
	svc, _, _ := testService(t)

	if _, _, err := svc.BuyFreeze("u1", 0, ts("2026-03-10")); err == nil {
		t.Fatal("BuyFreeze(0) succeeded")
	}
}

func TestAddPoints(t *testing.T) {
	svc, _, _ := testService(t)

	if err := svc.AddPoints("u1", 75); err != nil {
		t.Fatalf("AddPoints: %v", err)
	}
	s, err := svc.Current("u1")
	if err != nil {
		t.Fatalf("Current: %v", err)
	}
	if s.Points != 75 {
		t.Errorf("Points = %d, want 75", s.Points)
	}
}
