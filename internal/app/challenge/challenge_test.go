package challenge

import (
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/robotrecruit/rewards/internal/app/powerup"
	"github.com/robotrecruit/rewards/internal/domain"
	"github.com/robotrecruit/rewards/internal/infra/sqlite"
)

func testService(t *testing.T, seed int64) (*Service, *powerup.Service, *sqlite.DB) {
	t.Helper()
	db, err := sqlite.Open(t.TempDir())
	if err != nil {
		t.Fatalf("Open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	ledger := powerup.NewService(db)
	return NewService(db, ledger, nil, rand.New(rand.NewSource(seed))), ledger, db
}

func ts(s string) time.Time {
	tm, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return tm
}

func TestToday_DrawsOncePerDay(t *testing.T) {
	svc, _, _ := testService(t, 1)
	now := ts("2026-03-10")

	first, err := svc.Today("u1", now)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if first.Day != "2026-03-10" {
		t.Errorf("Day = %q, want 2026-03-10", first.Day)
	}
	if first.Description == "" {
		t.Error("challenge has no description")
	}

	// Repeat reads return the same draw.
	second, err := svc.Today("u1", now.Add(6*time.Hour))
	if err != nil {
		t.Fatalf("Today again: %v", err)
	}
	if second.Requirement.Action() != first.Requirement.Action() ||
		second.Requirement.Target() != first.Requirement.Target() {
		t.Errorf("second read drew a different challenge: %+v vs %+v", second, first)
	}

	// A new day draws fresh.
	next, err := svc.Today("u1", now.AddDate(0, 0, 1))
	if err != nil {
		t.Fatalf("Today next day: %v", err)
	}
	if next.Day != "2026-03-11" {
		t.Errorf("Day = %q, want 2026-03-11", next.Day)
	}
	if next.Progress != 0 || next.Completed {
		t.Errorf("next day's challenge carries old progress: %+v", next)
	}
}

func TestRecordAction_LifetimeCounter(t *testing.T) {
	svc, _, _ := testService(t, 1)
	now := ts("2026-03-10")

	for want := 1; want <= 3; want++ {
		count, err := svc.RecordAction("u1", domain.ActionForumPost, now)
		if err != nil {
			t.Fatalf("RecordAction: %v", err)
		}
		if count != want {
			t.Errorf("count = %d, want %d", count, want)
		}
	}
}

func TestRecordAction_UnknownKind(t *testing.T) {
	svc, _, _ := testService(t, 1)

	_, err := svc.RecordAction("u1", "teleport", ts("2026-03-10"))
	if !errors.Is(err, domain.ErrUnknownAction) {
		t.Fatalf("err = %v, want ErrUnknownAction", err)
	}
}

func TestRecordAction_CompletesChallengeOnce(t *testing.T) {
	svc, ledger, _ := testService(t, 1)
	now := ts("2026-03-10")

	ch, err := svc.Today("u1", now)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}

	kind := ch.Requirement.Action()
	target := ch.Requirement.Target()

	// Actions of the right kind advance it to completion.
	for i := 0; i < target; i++ {
		if _, err := svc.RecordAction("u1", kind, now); err != nil {
			t.Fatalf("RecordAction %d: %v", i, err)
		}
	}

	done, err := svc.Today("u1", now)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if !done.Completed {
		t.Fatalf("challenge not completed after %d actions: %+v", target, done)
	}
	if done.Progress != target {
		t.Errorf("Progress = %d, want %d", done.Progress, target)
	}

	lg, err := ledger.Ledger("u1", now)
	if err != nil {
		t.Fatalf("Ledger: %v", err)
	}
	want := domain.TierFree.MonthlyPowerUps() + ch.RewardCredits
	if lg.Allowance != want {
		t.Errorf("Allowance = %d, want %d (reward granted)", lg.Allowance, want)
	}

	// Further actions keep counting but never pay again.
	if _, err := svc.RecordAction("u1", kind, now); err != nil {
		t.Fatalf("RecordAction after completion: %v", err)
	}
	lg, _ = ledger.Ledger("u1", now)
	if lg.Allowance != want {
		t.Errorf("Allowance = %d, want %d (reward is one-shot)", lg.Allowance, want)
	}
}

func TestRecordAction_WrongKindDoesNotAdvance(t *testing.T) {
	svc, _, _ := testService(t, 1)
	now := ts("2026-03-10")

	ch, err := svc.Today("u1", now)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}

	// Pick any kind that is not the challenge's.
	other := domain.ActionChat
	if ch.Requirement.Action() == domain.ActionChat {
		other = domain.ActionHireBot
	}

	if _, err := svc.RecordAction("u1", other, now); err != nil {
		t.Fatalf("RecordAction: %v", err)
	}
	got, err := svc.Today("u1", now)
	if err != nil {
		t.Fatalf("Today: %v", err)
	}
	if got.Progress != 0 {
		t.Errorf("Progress = %d, want 0 for non-matching action", got.Progress)
	}
}
