package finance

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

func newTestTracker(t *testing.T, today string) *GoalTracker {
	t.Helper()
	g := NewGoalTracker(store.New(filepath.Join(t.TempDir(), "goals.json")))
	now := day(t, today)
	g.now = func() time.Time { return now }
	return g
}

func TestGoalProgressMidMonth(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("Vacation fund", decimal.NewFromInt(500), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	txns := []Transaction{
		txn("Payroll", "2025-04-05", "Income", -1200),
		txn("Rent Payment", "2025-04-03", "Rent", 400),
		txn("Corner Deli", "2025-04-10", "Food and Drink", 200),
	}
	g.now = func() time.Time { return day(t, "2025-04-15") }

	progress, err := g.Progress(txns)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(progress))
	}
	p := progress[0]
	if !p.Saved.Equal(decimal.NewFromInt(600)) {
		t.Errorf("saved = %s, want 600", p.Saved)
	}
	if p.PctComplete != 100 {
		t.Errorf("pctComplete = %v, want 100 (clamped)", p.PctComplete)
	}
	if !p.OnTrack {
		t.Error("goal ahead of pace should be on track")
	}
	if !p.DailyTarget.Equal(decimal.Zero) {
		t.Errorf("dailyTarget = %s, want 0 once target is met", p.DailyTarget)
	}
	if p.DaysRemaining != 15 {
		t.Errorf("daysRemaining = %d, want 15", p.DaysRemaining)
	}
}

func TestGoalProgressBehindPace(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("Emergency fund", decimal.NewFromInt(900), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	txns := []Transaction{
		txn("Payroll", "2025-04-05", "Income", -500),
		txn("Corner Deli", "2025-04-10", "Food and Drink", 400),
	}
	g.now = func() time.Time { return day(t, "2025-04-20") }

	progress, err := g.Progress(txns)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	p := progress[0]
	// saved 100 of 900 on day 20 of 30
	if p.OnTrack {
		t.Error("11% saved at 65% elapsed should be behind pace")
	}
	// 800 short over 10 remaining days
	if !p.DailyTarget.Equal(decimal.NewFromInt(80)) {
		t.Errorf("dailyTarget = %s, want 80", p.DailyTarget)
	}
}

func TestSetGoalReplacesActiveSamePeriod(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("First", decimal.NewFromInt(300), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}
	if _, err := g.SetGoal("Second", decimal.NewFromInt(400), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}
	// a weekly goal coexists with the monthly one
	if _, err := g.SetGoal("Weekly", decimal.NewFromInt(100), PeriodWeek); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	active, err := g.ActiveGoals()
	if err != nil {
		t.Fatalf("ActiveGoals: %v", err)
	}
	if len(active) != 2 {
		t.Fatalf("expected 2 active goals, got %d: %+v", len(active), active)
	}
	names := map[string]bool{}
	for _, goal := range active {
		names[goal.Name] = true
	}
	if !names["Second"] || !names["Weekly"] || names["First"] {
		t.Errorf("active goals = %v, want Second and Weekly only", names)
	}
}

func TestGoalExpiresAfterWindow(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("April goal", decimal.NewFromInt(500), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	g.now = func() time.Time { return day(t, "2025-05-02") }
	active, err := g.ActiveGoals()
	if err != nil {
		t.Fatalf("ActiveGoals: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expired goal still active: %+v", active)
	}

	// expiry is persisted, not just filtered
	active, err = g.ActiveGoals()
	if err != nil {
		t.Fatalf("ActiveGoals: %v", err)
	}
	if len(active) != 0 {
		t.Errorf("expiry did not persist: %+v", active)
	}
}

func TestSetGoalRejectsNonPositiveTarget(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("Bad", decimal.Zero, PeriodMonth); err == nil {
		t.Error("zero target should be rejected")
	}
	if _, err := g.SetGoal("Bad", decimal.NewFromInt(-50), PeriodMonth); err == nil {
		t.Error("negative target should be rejected")
	}
}

func TestWeeklyGoalWindow(t *testing.T) {
	// Wednesday 2025-04-09: week ends the coming Sunday, 2025-04-13.
	start, end := periodWindow(PeriodWeek, day(t, "2025-04-09"))
	if end.Format(DateLayout) != "2025-04-13" {
		t.Errorf("end = %s, want 2025-04-13", end.Format(DateLayout))
	}
	if start.Format(DateLayout) != "2025-04-07" {
		t.Errorf("start = %s, want 2025-04-07", start.Format(DateLayout))
	}

	// On a Sunday the window rolls to the next week.
	start, end = periodWindow(PeriodWeek, day(t, "2025-04-13"))
	if end.Format(DateLayout) != "2025-04-20" {
		t.Errorf("end = %s, want 2025-04-20", end.Format(DateLayout))
	}
	if start.Format(DateLayout) != "2025-04-14" {
		t.Errorf("start = %s, want 2025-04-14", start.Format(DateLayout))
	}
}

func TestGoalProgressOverspentWindowFloorsAtZero(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")
	if _, err := g.SetGoal("Emergency fund", decimal.NewFromInt(500), PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	// Expenses dwarf income, so net saved is deeply negative.
	txns := []Transaction{
		txn("Payroll", "2025-04-05", "Income", -100),
		txn("Rent Payment", "2025-04-03", "Rent", 900),
	}
	g.now = func() time.Time { return day(t, "2025-04-15") }

	progress, err := g.Progress(txns)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 1 {
		t.Fatalf("expected 1 goal, got %d", len(progress))
	}
	p := progress[0]
	if !p.Saved.Equal(decimal.NewFromInt(-800)) {
		t.Errorf("saved = %s, want -800", p.Saved)
	}
	if p.PctComplete != 0 {
		t.Errorf("pctComplete = %.1f, want 0 when overspent", p.PctComplete)
	}
	if p.OnTrack {
		t.Error("an overspent window cannot be on track")
	}
}

func TestGoalProgressSkipsNonPositiveTarget(t *testing.T) {
	g := newTestTracker(t, "2025-04-01")

	// A hand-edited store can carry a zero target; Progress drops it.
	goals := []SavingsGoal{{
		ID:        "manual",
		Name:      "Broken goal",
		Target:    decimal.Zero,
		Period:    PeriodMonth,
		StartDate: "2025-04-01",
		EndDate:   "2025-04-30",
		Active:    true,
	}}
	if err := g.store.Save(goals); err != nil {
		t.Fatal(err)
	}

	progress, err := g.Progress(nil)
	if err != nil {
		t.Fatalf("Progress: %v", err)
	}
	if len(progress) != 0 {
		t.Errorf("zero-target goal should be excluded, got %+v", progress)
	}
}
