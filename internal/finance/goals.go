package finance

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

// Period is a savings goal horizon.
type Period string

const (
	PeriodWeek  Period = "week"
	PeriodMonth Period = "month"
)

// SavingsGoal is a persisted saving target for one week or calendar month.
type SavingsGoal struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Target    decimal.Decimal `json:"target"`
	Period    Period          `json:"period"`
	StartDate string          `json:"startDate"` // "YYYY-MM-DD"
	EndDate   string          `json:"endDate"`   // "YYYY-MM-DD"
	Created   time.Time       `json:"created"`
	Active    bool            `json:"active"`
}

// GoalProgress is the computed state of one active goal.
type GoalProgress struct {
	Goal          SavingsGoal     `json:"goal"`
	Saved         decimal.Decimal `json:"saved"` // income - expenses so far
	Income        decimal.Decimal `json:"income"`
	Expenses      decimal.Decimal `json:"expenses"`
	PctComplete   float64         `json:"pctComplete"` // clamped to 100
	DaysRemaining int             `json:"daysRemaining"`
	DailyTarget   decimal.Decimal `json:"dailyTarget"` // needed per remaining day
	OnTrack       bool            `json:"onTrack"`
}

// Message renders the progress as the warm one-liner the user sees.
func (p GoalProgress) Message() string {
	name := p.Goal.Name
	saved := FormatMoney(p.Saved)
	target := FormatMoney(p.Goal.Target)
	daily := FormatMoney(p.DailyTarget)
	days := strconv.Itoa(p.DaysRemaining)
	pct := strconv.Itoa(int(math.Round(p.PctComplete)))

	switch {
	case p.PctComplete >= 100:
		return fmt.Sprintf("🎉 **%s:** Goal reached! You've saved %s of %s!", name, saved, target)
	case p.OnTrack:
		return fmt.Sprintf("✅ **%s:** On track! %s of %s saved (%s%%). %s days left — need ~%s/day to hit your goal.",
			name, saved, target, pct, days, daily)
	default:
		return fmt.Sprintf("📊 **%s:** %s of %s saved (%s%%). You're a bit behind — need ~%s/day for the remaining %s days.",
			name, saved, target, pct, daily, days)
	}
}

// GoalTracker persists savings goals and evaluates their progress. At most
// one goal per period is active; setting a new one retires the old.
type GoalTracker struct {
	store *store.Store
	now   func() time.Time
}

func NewGoalTracker(st *store.Store) *GoalTracker {
	return &GoalTracker{store: st, now: time.Now}
}

// SetGoal creates an active goal for the current period window and
// deactivates any prior active goal with the same period.
func (g *GoalTracker) SetGoal(name string, target decimal.Decimal, period Period) (SavingsGoal, error) {
	if !target.IsPositive() {
		return SavingsGoal{}, fmt.Errorf("goal target must be positive, got %s", target)
	}
	if period != PeriodWeek && period != PeriodMonth {
		period = PeriodMonth
	}
	if name == "" {
		name = "Savings Goal"
	}

	today := midnight(g.now().UTC())
	start, end := periodWindow(period, today)

	goal := SavingsGoal{
		ID:        uuid.NewString(),
		Name:      name,
		Target:    target,
		Period:    period,
		StartDate: start.Format(DateLayout),
		EndDate:   end.Format(DateLayout),
		Created:   g.now().UTC(),
		Active:    true,
	}

	var goals []SavingsGoal
	if err := g.store.Load(&goals); err != nil {
		return SavingsGoal{}, fmt.Errorf("load goals: %w", err)
	}
	for i := range goals {
		if goals[i].Period == period && goals[i].Active {
			goals[i].Active = false
		}
	}
	goals = append(goals, goal)
	if err := g.store.Save(goals); err != nil {
		return SavingsGoal{}, fmt.Errorf("save goals: %w", err)
	}
	return goal, nil
}

// ActiveGoals returns the goals currently being tracked. Goals whose window
// has passed are retired and the retirement is persisted.
func (g *GoalTracker) ActiveGoals() ([]SavingsGoal, error) {
	goals, changed, err := g.loadAndExpire(midnight(g.now().UTC()))
	if err != nil {
		return nil, err
	}
	if changed {
		if err := g.store.Save(goals); err != nil {
			return nil, fmt.Errorf("save goals: %w", err)
		}
	}
	var active []SavingsGoal
	for _, goal := range goals {
		if goal.Active {
			active = append(active, goal)
		}
	}
	return active, nil
}

// Progress evaluates every active goal against the transaction window.
// Saved is income minus expenses from the goal's start through today.
func (g *GoalTracker) Progress(txns []Transaction) ([]GoalProgress, error) {
	return g.progressAt(txns, midnight(g.now().UTC()))
}

func (g *GoalTracker) progressAt(txns []Transaction, today time.Time) ([]GoalProgress, error) {
	goals, changed, err := g.loadAndExpire(today)
	if err != nil {
		return nil, err
	}

	var results []GoalProgress
	for _, goal := range goals {
		if !goal.Active || !goal.Target.IsPositive() {
			continue
		}
		start, err1 := time.Parse(DateLayout, goal.StartDate)
		end, err2 := time.Parse(DateLayout, goal.EndDate)
		if err1 != nil || err2 != nil {
			continue
		}

		income := decimal.Zero
		expenses := decimal.Zero
		for _, t := range txns {
			d, ok := t.Day()
			if !ok || d.Before(start) || d.After(today) {
				continue
			}
			if t.Outflow() {
				expenses = expenses.Add(t.Amount)
			} else {
				income = income.Add(t.Amount.Abs())
			}
		}

		saved := income.Sub(expenses)
		pct := saved.Div(goal.Target).InexactFloat64() * 100

		daysRemaining := int(end.Sub(today).Hours() / 24)
		if daysRemaining < 1 {
			daysRemaining = 1
		}
		shortfall := goal.Target.Sub(saved)
		if shortfall.IsNegative() {
			shortfall = decimal.Zero
		}
		dailyTarget := shortfall.Div(decimal.NewFromInt(int64(daysRemaining)))

		totalDays := math.Max(end.Sub(start).Hours()/24, 1)
		expectedPct := today.Sub(start).Hours() / 24 / totalDays * 100
		onTrack := pct >= expectedPct*0.85 // 15% grace

		results = append(results, GoalProgress{
			Goal:          goal,
			Saved:         saved.Round(2),
			Income:        income.Round(2),
			Expenses:      expenses.Round(2),
			PctComplete:   math.Round(math.Min(math.Max(pct, 0), 100)*10) / 10,
			DaysRemaining: daysRemaining,
			DailyTarget:   dailyTarget.Round(2),
			OnTrack:       onTrack,
		})
	}

	if changed {
		if err := g.store.Save(goals); err != nil {
			return nil, fmt.Errorf("save goals: %w", err)
		}
	}
	return results, nil
}

// loadAndExpire loads all goals and deactivates the ones whose end date has
// passed. It does not persist; callers save when changed is true.
func (g *GoalTracker) loadAndExpire(today time.Time) ([]SavingsGoal, bool, error) {
	var goals []SavingsGoal
	if err := g.store.Load(&goals); err != nil {
		return nil, false, fmt.Errorf("load goals: %w", err)
	}
	changed := false
	for i := range goals {
		if !goals[i].Active {
			continue
		}
		end, err := time.Parse(DateLayout, goals[i].EndDate)
		if err != nil || end.Before(today) {
			goals[i].Active = false
			changed = true
		}
	}
	return goals, changed, nil
}

// periodWindow returns the saving window containing today. A week runs
// Monday through the coming Sunday; a month is the calendar month.
func periodWindow(period Period, today time.Time) (start, end time.Time) {
	if period == PeriodWeek {
		daysUntilSunday := int((time.Sunday - today.Weekday() + 7) % 7)
		if daysUntilSunday == 0 {
			daysUntilSunday = 7
		}
		end = today.AddDate(0, 0, daysUntilSunday)
		return end.AddDate(0, 0, -6), end
	}
	start = time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	end = time.Date(today.Year(), today.Month(), daysIn(today.Month(), today.Year()), 0, 0, 0, 0, time.UTC)
	return start, end
}
