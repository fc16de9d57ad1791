package finance

import (
	"fmt"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// SpendingAlert flags a category whose projected spend this month outpaces
// last month by more than the caller's threshold.
type SpendingAlert struct {
	Category      string          `json:"category"`
	CurrentAmount decimal.Decimal `json:"currentAmount"`   // month-to-date
	PriorAmount   decimal.Decimal `json:"priorAmount"`     // full prior month
	PctChange     float64         `json:"pctChange"`       // projected vs prior, 1.0 = +100%
	Difference    decimal.Decimal `json:"difference"`      // vs pace at this point last month
	Projected     decimal.Decimal `json:"projected"`       // full-month estimate
	NewCategory   bool            `json:"newCategory"`
	Severe        bool            `json:"severe"`
}

// Message renders the alert as the warm one-liner the user sees.
func (a SpendingAlert) Message() string {
	if a.NewCategory {
		return fmt.Sprintf("🆕 New spending category: **%s** — %s this month (no spending last month)",
			a.Category, FormatMoney(a.CurrentAmount))
	}
	emoji := "⚠️"
	if a.Severe {
		emoji = "🚨"
	}
	return fmt.Sprintf("%s You've spent **%s** on **%s** this month — that's %s more than this point last month (%s total last month). On pace for **%s** (%.0f%% above normal).",
		emoji, FormatMoney(a.CurrentAmount), a.Category, FormatMoney(a.Difference.Abs()),
		FormatMoney(a.PriorAmount), FormatMoney(a.Projected.Round(0)), a.PctChange*100)
}

// newCategoryPriorMax and newCategoryMin bound the "new spending category"
// rule: effectively nothing last month, real money this month.
var (
	newCategoryPriorMax = decimal.NewFromInt(5)
	newCategoryMin      = decimal.NewFromInt(50)
)

// severePctChange marks alerts worth stronger wording.
const severePctChange = 0.5

// CheckSpendingAlerts compares this calendar month's per-category outflow
// against last month's, projecting the current partial month to a full one
// before comparing. threshold is the minimum projected increase to report,
// e.g. 0.2 for 20%.
func CheckSpendingAlerts(txns []Transaction, threshold float64) []SpendingAlert {
	return checkSpendingAlertsAt(txns, threshold, time.Now().UTC())
}

// CheckSpendingAlertsAsOf is CheckSpendingAlerts evaluated against an
// explicit reference day instead of the wall clock.
func CheckSpendingAlertsAsOf(txns []Transaction, threshold float64, today time.Time) []SpendingAlert {
	return checkSpendingAlertsAt(txns, threshold, today)
}

func checkSpendingAlertsAt(txns []Transaction, threshold float64, today time.Time) []SpendingAlert {
	if threshold <= 0 {
		threshold = 0.2
	}
	today = midnight(today)

	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)
	priorStart := monthStart.AddDate(0, -1, 0)

	current := make(map[string]decimal.Decimal)
	prior := make(map[string]decimal.Decimal)
	for _, t := range txns {
		if !t.Outflow() {
			continue
		}
		d, ok := t.Day()
		if !ok {
			continue
		}
		cat := category(t)
		switch {
		case !d.Before(monthStart) && !d.After(today):
			current[cat] = current[cat].Add(t.Amount)
		case !d.Before(priorStart) && d.Before(monthStart):
			prior[cat] = prior[cat].Add(t.Amount)
		}
	}

	// Early in the month one dinner out looks like a 10x pace; clamping
	// the elapsed fraction to a week keeps projections sane.
	dayFraction := float64(max(today.Day(), 7)) / float64(daysIn(today.Month(), today.Year()))

	var alerts []SpendingAlert
	for cat, cur := range current {
		prev := prior[cat]

		if prev.LessThan(newCategoryPriorMax) && cur.GreaterThanOrEqual(newCategoryMin) {
			alerts = append(alerts, SpendingAlert{
				Category:      cat,
				CurrentAmount: cur.Round(2),
				PriorAmount:   prev.Round(2),
				PctChange:     0,
				Difference:    cur.Round(2),
				Projected:     cur.Round(2),
				NewCategory:   true,
			})
			continue
		}
		// Tiny baselines make any spend look like a huge spike; the
		// new-category rule above is the only path for those.
		if prev.LessThan(newCategoryPriorMax) {
			continue
		}

		projected := cur.InexactFloat64() / dayFraction
		pctChange := (projected - prev.InexactFloat64()) / prev.InexactFloat64()
		if pctChange < threshold {
			continue
		}

		pace := prev.Mul(decimal.NewFromFloat(dayFraction))
		alerts = append(alerts, SpendingAlert{
			Category:      cat,
			CurrentAmount: cur.Round(2),
			PriorAmount:   prev.Round(2),
			PctChange:     pctChange,
			Difference:    cur.Sub(pace).Round(2),
			Projected:     decimal.NewFromFloat(projected).Round(2),
			Severe:        pctChange >= severePctChange,
		})
	}

	sort.SliceStable(alerts, func(i, j int) bool {
		return alerts[i].PctChange > alerts[j].PctChange
	})
	return alerts
}
