package finance

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// WeeklyReport builds the Sunday digest: totals, top categories, notable
// transactions, spending alerts, upcoming bills, goal progress and a
// personality snippet, all in one markdown document. goals may be nil when
// no goal tracking is configured.
func WeeklyReport(txns []Transaction, goals *GoalTracker) string {
	return weeklyReportAt(txns, goals, time.Now().UTC())
}

func weeklyReportAt(txns []Transaction, goals *GoalTracker, today time.Time) string {
	today = midnight(today)
	weekAgo := today.AddDate(0, 0, -7)
	monthStart := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, time.UTC)

	var weekTxns, monthTxns []Transaction
	for _, t := range txns {
		d, ok := t.Day()
		if !ok {
			continue
		}
		if !d.Before(weekAgo) {
			weekTxns = append(weekTxns, t)
		}
		if !d.Before(monthStart) {
			monthTxns = append(monthTxns, t)
		}
	}

	weekIncome, weekExpenses := totals(weekTxns)
	monthIncome, monthExpenses := totals(monthTxns)

	var lines []string
	lines = append(lines,
		"# 💰 Weekly Financial Report",
		fmt.Sprintf("**%s — %s**", weekAgo.Format("Jan 02"), today.Format("Jan 02, 2006")),
		"",
		"## 📊 Summary",
		"| | This Week | Month to Date |",
		"|---|---|---|",
		fmt.Sprintf("| 💵 Income | %s | %s |", FormatMoney(weekIncome), FormatMoney(monthIncome)),
		fmt.Sprintf("| 💸 Spent | %s | %s |", FormatMoney(weekExpenses), FormatMoney(monthExpenses)),
	)
	netWeek := weekIncome.Sub(weekExpenses)
	netMonth := monthIncome.Sub(monthExpenses)
	netEmoji := "📈"
	if netWeek.IsNegative() {
		netEmoji = "📉"
	}
	lines = append(lines,
		fmt.Sprintf("| %s Net | %s | %s |", netEmoji, FormatMoney(netWeek), FormatMoney(netMonth)),
		"")

	if section := topCategorySection(weekTxns, weekExpenses); len(section) > 0 {
		lines = append(lines, section...)
	}
	if section := notableSection(weekTxns); len(section) > 0 {
		lines = append(lines, section...)
	}

	if alerts := checkSpendingAlertsAt(txns, 0.2, today); len(alerts) > 0 {
		lines = append(lines, "## ⚠️ Spending Alerts")
		for _, a := range alerts[:min(len(alerts), 3)] {
			lines = append(lines, "- "+a.Message())
		}
		lines = append(lines, "")
	}

	if section := upcomingBillsSection(txns, today); len(section) > 0 {
		lines = append(lines, section...)
	}

	if goals != nil {
		if progress, err := goals.progressAt(txns, today); err == nil && len(progress) > 0 {
			lines = append(lines, "## 🎯 Savings Goals")
			for _, gp := range progress {
				filled := min(max(int(gp.PctComplete/5), 0), 20)
				bar := strings.Repeat("🟩", filled) + strings.Repeat("⬜", 20-filled)
				lines = append(lines,
					"- "+gp.Message(),
					fmt.Sprintf("  `%s` %.0f%%", bar, gp.PctComplete))
			}
			lines = append(lines, "")
		}
	}

	if personality := MoneyPersonality(txns); personality.Primary != nil {
		lines = append(lines, "## 🧠 Your Money Personality")
		for _, insight := range personality.Insights[:min(len(personality.Insights), 2)] {
			lines = append(lines, "- "+insight)
		}
		lines = append(lines, "")
	}

	lines = append(lines, "---",
		fmt.Sprintf("*Generated by Kiyomi · %s*", today.Format("2006-01-02")))
	return strings.Join(lines, "\n")
}

func totals(txns []Transaction) (income, expenses decimal.Decimal) {
	for _, t := range txns {
		if t.Outflow() {
			expenses = expenses.Add(t.Amount)
		} else {
			income = income.Add(t.Amount.Abs())
		}
	}
	return income, expenses
}

func topCategorySection(weekTxns []Transaction, weekExpenses decimal.Decimal) []string {
	byCat := make(map[string]decimal.Decimal)
	for _, t := range weekTxns {
		if t.Outflow() {
			byCat[category(t)] = byCat[category(t)].Add(t.Amount)
		}
	}
	if len(byCat) == 0 {
		return nil
	}

	type catTotal struct {
		cat string
		amt decimal.Decimal
	}
	cats := make([]catTotal, 0, len(byCat))
	for cat, amt := range byCat {
		cats = append(cats, catTotal{cat, amt})
	}
	sort.SliceStable(cats, func(i, j int) bool {
		if !cats[i].amt.Equal(cats[j].amt) {
			return cats[i].amt.GreaterThan(cats[j].amt)
		}
		return cats[i].cat < cats[j].cat
	})
	if len(cats) > 6 {
		cats = cats[:6]
	}

	lines := []string{"## 🏷️ Top Categories This Week"}
	for _, ct := range cats {
		pct := 0.0
		if weekExpenses.IsPositive() {
			pct = ct.amt.Div(weekExpenses).InexactFloat64() * 100
		}
		filled := int(pct / 5)
		if filled < 1 {
			filled = 1
		}
		empty := 20 - filled
		if empty < 0 {
			empty = 0
		}
		bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
		lines = append(lines, fmt.Sprintf("- **%s**: %s (%.0f%%) `%s`", ct.cat, FormatMoney(ct.amt), pct, bar))
	}
	return append(lines, "")
}

func notableSection(weekTxns []Transaction) []string {
	var spends []Transaction
	for _, t := range weekTxns {
		if t.Outflow() {
			spends = append(spends, t)
		}
	}
	if len(spends) == 0 {
		return nil
	}
	sort.SliceStable(spends, func(i, j int) bool {
		return spends[i].Amount.GreaterThan(spends[j].Amount)
	})
	if len(spends) > 5 {
		spends = spends[:5]
	}

	lines := []string{"## 🔍 Notable Transactions"}
	for _, t := range spends {
		merchant := t.Merchant
		if merchant == "" {
			merchant = "Unknown"
		}
		lines = append(lines, fmt.Sprintf("- %s — %s (%s) · %s", FormatMoney(t.Amount), merchant, category(t), t.Date))
	}
	return append(lines, "")
}

func upcomingBillsSection(txns []Transaction, today time.Time) []string {
	bills := detectRecurringChargesAt(txns, 2, today)
	horizon := today.AddDate(0, 0, 14)

	var soon []RecurringCharge
	for _, b := range bills {
		if b.Confidence >= 0.5 && !b.NextExpected.After(horizon) {
			soon = append(soon, b)
		}
	}
	if len(soon) == 0 {
		return nil
	}
	sort.SliceStable(soon, func(i, j int) bool {
		return soon[i].NextExpected.Before(soon[j].NextExpected)
	})
	if len(soon) > 8 {
		soon = soon[:8]
	}

	lines := []string{"## 📅 Upcoming Bills (Next 2 Weeks)"}
	for _, b := range soon {
		lines = append(lines, fmt.Sprintf("- **%s**: ~%s — expected %s (%s)",
			b.Merchant, FormatMoney(b.AvgAmount), b.NextExpected.Format(DateLayout), b.Frequency))
	}
	return append(lines, "")
}
