package nudge

import (
	"context"
	"fmt"
	"time"

	"github.com/RichardEchols/kiyomi-lite/internal/finance"
)

// spikeThreshold is the month-over-month increase that earns an
// unprompted alert. Stricter than the weekly report's threshold so the
// proactive channel stays quiet unless something really moved.
const spikeThreshold = 0.30

// billReminderConfidence is the minimum detector confidence before a
// predicted charge is worth interrupting the user over.
const billReminderConfidence = 0.5

// BillReminderProvider nudges 3 days before, 1 day before and the day of a
// predicted recurring charge.
type BillReminderProvider struct {
	source   finance.TransactionSource
	daysBack int
	name     string
	now      func() time.Time
}

func NewBillReminderProvider(source finance.TransactionSource, daysBack int, name string) *BillReminderProvider {
	return &BillReminderProvider{source: source, daysBack: daysBack, name: name, now: time.Now}
}

func (p *BillReminderProvider) ID() string      { return "bill_reminders" }
func (p *BillReminderProvider) Available() bool { return p.source != nil }

func (p *BillReminderProvider) Check(ctx context.Context) ([]Candidate, error) {
	txns, err := p.source.Fetch(ctx, p.daysBack)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	today := p.now().UTC()

	var out []Candidate
	for _, bill := range finance.DetectRecurringChargesAsOf(txns, 2, today) {
		if bill.Confidence < billReminderConfidence {
			continue
		}
		nextStr := bill.NextExpected.Format(finance.DateLayout)
		amount := finance.FormatMoneyWhole(bill.AvgAmount)

		switch bill.DaysUntilNext(today) {
		case 0:
			out = append(out, Candidate{
				Key: fmt.Sprintf("bill_%s_%s_today", bill.Merchant, nextStr),
				Text: fmt.Sprintf("💳 %s (~%s) hits today, %s. Just making sure you're aware!",
					bill.Merchant, amount, displayName(p.name)),
			})
		case 1:
			out = append(out, Candidate{
				Key: fmt.Sprintf("bill_%s_%s_tomorrow", bill.Merchant, nextStr),
				Text: fmt.Sprintf("📅 Heads up — %s (~%s) is expected to charge tomorrow.",
					bill.Merchant, amount),
			})
		case 3:
			out = append(out, Candidate{
				Key: fmt.Sprintf("bill_%s_%s_3day", bill.Merchant, nextStr),
				Text: fmt.Sprintf("🔔 %s (~%s) is coming up in 3 days (%s). Just keeping you in the loop!",
					bill.Merchant, amount, bill.NextExpected.Format("Monday, Jan 02")),
			})
		}
	}
	return out, nil
}

// SpendingAlertProvider surfaces the single biggest month-over-month
// category spike. One per category per calendar month.
type SpendingAlertProvider struct {
	source   finance.TransactionSource
	daysBack int
	now      func() time.Time
}

func NewSpendingAlertProvider(source finance.TransactionSource, daysBack int) *SpendingAlertProvider {
	return &SpendingAlertProvider{source: source, daysBack: daysBack, now: time.Now}
}

func (p *SpendingAlertProvider) ID() string      { return "budget_alerts" }
func (p *SpendingAlertProvider) Available() bool { return p.source != nil }

func (p *SpendingAlertProvider) Check(ctx context.Context) ([]Candidate, error) {
	txns, err := p.source.Fetch(ctx, p.daysBack)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}

	today := p.now().UTC()
	alerts := finance.CheckSpendingAlertsAsOf(txns, spikeThreshold, today)
	if len(alerts) == 0 {
		return nil, nil
	}
	a := alerts[0]
	month := today.Format("2006-01")
	return []Candidate{{
		Key: fmt.Sprintf("spending_spike_%s_%s", a.Category, month),
		Text: fmt.Sprintf("📈 Your %s spending is %.0f%% higher than last month so far (%s). Might be worth a look!",
			a.Category, a.PctChange*100, finance.FormatMoneyWhole(a.CurrentAmount)),
	}}, nil
}

// SavingsMotivationProvider celebrates goal milestones and gives one
// catch-up push when a goal slips behind pace.
type SavingsMotivationProvider struct {
	source   finance.TransactionSource
	goals    *finance.GoalTracker
	daysBack int
	name     string
	now      func() time.Time
}

func NewSavingsMotivationProvider(source finance.TransactionSource, goals *finance.GoalTracker, daysBack int, name string) *SavingsMotivationProvider {
	return &SavingsMotivationProvider{source: source, goals: goals, daysBack: daysBack, name: name, now: time.Now}
}

func (p *SavingsMotivationProvider) ID() string { return "savings_motivation" }
func (p *SavingsMotivationProvider) Available() bool {
	return p.source != nil && p.goals != nil
}

func (p *SavingsMotivationProvider) Check(ctx context.Context) ([]Candidate, error) {
	txns, err := p.source.Fetch(ctx, p.daysBack)
	if err != nil {
		return nil, fmt.Errorf("fetch transactions: %w", err)
	}
	progress, err := p.goals.Progress(txns)
	if err != nil {
		return nil, fmt.Errorf("goal progress: %w", err)
	}

	today := p.now().UTC().Format(finance.DateLayout)
	name := displayName(p.name)

	var out []Candidate
	for _, gp := range progress {
		if !gp.Goal.Target.IsPositive() {
			continue
		}
		keyBase := fmt.Sprintf("savings_%s_%s", gp.Goal.Name, today)
		saved := finance.FormatMoneyWhole(gp.Saved)
		target := finance.FormatMoneyWhole(gp.Goal.Target)
		pct := gp.PctComplete

		switch {
		case pct >= 95 && pct <= 100:
			out = append(out, Candidate{
				Key: keyBase + "_almost",
				Text: fmt.Sprintf("🎉 %s, you're SO close! %s of %s saved — that's %.0f%%! Just a little more! 🚀",
					name, saved, target, pct),
			})
		case pct >= 75:
			out = append(out, Candidate{
				Key: keyBase + "_75",
				Text: fmt.Sprintf("💪 %s, you're %.0f%% to your %s %s — %s saved so far! Keep that momentum!",
					name, pct, target, gp.Goal.Name, saved),
			})
		case pct >= 50:
			out = append(out, Candidate{
				Key: keyBase + "_50",
				Text: fmt.Sprintf("🌟 Halfway there! You've saved %s of %s (%.0f%%). You're doing great, %s!",
					saved, target, pct, name),
			})
		case pct >= 25:
			out = append(out, Candidate{
				Key: keyBase + "_25",
				Text: fmt.Sprintf("📊 %.0f%% of the way to your %s %s! %s saved so far. Every dollar counts 💛",
					pct, target, gp.Goal.Name, saved),
			})
		}

		if !gp.OnTrack && pct >= 25 && gp.DaysRemaining > 0 {
			out = append(out, Candidate{
				Key: keyBase + "_behind",
				Text: fmt.Sprintf("📉 Your %s is a little behind pace — %s of %s with %d days left. Need about %s/day to catch up. You can do it! 💪",
					gp.Goal.Name, saved, target, gp.DaysRemaining, finance.FormatMoneyWhole(gp.DailyTarget)),
			})
		}
	}
	return out, nil
}

func displayName(name string) string {
	if name == "" {
		return "there"
	}
	return name
}
