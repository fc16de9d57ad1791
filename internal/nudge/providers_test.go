package nudge

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RichardEchols/kiyomi-lite/internal/finance"
	"github.com/RichardEchols/kiyomi-lite/internal/store"
)

type sliceSource struct {
	txns []finance.Transaction
	err  error
}

func (s sliceSource) Fetch(ctx context.Context, daysBack int) ([]finance.Transaction, error) {
	return s.txns, s.err
}

func ftxn(merchant, date, category string, amount float64) finance.Transaction {
	return finance.Transaction{
		Merchant: merchant,
		Amount:   decimal.NewFromFloat(amount),
		Date:     date,
		Category: category,
	}
}

func netflixHistory() []finance.Transaction {
	return []finance.Transaction{
		ftxn("NETFLIX.COM", "2025-01-03", "Entertainment", 15.99),
		ftxn("NETFLIX.COM", "2025-02-03", "Entertainment", 15.99),
		ftxn("NETFLIX.COM", "2025-03-04", "Entertainment", 15.99),
		ftxn("NETFLIX.COM", "2025-04-03", "Entertainment", 15.99),
	}
}

func TestBillReminderLeadTimes(t *testing.T) {
	// next expected charge rolls to 2025-05-03
	cases := []struct {
		today      string
		wantSuffix string
	}{
		{"2025-04-30", "_3day"},
		{"2025-05-02", "_tomorrow"},
		{"2025-05-03", "_today"},
	}
	for _, c := range cases {
		p := NewBillReminderProvider(sliceSource{txns: netflixHistory()}, 120, "Richard")
		now := mustDay(t, c.today)
		p.now = func() time.Time { return now }

		got, err := p.Check(context.Background())
		if err != nil {
			t.Fatalf("Check(%s): %v", c.today, err)
		}
		if len(got) != 1 {
			t.Fatalf("Check(%s) = %d candidates, want 1: %+v", c.today, len(got), got)
		}
		if !strings.HasSuffix(got[0].Key, c.wantSuffix) {
			t.Errorf("Check(%s) key = %q, want suffix %q", c.today, got[0].Key, c.wantSuffix)
		}
		if !strings.Contains(got[0].Key, "2025-05-03") {
			t.Errorf("key %q should pin the expected date", got[0].Key)
		}
	}
}

func TestBillReminderQuietOffLeadDays(t *testing.T) {
	p := NewBillReminderProvider(sliceSource{txns: netflixHistory()}, 120, "Richard")
	now := mustDay(t, "2025-04-29") // 4 days out
	p.now = func() time.Time { return now }

	got, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("4 days out should stay silent, got %+v", got)
	}
}

func TestBillReminderSourceError(t *testing.T) {
	p := NewBillReminderProvider(sliceSource{err: errors.New("source offline")}, 120, "")
	if _, err := p.Check(context.Background()); err == nil {
		t.Error("source failure should surface as an error")
	}
}

func TestSpendingAlertProviderTopSpikeOnly(t *testing.T) {
	txns := []finance.Transaction{
		ftxn("Corner Deli", "2025-03-08", "Food and Drink", 200),
		ftxn("Corner Deli", "2025-04-04", "Food and Drink", 120),
		ftxn("Lyft", "2025-03-15", "Transport", 100),
		ftxn("Lyft", "2025-04-06", "Transport", 100),
	}
	p := NewSpendingAlertProvider(sliceSource{txns: txns}, 120)
	now := mustDay(t, "2025-04-10")
	p.now = func() time.Time { return now }

	got, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected only the biggest spike, got %+v", got)
	}
	if got[0].Key != "spending_spike_Transport_2025-04" {
		t.Errorf("key = %q, want spending_spike_Transport_2025-04", got[0].Key)
	}
	if !strings.Contains(got[0].Text, "Transport") {
		t.Errorf("text = %q, want the spiking category named", got[0].Text)
	}
}

func TestSpendingAlertProviderQuietWhenSteady(t *testing.T) {
	txns := []finance.Transaction{
		ftxn("Corner Deli", "2025-03-08", "Food and Drink", 300),
		ftxn("Corner Deli", "2025-04-04", "Food and Drink", 100),
	}
	p := NewSpendingAlertProvider(sliceSource{txns: txns}, 120)
	now := mustDay(t, "2025-04-10")
	p.now = func() time.Time { return now }

	got, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("steady spending should produce no candidates, got %+v", got)
	}
}

func TestSavingsMotivationMilestone(t *testing.T) {
	goals := finance.NewGoalTracker(store.New(filepath.Join(t.TempDir(), "goals.json")))
	if _, err := goals.SetGoal("Vacation fund", decimal.NewFromInt(100), finance.PeriodMonth); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	// goal windows are anchored to the wall clock, so the fixture is too
	today := time.Now().UTC().Format(finance.DateLayout)
	txns := []finance.Transaction{
		ftxn("Payroll", today, "Income", -60),
	}

	p := NewSavingsMotivationProvider(sliceSource{txns: txns}, goals, 45, "Richard")
	got, err := p.Check(context.Background())
	if err != nil {
		t.Fatalf("Check: %v", err)
	}
	var milestone *Candidate
	for i := range got {
		if strings.HasSuffix(got[i].Key, "_50") {
			milestone = &got[i]
		}
	}
	if milestone == nil {
		t.Fatalf("60%% saved should hit the halfway milestone, got %+v", got)
	}
	if !strings.Contains(milestone.Text, "Halfway there") {
		t.Errorf("text = %q, want the halfway copy", milestone.Text)
	}
	if !strings.Contains(milestone.Key, "Vacation fund") {
		t.Errorf("key = %q, want the goal name embedded", milestone.Key)
	}
}

func TestSavingsMotivationAvailability(t *testing.T) {
	goals := finance.NewGoalTracker(store.New(filepath.Join(t.TempDir(), "goals.json")))
	if (&SavingsMotivationProvider{}).Available() {
		t.Error("provider with no wiring should be unavailable")
	}
	if !NewSavingsMotivationProvider(sliceSource{}, goals, 45, "").Available() {
		t.Error("fully wired provider should be available")
	}
}

func mustDay(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse(finance.DateLayout, date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return d
}
