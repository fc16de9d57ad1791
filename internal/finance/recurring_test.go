package finance

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func txn(merchant, date, category string, amount float64) Transaction {
	return Transaction{
		Merchant: merchant,
		Amount:   decimal.NewFromFloat(amount),
		Date:     date,
		Category: category,
	}
}

func day(t *testing.T, date string) time.Time {
	t.Helper()
	d, err := time.Parse(DateLayout, date)
	if err != nil {
		t.Fatalf("bad test date %q: %v", date, err)
	}
	return d
}

func TestDetectRecurringMonthlySubscription(t *testing.T) {
	txns := []Transaction{
		txn("NETFLIX.COM", "2025-01-03", "Entertainment", 15.99),
		txn("NETFLIX.COM", "2025-02-03", "Entertainment", 15.99),
		txn("NETFLIX.COM", "2025-03-04", "Entertainment", 15.99),
		txn("NETFLIX.COM", "2025-04-03", "Entertainment", 15.99),
		txn("NETFLIX.COM", "2025-05-02", "Entertainment", 15.99),
		// noise
		txn("Trader Joe's", "2025-03-11", "Groceries", 82.10),
		txn("Payroll", "2025-03-15", "Income", -2400),
	}
	today := day(t, "2025-05-10")

	got := detectRecurringChargesAt(txns, 2, today)
	if len(got) != 1 {
		t.Fatalf("expected 1 recurring charge, got %d: %+v", len(got), got)
	}
	b := got[0]
	if b.Frequency != FrequencyMonthly {
		t.Errorf("frequency = %s, want monthly", b.Frequency)
	}
	if b.Confidence < 0.85 {
		t.Errorf("confidence = %.2f, want >= 0.85", b.Confidence)
	}
	if b.Occurrences != 5 {
		t.Errorf("occurrences = %d, want 5", b.Occurrences)
	}
	if !b.AvgAmount.Equal(decimal.NewFromFloat(15.99)) {
		t.Errorf("avg amount = %s, want 15.99", b.AvgAmount)
	}
	if b.NextExpected.Before(today) {
		t.Errorf("next expected %s is in the past", b.NextExpected.Format(DateLayout))
	}
	if b.LastDate != day(t, "2025-05-02") {
		t.Errorf("last date = %s, want 2025-05-02", b.LastDate.Format(DateLayout))
	}
}

func TestDetectRecurringDeterministic(t *testing.T) {
	txns := []Transaction{
		txn("Spotify USA Inc", "2025-02-01", "Entertainment", 11.99),
		txn("Spotify USA Inc", "2025-03-01", "Entertainment", 11.99),
		txn("Rent Payment", "2025-02-01", "Rent", 1800),
		txn("Rent Payment", "2025-03-01", "Rent", 1800),
		txn("Rent Payment", "2025-04-01", "Rent", 1800),
	}
	today := day(t, "2025-04-05")

	first := detectRecurringChargesAt(txns, 2, today)
	second := detectRecurringChargesAt(txns, 2, today)
	if len(first) != len(second) {
		t.Fatalf("detector not deterministic: %d vs %d results", len(first), len(second))
	}
	for i := range first {
		if first[i].Merchant != second[i].Merchant || first[i].Confidence != second[i].Confidence {
			t.Errorf("result %d differs between runs: %+v vs %+v", i, first[i], second[i])
		}
	}
	// higher confidence first, ties broken by recent amount
	for i := 1; i < len(first); i++ {
		if first[i].Confidence > first[i-1].Confidence {
			t.Errorf("results not sorted by confidence: %+v", first)
		}
	}
}

func TestDetectRecurringIgnoresErraticSpending(t *testing.T) {
	txns := []Transaction{
		txn("Corner Deli", "2025-01-02", "Food and Drink", 9.50),
		txn("Corner Deli", "2025-01-05", "Food and Drink", 22.00),
		txn("Corner Deli", "2025-02-19", "Food and Drink", 4.75),
		txn("Corner Deli", "2025-03-01", "Food and Drink", 31.20),
	}
	got := detectRecurringChargesAt(txns, 2, day(t, "2025-03-10"))
	if len(got) != 0 {
		t.Errorf("erratic merchant should not be recurring, got %+v", got)
	}
}

func TestDetectRecurringMinOccurrences(t *testing.T) {
	txns := []Transaction{
		txn("NETFLIX.COM", "2025-01-03", "Entertainment", 15.99),
		txn("NETFLIX.COM", "2025-02-03", "Entertainment", 15.99),
	}
	if got := detectRecurringChargesAt(txns, 3, day(t, "2025-02-10")); len(got) != 0 {
		t.Errorf("two charges should not satisfy minOccurrences=3, got %+v", got)
	}
	if got := detectRecurringChargesAt(txns, 2, day(t, "2025-02-10")); len(got) != 1 {
		t.Errorf("two charges should satisfy minOccurrences=2, got %+v", got)
	}
}

func TestDetectRecurringSkipsInflows(t *testing.T) {
	txns := []Transaction{
		txn("Payroll", "2025-01-15", "Income", -2400),
		txn("Payroll", "2025-02-15", "Income", -2400),
		txn("Payroll", "2025-03-15", "Income", -2400),
	}
	if got := detectRecurringChargesAt(txns, 2, day(t, "2025-03-20")); len(got) != 0 {
		t.Errorf("inflows should never be recurring charges, got %+v", got)
	}
}

func TestPredictNextDateRollsForward(t *testing.T) {
	last := day(t, "2025-01-10")
	today := day(t, "2025-04-20")

	next := predictNextDate(last, FrequencyMonthly, 30, today)
	if next.Before(today) {
		t.Errorf("next = %s, want >= today %s", next.Format(DateLayout), today.Format(DateLayout))
	}
	// rolled in whole 30-day cycles from the last charge
	if diff := int(next.Sub(last).Hours() / 24); diff%30 != 0 {
		t.Errorf("next %s is not a whole number of cycles after %s", next.Format(DateLayout), last.Format(DateLayout))
	}
}

func TestClassifyFrequencyBuckets(t *testing.T) {
	cases := []struct {
		gaps []float64
		want Frequency
	}{
		{[]float64{7, 7, 7}, FrequencyWeekly},
		{[]float64{14, 14}, FrequencyBiweekly},
		{[]float64{30, 31, 29}, FrequencyMonthly},
		{[]float64{91, 92}, FrequencyQuarterly},
		{[]float64{365}, FrequencyAnnual},
		{[]float64{3, 45, 80}, FrequencyIrregular},
	}
	for _, c := range cases {
		freq, _ := classifyFrequency(c.gaps, mean(c.gaps))
		if freq != c.want {
			t.Errorf("classifyFrequency(%v) = %s, want %s", c.gaps, freq, c.want)
		}
	}
}

func TestDetectRecurringChargesStableAmountScoresHigher(t *testing.T) {
	// Same monthly cadence; one merchant bills a constant amount, the
	// other swings well past 10% of its mean.
	txns := []Transaction{
		txn("Lawn Care", "2025-01-05", "Home", 45),
		txn("Lawn Care", "2025-02-05", "Home", 45),
		txn("Lawn Care", "2025-03-05", "Home", 45),
		txn("Pool Care", "2025-01-05", "Home", 30),
		txn("Pool Care", "2025-02-05", "Home", 45),
		txn("Pool Care", "2025-03-05", "Home", 60),
	}
	charges := DetectRecurringChargesAsOf(txns, 3, day(t, "2025-03-20"))
	if len(charges) != 2 {
		t.Fatalf("expected 2 charges, got %d: %+v", len(charges), charges)
	}
	byName := map[string]RecurringCharge{}
	for _, c := range charges {
		byName[c.Merchant] = c
	}
	steady, swinging := byName["lawn care"], byName["pool care"]
	if steady.Merchant == "" || swinging.Merchant == "" {
		t.Fatalf("missing merchants in %+v", charges)
	}
	if steady.Confidence <= swinging.Confidence {
		t.Errorf("stable amount confidence %.2f should beat varying %.2f",
			steady.Confidence, swinging.Confidence)
	}
}
