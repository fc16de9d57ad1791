// Package finance holds the analytics that decide what is worth telling the
// user about: recurring-charge detection, spending anomaly checks, savings
// goal tracking, and money personality insights. All analysis is derived
// fresh from the transaction window on every call; nothing here caches.
package finance

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the wire format for transaction dates.
const DateLayout = "2006-01-02"

// Transaction is one bank record as supplied by the external source.
// Positive amounts are money out, negative amounts are money in.
type Transaction struct {
	Merchant string          `json:"merchant"`
	Amount   decimal.Decimal `json:"amount"`
	Date     string          `json:"date"` // "YYYY-MM-DD"
	Category string          `json:"category"`
}

// Day parses the transaction date. ok is false for malformed records,
// which callers skip rather than fail on.
func (t Transaction) Day() (time.Time, bool) {
	d, err := time.Parse(DateLayout, t.Date)
	if err != nil {
		return time.Time{}, false
	}
	return d, true
}

// Outflow reports whether the transaction is a spend.
func (t Transaction) Outflow() bool {
	return t.Amount.IsPositive()
}

// TransactionSource supplies transactions for a trailing window of days.
// Implementations live with the host; detectors treat a fetch failure as
// "no data" and degrade to empty results.
type TransactionSource interface {
	Fetch(ctx context.Context, daysBack int) ([]Transaction, error)
}

func category(t Transaction) string {
	if t.Category == "" {
		return "Other"
	}
	return t.Category
}

func daysIn(month time.Month, year int) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

func midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
