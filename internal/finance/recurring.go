package finance

import (
	"math"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Frequency buckets a recurring charge's cadence.
type Frequency string

const (
	FrequencyWeekly    Frequency = "weekly"
	FrequencyBiweekly  Frequency = "biweekly"
	FrequencyMonthly   Frequency = "monthly"
	FrequencyQuarterly Frequency = "quarterly"
	FrequencyAnnual    Frequency = "annual"
	FrequencyIrregular Frequency = "irregular"
)

// canonicalGapDays is the idealized cycle length used to predict the next
// charge for each frequency class.
var canonicalGapDays = map[Frequency]int{
	FrequencyWeekly:    7,
	FrequencyBiweekly:  14,
	FrequencyMonthly:   30,
	FrequencyQuarterly: 91,
	FrequencyAnnual:    365,
}

// RecurringCharge is one detected bill or subscription.
type RecurringCharge struct {
	Merchant      string            `json:"merchant"` // display name from the most recent charge
	AmountHistory []decimal.Decimal `json:"amountHistory"`
	AvgAmount     decimal.Decimal   `json:"avgAmount"`
	Frequency     Frequency         `json:"frequency"`
	Occurrences   int               `json:"occurrences"`
	LastDate      time.Time         `json:"lastDate"`
	NextExpected  time.Time         `json:"nextExpected"`
	Category      string            `json:"category"`
	Confidence    float64           `json:"confidence"` // 0-1
}

// RecentAmount is the most recent charge amount.
func (r RecurringCharge) RecentAmount() decimal.Decimal {
	if len(r.AmountHistory) == 0 {
		return decimal.Zero
	}
	return r.AmountHistory[len(r.AmountHistory)-1]
}

// DaysUntilNext returns whole days from today until the predicted charge.
func (r RecurringCharge) DaysUntilNext(today time.Time) int {
	return int(r.NextExpected.Sub(midnight(today)).Hours() / 24)
}

// DetectRecurringCharges groups outflows by normalized merchant and keeps
// the groups whose timing looks like a billing cycle. The same input always
// yields the same output; nothing is cached between calls.
func DetectRecurringCharges(txns []Transaction, minOccurrences int) []RecurringCharge {
	return detectRecurringChargesAt(txns, minOccurrences, time.Now().UTC())
}

// DetectRecurringChargesAsOf is DetectRecurringCharges evaluated against an
// explicit reference day instead of the wall clock.
func DetectRecurringChargesAsOf(txns []Transaction, minOccurrences int, today time.Time) []RecurringCharge {
	return detectRecurringChargesAt(txns, minOccurrences, today)
}

func detectRecurringChargesAt(txns []Transaction, minOccurrences int, today time.Time) []RecurringCharge {
	if minOccurrences < 2 {
		minOccurrences = 2
	}
	today = midnight(today)

	byMerchant := make(map[string][]Transaction)
	for _, t := range txns {
		if !t.Outflow() {
			continue
		}
		key := NormalizeMerchant(t.Merchant)
		if key == "" {
			continue
		}
		byMerchant[key] = append(byMerchant[key], t)
	}

	var recurring []RecurringCharge
	for key, group := range byMerchant {
		if len(group) < minOccurrences {
			continue
		}

		sort.Slice(group, func(i, j int) bool { return group[i].Date < group[j].Date })

		var dates []time.Time
		var amounts []decimal.Decimal
		for _, t := range group {
			d, ok := t.Day()
			if !ok {
				continue
			}
			dates = append(dates, d)
			amounts = append(amounts, t.Amount)
		}
		if len(dates) < minOccurrences {
			continue
		}

		gaps := make([]float64, 0, len(dates)-1)
		for i := 1; i < len(dates); i++ {
			gaps = append(gaps, dates[i].Sub(dates[i-1]).Hours()/24)
		}

		avgGap := mean(gaps)
		freq, confidence := classifyFrequency(gaps, avgGap)

		avgAmount := decimalMean(amounts)
		if amountSpread(amounts).LessThan(avgAmount.Mul(decimal.NewFromFloat(0.1))) {
			confidence += 0.15
		}
		if IsKnownSubscription(key) {
			confidence += 0.2
		}
		if confidence > 1.0 {
			confidence = 1.0
		}
		if confidence < 0.3 {
			continue
		}

		last := dates[len(dates)-1]
		latest := group[len(group)-1]
		recurring = append(recurring, RecurringCharge{
			Merchant:      latest.Merchant,
			AmountHistory: amounts,
			AvgAmount:     avgAmount.Round(2),
			Frequency:     freq,
			Occurrences:   len(dates),
			LastDate:      last,
			NextExpected:  predictNextDate(last, freq, avgGap, today),
			Category:      category(latest),
			Confidence:    math.Round(confidence*100) / 100,
		})
	}

	sort.SliceStable(recurring, func(i, j int) bool {
		if recurring[i].Confidence != recurring[j].Confidence {
			return recurring[i].Confidence > recurring[j].Confidence
		}
		if !recurring[i].RecentAmount().Equal(recurring[j].RecentAmount()) {
			return recurring[i].RecentAmount().GreaterThan(recurring[j].RecentAmount())
		}
		return recurring[i].Merchant < recurring[j].Merchant
	})
	return recurring
}

// classifyFrequency maps the average gap between charges to a cadence
// bucket. Confidence scales with how consistent the gaps are; an erratic
// history never scores above the detector's discard threshold.
func classifyFrequency(gaps []float64, avgGap float64) (Frequency, float64) {
	if len(gaps) == 0 {
		return FrequencyIrregular, 0
	}

	variance := 0.0
	for _, g := range gaps {
		variance += (g - avgGap) * (g - avgGap)
	}
	variance /= float64(len(gaps))
	stdDev := math.Sqrt(variance)
	consistency := 1.0 - math.Min(stdDev/math.Max(avgGap, 1), 1.0)

	switch {
	case avgGap >= 25 && avgGap <= 35:
		return FrequencyMonthly, 0.4 + consistency*0.5
	case avgGap >= 5 && avgGap <= 9:
		return FrequencyWeekly, 0.4 + consistency*0.5
	case avgGap >= 12 && avgGap <= 16:
		return FrequencyBiweekly, 0.35 + consistency*0.5
	case avgGap >= 85 && avgGap <= 100:
		return FrequencyQuarterly, 0.3 + consistency*0.4
	case avgGap >= 355 && avgGap <= 375:
		return FrequencyAnnual, 0.3 + consistency*0.4
	default:
		return FrequencyIrregular, math.Max(0.1, consistency*0.3)
	}
}

// predictNextDate advances last by whole cycle lengths until the prediction
// is not in the past.
func predictNextDate(last time.Time, freq Frequency, avgGap float64, today time.Time) time.Time {
	gap, ok := canonicalGapDays[freq]
	if !ok {
		gap = int(math.Round(avgGap))
	}
	if gap <= 0 {
		gap = 1
	}

	next := last.AddDate(0, 0, gap)
	for next.Before(today) {
		next = next.AddDate(0, 0, gap)
	}
	return next
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sum := 0.0
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

func decimalMean(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, x := range xs {
		sum = sum.Add(x)
	}
	return sum.Div(decimal.NewFromInt(int64(len(xs))))
}

func amountSpread(xs []decimal.Decimal) decimal.Decimal {
	if len(xs) < 2 {
		return decimal.Zero
	}
	min, max := xs[0], xs[0]
	for _, x := range xs[1:] {
		if x.LessThan(min) {
			min = x
		}
		if x.GreaterThan(max) {
			max = x
		}
	}
	return max.Sub(min)
}
