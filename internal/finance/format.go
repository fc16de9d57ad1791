package finance

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatMoneyWhole renders an amount rounded to whole dollars, "$1,235".
func FormatMoneyWhole(d decimal.Decimal) string {
	s := FormatMoney(d.Round(0))
	return strings.TrimSuffix(s, ".00")
}

// FormatMoney renders an amount as "$1,234.56". Negative amounts keep the
// sign ahead of the dollar: "-$12.00".
func FormatMoney(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}
	s := d.StringFixed(2)
	dot := strings.IndexByte(s, '.')
	whole, frac := s[:dot], s[dot:]

	var b strings.Builder
	for i, c := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}
	return sign + "$" + b.String() + frac
}
