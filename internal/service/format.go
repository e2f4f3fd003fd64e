package service

import (
	"strings"

	"github.com/shopspring/decimal"
)

// formatAmount renders money with thousands separators, e.g. 150000000 ->
// "150,000,000" and 1234.5 -> "1,234.50".
func formatAmount(d decimal.Decimal) string {
	sign := ""
	if d.IsNegative() {
		sign = "-"
		d = d.Abs()
	}

	fixed := d.StringFixed(2)
	intPart, fracPart, _ := strings.Cut(fixed, ".")

	var b strings.Builder
	for i, c := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(c)
	}

	if fracPart == "00" {
		return sign + b.String()
	}
	return sign + b.String() + "." + fracPart
}
