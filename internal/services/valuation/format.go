package valuation

import (
	"fmt"
	"math"
	"strings"
)

// FormatMoney renders a dollar amount with thousands grouping and two
// decimals, e.g. 1500 -> "$1,500.00", -50 -> "-$50.00".
func FormatMoney(v float64) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return sign + "$" + groupThousands(v)
}

// FormatSignedMoney renders a dollar amount with an explicit sign,
// e.g. 200 -> "+$200.00", -50 -> "-$50.00", 0 -> "$0.00".
func FormatSignedMoney(v float64) string {
	if v > 0 {
		return "+$" + groupThousands(v)
	}
	return FormatMoney(v)
}

// FormatPercent renders a percentage with one decimal, e.g. 70 -> "70.0%".
// Exact zero renders "0.0%" with no sign.
func FormatPercent(v float64) string {
	if v == 0 {
		return "0.0%"
	}
	return fmt.Sprintf("%.1f%%", v)
}

func groupThousands(v float64) string {
	s := fmt.Sprintf("%.2f", math.Abs(v))
	dot := strings.Index(s, ".")
	whole, frac := s[:dot], s[dot:]

	if len(whole) <= 3 {
		return whole + frac
	}

	var b strings.Builder
	lead := len(whole) % 3
	if lead > 0 {
		b.WriteString(whole[:lead])
	}
	for i := lead; i < len(whole); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(whole[i : i+3])
	}
	return b.String() + frac
}
