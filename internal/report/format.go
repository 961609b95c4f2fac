package report

import (
	"strings"

	"github.com/shopspring/decimal"
)

// FormatBRL formats v with two decimals in the Brazilian style: 1.234.567,89.
// It does not depend on the process locale.
func FormatBRL(v float64) string {
	return formatBR(v, 2)
}

// FormatPercent formats v with two decimals and a decimal comma, without the sign.
func FormatPercent(v float64) string {
	return formatBR(v, 2)
}

// FormatRatio formats an index such as AC/AP.
func FormatRatio(v float64) string {
	return formatBR(v, 2)
}

func formatBR(v float64, places int32) string {
	s := decimal.NewFromFloat(v).StringFixed(places)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, frac, _ := strings.Cut(s, ".")
	var b strings.Builder
	if neg && strings.Trim(intPart+frac, "0") != "" {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte(',')
		b.WriteString(frac)
	}
	return b.String()
}
