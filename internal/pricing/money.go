package pricing

import (
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// Amount is a monetary value in whole currency units. Amounts are never rounded
// inside the engine.
type Amount = float64

// num coerces non-finite values to zero so they never propagate into totals.
func num(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// qty returns the effective quantity: absent (zero) or non-finite quantities count as one.
func qty(v float64) float64 {
	v = num(v)
	if v == 0 {
		return 1
	}
	return v
}

// rate converts a percent value into a fraction.
func rate(percent float64) float64 {
	return num(percent) / 100
}

// divide returns n/d and false when d is zero or the result is not finite.
func divide(n, d float64) (float64, bool) {
	if d == 0 {
		return 0, false
	}
	v := n / d
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// ParseAmount reads a currency amount formatted for display, e.g. "1.234.567",
// "1,234,567.50", "Rp 150.000" or "180000đ". Unparsable input yields zero.
func ParseAmount(raw string) Amount {
	s := strings.TrimSpace(raw)
	if s == "" {
		return 0
	}
	negative := signedPrefix(s) || (strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")"))

	var b strings.Builder
	for _, r := range s {
		if unicode.IsDigit(r) || r == '.' || r == ',' {
			b.WriteRune(r)
		}
	}
	digits := normaliseSeparators(b.String())
	if digits == "" {
		return 0
	}
	d, err := decimal.NewFromString(digits)
	if err != nil {
		return 0
	}
	if negative {
		d = d.Neg()
	}
	return num(d.InexactFloat64())
}

// signedPrefix reports a minus sign ahead of the first digit, so currency
// prefixes such as "Rp -150.000" keep their sign.
func signedPrefix(s string) bool {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return false
	}
	return strings.Contains(s[:i], "-")
}

// normaliseSeparators decides which of '.' and ',' is the decimal mark and
// strips the other as a thousands separator.
func normaliseSeparators(s string) string {
	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			return strings.ReplaceAll(s, ",", "")
		}
		s = strings.ReplaceAll(s, ".", "")
		return strings.Replace(s, ",", ".", 1)
	case lastDot >= 0:
		return singleSeparator(s, ".")
	case lastComma >= 0:
		return singleSeparator(s, ",")
	default:
		return s
	}
}

// singleSeparator handles strings using only one separator character. A single
// occurrence followed by exactly three digits is a thousands separator unless the
// integer part is zero; repeated occurrences always are.
func singleSeparator(s, sep string) string {
	if strings.Count(s, sep) > 1 {
		return strings.ReplaceAll(s, sep, "")
	}
	idx := strings.Index(s, sep)
	if len(s)-idx-1 == 3 && idx > 0 && strings.Trim(s[:idx], "0") != "" {
		return strings.ReplaceAll(s, sep, "")
	}
	return strings.Replace(s, sep, ".", 1)
}
