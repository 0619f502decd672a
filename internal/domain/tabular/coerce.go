package tabular

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseDecimal coerces a cell into a number. Empty, non-numeric or "NaN"-like
// cells yield an invalid NullDecimal. Both "1.5" and "1,5" are accepted; when
// both separators appear the last one is the decimal mark.
func ParseDecimal(cell string) decimal.NullDecimal {
	s := normalizeNumber(cell)
	if s == "" {
		return decimal.NullDecimal{}
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(d)
}

// ParseCode coerces a cell into an integer code. Sheets often render integer
// columns as "100.0", which is accepted; "100.5" is not, and neither is a
// value outside the int64 range.
func ParseCode(cell string) (int64, bool) {
	n := ParseDecimal(cell)
	if !n.Valid {
		return 0, false
	}
	if !n.Decimal.Equal(n.Decimal.Truncate(0)) {
		return 0, false
	}
	code := n.Decimal.BigInt()
	if !code.IsInt64() {
		return 0, false
	}
	return code.Int64(), true
}

// FormatDecimal renders a quantity for writing back to a cell at full precision
func FormatDecimal(d decimal.Decimal) string {
	return d.String()
}

func normalizeNumber(cell string) string {
	s := strings.TrimSpace(cell)
	s = strings.ReplaceAll(s, " ", "")
	s = strings.ReplaceAll(s, " ", "")
	switch strings.ToLower(s) {
	case "", "nan", "null", "none", "-", "n/a":
		return ""
	}

	lastDot := strings.LastIndex(s, ".")
	lastComma := strings.LastIndex(s, ",")
	switch {
	case lastComma >= 0 && lastDot >= 0:
		if lastComma > lastDot {
			// 1.234,56
			s = strings.ReplaceAll(s, ".", "")
			s = strings.Replace(s, ",", ".", 1)
		} else {
			// 1,234.56
			s = strings.ReplaceAll(s, ",", "")
		}
	case lastComma >= 0:
		if strings.Count(s, ",") > 1 {
			return ""
		}
		s = strings.Replace(s, ",", ".", 1)
	}
	return s
}
