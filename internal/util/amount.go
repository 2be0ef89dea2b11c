package util

import (
	"fmt"
	"math"
	"strings"
	"unicode"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a locale-formatted money cell ("1 234,50 €") and never
// fails: blanks and garbage yield zero.
func ParseAmount(cell any) decimal.Decimal {
	switch v := cell.(type) {
	case nil:
		return decimal.Zero
	case decimal.Decimal:
		return v
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero
		}
		return decimal.NewFromFloat(v)
	case float32:
		return ParseAmount(float64(v))
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		return parseAmountText(v)
	default:
		return parseAmountText(fmt.Sprint(v))
	}
}

func parseAmountText(input string) decimal.Decimal {
	compact := strings.Map(func(r rune) rune {
		if r == '€' || unicode.IsSpace(r) {
			return -1
		}
		return r
	}, input)
	compact = strings.ReplaceAll(compact, ",", ".")
	if compact == "" {
		return decimal.Zero
	}
	parsed, err := decimal.NewFromString(compact)
	if err != nil {
		return decimal.Zero
	}
	return parsed
}

// FormatEuros renders a whole-euro amount with space thousands: "1 234 €".
func FormatEuros(amount decimal.Decimal) string {
	digits := amount.Round(0).StringFixed(0)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign = "-"
		digits = digits[1:]
	}

	out := strings.Builder{}
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(' ')
		}
		out.WriteRune(r)
	}
	return sign + out.String() + " €"
}

// FormatSheetAmount writes an amount back in the sheet's decimal-comma form.
func FormatSheetAmount(amount decimal.Decimal) string {
	return strings.ReplaceAll(amount.StringFixed(2), ".", ",")
}
