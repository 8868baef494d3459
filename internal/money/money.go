// Package money holds the fixed-point arithmetic and formatting conventions
// shared by every calculator.
//
// All monetary values are decimal.Decimal, never float64. Boundary objects
// render amounts through GBP so that every figure handed to the narrator has
// the exact shape the grounding registry and output guard pattern-match
// against: a pound sign, comma-grouped thousands, and exactly two decimals.
package money

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// CurrencyPattern matches pound amounts in free text, e.g. "£1,234.56",
// "£999" or "£12.5". Both the output guard and the grounded-amount
// extractor use this single definition.
var CurrencyPattern = regexp.MustCompile(`£[\d,]+\.?\d*`)

// ExactCurrencyPattern matches a string that is nothing but a pound
// amount. Used when classifying whole field values rather than scanning
// free text.
var ExactCurrencyPattern = regexp.MustCompile(`^£[\d,]+\.?\d*$`)

var (
	hundred = decimal.NewFromInt(100)
	twelve  = decimal.NewFromInt(12)
)

// GBP renders a decimal as a pound string with comma-grouped thousands and
// exactly two decimal places: 1234.5 -> "£1,234.56" style. Negative values
// render as "-£123.45".
func GBP(d decimal.Decimal) string {
	neg := d.IsNegative()
	fixed := d.Abs().StringFixed(2)

	intPart, fracPart, _ := strings.Cut(fixed, ".")
	out := "£" + groupThousands(intPart) + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}

func groupThousands(digits string) string {
	n := len(digits)
	if n <= 3 {
		return digits
	}
	var b strings.Builder
	head := n % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < n; i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// Percent1 renders a fraction (0.253) as a percentage with one decimal
// place ("25.3%").
func Percent1(frac decimal.Decimal) string {
	return frac.Mul(hundred).Round(1).String() + "%"
}

// Percent2 renders a fraction with two decimal places ("4.99%").
func Percent2(frac decimal.Decimal) string {
	return frac.Mul(hundred).Round(2).String() + "%"
}

// SafeDiv divides a by b, returning zero when the denominator is zero.
// Divisions against income or spend can legitimately hit zero for sparse
// histories and must never panic or produce an undefined value.
func SafeDiv(a, b decimal.Decimal) decimal.Decimal {
	if b.IsZero() {
		return decimal.Zero
	}
	return a.Div(b)
}

// Avg returns the mean of values, or zero for an empty slice.
func Avg(values []decimal.Decimal) decimal.Decimal {
	if len(values) == 0 {
		return decimal.Zero
	}
	sum := decimal.Zero
	for _, v := range values {
		sum = sum.Add(v)
	}
	return sum.Div(decimal.NewFromInt(int64(len(values))))
}

// MonthlyRate converts an annual fractional rate to its monthly equivalent.
func MonthlyRate(annual decimal.Decimal) decimal.Decimal {
	return annual.Div(twelve)
}

// Round2 quantizes to two decimal places, the precision every monetary
// output is held to.
func Round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
