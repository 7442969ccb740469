// Package money converts between ledger amounts (integers in the smallest
// currency unit) and human-readable decimal strings.
package money

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// exponents maps ISO 4217 codes to their number of minor-unit digits.
// Unlisted currencies default to 2.
var exponents = map[string]int32{
	"IRR": 0,
	"IRT": 0,
	"JPY": 0,
	"KRW": 0,
	"USD": 2,
	"EUR": 2,
	"GBP": 2,
	"AED": 2,
	"TRY": 2,
	"BHD": 3,
	"KWD": 3,
	"OMR": 3,
}

// Exponent returns the number of decimal places of the currency.
func Exponent(currency string) int32 {
	if exp, ok := exponents[strings.ToUpper(currency)]; ok {
		return exp
	}
	return 2
}

// ToDecimal converts minor units into a decimal major-unit amount.
func ToDecimal(amount int64, currency string) decimal.Decimal {
	return decimal.New(amount, -Exponent(currency))
}

// Format renders an amount with thousands separators and the currency code,
// e.g. Format(123456, "USD") == "1,234.56 USD".
func Format(amount int64, currency string) string {
	exp := Exponent(currency)
	s := ToDecimal(amount, currency).StringFixed(exp)

	sign := ""
	if strings.HasPrefix(s, "-") {
		sign, s = "-", s[1:]
	}
	whole, frac, _ := strings.Cut(s, ".")

	var b strings.Builder
	b.WriteString(sign)
	for i, r := range whole {
		if i > 0 && (len(whole)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	if frac != "" {
		b.WriteByte('.')
		b.WriteString(frac)
	}
	if currency != "" {
		b.WriteByte(' ')
		b.WriteString(strings.ToUpper(currency))
	}
	return b.String()
}

// Parse reads a major-unit amount such as "1,234.5" into minor units.
// More decimal places than the currency allows is an error.
func Parse(s, currency string) (int64, error) {
	d, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimSpace(s), ",", ""))
	if err != nil {
		return 0, fmt.Errorf("parse amount %q: %w", s, err)
	}

	minor := d.Shift(Exponent(currency))
	if !minor.Equal(minor.Truncate(0)) {
		return 0, fmt.Errorf("amount %q has more than %d decimal places for %s", s, Exponent(currency), currency)
	}
	if minor.Abs().GreaterThan(decimal.NewFromInt(1<<62)) {
		return 0, fmt.Errorf("amount %q out of range", s)
	}
	return minor.IntPart(), nil
}
