package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// DefaultCurrency is the suffix appended to every rendered price.
const DefaultCurrency = "EGP"

// ErrInvalidPrice is returned when a display price is not "<amount> <CUR>".
var ErrInvalidPrice = errors.New("domain: invalid price")

var hundred = decimal.NewFromInt(100)

// priceDisplay matches "-1,234.56 EGP": optional sign, digits grouped by
// threes when commas are used, an optional two-digit fraction and a currency.
var priceDisplay = regexp.MustCompile(`^(-?(?:\d{1,3}(?:,\d{3})+|\d+)(?:\.\d{2})?) [A-Z]{3}$`)

// ParsePrice extracts the amount from a display string such as "1,234.56 EGP".
func ParsePrice(display string) (decimal.Decimal, error) {
	m := priceDisplay.FindStringSubmatch(strings.TrimSpace(display))
	if m == nil {
		return decimal.Zero, fmt.Errorf("%w: %q", ErrInvalidPrice, display)
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(m[1], ",", ""))
	if err != nil {
		return decimal.Zero, errors.Join(ErrInvalidPrice, err)
	}
	return amount, nil
}

// FormatAmount renders an amount with two fraction digits and comma thousand separators.
func FormatAmount(amount decimal.Decimal) string {
	fixed := amount.Round(2).StringFixed(2)
	negative := strings.HasPrefix(fixed, "-")
	fixed = strings.TrimPrefix(fixed, "-")

	intPart, frac, _ := strings.Cut(fixed, ".")
	var b strings.Builder
	if negative {
		b.WriteByte('-')
	}
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteByte('.')
	b.WriteString(frac)
	return b.String()
}

// FormatPrice renders "1,234.56 EGP". An empty currency falls back to DefaultCurrency.
func FormatPrice(amount decimal.Decimal, currency string) string {
	if currency == "" {
		currency = DefaultCurrency
	}
	return FormatAmount(amount) + " " + currency
}

// Round2 rounds to cents.
func Round2(amount decimal.Decimal) decimal.Decimal {
	return amount.Round(2)
}

// PercentOf returns round2(amount × pct / 100).
func PercentOf(amount decimal.Decimal, pct int) decimal.Decimal {
	return Round2(amount.Mul(decimal.NewFromInt(int64(pct))).Div(hundred))
}
