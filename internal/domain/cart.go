package domain

import "github.com/shopspring/decimal"

// CartLine is one product row in the cart.
type CartLine struct {
	ID        string
	ProductID int64
	Name      string
	Image     string
	UnitPrice decimal.Decimal
	Quantity  int
	// Removing is set while the line fades out before eviction.
	Removing bool
}

// Subtotal returns unit price × quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// CartTotals is the derived summary of the cart lines plus any active discount.
type CartTotals struct {
	Subtotal decimal.Decimal
	// DiscountPercent is zero when no coupon is active.
	DiscountPercent int
	Discount        decimal.Decimal
	Total           decimal.Decimal
}

// HasDiscount reports whether a discount row should be shown.
func (t CartTotals) HasDiscount() bool {
	return t.DiscountPercent > 0
}

// ComputeTotals sums the lines and applies the discount percentage.
func ComputeTotals(lines []CartLine, discountPercent int) CartTotals {
	subtotal := decimal.Zero
	for _, line := range lines {
		subtotal = subtotal.Add(line.Subtotal())
	}
	discountPercent = ClampPercent(discountPercent)
	totals := CartTotals{
		Subtotal:        Round2(subtotal),
		DiscountPercent: discountPercent,
		Discount:        decimal.Zero,
		Total:           Round2(subtotal),
	}
	if discountPercent > 0 {
		totals.Discount = PercentOf(subtotal, discountPercent)
		totals.Total = Round2(subtotal.Sub(totals.Discount))
	}
	return totals
}

// ClampPercent limits a discount percentage to [0,100].
func ClampPercent(pct int) int {
	switch {
	case pct < 0:
		return 0
	case pct > 100:
		return 100
	default:
		return pct
	}
}

// ClampQuantity enforces the cart's minimum quantity of one.
func ClampQuantity(qty int) int {
	if qty < 1 {
		return 1
	}
	return qty
}
