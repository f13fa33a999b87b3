package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func line(id, price string, qty int) CartLine {
	return CartLine{ID: id, UnitPrice: decimal.RequireFromString(price), Quantity: qty}
}

func TestComputeTotalsWithDiscount(t *testing.T) {
	lines := []CartLine{line("a", "19", 1), line("b", "20", 1)}

	totals := ComputeTotals(lines, 10)
	if FormatAmount(totals.Subtotal) != "39.00" {
		t.Fatalf("unexpected subtotal %s", totals.Subtotal)
	}
	if FormatAmount(totals.Discount) != "3.90" {
		t.Fatalf("unexpected discount %s", totals.Discount)
	}
	if FormatAmount(totals.Total) != "35.10" {
		t.Fatalf("unexpected total %s", totals.Total)
	}
	if !totals.HasDiscount() {
		t.Fatalf("expected discount row")
	}
}

func TestComputeTotalsWithoutDiscount(t *testing.T) {
	totals := ComputeTotals([]CartLine{line("a", "1234.56", 2)}, 0)
	if !totals.Total.Equal(totals.Subtotal) {
		t.Fatalf("expected total == subtotal, got %s vs %s", totals.Total, totals.Subtotal)
	}
	if FormatPrice(totals.Total, "EGP") != "2,469.12 EGP" {
		t.Fatalf("unexpected total %s", FormatPrice(totals.Total, "EGP"))
	}
	if totals.HasDiscount() {
		t.Fatalf("expected no discount row")
	}
}

func TestComputeTotalsClampsPercent(t *testing.T) {
	totals := ComputeTotals([]CartLine{line("a", "50", 1)}, 150)
	if totals.DiscountPercent != 100 || !totals.Total.IsZero() {
		t.Fatalf("expected full discount, got %+v", totals)
	}
	if ComputeTotals(nil, 10).Total.Sign() != 0 {
		t.Fatalf("expected zero total for empty cart")
	}
}

func TestClampQuantity(t *testing.T) {
	for in, want := range map[int]int{-5: 1, 0: 1, 1: 1, 7: 7} {
		if got := ClampQuantity(in); got != want {
			t.Fatalf("ClampQuantity(%d) = %d, want %d", in, got, want)
		}
	}
}

func TestCouponBookIsCaseInsensitive(t *testing.T) {
	book := NewCouponBook([]Coupon{{Code: "discount10", Percent: 10}, {Code: "  ", Percent: 50}})
	if book.Len() != 1 {
		t.Fatalf("expected blank code to be skipped, got %d", book.Len())
	}
	for _, code := range []string{"discount10", "DISCOUNT10", " Discount10 "} {
		c, ok := book.Lookup(code)
		if !ok || c.Percent != 10 {
			t.Fatalf("expected %q to match, got %+v %v", code, c, ok)
		}
	}
	if _, ok := book.Lookup("discount20"); ok {
		t.Fatalf("unexpected match for unknown code")
	}
}
