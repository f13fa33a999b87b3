package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

func newTestCheckout(t *testing.T) (CheckoutPage, *eventRecorder, func(time.Duration)) {
	t.Helper()
	clk := newTestClock()
	rec := &eventRecorder{}
	page, err := NewCheckoutPage(CheckoutPageDeps{
		SummaryLines: []domain.CartLine{cartLine("a", 1, "Chair", "299", 2)},
		Coupons:      testCoupons(),
		Clock:        clk,
		Logger:       rec.log,
		IDGenerator:  func() string { return "ORDER-1" },
	})
	if err != nil {
		t.Fatalf("unexpected error constructing checkout: %v", err)
	}
	t.Cleanup(page.Close)
	return page, rec, clk.Advance
}

func fillBilling(t *testing.T, page CheckoutPage) {
	t.Helper()
	values := map[string]string{
		"first_name":     "Mona",
		"last_name":      "Adel",
		"country":        "Egypt",
		"street_address": "12 Nile St",
		"city":           "Cairo",
		"postcode":       "11511",
		"phone":          "0123456789",
		"email":          "mona@example.com",
	}
	for name, value := range values {
		if err := page.SetField(context.Background(), name, value); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}
}

func TestCheckoutPageSubmitInvalidReportsFirstField(t *testing.T) {
	page, _, _ := newTestCheckout(t)
	ctx := context.Background()

	if err := page.SetField(ctx, "email", "not-an-email"); err != nil {
		t.Fatalf("set email: %v", err)
	}
	err := page.SubmitOrder(ctx)
	if !errors.Is(err, ErrCheckoutInvalid) {
		t.Fatalf("expected ErrCheckoutInvalid, got %v", err)
	}
	view := page.View()
	requireNotice(t, view.Notice, domain.NoticeError, "Please fill in all required fields correctly")
	if view.Focus != "first_name" {
		t.Fatalf("expected focus on first_name, got %q", view.Focus)
	}

	result := page.ValidateForm(ctx)
	if result.Valid {
		t.Fatalf("expected invalid form")
	}
	if got := result.Errors["email"]; got != domain.MsgInvalidEmail {
		t.Fatalf("expected email error, got %q", got)
	}
	if _, ok := result.Errors["company"]; ok {
		t.Fatalf("optional company should not error")
	}
}

func TestCheckoutPageFieldFormattingAndBlur(t *testing.T) {
	page, _, _ := newTestCheckout(t)
	ctx := context.Background()

	if err := page.SetField(ctx, "phone", "0123456789"); err != nil {
		t.Fatalf("set phone: %v", err)
	}
	if err := page.SetField(ctx, "postcode", "ab12 3cd"); err != nil {
		t.Fatalf("set postcode: %v", err)
	}
	state, err := page.BlurField(ctx, "phone")
	if err != nil {
		t.Fatalf("blur phone: %v", err)
	}
	if state.Value != "012-345-6789" || !state.Valid {
		t.Fatalf("unexpected phone state %+v", state)
	}
	state, err = page.ValidateField(ctx, "postcode")
	if err != nil {
		t.Fatalf("validate postcode: %v", err)
	}
	if state.Value != "AB12 3CD" || !state.Valid {
		t.Fatalf("unexpected postcode state %+v", state)
	}
	if _, err := page.BlurField(ctx, "nickname"); !errors.Is(err, ErrCheckoutUnknownField) {
		t.Fatalf("expected ErrCheckoutUnknownField, got %v", err)
	}
}

func TestCheckoutPagePlacesOrder(t *testing.T) {
	page, rec, advance := newTestCheckout(t)
	ctx := context.Background()
	fillBilling(t, page)
	if err := page.SetField(ctx, "order_notes", "<script>x</script>Leave at door"); err != nil {
		t.Fatalf("set notes: %v", err)
	}

	if err := page.SubmitOrder(ctx); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if got := page.View().PlaceOrder; got.Label != "Processing..." || !got.Disabled {
		t.Fatalf("expected processing button, got %+v", got)
	}
	if err := page.SubmitOrder(ctx); !errors.Is(err, ErrControlBusy) {
		t.Fatalf("expected ErrControlBusy on double submit, got %v", err)
	}

	advance(2 * time.Second)

	view := page.View()
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Order placed successfully! Redirecting to confirmation...")
	if view.OrderNumber != "ORDER-1" {
		t.Fatalf("expected order number, got %q", view.OrderNumber)
	}
	event, ok := rec.find("checkout.order_placed")
	if !ok {
		t.Fatalf("expected order_placed event")
	}
	if event.fields["notes"] != "Leave at door" {
		t.Fatalf("expected sanitized notes, got %v", event.fields["notes"])
	}
	if event.fields["total"] != "598.00" {
		t.Fatalf("expected total 598.00, got %v", event.fields["total"])
	}

	advance(2 * time.Second)
	if page.View().PlaceOrder.Disabled {
		t.Fatalf("expected place order button reset")
	}
}

func TestCheckoutPageCouponPanel(t *testing.T) {
	page, _, advance := newTestCheckout(t)
	ctx := context.Background()

	if err := page.ApplyCoupon(ctx, "discount10"); !errors.Is(err, ErrCouponPanelClosed) {
		t.Fatalf("expected ErrCouponPanelClosed, got %v", err)
	}
	page.OpenCoupon(ctx)
	if err := page.ApplyCoupon(ctx, "Discount10"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	advance(time.Second)

	view := page.View()
	if view.CouponOpen {
		t.Fatalf("expected coupon panel closed after success")
	}
	if view.Totals.Total != "538.20 EGP" {
		t.Fatalf("expected discounted total 538.20 EGP, got %q", view.Totals.Total)
	}
	if len(view.Summary) != 1 || view.Summary[0].Subtotal != "598.00 EGP" {
		t.Fatalf("unexpected summary %+v", view.Summary)
	}
}
