package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

func newTestCart(t *testing.T, lines ...domain.CartLine) (CartPage, *eventRecorder, func(time.Duration)) {
	t.Helper()
	clk := newTestClock()
	rec := &eventRecorder{}
	page, err := NewCartPage(CartPageDeps{
		Lines:   lines,
		Coupons: testCoupons(),
		Clock:   clk,
		Logger:  rec.log,
	})
	if err != nil {
		t.Fatalf("unexpected error constructing cart: %v", err)
	}
	t.Cleanup(page.Close)
	return page, rec, clk.Advance
}

func TestCartPageRequiresClock(t *testing.T) {
	if _, err := NewCartPage(CartPageDeps{}); err == nil {
		t.Fatalf("expected error without clock")
	}
}

func TestCartPageTotalsWithCoupon(t *testing.T) {
	cart, rec, advance := newTestCart(t,
		cartLine("a", 1, "Chair", "19", 1),
		cartLine("b", 2, "Lamp", "20", 1),
	)
	ctx := context.Background()

	if err := cart.ApplyCoupon(ctx, "  DISCOUNT10 "); err != nil {
		t.Fatalf("apply coupon: %v", err)
	}
	view := cart.View()
	if view.CouponButton.Label != labelApplying || !view.CouponButton.Disabled {
		t.Fatalf("expected coupon button busy, got %+v", view.CouponButton)
	}
	if err := cart.ApplyCoupon(ctx, "discount10"); !errors.Is(err, ErrControlBusy) {
		t.Fatalf("expected ErrControlBusy while applying, got %v", err)
	}

	advance(time.Second)

	view = cart.View()
	if view.Totals.Subtotal != "39.00 EGP" {
		t.Fatalf("expected subtotal 39.00 EGP, got %q", view.Totals.Subtotal)
	}
	if view.Totals.Discount == nil {
		t.Fatalf("expected discount row")
	}
	if view.Totals.Discount.Label != "Discount (10%)" || view.Totals.Discount.Amount != "-3.90 EGP" {
		t.Fatalf("unexpected discount row %+v", view.Totals.Discount)
	}
	if view.Totals.Total != "35.10 EGP" {
		t.Fatalf("expected total 35.10 EGP, got %q", view.Totals.Total)
	}
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Coupon applied! 10% discount added.")
	if view.CouponButton.Disabled {
		t.Fatalf("expected coupon button reset")
	}
	if _, ok := rec.find("cart.coupon_applied"); !ok {
		t.Fatalf("expected coupon_applied event")
	}

	// Quantity changes keep the discount active.
	if err := cart.Increment(ctx, "a"); err != nil {
		t.Fatalf("increment: %v", err)
	}
	if got := cart.Totals().Total.StringFixed(2); got != "52.20" {
		t.Fatalf("expected total 52.20 after increment, got %s", got)
	}
}

func TestCartPageCouponRejections(t *testing.T) {
	cart, _, advance := newTestCart(t, cartLine("a", 1, "Chair", "100", 1))
	ctx := context.Background()

	err := cart.ApplyCoupon(ctx, "   ")
	if !errors.Is(err, ErrCouponRequired) {
		t.Fatalf("expected ErrCouponRequired, got %v", err)
	}
	requireNotice(t, cart.View().Notice, domain.NoticeError, "Please enter a coupon code")

	if err := cart.ApplyCoupon(ctx, "bogus"); err != nil {
		t.Fatalf("apply: %v", err)
	}
	advance(time.Second)
	view := cart.View()
	requireNotice(t, view.Notice, domain.NoticeError, "Invalid coupon code. Please try again.")
	if view.Totals.Discount != nil {
		t.Fatalf("expected no discount after invalid coupon")
	}

	advance(3 * time.Second)
	if cart.View().Notice != nil {
		t.Fatalf("expected notice to expire after its window")
	}
}

func TestCartPageQuantityBounds(t *testing.T) {
	cart, _, _ := newTestCart(t, cartLine("a", 1, "Chair", "10", 1))
	ctx := context.Background()

	if err := cart.Decrement(ctx, "a"); err != nil {
		t.Fatalf("decrement: %v", err)
	}
	if got := cart.View().Lines[0].Quantity; got != 1 {
		t.Fatalf("expected quantity to stay at 1, got %d", got)
	}
	if err := cart.SetQuantity(ctx, "a", 0); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if got := cart.View().Lines[0].Quantity; got != 1 {
		t.Fatalf("expected quantity clamped to 1, got %d", got)
	}
	if err := cart.SetQuantity(ctx, "a", 1200); err != nil {
		t.Fatalf("set quantity: %v", err)
	}
	if got := cart.View().Lines[0].Subtotal; got != "12,000.00 EGP" {
		t.Fatalf("expected subtotal 12,000.00 EGP, got %q", got)
	}
	if err := cart.Increment(ctx, "missing"); !errors.Is(err, ErrCartLineNotFound) {
		t.Fatalf("expected ErrCartLineNotFound, got %v", err)
	}
	if err := cart.Increment(ctx, " "); !errors.Is(err, ErrCartInvalidInput) {
		t.Fatalf("expected ErrCartInvalidInput, got %v", err)
	}
}

func TestCartPageRemoveLastLineShowsEmptyState(t *testing.T) {
	cart, rec, advance := newTestCart(t, cartLine("a", 1, "Chair", "10", 2))
	ctx := context.Background()

	if err := cart.RemoveLine(ctx, "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	view := cart.View()
	if len(view.Lines) != 1 || !view.Lines[0].Removing {
		t.Fatalf("expected line marked removing during fade, got %+v", view.Lines)
	}

	advance(300 * time.Millisecond)

	view = cart.View()
	if len(view.Lines) != 0 || view.Count != 0 {
		t.Fatalf("expected empty cart, got %+v", view.Lines)
	}
	if view.Empty == nil || view.Empty.Title != "Your cart is empty" {
		t.Fatalf("expected empty state, got %+v", view.Empty)
	}
	if view.Totals.Total != "0.00 EGP" {
		t.Fatalf("expected zero total, got %q", view.Totals.Total)
	}
	if _, ok := rec.find("cart.line_removed"); !ok {
		t.Fatalf("expected line_removed event")
	}

	if err := cart.Checkout(ctx); !errors.Is(err, ErrCartEmpty) {
		t.Fatalf("expected ErrCartEmpty, got %v", err)
	}
	requireNotice(t, cart.View().Notice, domain.NoticeError, "Your cart is empty!")
}

func TestCartPageRemoveOneOfTwoLinesKeepsSurvivor(t *testing.T) {
	cart, rec, advance := newTestCart(t,
		cartLine("a", 1, "Chair", "25", 2),
		cartLine("b", 2, "Lamp", "60", 1),
	)

	before := cart.View().Lines[1].Subtotal
	if err := cart.RemoveLine(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	advance(300 * time.Millisecond)

	view := cart.View()
	if len(view.Lines) != 1 || view.Lines[0].ID != "b" {
		t.Fatalf("expected only line b to remain, got %+v", view.Lines)
	}
	if view.Lines[0].Subtotal != before || before != "60.00 EGP" {
		t.Fatalf("expected survivor subtotal to stay 60.00 EGP, got %q (was %q)", view.Lines[0].Subtotal, before)
	}
	if view.Totals.Subtotal != "60.00 EGP" || view.Totals.Total != view.Lines[0].Subtotal {
		t.Fatalf("expected totals to equal the survivor, got %+v", view.Totals)
	}
	if view.Empty != nil {
		t.Fatalf("expected no empty state with a line left, got %+v", view.Empty)
	}
	if view.Count != 1 {
		t.Fatalf("expected count 1, got %d", view.Count)
	}
	ev, ok := rec.find("cart.line_removed")
	if !ok || ev.fields["remaining"] != 1 {
		t.Fatalf("expected line_removed with one remaining, got %+v", ev)
	}
}

func TestCartPageUpdateAndCheckoutLabels(t *testing.T) {
	cart, _, advance := newTestCart(t, cartLine("a", 1, "Chair", "10", 1))
	ctx := context.Background()

	if err := cart.UpdateCart(ctx); err != nil {
		t.Fatalf("update: %v", err)
	}
	if got := cart.View().UpdateButton.Label; got != "Updating..." {
		t.Fatalf("expected Updating..., got %q", got)
	}
	advance(time.Second)
	if got := cart.View().UpdateButton.Label; got != "Cart Updated!" {
		t.Fatalf("expected Cart Updated!, got %q", got)
	}
	advance(2 * time.Second)
	if got := cart.View().UpdateButton; got.Label != "UPDATE CART" || got.Disabled {
		t.Fatalf("expected idle update button, got %+v", got)
	}

	if err := cart.Checkout(ctx); err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if got := cart.View().CheckoutButton.Label; got != "Processing..." {
		t.Fatalf("expected Processing..., got %q", got)
	}
	advance(1500 * time.Millisecond)
	view := cart.View()
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Redirecting to checkout...")
	if view.NextURL != "checkout.html" {
		t.Fatalf("expected checkout redirect, got %q", view.NextURL)
	}
}

func TestCartPageCloseCancelsPendingDelays(t *testing.T) {
	clk := newTestClock()
	cart, err := NewCartPage(CartPageDeps{Lines: []domain.CartLine{cartLine("a", 1, "Chair", "10", 1)}, Coupons: testCoupons(), Clock: clk})
	if err != nil {
		t.Fatalf("new cart: %v", err)
	}
	if err := cart.RemoveLine(context.Background(), "a"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cart.Close()
	if clk.Pending() != 0 {
		t.Fatalf("expected pending timers stopped, got %d", clk.Pending())
	}
	clk.Advance(time.Second)
	if cart.Count() != 1 {
		t.Fatalf("expected line kept after close")
	}
}
