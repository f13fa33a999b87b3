package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
)

// ErrCartInvalidInput indicates the caller supplied invalid input.
var ErrCartInvalidInput = errors.New("cart page: invalid input")

// ErrCartLineNotFound indicates the referenced line does not exist.
var ErrCartLineNotFound = errors.New("cart page: line not found")

// ErrCartEmpty indicates checkout was attempted with no lines.
var ErrCartEmpty = errors.New("cart page: cart is empty")

// ErrCouponRequired indicates an apply with a blank coupon code.
var ErrCouponRequired = errors.New("coupon: code is required")

const (
	msgCouponRequired = "Please enter a coupon code"
	msgCouponInvalid  = "Invalid coupon code. Please try again."
	msgCartEmpty      = "Your cart is empty!"
	msgRedirecting    = "Redirecting to checkout..."

	labelApplyCoupon = "APPLY COUPON"
	labelApplying    = "Applying..."
	labelUpdateCart  = "UPDATE CART"
	labelUpdating    = "Updating..."
	labelUpdated     = "Cart Updated!"
	labelCheckout    = "PROCEED TO CHECKOUT"
	labelProcessing  = "Processing..."

	checkoutURL = "checkout.html"
)

// CartPageDeps wires the cart controller.
type CartPageDeps struct {
	Lines    []domain.CartLine
	Coupons  domain.CouponBook
	Currency string
	Clock    clock.Clock
	Timings  config.Timings
	Logger   EventLogger
}

// CartLineView is one rendered cart row.
type CartLineView struct {
	ID        string `json:"id"`
	ProductID int64  `json:"productId"`
	Name      string `json:"name"`
	Image     string `json:"image"`
	Price     string `json:"price"`
	Quantity  int    `json:"quantity"`
	Subtotal  string `json:"subtotal"`
	Removing  bool   `json:"removing,omitempty"`
}

// DiscountRowView is the "Discount (10%)" row.
type DiscountRowView struct {
	Label  string `json:"label"`
	Amount string `json:"amount"`
}

// TotalsView renders CartTotals.
type TotalsView struct {
	Subtotal string           `json:"subtotal"`
	Discount *DiscountRowView `json:"discount,omitempty"`
	Total    string           `json:"total"`
}

// EmptyStateView replaces the table once the last line is gone.
type EmptyStateView struct {
	Title   string `json:"title"`
	Message string `json:"message"`
}

// CartView is the rendered cart page.
type CartView struct {
	Lines          []CartLineView  `json:"lines"`
	Totals         TotalsView      `json:"totals"`
	Count          int             `json:"count"`
	Empty          *EmptyStateView `json:"empty,omitempty"`
	CouponButton   ButtonView      `json:"couponButton"`
	UpdateButton   ButtonView      `json:"updateButton"`
	CheckoutButton ButtonView      `json:"checkoutButton"`
	Notice         *NoticeView     `json:"notice,omitempty"`
	NextURL        string          `json:"nextUrl,omitempty"`
}

type cartPage struct {
	page
	lines    []domain.CartLine
	coupons  domain.CouponBook
	currency string
	timings  config.Timings
	discount int

	couponBtn   button
	updateBtn   button
	checkoutBtn button
	nextURL     string
}

// NewCartPage constructs a cart controller seeded with deps.Lines.
func NewCartPage(deps CartPageDeps) (CartPage, error) {
	timings := timingsOrDefault(deps.Timings)
	lines := make([]domain.CartLine, 0, len(deps.Lines))
	for _, line := range deps.Lines {
		line.Quantity = domain.ClampQuantity(line.Quantity)
		line.Removing = false
		lines = append(lines, line)
	}
	c := &cartPage{
		lines:       lines,
		coupons:     deps.Coupons,
		currency:    currencyOrDefault(deps.Currency),
		timings:     timings,
		couponBtn:   newButton(labelApplyCoupon),
		updateBtn:   newButton(labelUpdateCart),
		checkoutBtn: newButton(labelCheckout),
	}
	if err := c.init(deps.Clock, deps.Logger, timings.CartNotice); err != nil {
		return nil, fmt.Errorf("cart page: %w", err)
	}
	return c, nil
}

func (c *cartPage) View() CartView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := CartView{
		Lines:          make([]CartLineView, 0, len(c.lines)),
		Totals:         renderTotals(domain.ComputeTotals(c.lines, c.discount), c.currency),
		Count:          len(c.lines),
		CouponButton:   c.couponBtn.view(),
		UpdateButton:   c.updateBtn.view(),
		CheckoutButton: c.checkoutBtn.view(),
		Notice:         c.noticeLocked(),
		NextURL:        c.nextURL,
	}
	for _, line := range c.lines {
		view.Lines = append(view.Lines, CartLineView{
			ID:        line.ID,
			ProductID: line.ProductID,
			Name:      line.Name,
			Image:     line.Image,
			Price:     domain.FormatPrice(line.UnitPrice, c.currency),
			Quantity:  line.Quantity,
			Subtotal:  domain.FormatPrice(line.Subtotal(), c.currency),
			Removing:  line.Removing,
		})
	}
	if len(c.lines) == 0 {
		view.Empty = &EmptyStateView{Title: "Your cart is empty", Message: "Add some items to get started!"}
	}
	return view
}

func (c *cartPage) Totals() domain.CartTotals {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ComputeTotals(c.lines, c.discount)
}

func (c *cartPage) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

func (c *cartPage) SetQuantity(ctx context.Context, lineID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexLocked(lineID)
	if err != nil {
		return err
	}
	c.lines[idx].Quantity = domain.ClampQuantity(qty)
	c.logger(ctx, "cart.quantity", map[string]any{"lineId": lineID, "quantity": c.lines[idx].Quantity})
	return nil
}

func (c *cartPage) Increment(ctx context.Context, lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexLocked(lineID)
	if err != nil {
		return err
	}
	c.lines[idx].Quantity++
	return nil
}

func (c *cartPage) Decrement(ctx context.Context, lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexLocked(lineID)
	if err != nil {
		return err
	}
	if c.lines[idx].Quantity > 1 {
		c.lines[idx].Quantity--
	}
	return nil
}

func (c *cartPage) RemoveLine(ctx context.Context, lineID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, err := c.indexLocked(lineID)
	if err != nil {
		return err
	}
	if c.lines[idx].Removing {
		return nil
	}
	c.lines[idx].Removing = true
	logCtx := detach(ctx)
	c.afterLocked(c.timings.FadeOut, func() {
		c.lines = slices.DeleteFunc(c.lines, func(l domain.CartLine) bool { return l.ID == lineID })
		c.logger(logCtx, "cart.line_removed", map[string]any{"lineId": lineID, "remaining": len(c.lines)})
	})
	return nil
}

func (c *cartPage) ApplyCoupon(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.applyCouponLocked(ctx, "cart", &c.couponBtn, c.coupons, code, c.timings.CouponDelay, func(coupon domain.Coupon) {
		c.discount = coupon.Percent
	})
}

func (c *cartPage) UpdateCart(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.updateBtn.start(labelUpdating) {
		return fmt.Errorf("%w: update", ErrControlBusy)
	}
	c.afterLocked(c.timings.CartUpdate, func() {
		c.updateBtn.label = labelUpdated
		c.afterLocked(c.timings.CartUpdated, c.updateBtn.reset)
	})
	return nil
}

func (c *cartPage) Checkout(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.lines) == 0 {
		c.postLocked(domain.NoticeError, msgCartEmpty)
		return ErrCartEmpty
	}
	if !c.checkoutBtn.start(labelProcessing) {
		return fmt.Errorf("%w: checkout", ErrControlBusy)
	}
	logCtx := detach(ctx)
	c.afterLocked(c.timings.CartCheckout, func() {
		c.postLocked(domain.NoticeSuccess, msgRedirecting)
		c.nextURL = checkoutURL
		c.logger(logCtx, "cart.checkout", map[string]any{"lines": len(c.lines)})
		c.afterLocked(c.timings.ButtonReset, c.checkoutBtn.reset)
	})
	return nil
}

func (c *cartPage) indexLocked(lineID string) (int, error) {
	lineID = strings.TrimSpace(lineID)
	if lineID == "" {
		return -1, fmt.Errorf("%w: line id is required", ErrCartInvalidInput)
	}
	idx := slices.IndexFunc(c.lines, func(l domain.CartLine) bool { return l.ID == lineID })
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrCartLineNotFound, lineID)
	}
	return idx, nil
}

func renderTotals(t domain.CartTotals, currency string) TotalsView {
	view := TotalsView{
		Subtotal: domain.FormatPrice(t.Subtotal, currency),
		Total:    domain.FormatPrice(t.Total, currency),
	}
	if t.HasDiscount() {
		view.Discount = &DiscountRowView{
			Label:  fmt.Sprintf("Discount (%d%%)", t.DiscountPercent),
			Amount: domain.FormatPrice(t.Discount.Neg(), currency),
		}
	}
	return view
}

func couponAppliedText(pct int) string {
	return fmt.Sprintf("Coupon applied! %d%% discount added.", pct)
}

func currencyOrDefault(currency string) string {
	currency = strings.ToUpper(strings.TrimSpace(currency))
	if currency == "" {
		return domain.DefaultCurrency
	}
	return currency
}

func timingsOrDefault(t config.Timings) config.Timings {
	if t == (config.Timings{}) {
		return config.DefaultTimings()
	}
	return t
}
