package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/oklog/ulid/v2"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
)

// ErrCheckoutInvalid indicates the billing form failed validation on submit.
var ErrCheckoutInvalid = errors.New("checkout page: form invalid")

// ErrCheckoutUnknownField indicates a field name outside the billing form.
var ErrCheckoutUnknownField = errors.New("checkout page: unknown field")

// ErrCouponPanelClosed indicates a coupon apply while the coupon form is hidden.
var ErrCouponPanelClosed = errors.New("checkout page: coupon panel closed")

const (
	msgCheckoutInvalid = "Please fill in all required fields correctly"
	msgOrderPlaced     = "Order placed successfully! Redirecting to confirmation..."

	labelPlaceOrder = "PLACE ORDER"
	labelApply      = "Apply"

	fieldOrderNotes = "order_notes"
)

// BillingFields is the checkout form, in display order.
var BillingFields = []domain.FieldSpec{
	{Name: "first_name", Label: "First name", Required: true, Kind: domain.KindText},
	{Name: "last_name", Label: "Last name", Required: true, Kind: domain.KindText},
	{Name: "company", Label: "Company name", Kind: domain.KindText},
	{Name: "country", Label: "Country / Region", Required: true, Kind: domain.KindText},
	{Name: "street_address", Label: "Street address", Required: true, Kind: domain.KindText},
	{Name: "apartment", Label: "Apartment, suite, unit, etc.", Kind: domain.KindText},
	{Name: "city", Label: "Town / City", Required: true, Kind: domain.KindText},
	{Name: "state", Label: "State / County", Kind: domain.KindText},
	{Name: "postcode", Label: "Postcode / ZIP", Required: true, Kind: domain.KindPostcode},
	{Name: "phone", Label: "Phone", Required: true, Kind: domain.KindPhone},
	{Name: "email", Label: "Email address", Required: true, Kind: domain.KindEmail},
	{Name: fieldOrderNotes, Label: "Order notes", Kind: domain.KindText},
}

// CheckoutPageDeps wires the checkout controller.
type CheckoutPageDeps struct {
	// SummaryLines seeds the order summary table.
	SummaryLines []domain.CartLine
	Coupons      domain.CouponBook
	Currency     string
	Clock        clock.Clock
	Timings      config.Timings
	Logger       EventLogger
	IDGenerator  func() string
}

// FieldView is one rendered billing field.
type FieldView struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required"`
	domain.FormFieldState
}

// FormResult is the outcome of validating every field.
type FormResult struct {
	Valid        bool              `json:"valid"`
	FirstInvalid string            `json:"firstInvalid,omitempty"`
	Errors       map[string]string `json:"errors,omitempty"`
}

// SummaryLineView is one order summary row.
type SummaryLineView struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Subtotal string `json:"subtotal"`
}

// CheckoutView is the rendered checkout page.
type CheckoutView struct {
	Fields       []FieldView       `json:"fields"`
	Focus        string            `json:"focus,omitempty"`
	Summary      []SummaryLineView `json:"summary"`
	Totals       TotalsView        `json:"totals"`
	CouponOpen   bool              `json:"couponOpen"`
	CouponButton ButtonView        `json:"couponButton"`
	PlaceOrder   ButtonView        `json:"placeOrderButton"`
	OrderNumber  string            `json:"orderNumber,omitempty"`
	Notice       *NoticeView       `json:"notice,omitempty"`
}

type checkoutPage struct {
	page
	fields   map[string]domain.FormFieldState
	lines    []domain.CartLine
	coupons  domain.CouponBook
	currency string
	timings  config.Timings
	newID    func() string
	notes    *bluemonday.Policy

	discount    int
	focus       string
	couponOpen  bool
	couponBtn   button
	placeBtn    button
	orderNumber string
}

// NewCheckoutPage constructs the checkout controller.
func NewCheckoutPage(deps CheckoutPageDeps) (CheckoutPage, error) {
	timings := timingsOrDefault(deps.Timings)
	idGen := deps.IDGenerator
	if idGen == nil {
		idGen = func() string { return ulid.Make().String() }
	}
	fields := make(map[string]domain.FormFieldState, len(BillingFields))
	for _, spec := range BillingFields {
		fields[spec.Name] = domain.FormFieldState{Valid: true}
	}
	c := &checkoutPage{
		fields:    fields,
		lines:     append([]domain.CartLine(nil), deps.SummaryLines...),
		coupons:   deps.Coupons,
		currency:  currencyOrDefault(deps.Currency),
		timings:   timings,
		newID:     idGen,
		notes:     bluemonday.StrictPolicy(),
		couponBtn: newButton(labelApply),
		placeBtn:  newButton(labelPlaceOrder),
	}
	if err := c.init(deps.Clock, deps.Logger, timings.CheckoutNotice); err != nil {
		return nil, fmt.Errorf("checkout page: %w", err)
	}
	return c, nil
}

func (c *checkoutPage) View() CheckoutView {
	c.mu.Lock()
	defer c.mu.Unlock()

	view := CheckoutView{
		Fields:       make([]FieldView, 0, len(BillingFields)),
		Focus:        c.focus,
		Summary:      make([]SummaryLineView, 0, len(c.lines)),
		Totals:       renderTotals(domain.ComputeTotals(c.lines, c.discount), c.currency),
		CouponOpen:   c.couponOpen,
		CouponButton: c.couponBtn.view(),
		PlaceOrder:   c.placeBtn.view(),
		OrderNumber:  c.orderNumber,
		Notice:       c.noticeLocked(),
	}
	for _, spec := range BillingFields {
		view.Fields = append(view.Fields, FieldView{
			Name:           spec.Name,
			Label:          spec.Label,
			Required:       spec.Required,
			FormFieldState: c.fields[spec.Name],
		})
	}
	for _, line := range c.lines {
		view.Summary = append(view.Summary, SummaryLineView{
			Name:     line.Name,
			Quantity: line.Quantity,
			Subtotal: domain.FormatPrice(line.Subtotal(), c.currency),
		})
	}
	return view
}

// SetField stores an input value and clears any error shown for it.
func (c *checkoutPage) SetField(ctx context.Context, name, value string) error {
	spec, err := lookupField(name)
	if err != nil {
		return err
	}
	switch spec.Kind {
	case domain.KindPhone:
		value = domain.FormatPhone(value)
	case domain.KindPostcode:
		value = domain.FormatPostcode(value)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.fields[spec.Name] = domain.FormFieldState{Value: value, Valid: true}
	return nil
}

func (c *checkoutPage) BlurField(ctx context.Context, name string) (domain.FormFieldState, error) {
	return c.ValidateField(ctx, name)
}

func (c *checkoutPage) ValidateField(ctx context.Context, name string) (domain.FormFieldState, error) {
	spec, err := lookupField(name)
	if err != nil {
		return domain.FormFieldState{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateLocked(spec), nil
}

func (c *checkoutPage) ValidateForm(ctx context.Context) FormResult {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.validateFormLocked()
}

func (c *checkoutPage) SubmitOrder(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	result := c.validateFormLocked()
	if !result.Valid {
		c.postLocked(domain.NoticeError, msgCheckoutInvalid)
		return fmt.Errorf("%w: first invalid field %s", ErrCheckoutInvalid, result.FirstInvalid)
	}
	if !c.placeBtn.start(labelProcessing) {
		return fmt.Errorf("%w: place order", ErrControlBusy)
	}

	logCtx := detach(ctx)
	c.afterLocked(c.timings.OrderProcessing, func() {
		c.orderNumber = c.newID()
		c.postLocked(domain.NoticeSuccess, msgOrderPlaced)
		totals := domain.ComputeTotals(c.lines, c.discount)
		c.logger(logCtx, "checkout.order_placed", map[string]any{
			"orderNumber": c.orderNumber,
			"total":       totals.Total.StringFixed(2),
			"notes":       c.notes.Sanitize(c.fields[fieldOrderNotes].Value),
		})
		c.afterLocked(c.timings.ButtonReset, c.placeBtn.reset)
	})
	return nil
}

func (c *checkoutPage) OpenCoupon(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.couponOpen = true
}

func (c *checkoutPage) CloseCoupon(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.couponOpen = false
}

func (c *checkoutPage) ApplyCoupon(ctx context.Context, code string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.couponOpen {
		return ErrCouponPanelClosed
	}
	return c.applyCouponLocked(ctx, "checkout", &c.couponBtn, c.coupons, code, c.timings.CouponDelay, func(coupon domain.Coupon) {
		c.discount = coupon.Percent
		c.couponOpen = false
	})
}

func (c *checkoutPage) validateLocked(spec domain.FieldSpec) domain.FormFieldState {
	state := c.fields[spec.Name]
	msg := spec.Validate(state.Value)
	state.Valid = msg == ""
	state.ErrorMessage = msg
	c.fields[spec.Name] = state
	return state
}

func (c *checkoutPage) validateFormLocked() FormResult {
	result := FormResult{Valid: true}
	for _, spec := range BillingFields {
		state := c.validateLocked(spec)
		if state.Valid {
			continue
		}
		if result.Valid {
			result.Valid = false
			result.FirstInvalid = spec.Name
			result.Errors = make(map[string]string)
		}
		result.Errors[spec.Name] = state.ErrorMessage
	}
	c.focus = result.FirstInvalid
	return result
}

func lookupField(name string) (domain.FieldSpec, error) {
	name = strings.TrimSpace(name)
	for _, spec := range BillingFields {
		if spec.Name == name {
			return spec, nil
		}
	}
	return domain.FieldSpec{}, fmt.Errorf("%w: %q", ErrCheckoutUnknownField, name)
}
