// Package services holds the per-session page controllers. Each controller owns
// its page state, runs simulated delays on an injected clock and renders a JSON
// view of itself.
package services

import (
	"context"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// CartPage manages cart lines, coupon discounts and the cart page controls.
type CartPage interface {
	View() CartView
	Totals() domain.CartTotals
	Count() int
	SetQuantity(ctx context.Context, lineID string, qty int) error
	Increment(ctx context.Context, lineID string) error
	Decrement(ctx context.Context, lineID string) error
	RemoveLine(ctx context.Context, lineID string) error
	ApplyCoupon(ctx context.Context, code string) error
	UpdateCart(ctx context.Context) error
	Checkout(ctx context.Context) error
	Close()
}

// CheckoutPage validates the billing form and runs order placement.
type CheckoutPage interface {
	View() CheckoutView
	SetField(ctx context.Context, name, value string) error
	BlurField(ctx context.Context, name string) (domain.FormFieldState, error)
	ValidateField(ctx context.Context, name string) (domain.FormFieldState, error)
	ValidateForm(ctx context.Context) FormResult
	SubmitOrder(ctx context.Context) error
	OpenCoupon(ctx context.Context)
	CloseCoupon(ctx context.Context)
	ApplyCoupon(ctx context.Context, code string) error
	Close()
}

// Confirmer answers a yes/no prompt before a destructive wishlist action.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

// Confirm calls f.
func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool { return f(ctx, prompt) }

// WishlistPage manages the persisted wishlist and its bulk actions.
type WishlistPage interface {
	View(ctx context.Context) WishlistView
	Items(ctx context.Context) []domain.WishlistItem
	SelectedItems(ctx context.Context) []domain.WishlistItem
	AddItem(ctx context.Context, item domain.WishlistItem) error
	ToggleSelection(ctx context.Context, id int64) error
	SelectAll(ctx context.Context) error
	DeselectAll(ctx context.Context) error
	RemoveItem(ctx context.Context, id int64) error
	RemoveAll(ctx context.Context, confirm Confirmer) error
	RemoveSelected(ctx context.Context, confirm Confirmer) error
	AddSelectedToCart(ctx context.Context) error
	AddToCart(ctx context.Context, id int64) error
	Compare(ctx context.Context, id int64) error
	QuickView(ctx context.Context, id int64) error
	Close()
}

// ShopPage filters, sorts and searches the product grid.
type ShopPage interface {
	View(ctx context.Context) ShopView
	Load(ctx context.Context) error
	ApplyFilters(ctx context.Context) error
	SetMaxPrice(ctx context.Context, value *string) error
	SetColor(ctx context.Context, value string, checked bool)
	SetSize(ctx context.Context, value string, checked bool)
	SetBrand(ctx context.Context, value string, checked bool)
	SetOnSale(ctx context.Context, on bool)
	SetInStock(ctx context.Context, on bool)
	RemoveFilter(ctx context.Context, filterType domain.FilterType, value string) error
	ClearFilters(ctx context.Context)
	ViewAllSale(ctx context.Context)
	SetPage(ctx context.Context, page int) error
	ApplySort(ctx context.Context, key domain.SortKey)
	Search(ctx context.Context, query string) error
	SetView(ctx context.Context, mode domain.ViewMode) error
	Close()
}

// AuthPage runs the login/register form state machine.
type AuthPage interface {
	View() AuthView
	ShowLogin(ctx context.Context)
	ShowRegister(ctx context.Context)
	SubmitLogin(ctx context.Context, form LoginForm) error
	SubmitRegister(ctx context.Context, form RegisterForm) error
	BlurRegisterField(ctx context.Context, field string, form RegisterForm) (domain.FormFieldState, error)
	TogglePasswordVisibility(ctx context.Context, field string) error
	Close()
}

// ProductDetailPage drives a single product page.
type ProductDetailPage interface {
	View(ctx context.Context) ProductDetailView
	SetQuantity(ctx context.Context, raw string)
	IncrementQuantity(ctx context.Context)
	DecrementQuantity(ctx context.Context)
	AddToCart(ctx context.Context) error
	ToggleWishlist(ctx context.Context) error
	ToggleCompare(ctx context.Context)
	SelectTab(ctx context.Context, tab string) error
	SelectImage(ctx context.Context, index int) error
	NextImage(ctx context.Context)
	PrevImage(ctx context.Context)
	ShareURL(network string) (string, error)
	Close()
}

// DashboardPage drives the account dashboard forms.
type DashboardPage interface {
	View() DashboardView
	SaveAccount(ctx context.Context, form AccountForm) error
	SaveAddress(ctx context.Context, kind, address string) error
	Logout(ctx context.Context) error
	Subscribe(ctx context.Context, email string) error
	Close()
}

// FAQPage is the single-open accordion.
type FAQPage interface {
	View() FAQView
	Toggle(ctx context.Context, id string) error
	Close()
}
