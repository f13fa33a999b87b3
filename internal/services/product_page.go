package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

var errProductRequired = errors.New("product page: product is required")

// ErrProductInvalidInput indicates the caller supplied invalid input.
var ErrProductInvalidInput = errors.New("product page: invalid input")

const (
	minQuantity = 1
	maxQuantity = 99

	shareDescription = "Check out this amazing product!"
	labelAdding      = "ADDING..."
)

// Product page tabs.
const (
	TabDescription = "description"
	TabAdditional  = "additional"
	TabReviews     = "reviews"
)

var productTabs = []string{TabDescription, TabAdditional, TabReviews}

// ProductDetailPageDeps wires a product page controller.
type ProductDetailPageDeps struct {
	SessionID string
	Product   domain.Product
	Images    []string
	// TabContent maps a tab to pre-rendered, sanitized HTML.
	TabContent map[string]string
	// PageURL is the canonical URL shared to social networks.
	PageURL   string
	CartCount int
	Wishlist  repositories.WishlistRepository
	Currency  string
	Clock     clock.Clock
	Timings   config.Timings
	Logger    EventLogger
}

// GalleryView is the rendered image gallery.
type GalleryView struct {
	Images  []string `json:"images"`
	Index   int      `json:"index"`
	Current string   `json:"current,omitempty"`
	CanPrev bool     `json:"canPrev"`
	CanNext bool     `json:"canNext"`
}

// ProductDetailView is the rendered product page.
type ProductDetailView struct {
	ID           int64             `json:"id"`
	Name         string            `json:"name"`
	Price        string            `json:"price"`
	Quantity     int               `json:"quantity"`
	AddToCart    ButtonView        `json:"addToCartButton"`
	CartCount    int               `json:"cartCount"`
	InWishlist   bool              `json:"inWishlist"`
	Comparing    bool              `json:"comparing"`
	ActiveTab    string            `json:"activeTab"`
	Tabs         map[string]string `json:"tabs"`
	Gallery      GalleryView       `json:"gallery"`
	ShareTargets map[string]string `json:"shareTargets"`
	Notice       *NoticeView       `json:"notice,omitempty"`
}

type productPage struct {
	page
	sessionID string
	product   domain.Product
	images    []string
	tabs      map[string]string
	pageURL   string
	wishlist  repositories.WishlistRepository
	currency  string
	timings   config.Timings

	quantity       int
	adding         bool
	cartCount      int
	inWishlist     bool
	storedMember   bool
	storedKnown    bool
	comparing      bool
	activeTab      string
	imageIndex     int
}

// NewProductDetailPage constructs a product page controller.
func NewProductDetailPage(deps ProductDetailPageDeps) (ProductDetailPage, error) {
	if deps.Product.ID <= 0 {
		return nil, errProductRequired
	}
	timings := timingsOrDefault(deps.Timings)
	pageURL := strings.TrimSpace(deps.PageURL)
	if pageURL == "" {
		pageURL = "product.html?id=" + strconv.FormatInt(deps.Product.ID, 10)
	}
	p := &productPage{
		sessionID: strings.TrimSpace(deps.SessionID),
		product:   deps.Product,
		images:    slices.Clone(deps.Images),
		tabs:      make(map[string]string, len(productTabs)),
		pageURL:   pageURL,
		wishlist:  deps.Wishlist,
		currency:  currencyOrDefault(deps.Currency),
		timings:   timings,
		quantity:  minQuantity,
		cartCount: max(deps.CartCount, 0),
		activeTab: TabDescription,
	}
	for _, tab := range productTabs {
		p.tabs[tab] = deps.TabContent[tab]
	}
	if err := p.init(deps.Clock, deps.Logger, timings.PageNotice); err != nil {
		return nil, fmt.Errorf("product page: %w", err)
	}
	return p, nil
}

func (p *productPage) View(ctx context.Context) ProductDetailView {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshWishlistLocked(ctx)

	view := ProductDetailView{
		ID:         p.product.ID,
		Name:       p.product.Name,
		Price:      domain.FormatPrice(p.product.Price, p.currency),
		Quantity:   p.quantity,
		AddToCart:  ButtonView{Label: p.addToCartLabelLocked(), Disabled: p.adding},
		CartCount:  p.cartCount,
		InWishlist: p.inWishlist,
		Comparing:  p.comparing,
		ActiveTab:  p.activeTab,
		Tabs:       make(map[string]string, len(p.tabs)),
		Gallery: GalleryView{
			Images:  slices.Clone(p.images),
			Index:   p.imageIndex,
			CanPrev: p.imageIndex > 0,
			CanNext: p.imageIndex < len(p.images)-1,
		},
		ShareTargets: make(map[string]string, len(shareNetworks)),
		Notice:       p.noticeLocked(),
	}
	if len(p.images) > 0 {
		view.Gallery.Current = p.images[p.imageIndex]
	}
	for k, v := range p.tabs {
		view.Tabs[k] = v
	}
	for _, network := range shareNetworks {
		view.ShareTargets[network], _ = p.shareURL(network)
	}
	return view
}

// SetQuantity parses typed input, clamping to 1..99. Non-numeric input becomes 1.
func (p *productPage) SetQuantity(ctx context.Context, raw string) {
	qty, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		qty = minQuantity
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.quantity = min(max(qty, minQuantity), maxQuantity)
}

func (p *productPage) IncrementQuantity(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quantity < maxQuantity {
		p.quantity++
	}
}

func (p *productPage) DecrementQuantity(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.quantity > minQuantity {
		p.quantity--
	}
}

func (p *productPage) AddToCart(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.adding {
		return fmt.Errorf("%w: add to cart", ErrControlBusy)
	}
	p.adding = true
	qty := p.quantity
	logCtx := detach(ctx)
	p.afterLocked(p.timings.ProductAdd, func() {
		p.adding = false
		p.cartCount += qty
		p.quantity = minQuantity
		p.postLocked(domain.NoticeSuccess, "Product added to cart successfully!")
		p.logger(logCtx, "product.add_to_cart", map[string]any{"productId": p.product.ID, "quantity": qty})
	})
	return nil
}

// ToggleWishlist flips the page's wishlist marker. The stored wishlist is only
// read; the flip holds until the stored membership changes.
func (p *productPage) ToggleWishlist(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshWishlistLocked(ctx)
	p.inWishlist = !p.inWishlist
	if p.inWishlist {
		p.postLocked(domain.NoticeSuccess, "Product added to wishlist")
	} else {
		p.postLocked(domain.NoticeInfo, "Product removed from wishlist")
	}
	return nil
}

func (p *productPage) ToggleCompare(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.comparing = !p.comparing
	if p.comparing {
		p.postLocked(domain.NoticeSuccess, "Product added to comparison")
		return
	}
	p.postLocked(domain.NoticeInfo, "Product removed from comparison")
}

func (p *productPage) SelectTab(ctx context.Context, tab string) error {
	if !slices.Contains(productTabs, tab) {
		return fmt.Errorf("%w: tab %q", ErrProductInvalidInput, tab)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.activeTab = tab
	return nil
}

func (p *productPage) SelectImage(ctx context.Context, index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.images) {
		return fmt.Errorf("%w: image %d", ErrProductInvalidInput, index)
	}
	p.imageIndex = index
	return nil
}

// NextImage and PrevImage stop at the ends of the gallery.
func (p *productPage) NextImage(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.imageIndex < len(p.images)-1 {
		p.imageIndex++
	}
}

func (p *productPage) PrevImage(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.imageIndex > 0 {
		p.imageIndex--
	}
}

var shareNetworks = []string{"facebook", "twitter", "pinterest", "linkedin"}

func (p *productPage) ShareURL(network string) (string, error) {
	return p.shareURL(network)
}

func (p *productPage) shareURL(network string) (string, error) {
	target := encodeURIComponent(p.pageURL)
	switch network {
	case "facebook":
		return "https://www.facebook.com/sharer/sharer.php?u=" + target, nil
	case "twitter":
		return "https://twitter.com/intent/tweet?url=" + target + "&text=" + encodeURIComponent(p.product.Name), nil
	case "pinterest":
		return "https://pinterest.com/pin/create/button/?url=" + target + "&description=" + encodeURIComponent(shareDescription), nil
	case "linkedin":
		return "https://www.linkedin.com/sharing/share-offsite/?url=" + target, nil
	default:
		return "", fmt.Errorf("%w: share network %q", ErrProductInvalidInput, network)
	}
}

func (p *productPage) addToCartLabelLocked() string {
	if p.adding {
		return labelAdding
	}
	total := p.product.Price.Mul(decimal.NewFromInt(int64(p.quantity)))
	return fmt.Sprintf("ADD TO CART - %s %s", total.StringFixed(2), p.currency)
}

// refreshWishlistLocked re-reads the stored wishlist and adopts its membership
// whenever it differs from the last read.
func (p *productPage) refreshWishlistLocked(ctx context.Context) {
	if p.wishlist == nil || p.sessionID == "" {
		return
	}
	items, err := p.wishlist.Load(ctx, p.sessionID)
	if err != nil && !repositories.IsNotFound(err) {
		p.logger(ctx, "product.wishlist_load_failed", map[string]any{"error": err.Error()})
		return
	}
	member := domain.IndexWishlistItem(items, p.product.ID) >= 0
	if p.storedKnown && member == p.storedMember {
		return
	}
	p.storedKnown = true
	p.storedMember = member
	p.inWishlist = member
}

func encodeURIComponent(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
