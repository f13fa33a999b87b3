package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MahmoudAkram21/tiamo/internal/content"
	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

var (
	errSessionIDRequired = errors.New("session registry: session id is required")
	errCatalogRequired   = errors.New("session registry: catalog is required")
)

// ErrProductNotFound indicates a product page was requested for an unknown id.
var ErrProductNotFound = errors.New("session registry: product not found")

// RegistryDeps wires the per-session page factory.
type RegistryDeps struct {
	Fixtures    content.Fixtures
	Renderer    MarkdownRenderer
	Catalog     ProductCatalog
	Wishlists   repositories.WishlistRepository
	Preferences repositories.PreferenceRepository
	Currency    string
	Clock       clock.Clock
	Timings     config.Timings
	Logger      EventLogger
	// IdleTTL is how long a session may go unseen before Sweep closes it.
	IdleTTL time.Duration
	// ProductURL builds the canonical link shared from a product page.
	ProductURL func(id int64) string
}

// Registry owns every live page session.
type Registry struct {
	deps    RegistryDeps
	coupons domain.CouponBook

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewRegistry validates deps and returns an empty registry.
func NewRegistry(deps RegistryDeps) (*Registry, error) {
	if deps.Clock == nil {
		return nil, errClockRequired
	}
	if deps.Catalog == nil {
		return nil, errCatalogRequired
	}
	if deps.Renderer == nil {
		deps.Renderer = content.NewRenderer()
	}
	if deps.Logger == nil {
		deps.Logger = noopEventLogger
	}
	if deps.IdleTTL <= 0 {
		deps.IdleTTL = 30 * time.Minute
	}
	deps.Currency = currencyOrDefault(deps.Currency)
	deps.Timings = timingsOrDefault(deps.Timings)
	return &Registry{
		deps:     deps,
		coupons:  domain.NewCouponBook(deps.Fixtures.Coupons),
		sessions: make(map[string]*Session),
	}, nil
}

// Session returns the session for id, creating it on first sight, and marks it seen.
func (r *Registry) Session(id string) (*Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errSessionIDRequired
	}
	now := r.deps.Clock.Now()

	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	if !ok {
		s = &Session{id: id, registry: r, products: make(map[int64]ProductDetailPage)}
		r.sessions[id] = s
	}
	s.touch(now)
	return s, nil
}

// Len reports the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Sweep closes and forgets every session idle for longer than IdleTTL at now.
func (r *Registry) Sweep(now time.Time) int {
	r.mu.Lock()
	var idle []*Session
	for id, s := range r.sessions {
		if now.Sub(s.seen()) > r.deps.IdleTTL {
			idle = append(idle, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range idle {
		s.close()
	}
	if len(idle) > 0 {
		r.deps.Logger(context.Background(), "session.swept", map[string]any{"count": len(idle)})
	}
	return len(idle)
}

// Close shuts every session down.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = make(map[string]*Session)
	r.mu.Unlock()
	for _, s := range sessions {
		s.close()
	}
}

var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// StartSweeper runs Sweep on the cron schedule spec until the returned stop is called.
func (r *Registry) StartSweeper(spec string) (stop func(), err error) {
	sched := cron.New(cron.WithParser(cronParser))
	_, err = sched.AddFunc(spec, func() {
		defer func() {
			if rec := recover(); rec != nil {
				r.deps.Logger(context.Background(), "session.sweep_panic", map[string]any{"panic": fmt.Sprint(rec)})
			}
		}()
		r.Sweep(r.deps.Clock.Now())
	})
	if err != nil {
		return nil, fmt.Errorf("session registry: sweep schedule %q: %w", spec, err)
	}
	sched.Start()
	return func() { <-sched.Stop().Done() }, nil
}

// Session holds one visitor's page controllers. Pages are built on first use.
type Session struct {
	id       string
	registry *Registry

	mu        sync.Mutex
	lastSeen  time.Time
	closed    bool
	cart      CartPage
	checkout  CheckoutPage
	wishlist  WishlistPage
	shop      ShopPage
	auth      AuthPage
	dashboard DashboardPage
	faq       FAQPage
	products  map[int64]ProductDetailPage
}

var errSessionClosed = errors.New("session registry: session closed")

// ID returns the session id.
func (s *Session) ID() string { return s.id }

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastSeen = now
}

func (s *Session) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	for _, c := range []interface{ Close() }{s.cart, s.checkout, s.wishlist, s.shop, s.auth, s.dashboard, s.faq} {
		if c != nil {
			c.Close()
		}
	}
	for _, p := range s.products {
		p.Close()
	}
}

func lazy[T any](s *Session, slot *T, build func() (T, error)) (T, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero T
	if s.closed {
		return zero, errSessionClosed
	}
	if any(*slot) != nil {
		return *slot, nil
	}
	page, err := build()
	if err != nil {
		return zero, err
	}
	*slot = page
	return page, nil
}

func (s *Session) logger() EventLogger {
	base := s.registry.deps.Logger
	return func(ctx context.Context, event string, fields map[string]any) {
		if fields == nil {
			fields = make(map[string]any, 1)
		}
		fields["sessionId"] = s.id
		base(ctx, event, fields)
	}
}

func (s *Session) Cart() (CartPage, error) {
	return lazy(s, &s.cart, func() (CartPage, error) {
		d := s.registry.deps
		return NewCartPage(CartPageDeps{
			Lines:    d.Fixtures.Cart,
			Coupons:  s.registry.coupons,
			Currency: d.Currency,
			Clock:    d.Clock,
			Timings:  d.Timings,
			Logger:   s.logger(),
		})
	})
}

func (s *Session) Checkout() (CheckoutPage, error) {
	return lazy(s, &s.checkout, func() (CheckoutPage, error) {
		d := s.registry.deps
		return NewCheckoutPage(CheckoutPageDeps{
			SummaryLines: d.Fixtures.OrderSummary,
			Coupons:      s.registry.coupons,
			Currency:     d.Currency,
			Clock:        d.Clock,
			Timings:      d.Timings,
			Logger:       s.logger(),
		})
	})
}

func (s *Session) Wishlist() (WishlistPage, error) {
	return lazy(s, &s.wishlist, func() (WishlistPage, error) {
		d := s.registry.deps
		return NewWishlistPage(WishlistPageDeps{
			SessionID:  s.id,
			Repository: d.Wishlists,
			Seed:       d.Fixtures.Wishlist,
			Currency:   d.Currency,
			Clock:      d.Clock,
			Timings:    d.Timings,
			Logger:     s.logger(),
		})
	})
}

func (s *Session) Shop() (ShopPage, error) {
	return lazy(s, &s.shop, func() (ShopPage, error) {
		d := s.registry.deps
		return NewShopPage(ShopPageDeps{
			SessionID:   s.id,
			Catalog:     d.Catalog,
			Preferences: d.Preferences,
			Currency:    d.Currency,
			Clock:       d.Clock,
			Timings:     d.Timings,
			Logger:      s.logger(),
		})
	})
}

func (s *Session) Auth() (AuthPage, error) {
	return lazy(s, &s.auth, func() (AuthPage, error) {
		d := s.registry.deps
		return NewAuthPage(AuthPageDeps{Clock: d.Clock, Timings: d.Timings, Logger: s.logger()})
	})
}

func (s *Session) Dashboard() (DashboardPage, error) {
	return lazy(s, &s.dashboard, func() (DashboardPage, error) {
		d := s.registry.deps
		return NewDashboardPage(DashboardPageDeps{Clock: d.Clock, Timings: d.Timings, Logger: s.logger()})
	})
}

func (s *Session) FAQ() (FAQPage, error) {
	return lazy(s, &s.faq, func() (FAQPage, error) {
		d := s.registry.deps
		entries := make([]FAQEntry, 0, len(d.Fixtures.FAQ))
		for _, e := range d.Fixtures.FAQ {
			entries = append(entries, FAQEntry{ID: e.ID, Question: e.Question, Answer: e.Answer})
		}
		var open string
		if len(entries) > 0 {
			open = entries[0].ID
		}
		return NewFAQPage(FAQPageDeps{Entries: entries, Renderer: d.Renderer, OpenID: open, Clock: d.Clock, Logger: s.logger()})
	})
}

// Product returns the product page for id. The header cart count starts from the session cart.
func (s *Session) Product(ctx context.Context, id int64) (ProductDetailPage, error) {
	d := s.registry.deps
	product, ok := d.Fixtures.Product(id)
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrProductNotFound, id)
	}
	cart, err := s.Cart()
	if err != nil {
		return nil, err
	}
	count := cart.Count()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, errSessionClosed
	}
	if page, ok := s.products[id]; ok {
		return page, nil
	}

	detail := d.Fixtures.ProductDetails[id]
	images := detail.Images
	if len(images) == 0 && product.Image != "" {
		images = []string{product.Image}
	}
	tabs := make(map[string]string, 2)
	for tab, source := range map[string]string{TabDescription: detail.Description, TabAdditional: detail.Additional} {
		html, err := d.Renderer.HTML(source)
		if err != nil {
			return nil, fmt.Errorf("session registry: product %d %s: %w", id, tab, err)
		}
		tabs[tab] = html
	}
	var shareURL string
	if d.ProductURL != nil {
		shareURL = d.ProductURL(id)
	}
	page, err := NewProductDetailPage(ProductDetailPageDeps{
		SessionID:  s.id,
		Product:    product,
		Images:     images,
		TabContent: tabs,
		PageURL:    shareURL,
		CartCount:  count,
		Wishlist:   d.Wishlists,
		Currency:   d.Currency,
		Clock:      d.Clock,
		Timings:    d.Timings,
		Logger:     s.logger(),
	})
	if err != nil {
		return nil, err
	}
	s.products[id] = page
	return page, nil
}
