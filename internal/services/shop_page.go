package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	"github.com/MahmoudAkram21/tiamo/internal/platform/debounce"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

var (
	errShopCatalogRequired     = errors.New("shop page: catalog is required")
	errShopPreferencesRequired = errors.New("shop page: preference repository is required")
)

// ErrShopInvalidInput indicates the caller supplied invalid input.
var ErrShopInvalidInput = errors.New("shop page: invalid input")

// ErrShopQueryFailed indicates the catalog request failed. The previously
// loaded products are kept and the error banner is shown.
var ErrShopQueryFailed = errors.New("shop page: query failed")

const (
	msgFilterFailed = "Failed to apply filters. Please try again."
	msgLoadFailed   = "Failed to load products. Please refresh the page."
	msgSearchFailed = "Search failed. Please try again."
)

// ProductCatalog serves filtered and searched product pages.
type ProductCatalog interface {
	Filter(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error)
	Search(ctx context.Context, query string) (domain.ProductPage, error)
}

// ShopPageDeps wires the shop controller for one visitor session.
type ShopPageDeps struct {
	SessionID   string
	Catalog     ProductCatalog
	Preferences repositories.PreferenceRepository
	Currency    string
	Clock       clock.Clock
	Timings     config.Timings
	Logger      EventLogger
}

// ProductCardView is one rendered product card.
type ProductCardView struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Category string  `json:"category"`
	Image    string  `json:"image"`
	Price    string  `json:"price"`
	OldPrice string  `json:"oldPrice,omitempty"`
	Discount int     `json:"discount,omitempty"`
	OnSale   bool    `json:"onSale"`
	IsNew    bool    `json:"isNew"`
	IsHot    bool    `json:"isHot"`
	Rating   float64 `json:"rating"`
	InStock  bool    `json:"inStock"`
}

// SortOptionView is one entry of the sort dropdown.
type SortOptionView struct {
	Key      domain.SortKey `json:"key"`
	Label    string         `json:"label"`
	Selected bool           `json:"selected"`
}

// ShopView is the rendered shop page.
type ShopView struct {
	Products    []ProductCardView  `json:"products"`
	CountText   string             `json:"countText"`
	Total       int                `json:"total"`
	Summary     string             `json:"summary"`
	Tags        []domain.FilterTag `json:"tags"`
	SortOptions []SortOptionView   `json:"sortOptions"`
	ViewMode    domain.ViewMode    `json:"viewMode"`
	Page        int                `json:"page"`
	LastPage    int                `json:"lastPage"`
	Query       string             `json:"query,omitempty"`
	Loading     bool               `json:"loading"`
	Pending     bool               `json:"pending"`
	Empty       *EmptyStateView    `json:"empty,omitempty"`
	Banner      *NoticeView        `json:"banner,omitempty"`
}

var sortOrder = []domain.SortKey{
	domain.SortDefault,
	domain.SortPopularity,
	domain.SortRating,
	domain.SortLatest,
	domain.SortPriceAsc,
	domain.SortPriceDesc,
}

type shopPage struct {
	page
	sessionID string
	catalog   ProductCatalog
	prefs     repositories.PreferenceRepository
	currency  string
	debouncer *debounce.Debouncer

	filter      domain.ShopFilterState
	products    []domain.Product
	total       int
	currentPage int
	lastPage    int
	sortKey     domain.SortKey
	query       string
	viewMode    domain.ViewMode
	viewLoaded  bool

	gen      uint64
	inflight context.CancelFunc
}

// NewShopPage constructs the shop controller. Products are fetched by Load.
func NewShopPage(deps ShopPageDeps) (ShopPage, error) {
	if deps.Catalog == nil {
		return nil, errShopCatalogRequired
	}
	if deps.Preferences == nil {
		return nil, errShopPreferencesRequired
	}
	timings := timingsOrDefault(deps.Timings)
	s := &shopPage{
		sessionID:   strings.TrimSpace(deps.SessionID),
		catalog:     deps.Catalog,
		prefs:       deps.Preferences,
		currency:    currencyOrDefault(deps.Currency),
		filter:      domain.NewShopFilterState(),
		currentPage: 1,
		lastPage:    1,
		sortKey:     domain.SortDefault,
		viewMode:    domain.ViewGrid,
	}
	if err := s.init(deps.Clock, deps.Logger, timings.ShopErrorBanner); err != nil {
		return nil, fmt.Errorf("shop page: %w", err)
	}
	s.debouncer = debounce.New(deps.Clock, timings.FilterDebounce)
	return s, nil
}

func (s *shopPage) View(ctx context.Context) ShopView {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ensureViewModeLocked(ctx)

	sorted := domain.SortProducts(s.products, s.sortKey)
	view := ShopView{
		Products:    make([]ProductCardView, 0, len(sorted)),
		CountText:   domain.CountText(len(s.products), s.total),
		Total:       s.total,
		Summary:     s.filter.SummaryText(),
		Tags:        s.filter.Tags(s.currency),
		SortOptions: make([]SortOptionView, 0, len(sortOrder)),
		ViewMode:    s.viewMode,
		Page:        s.currentPage,
		LastPage:    s.lastPage,
		Query:       s.query,
		Loading:     s.inflight != nil,
		Pending:     s.debouncer.Pending(),
		Banner:      s.noticeLocked(),
	}
	if view.Tags == nil {
		view.Tags = []domain.FilterTag{}
	}
	for _, p := range sorted {
		view.Products = append(view.Products, s.card(p))
	}
	for _, key := range sortOrder {
		view.SortOptions = append(view.SortOptions, SortOptionView{Key: key, Label: key.Label(), Selected: key == s.sortKey})
	}
	if len(s.products) == 0 {
		view.Empty = &EmptyStateView{Title: "No products found", Message: "Try adjusting your filters or search terms"}
	}
	return view
}

// Load fetches the first page for the current filters.
func (s *shopPage) Load(ctx context.Context) error {
	s.debouncer.Cancel()
	s.mu.Lock()
	s.ensureViewModeLocked(ctx)
	s.mu.Unlock()
	return s.dispatch(ctx, msgLoadFailed, func(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error) {
		return s.catalog.Filter(ctx, state)
	})
}

// ApplyFilters queries immediately and drops any pending debounced query.
func (s *shopPage) ApplyFilters(ctx context.Context) error {
	s.debouncer.Cancel()
	return s.applyFilters(ctx)
}

func (s *shopPage) applyFilters(ctx context.Context) error {
	return s.dispatch(ctx, msgFilterFailed, func(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error) {
		return s.catalog.Filter(ctx, state)
	})
}

func (s *shopPage) SetMaxPrice(ctx context.Context, value *string) error {
	var price *decimal.Decimal
	if value != nil && strings.TrimSpace(*value) != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(*value))
		if err != nil || parsed.IsNegative() {
			return fmt.Errorf("%w: max price %q", ErrShopInvalidInput, *value)
		}
		price = &parsed
	}
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.MaxPrice = price })
	return nil
}

func (s *shopPage) SetColor(ctx context.Context, value string, checked bool) {
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.Colors = domain.SetMember(f.Colors, value, checked) })
}

func (s *shopPage) SetSize(ctx context.Context, value string, checked bool) {
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.Sizes = domain.SetMember(f.Sizes, value, checked) })
}

func (s *shopPage) SetBrand(ctx context.Context, value string, checked bool) {
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.Brands = domain.SetMember(f.Brands, value, checked) })
}

func (s *shopPage) SetOnSale(ctx context.Context, on bool) {
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.OnSale = on })
}

func (s *shopPage) SetInStock(ctx context.Context, on bool) {
	s.mutate(ctx, func(f *domain.ShopFilterState) { f.InStock = on })
}

func (s *shopPage) RemoveFilter(ctx context.Context, filterType domain.FilterType, value string) error {
	var fn func(*domain.ShopFilterState)
	switch filterType {
	case domain.FilterPrice:
		fn = func(f *domain.ShopFilterState) { f.MaxPrice = nil }
	case domain.FilterColor:
		fn = func(f *domain.ShopFilterState) { f.Colors = domain.SetMember(f.Colors, value, false) }
	case domain.FilterSize:
		fn = func(f *domain.ShopFilterState) { f.Sizes = domain.SetMember(f.Sizes, value, false) }
	case domain.FilterBrand:
		fn = func(f *domain.ShopFilterState) { f.Brands = domain.SetMember(f.Brands, value, false) }
	case domain.FilterSale:
		fn = func(f *domain.ShopFilterState) { f.OnSale = false }
	case domain.FilterStock:
		fn = func(f *domain.ShopFilterState) { f.InStock = false }
	default:
		return fmt.Errorf("%w: filter type %q", ErrShopInvalidInput, filterType)
	}
	s.mutate(ctx, fn)
	return nil
}

func (s *shopPage) ClearFilters(ctx context.Context) {
	s.mutate(ctx, func(f *domain.ShopFilterState) {
		size := f.PageSize
		*f = domain.NewShopFilterState()
		f.PageSize = size
	})
}

func (s *shopPage) ViewAllSale(ctx context.Context) {
	s.SetOnSale(ctx, true)
}

// SetPage moves to a page of the last applied result set.
func (s *shopPage) SetPage(ctx context.Context, page int) error {
	s.mu.Lock()
	if page < 1 || page > s.lastPage {
		last := s.lastPage
		s.mu.Unlock()
		return fmt.Errorf("%w: page %d outside 1..%d", ErrShopInvalidInput, page, last)
	}
	s.filter.Page = page
	s.mu.Unlock()
	s.schedule(ctx)
	return nil
}

// ApplySort reorders the loaded products only.
func (s *shopPage) ApplySort(ctx context.Context, key domain.SortKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortKey = domain.ParseSortKey(string(key))
	s.logger(ctx, "shop.sort", map[string]any{"sort": string(s.sortKey)})
}

func (s *shopPage) Search(ctx context.Context, query string) error {
	query = strings.TrimSpace(query)
	s.debouncer.Cancel()
	if query == "" {
		s.mu.Lock()
		s.query = ""
		s.mu.Unlock()
		return s.applyFilters(ctx)
	}
	s.mu.Lock()
	s.query = query
	s.mu.Unlock()
	return s.dispatch(ctx, msgSearchFailed, func(ctx context.Context, _ domain.ShopFilterState) (domain.ProductPage, error) {
		return s.catalog.Search(ctx, query)
	})
}

// SetView records the layout preference. Storage failures are logged only.
func (s *shopPage) SetView(ctx context.Context, mode domain.ViewMode) error {
	if mode != domain.ViewGrid && mode != domain.ViewList {
		return fmt.Errorf("%w: view %q", ErrShopInvalidInput, mode)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.viewMode = mode
	s.viewLoaded = true
	if err := s.prefs.SetViewMode(ctx, s.sessionID, mode); err != nil {
		s.logger(ctx, "shop.view_save_failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *shopPage) Close() {
	s.debouncer.Cancel()
	s.mu.Lock()
	if s.inflight != nil {
		s.inflight()
		s.inflight = nil
	}
	s.mu.Unlock()
	s.page.Close()
}

// mutate edits the filter, returns to the first page and schedules a debounced query.
func (s *shopPage) mutate(ctx context.Context, fn func(*domain.ShopFilterState)) {
	s.mu.Lock()
	fn(&s.filter)
	s.filter.Page = 1
	s.mu.Unlock()
	s.schedule(ctx)
}

func (s *shopPage) schedule(ctx context.Context) {
	detached := detach(ctx)
	s.debouncer.Trigger(func() {
		defer s.recoverCallback(detached, "shop.debounced_query")
		_ = s.applyFilters(detached)
	})
}

type pageFetcher func(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error)

// dispatch issues one catalog request. A newer dispatch cancels this one, and
// only the latest generation's result is applied.
func (s *shopPage) dispatch(ctx context.Context, failure string, fetch pageFetcher) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	if s.inflight != nil {
		s.inflight()
	}
	reqCtx, cancel := context.WithCancel(ctx)
	s.inflight = cancel
	state := s.filter.Clone()
	s.mu.Unlock()

	result, err := fetchSafely(reqCtx, state, fetch)

	s.mu.Lock()
	defer s.mu.Unlock()
	cancel()
	if gen != s.gen {
		return nil
	}
	s.inflight = nil
	if err != nil {
		s.postLocked(domain.NoticeError, failure)
		s.logger(ctx, "shop.query_failed", map[string]any{"error": err.Error(), "generation": gen})
		return fmt.Errorf("%w: %v", ErrShopQueryFailed, err)
	}
	s.products = result.Products
	s.total = result.Total
	s.currentPage = result.CurrentPage
	s.lastPage = result.LastPage
	s.logger(ctx, "shop.query_applied", map[string]any{
		"generation": gen,
		"products":   len(result.Products),
		"total":      result.Total,
		"filters":    state.ActiveCount(),
	})
	return nil
}

// fetchSafely turns a panicking catalog into a failed query, so the page
// keeps a consistent in-flight state and shows the banner.
func fetchSafely(ctx context.Context, state domain.ShopFilterState, fetch pageFetcher) (result domain.ProductPage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("catalog panic: %v", rec)
		}
	}()
	return fetch(ctx, state)
}

func (s *shopPage) ensureViewModeLocked(ctx context.Context) {
	if s.viewLoaded {
		return
	}
	s.viewLoaded = true
	mode, err := s.prefs.ViewMode(ctx, s.sessionID)
	if err != nil {
		s.logger(ctx, "shop.view_load_failed", map[string]any{"error": err.Error()})
		return
	}
	s.viewMode = mode
}

func (s *shopPage) card(p domain.Product) ProductCardView {
	card := ProductCardView{
		ID:       p.ID,
		Name:     p.Name,
		Category: p.Category,
		Image:    p.Image,
		Price:    domain.FormatPrice(p.Price, s.currency),
		Discount: p.Discount,
		OnSale:   p.OnSale,
		IsNew:    p.IsNew,
		IsHot:    p.IsHot,
		Rating:   p.Rating,
		InStock:  p.InStock,
	}
	if p.OldPrice != nil {
		card.OldPrice = domain.FormatPrice(*p.OldPrice, s.currency)
	}
	return card
}
