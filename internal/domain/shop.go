package domain

import (
	"fmt"
	"net/url"
	"slices"
	"sort"
	"strconv"

	"github.com/shopspring/decimal"
)

// DefaultPageSize is the shop's products-per-page.
const DefaultPageSize = 9

// Product is a catalog entry as returned by the products API.
type Product struct {
	ID       int64            `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Category string           `json:"category" yaml:"category"`
	Image    string           `json:"image" yaml:"image"`
	Price    decimal.Decimal  `json:"price" yaml:"price"`
	OldPrice *decimal.Decimal `json:"oldPrice,omitempty" yaml:"oldPrice,omitempty"`
	Discount int              `json:"discount" yaml:"discount"`
	OnSale   bool             `json:"onSale" yaml:"onSale"`
	IsNew    bool             `json:"isNew" yaml:"isNew"`
	IsHot    bool             `json:"isHot" yaml:"isHot"`
	Rating   float64          `json:"rating" yaml:"rating"`
	InStock  bool             `json:"inStock" yaml:"inStock"`
	Colors   []string         `json:"colors,omitempty" yaml:"colors,omitempty"`
	Sizes    []string         `json:"sizes,omitempty" yaml:"sizes,omitempty"`
	Brand    string           `json:"brand,omitempty" yaml:"brand,omitempty"`
}

// ProductPage is one page of filter or search results.
type ProductPage struct {
	Products    []Product
	Total       int
	CurrentPage int
	LastPage    int
}

// ViewMode is the shop's grid/list layout preference.
type ViewMode string

const (
	ViewGrid ViewMode = "grid"
	ViewList ViewMode = "list"
)

// ParseViewMode normalises a stored or submitted view, defaulting to grid.
func ParseViewMode(raw string) ViewMode {
	if ViewMode(raw) == ViewList {
		return ViewList
	}
	return ViewGrid
}

// SortKey selects a client-side ordering of loaded products.
type SortKey string

const (
	SortDefault    SortKey = "default"
	SortPriceAsc   SortKey = "price_asc"
	SortPriceDesc  SortKey = "price_desc"
	SortPopularity SortKey = "popularity"
	SortRating     SortKey = "rating"
	SortLatest     SortKey = "latest"
)

var sortLabels = map[SortKey]string{
	SortDefault:    "Default sorting",
	SortPriceAsc:   "Sort by price: low to high",
	SortPriceDesc:  "Sort by price: high to low",
	SortPopularity: "Sort by popularity",
	SortRating:     "Sort by average rating",
	SortLatest:     "Sort by latest",
}

// Label returns the dropdown text for the key.
func (k SortKey) Label() string {
	if label, ok := sortLabels[k]; ok {
		return label
	}
	return sortLabels[SortDefault]
}

// ParseSortKey accepts either a key or its display label. Unknown values map to SortDefault.
func ParseSortKey(raw string) SortKey {
	if _, ok := sortLabels[SortKey(raw)]; ok {
		return SortKey(raw)
	}
	for key, label := range sortLabels {
		if label == raw {
			return key
		}
	}
	return SortDefault
}

// SortProducts returns a reordered copy. The input is never mutated.
func SortProducts(products []Product, key SortKey) []Product {
	out := slices.Clone(products)
	switch key {
	case SortPriceAsc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.LessThan(out[j].Price) })
	case SortPriceDesc:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price.GreaterThan(out[j].Price) })
	case SortPopularity, SortRating:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Rating > out[j].Rating })
	case SortLatest:
		sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	}
	return out
}

// FilterType names a removable filter tag.
type FilterType string

const (
	FilterPrice FilterType = "price"
	FilterColor FilterType = "color"
	FilterSize  FilterType = "size"
	FilterBrand FilterType = "brand"
	FilterSale  FilterType = "sale"
	FilterStock FilterType = "stock"
)

// FilterTag is one active filter chip.
type FilterTag struct {
	Text  string     `json:"text"`
	Type  FilterType `json:"type"`
	Value string     `json:"value,omitempty"`
}

// ShopFilterState is the shop's active filter set. Colors, sizes and brands are
// ordered sets.
type ShopFilterState struct {
	MaxPrice *decimal.Decimal
	Colors   []string
	Sizes    []string
	Brands   []string
	OnSale   bool
	InStock  bool
	Page     int
	PageSize int
}

// NewShopFilterState returns the unfiltered first page.
func NewShopFilterState() ShopFilterState {
	return ShopFilterState{Page: 1, PageSize: DefaultPageSize}
}

// Clone deep-copies the slices so the copy can be handed to a request safely.
func (s ShopFilterState) Clone() ShopFilterState {
	out := s
	out.Colors = slices.Clone(s.Colors)
	out.Sizes = slices.Clone(s.Sizes)
	out.Brands = slices.Clone(s.Brands)
	if s.MaxPrice != nil {
		v := *s.MaxPrice
		out.MaxPrice = &v
	}
	return out
}

// SetMember adds or removes value from an ordered set, keeping insertion order.
func SetMember(set []string, value string, present bool) []string {
	idx := slices.Index(set, value)
	switch {
	case present && idx < 0:
		return append(set, value)
	case !present && idx >= 0:
		return slices.Delete(set, idx, idx+1)
	default:
		return set
	}
}

// ActiveCount counts active filter groups; several colors count once.
func (s ShopFilterState) ActiveCount() int {
	count := 0
	if s.MaxPrice != nil {
		count++
	}
	if len(s.Colors) > 0 {
		count++
	}
	if len(s.Sizes) > 0 {
		count++
	}
	if len(s.Brands) > 0 {
		count++
	}
	if s.OnSale {
		count++
	}
	if s.InStock {
		count++
	}
	return count
}

// SummaryText is the line shown above the product grid.
func (s ShopFilterState) SummaryText() string {
	if n := s.ActiveCount(); n > 0 {
		return fmt.Sprintf("Showing filtered products (%d filters active)", n)
	}
	return "Showing all products"
}

// Tags lists the active filter chips in display order.
func (s ShopFilterState) Tags(currency string) []FilterTag {
	if currency == "" {
		currency = DefaultCurrency
	}
	var tags []FilterTag
	if s.MaxPrice != nil {
		tags = append(tags, FilterTag{Text: fmt.Sprintf("Price: %s %s", s.MaxPrice.String(), currency), Type: FilterPrice})
	}
	for _, c := range s.Colors {
		tags = append(tags, FilterTag{Text: "Color: " + c, Type: FilterColor, Value: c})
	}
	for _, v := range s.Sizes {
		tags = append(tags, FilterTag{Text: "Size: " + v, Type: FilterSize, Value: v})
	}
	for _, b := range s.Brands {
		tags = append(tags, FilterTag{Text: "Brand: " + b, Type: FilterBrand, Value: b})
	}
	if s.OnSale {
		tags = append(tags, FilterTag{Text: "On Sale", Type: FilterSale})
	}
	if s.InStock {
		tags = append(tags, FilterTag{Text: "In Stock", Type: FilterStock})
	}
	return tags
}

// Query serialises the state into the products API query string.
func (s ShopFilterState) Query() url.Values {
	page := s.Page
	if page < 1 {
		page = 1
	}
	size := s.PageSize
	if size < 1 {
		size = DefaultPageSize
	}
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(size))
	if s.MaxPrice != nil {
		q.Set("max_price", s.MaxPrice.String())
	}
	for _, c := range s.Colors {
		q.Add("colors[]", c)
	}
	for _, v := range s.Sizes {
		q.Add("sizes[]", v)
	}
	for _, b := range s.Brands {
		q.Add("brands[]", b)
	}
	if s.OnSale {
		q.Set("on_sale", "1")
	}
	if s.InStock {
		q.Set("in_stock", "1")
	}
	return q
}

// ParseShopFilterQuery is the inverse of Query.
func ParseShopFilterQuery(q url.Values) ShopFilterState {
	state := NewShopFilterState()
	if n, err := strconv.Atoi(q.Get("page")); err == nil && n > 0 {
		state.Page = n
	}
	if n, err := strconv.Atoi(q.Get("per_page")); err == nil && n > 0 {
		state.PageSize = n
	}
	if raw := q.Get("max_price"); raw != "" {
		if v, err := decimal.NewFromString(raw); err == nil {
			state.MaxPrice = &v
		}
	}
	state.Colors = q["colors[]"]
	state.Sizes = q["sizes[]"]
	state.Brands = q["brands[]"]
	state.OnSale = q.Get("on_sale") == "1"
	state.InStock = q.Get("in_stock") == "1"
	return state
}

// Matches reports whether p passes every active filter.
func (s ShopFilterState) Matches(p Product) bool {
	if s.MaxPrice != nil && p.Price.GreaterThan(*s.MaxPrice) {
		return false
	}
	if len(s.Colors) > 0 && !anyShared(s.Colors, p.Colors) {
		return false
	}
	if len(s.Sizes) > 0 && !anyShared(s.Sizes, p.Sizes) {
		return false
	}
	if len(s.Brands) > 0 && !slices.Contains(s.Brands, p.Brand) {
		return false
	}
	if s.OnSale && !p.OnSale {
		return false
	}
	if s.InStock && !p.InStock {
		return false
	}
	return true
}

func anyShared(want, have []string) bool {
	for _, w := range want {
		if slices.Contains(have, w) {
			return true
		}
	}
	return false
}

// CountText renders "Show: N / total products".
func CountText(shown, total int) string {
	return fmt.Sprintf("Show: %d / %d products", shown, total)
}
