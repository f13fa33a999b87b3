package catalog

import (
	"context"
	"slices"
	"strings"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// Fixture filters and pages an in-memory product list the way the API would.
type Fixture struct {
	products []domain.Product
}

// NewFixture copies products.
func NewFixture(products []domain.Product) *Fixture {
	return &Fixture{products: slices.Clone(products)}
}

// Filter applies every active filter, then slices the requested page.
func (f *Fixture) Filter(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, err
	}
	matched := make([]domain.Product, 0, len(f.products))
	for _, p := range f.products {
		if state.Matches(p) {
			matched = append(matched, p)
		}
	}
	return paginate(matched, state.Page, state.PageSize), nil
}

// Search matches the query against name and category, case-insensitively.
func (f *Fixture) Search(ctx context.Context, query string) (domain.ProductPage, error) {
	if err := ctx.Err(); err != nil {
		return domain.ProductPage{}, err
	}
	needle := strings.ToLower(strings.TrimSpace(query))
	matched := make([]domain.Product, 0)
	for _, p := range f.products {
		if needle == "" ||
			strings.Contains(strings.ToLower(p.Name), needle) ||
			strings.Contains(strings.ToLower(p.Category), needle) {
			matched = append(matched, p)
		}
	}
	return domain.ProductPage{Products: matched, Total: len(matched), CurrentPage: 1, LastPage: 1}, nil
}

// Ping always succeeds.
func (f *Fixture) Ping(context.Context) error { return nil }

func paginate(products []domain.Product, page, size int) domain.ProductPage {
	if size < 1 {
		size = domain.DefaultPageSize
	}
	total := len(products)
	last := (total + size - 1) / size
	if last < 1 {
		last = 1
	}
	if page < 1 {
		page = 1
	}
	// compare before multiplying so huge page numbers cannot overflow
	start := total
	if total > 0 && page-1 <= (total-1)/size {
		start = (page - 1) * size
	}
	end := min(start+size, total)
	return domain.ProductPage{
		Products:    slices.Clone(products[start:end]),
		Total:       total,
		CurrentPage: page,
		LastPage:    last,
	}
}
