package catalog

import (
	"context"
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

func fixtureProducts() []domain.Product {
	products := make([]domain.Product, 0, 12)
	for i := int64(1); i <= 12; i++ {
		products = append(products, domain.Product{
			ID:      i,
			Name:    "Item",
			Price:   decimal.NewFromInt(i * 100),
			OnSale:  i%2 == 0,
			InStock: true,
			Colors:  []string{"black"},
		})
	}
	products[0].Name = "Classic wooden chair"
	products[0].Category = "Furniture"
	return products
}

func TestFixtureFilterPages(t *testing.T) {
	f := NewFixture(fixtureProducts())

	page, err := f.Filter(context.Background(), domain.NewShopFilterState())
	require.NoError(t, err)
	require.Len(t, page.Products, 9)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 2, page.LastPage)

	state := domain.NewShopFilterState()
	state.Page = 2
	page, err = f.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Len(t, page.Products, 3)
	require.Equal(t, int64(10), page.Products[0].ID)

	state.Page = 7
	page, err = f.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Empty(t, page.Products)
}

func TestFixtureFilterHugePageIsEmpty(t *testing.T) {
	f := NewFixture(fixtureProducts())

	state := domain.NewShopFilterState()
	state.Page = 1024819115206086202
	page, err := f.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, 12, page.Total)
	require.Equal(t, 2, page.LastPage)

	state.Page = math.MaxInt
	page, err = f.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Empty(t, page.Products)

	empty := NewFixture(nil)
	page, err = empty.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Empty(t, page.Products)
	require.Equal(t, 1, page.LastPage)
}

func TestFixtureFilterAppliesState(t *testing.T) {
	f := NewFixture(fixtureProducts())
	limit := decimal.NewFromInt(600)
	state := domain.NewShopFilterState()
	state.OnSale = true
	state.MaxPrice = &limit

	page, err := f.Filter(context.Background(), state)
	require.NoError(t, err)
	require.Equal(t, 3, page.Total)
	for _, p := range page.Products {
		require.True(t, p.OnSale)
		require.True(t, p.Price.LessThanOrEqual(limit))
	}
}

func TestFixtureSearchIsCaseInsensitive(t *testing.T) {
	f := NewFixture(fixtureProducts())
	page, err := f.Search(context.Background(), "  CHAIR ")
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)

	page, err = f.Search(context.Background(), "furniture")
	require.NoError(t, err)
	require.Equal(t, 1, page.Total)
}

func TestFixtureHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFixture(nil).Filter(ctx, domain.NewShopFilterState())
	require.ErrorIs(t, err, context.Canceled)
}
