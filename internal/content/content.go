// Package content loads the storefront's embedded fixtures: the product catalog,
// seed carts, the wishlist seed, coupons, deals and FAQ entries.
package content

import (
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

//go:embed storefront.yaml
var storefrontYAML []byte

// ErrInvalidFixture is returned when the fixture document fails validation.
var ErrInvalidFixture = errors.New("content: invalid fixture")

// Fixtures is the parsed storefront fixture document.
type Fixtures struct {
	Currency       string
	Coupons        []domain.Coupon
	Products       []domain.Product
	Cart           []domain.CartLine
	OrderSummary   []domain.CartLine
	Wishlist       []domain.WishlistItem
	ProductDetails map[int64]ProductDetail
	Deals          []Deal
	FAQ            []FAQEntry
}

// ProductDetail holds the product page's tab bodies (Markdown) and gallery.
type ProductDetail struct {
	ID          int64    `yaml:"id"`
	Description string   `yaml:"description"`
	Additional  string   `yaml:"additional"`
	Images      []string `yaml:"images"`
}

// Deal is a countdown target shown on the home and shop pages.
type Deal struct {
	ID     string    `yaml:"id"`
	Title  string    `yaml:"title"`
	EndsAt time.Time `yaml:"endsAt"`
}

// FAQEntry is one accordion item. Answer is Markdown.
type FAQEntry struct {
	ID       string `yaml:"id"`
	Question string `yaml:"question"`
	Answer   string `yaml:"answer"`
}

type document struct {
	Currency       string                `yaml:"currency"`
	Coupons        []domain.Coupon       `yaml:"coupons"`
	Products       []domain.Product      `yaml:"products"`
	Cart           []cartLine            `yaml:"cart"`
	OrderSummary   []cartLine            `yaml:"orderSummary"`
	Wishlist       []domain.WishlistItem `yaml:"wishlist"`
	ProductDetails []ProductDetail       `yaml:"productDetails"`
	Deals          []Deal                `yaml:"deals"`
	FAQ            []FAQEntry            `yaml:"faq"`
}

type cartLine struct {
	ID        string `yaml:"id"`
	ProductID int64  `yaml:"productId"`
	Name      string `yaml:"name"`
	Image     string `yaml:"image"`
	Price     string `yaml:"price"`
	Quantity  int    `yaml:"quantity"`
}

// Load parses the embedded fixture document.
func Load() (Fixtures, error) {
	return Parse(storefrontYAML)
}

// Parse decodes and validates a fixture document.
func Parse(data []byte) (Fixtures, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return Fixtures{}, fmt.Errorf("content: decode fixtures: %w", err)
	}

	cart, err := convertLines(doc.Cart)
	if err != nil {
		return Fixtures{}, err
	}
	summary, err := convertLines(doc.OrderSummary)
	if err != nil {
		return Fixtures{}, err
	}

	seen := make(map[int64]struct{}, len(doc.Products))
	for _, p := range doc.Products {
		if _, dup := seen[p.ID]; dup {
			return Fixtures{}, fmt.Errorf("%w: duplicate product id %d", ErrInvalidFixture, p.ID)
		}
		seen[p.ID] = struct{}{}
	}
	wishlistIDs := make(map[int64]struct{}, len(doc.Wishlist))
	for _, item := range doc.Wishlist {
		if _, dup := wishlistIDs[item.ID]; dup {
			return Fixtures{}, fmt.Errorf("%w: duplicate wishlist id %d", ErrInvalidFixture, item.ID)
		}
		wishlistIDs[item.ID] = struct{}{}
	}

	details := make(map[int64]ProductDetail, len(doc.ProductDetails))
	for _, d := range doc.ProductDetails {
		details[d.ID] = d
	}

	currency := strings.ToUpper(strings.TrimSpace(doc.Currency))
	if currency == "" {
		currency = domain.DefaultCurrency
	}

	return Fixtures{
		Currency:       currency,
		Coupons:        doc.Coupons,
		Products:       doc.Products,
		Cart:           cart,
		OrderSummary:   summary,
		Wishlist:       doc.Wishlist,
		ProductDetails: details,
		Deals:          doc.Deals,
		FAQ:            doc.FAQ,
	}, nil
}

// Product finds a catalog product by id.
func (f Fixtures) Product(id int64) (domain.Product, bool) {
	for _, p := range f.Products {
		if p.ID == id {
			return p, true
		}
	}
	return domain.Product{}, false
}

// Deal finds a countdown deal by id.
func (f Fixtures) Deal(id string) (Deal, bool) {
	for _, d := range f.Deals {
		if d.ID == id {
			return d, true
		}
	}
	return Deal{}, false
}

func convertLines(raw []cartLine) ([]domain.CartLine, error) {
	lines := make([]domain.CartLine, 0, len(raw))
	ids := make(map[string]struct{}, len(raw))
	for _, l := range raw {
		id := strings.TrimSpace(l.ID)
		if id == "" {
			return nil, fmt.Errorf("%w: cart line without id", ErrInvalidFixture)
		}
		if _, dup := ids[id]; dup {
			return nil, fmt.Errorf("%w: duplicate cart line %s", ErrInvalidFixture, id)
		}
		ids[id] = struct{}{}
		price, err := domain.ParsePrice(l.Price)
		if err != nil {
			return nil, fmt.Errorf("%w: line %s price %q", ErrInvalidFixture, id, l.Price)
		}
		lines = append(lines, domain.CartLine{
			ID:        id,
			ProductID: l.ProductID,
			Name:      l.Name,
			Image:     l.Image,
			UnitPrice: price,
			Quantity:  domain.ClampQuantity(l.Quantity),
		})
	}
	return lines, nil
}
