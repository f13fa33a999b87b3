package domain

import "github.com/shopspring/decimal"

// WishlistStorageKey is the storage key holding the persisted wishlist array.
const WishlistStorageKey = "tiamoWishlist"

// ShopViewStorageKey is the storage key holding the shop's grid/list preference.
const ShopViewStorageKey = "shopView"

// WishlistItem is one saved product. Items are unique by ID.
type WishlistItem struct {
	ID       int64           `json:"id" yaml:"id"`
	Name     string          `json:"name" yaml:"name"`
	Category string          `json:"category" yaml:"category"`
	Image    string          `json:"image" yaml:"image"`
	Price    decimal.Decimal `json:"price" yaml:"price"`
	Selected bool            `json:"selected" yaml:"selected"`
}

// CountSelected returns how many items are selected.
func CountSelected(items []WishlistItem) int {
	n := 0
	for _, item := range items {
		if item.Selected {
			n++
		}
	}
	return n
}

// IndexWishlistItem returns the index of id or -1.
func IndexWishlistItem(items []WishlistItem, id int64) int {
	for i, item := range items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
