package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/services"
)

func TestWishlistHandlersSeedAndAdd(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/v1/wishlist", nil)
	expectStatus(t, rr, http.StatusOK)
	var view services.WishlistView
	decodeJSON(t, rr, &view)
	if len(view.Items) != 3 || view.SelectedCount != 1 {
		t.Fatalf("expected the 3-item seed with one selected, got %d/%d", len(view.Items), view.SelectedCount)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/items", map[string]any{
		"id": 7, "name": "Cast iron <b>skillet</b>", "category": "Cooking", "price": "310",
	})
	expectStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &view)
	if len(view.Items) != 4 || view.Items[3].Name != "Cast iron skillet" {
		t.Fatalf("expected sanitized item appended, got %+v", view.Items)
	}
	if view.Items[3].Price != "310.00 EGP" {
		t.Fatalf("expected formatted price, got %s", view.Items[3].Price)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/items", map[string]any{"id": 0, "name": ""})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	expectErrorCode(t, rr, "invalid_item")
}

func TestWishlistHandlersRemoveSelectedNeedsConfirmation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/wishlist/selection/remove", nil)
	expectStatus(t, rr, http.StatusConflict)
	body := expectErrorCode(t, rr, "confirmation_required")
	if body["prompt"] != "Are you sure you want to remove 1 selected item(s) from your wishlist?" {
		t.Fatalf("unexpected prompt %v", body["prompt"])
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/selection/remove?confirm=true", nil)
	expectStatus(t, rr, http.StatusOK)
	var view services.WishlistView
	decodeJSON(t, rr, &view)
	if len(view.Items) != 2 || view.SelectedCount != 0 {
		t.Fatalf("expected the selected item removed, got %+v", view.Items)
	}
	if view.Notice == nil || view.Notice.Text != "1 item(s) removed from wishlist" {
		t.Fatalf("unexpected notice %+v", view.Notice)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/selection/remove", nil)
	expectStatus(t, rr, http.StatusOK)
}

func TestWishlistHandlersRemoveAll(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodDelete, "/api/v1/wishlist/items?confirm=false", nil)
	expectStatus(t, rr, http.StatusConflict)

	rr = env.do(t, http.MethodDelete, "/api/v1/wishlist/items?confirm=1", nil)
	expectStatus(t, rr, http.StatusOK)
	var view services.WishlistView
	decodeJSON(t, rr, &view)
	if !view.Empty {
		t.Fatalf("expected an empty wishlist, got %+v", view.Items)
	}
}

func TestWishlistHandlersItemActions(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/wishlist/items/2/select", nil)
	expectStatus(t, rr, http.StatusOK)
	var view services.WishlistView
	decodeJSON(t, rr, &view)
	if view.SelectedCount != 2 {
		t.Fatalf("expected 2 selected, got %d", view.SelectedCount)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/items/2/cart", nil)
	expectStatus(t, rr, http.StatusOK)
	env.clock.Advance(time.Second)

	rr = env.do(t, http.MethodGet, "/api/v1/wishlist", nil)
	decodeJSON(t, rr, &view)
	for _, item := range view.Items {
		if item.ID == 2 {
			t.Fatalf("expected item 2 to leave the wishlist after moving to the cart")
		}
	}

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/items/99/compare", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "item_not_found")

	rr = env.do(t, http.MethodPost, "/api/v1/wishlist/items/abc/quick-view", nil)
	expectStatus(t, rr, http.StatusBadRequest)
}
