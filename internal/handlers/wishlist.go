package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// WishlistHandlers exposes the persisted wishlist page.
type WishlistHandlers struct {
	sessions SessionSource
}

// NewWishlistHandlers constructs wishlist handlers backed by the session registry.
func NewWishlistHandlers(sessions SessionSource) *WishlistHandlers {
	return &WishlistHandlers{sessions: sessions}
}

// Routes wires the /wishlist endpoints onto the provided router.
func (h *WishlistHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getWishlist)
	r.Post("/items", h.addItem)
	r.Delete("/items", h.removeAll)
	r.Delete("/items/{itemID}", h.removeItem)
	r.Post("/items/{itemID}/select", h.toggleSelection)
	r.Post("/items/{itemID}/cart", h.addToCart)
	r.Post("/items/{itemID}/compare", h.compare)
	r.Post("/items/{itemID}/quick-view", h.quickView)
	r.Post("/selection/all", h.selectAll)
	r.Delete("/selection", h.deselectAll)
	r.Post("/selection/cart", h.addSelectedToCart)
	r.Post("/selection/remove", h.removeSelected)
}

// promptConfirmer answers a removal prompt from the ?confirm= query parameter
// and remembers the prompt it was shown.
type promptConfirmer struct {
	accept bool

	mu     sync.Mutex
	prompt string
}

func newPromptConfirmer(r *http.Request) *promptConfirmer {
	accept, _ := strconv.ParseBool(strings.TrimSpace(r.URL.Query().Get("confirm")))
	return &promptConfirmer{accept: accept}
}

func (c *promptConfirmer) Confirm(_ context.Context, prompt string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.prompt = prompt
	return c.accept
}

// declined reports the prompt when it was shown and not accepted.
func (c *promptConfirmer) declined() (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.prompt, !c.accept && c.prompt != ""
}

func (h *WishlistHandlers) getWishlist(w http.ResponseWriter, r *http.Request) {
	h.withWishlist(w, r, func(services.WishlistPage, context.Context) error { return nil })
}

func (h *WishlistHandlers) addItem(w http.ResponseWriter, r *http.Request) {
	var item domain.WishlistItem
	if !decodeBody(w, r, &item, true) {
		return
	}
	h.withWishlist(w, r, func(page services.WishlistPage, ctx context.Context) error {
		return page.AddItem(ctx, item)
	})
}

func (h *WishlistHandlers) removeItem(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, services.WishlistPage.RemoveItem)
}

func (h *WishlistHandlers) toggleSelection(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, services.WishlistPage.ToggleSelection)
}

func (h *WishlistHandlers) addToCart(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, services.WishlistPage.AddToCart)
}

func (h *WishlistHandlers) compare(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, services.WishlistPage.Compare)
}

func (h *WishlistHandlers) quickView(w http.ResponseWriter, r *http.Request) {
	h.withItem(w, r, services.WishlistPage.QuickView)
}

func (h *WishlistHandlers) selectAll(w http.ResponseWriter, r *http.Request) {
	h.withWishlist(w, r, services.WishlistPage.SelectAll)
}

func (h *WishlistHandlers) deselectAll(w http.ResponseWriter, r *http.Request) {
	h.withWishlist(w, r, services.WishlistPage.DeselectAll)
}

func (h *WishlistHandlers) addSelectedToCart(w http.ResponseWriter, r *http.Request) {
	h.withWishlist(w, r, services.WishlistPage.AddSelectedToCart)
}

func (h *WishlistHandlers) removeAll(w http.ResponseWriter, r *http.Request) {
	confirm := newPromptConfirmer(r)
	h.withConfirmation(w, r, confirm, func(page services.WishlistPage, ctx context.Context) error {
		return page.RemoveAll(ctx, confirm)
	})
}

func (h *WishlistHandlers) removeSelected(w http.ResponseWriter, r *http.Request) {
	confirm := newPromptConfirmer(r)
	h.withConfirmation(w, r, confirm, func(page services.WishlistPage, ctx context.Context) error {
		return page.RemoveSelected(ctx, confirm)
	})
}

func (h *WishlistHandlers) withConfirmation(w http.ResponseWriter, r *http.Request, confirm *promptConfirmer, action func(services.WishlistPage, context.Context) error) {
	h.withWishlist(w, r, func(page services.WishlistPage, ctx context.Context) error {
		if err := action(page, ctx); err != nil {
			return err
		}
		if prompt, declined := confirm.declined(); declined {
			return confirmationError{prompt: prompt}
		}
		return nil
	})
}

func (h *WishlistHandlers) withItem(w http.ResponseWriter, r *http.Request, action func(services.WishlistPage, context.Context, int64) error) {
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "itemID")), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_item_id", "item id must be a positive integer", http.StatusBadRequest))
		return
	}
	h.withWishlist(w, r, func(page services.WishlistPage, ctx context.Context) error {
		return action(page, ctx, id)
	})
}

func (h *WishlistHandlers) withWishlist(w http.ResponseWriter, r *http.Request, action func(services.WishlistPage, context.Context) error) {
	ctx := r.Context()
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	page, err := sess.Wishlist()
	if err != nil {
		writeInternalError(ctx, w, err)
		return
	}
	if err := action(page, ctx); err != nil {
		h.writeWishlistError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View(ctx))
}

type confirmationError struct {
	prompt string
}

func (e confirmationError) Error() string { return "confirmation declined: " + e.prompt }

func (e confirmationError) Unwrap() error { return services.ErrConfirmationRequired }

func (h *WishlistHandlers) writeWishlistError(ctx context.Context, w http.ResponseWriter, err error) {
	var confirmErr confirmationError
	if errors.As(err, &confirmErr) {
		httpx.WriteError(ctx, w, httpx.Conflict("confirmation_required", confirmErr.prompt).
			WithDetails(map[string]any{"prompt": confirmErr.prompt}))
		return
	}
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrWishlistItemNotFound):
		httpx.WriteError(ctx, w, httpx.NotFound("item_not_found", "wishlist item not found"))
	case errors.Is(err, services.ErrWishlistInvalidInput):
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_item", "wishlist item requires an id and a name"))
	default:
		writeInternalError(ctx, w, err)
	}
}
