package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// CartHandlers exposes the visitor's cart page.
type CartHandlers struct {
	sessions SessionSource
}

// NewCartHandlers constructs cart handlers backed by the session registry.
func NewCartHandlers(sessions SessionSource) *CartHandlers {
	return &CartHandlers{sessions: sessions}
}

// Routes wires the /cart endpoints onto the provided router.
func (h *CartHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCart)
	r.Post("/lines/{lineID}/quantity", h.setQuantity)
	r.Post("/lines/{lineID}/increment", h.increment)
	r.Post("/lines/{lineID}/decrement", h.decrement)
	r.Delete("/lines/{lineID}", h.removeLine)
	r.Post("/coupon", h.applyCoupon)
	r.Post("/update", h.updateCart)
	r.Post("/checkout", h.checkout)
}

type cartQuantityRequest struct {
	Quantity *int `json:"quantity"`
}

type couponRequest struct {
	Code string `json:"code"`
}

func (h *CartHandlers) getCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusOK, func(context.Context, services.CartPage) error { return nil })
}

func (h *CartHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req cartQuantityRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	if req.Quantity == nil {
		httpx.WriteError(r.Context(), w, httpx.Unprocessable("invalid_quantity", "quantity is required"))
		return
	}
	lineID := chi.URLParam(r, "lineID")
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, cart services.CartPage) error {
		return cart.SetQuantity(ctx, lineID, *req.Quantity)
	})
}

func (h *CartHandlers) increment(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, cart services.CartPage) error {
		return cart.Increment(ctx, lineID)
	})
}

func (h *CartHandlers) decrement(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, cart services.CartPage) error {
		return cart.Decrement(ctx, lineID)
	})
}

func (h *CartHandlers) removeLine(w http.ResponseWriter, r *http.Request) {
	lineID := chi.URLParam(r, "lineID")
	h.withCart(w, r, http.StatusOK, func(ctx context.Context, cart services.CartPage) error {
		return cart.RemoveLine(ctx, lineID)
	})
}

func (h *CartHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	h.withCart(w, r, http.StatusAccepted, func(ctx context.Context, cart services.CartPage) error {
		return cart.ApplyCoupon(ctx, req.Code)
	})
}

func (h *CartHandlers) updateCart(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusAccepted, func(ctx context.Context, cart services.CartPage) error {
		return cart.UpdateCart(ctx)
	})
}

func (h *CartHandlers) checkout(w http.ResponseWriter, r *http.Request) {
	h.withCart(w, r, http.StatusAccepted, func(ctx context.Context, cart services.CartPage) error {
		return cart.Checkout(ctx)
	})
}

// withCart runs action against the session cart and answers with the refreshed view.
func (h *CartHandlers) withCart(w http.ResponseWriter, r *http.Request, status int, action func(context.Context, services.CartPage) error) {
	ctx := r.Context()
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	cart, err := sess.Cart()
	if err != nil {
		writeInternalError(ctx, w, err)
		return
	}
	if err := action(ctx, cart); err != nil {
		h.writeCartError(ctx, w, err)
		return
	}
	writeJSONResponse(w, status, cart.View())
}

func (h *CartHandlers) writeCartError(ctx context.Context, w http.ResponseWriter, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrCartLineNotFound):
		httpx.WriteError(ctx, w, httpx.NotFound("line_not_found", "cart line not found"))
	case errors.Is(err, services.ErrCartEmpty):
		httpx.WriteError(ctx, w, httpx.Conflict("cart_empty", "Your cart is empty!"))
	case errors.Is(err, services.ErrCartInvalidInput):
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_request", err.Error()))
	default:
		writeInternalError(ctx, w, err)
	}
}
