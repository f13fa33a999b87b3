package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// ProductHandlers exposes the product detail page. Routes are mounted under
// /product/{productID}.
type ProductHandlers struct {
	sessions SessionSource
}

// NewProductHandlers constructs product handlers backed by the session registry.
func NewProductHandlers(sessions SessionSource) *ProductHandlers {
	return &ProductHandlers{sessions: sessions}
}

// Routes wires the product endpoints onto the provided router.
func (h *ProductHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getProduct)
	r.Put("/quantity", h.setQuantity)
	r.Post("/quantity/increment", h.incrementQuantity)
	r.Post("/quantity/decrement", h.decrementQuantity)
	r.Post("/cart", h.addToCart)
	r.Post("/wishlist", h.toggleWishlist)
	r.Post("/compare", h.toggleCompare)
	r.Post("/tabs/{tab}", h.selectTab)
	r.Post("/gallery/{index}", h.selectImage)
	r.Post("/gallery/next", h.nextImage)
	r.Post("/gallery/prev", h.prevImage)
	r.Get("/share/{network}", h.share)
}

type productQuantityRequest struct {
	// Value is the raw text typed into the quantity box.
	Value string `json:"value"`
}

type shareResponse struct {
	Network string `json:"network"`
	URL     string `json:"url"`
}

func (h *ProductHandlers) getProduct(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(services.ProductDetailPage, context.Context) error { return nil })
}

func (h *ProductHandlers) setQuantity(w http.ResponseWriter, r *http.Request) {
	var req productQuantityRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.SetQuantity(ctx, req.Value)
		return nil
	})
}

func (h *ProductHandlers) incrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.IncrementQuantity(ctx)
		return nil
	})
}

func (h *ProductHandlers) decrementQuantity(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.DecrementQuantity(ctx)
		return nil
	})
}

func (h *ProductHandlers) addToCart(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusAccepted, services.ProductDetailPage.AddToCart)
}

func (h *ProductHandlers) toggleWishlist(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, services.ProductDetailPage.ToggleWishlist)
}

func (h *ProductHandlers) toggleCompare(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.ToggleCompare(ctx)
		return nil
	})
}

func (h *ProductHandlers) selectTab(w http.ResponseWriter, r *http.Request) {
	tab := chi.URLParam(r, "tab")
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		return page.SelectTab(ctx, tab)
	})
}

func (h *ProductHandlers) selectImage(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("invalid_image", "image index must be an integer", http.StatusBadRequest))
		return
	}
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		return page.SelectImage(ctx, index)
	})
}

func (h *ProductHandlers) nextImage(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.NextImage(ctx)
		return nil
	})
}

func (h *ProductHandlers) prevImage(w http.ResponseWriter, r *http.Request) {
	h.withProduct(w, r, http.StatusOK, func(page services.ProductDetailPage, ctx context.Context) error {
		page.PrevImage(ctx)
		return nil
	})
}

func (h *ProductHandlers) share(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	network := strings.ToLower(chi.URLParam(r, "network"))
	url, err := page.ShareURL(network)
	if err != nil {
		h.writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, shareResponse{Network: network, URL: url})
}

func (h *ProductHandlers) withProduct(w http.ResponseWriter, r *http.Request, status int, action func(services.ProductDetailPage, context.Context) error) {
	ctx := r.Context()
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := action(page, ctx); err != nil {
		h.writeProductError(ctx, w, err)
		return
	}
	writeJSONResponse(w, status, page.View(ctx))
}

func (h *ProductHandlers) page(w http.ResponseWriter, r *http.Request) (services.ProductDetailPage, bool) {
	ctx := r.Context()
	id, err := strconv.ParseInt(strings.TrimSpace(chi.URLParam(r, "productID")), 10, 64)
	if err != nil || id <= 0 {
		httpx.WriteError(ctx, w, httpx.NotFound("product_not_found", "product not found"))
		return nil, false
	}
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	page, err := sess.Product(ctx, id)
	if err != nil {
		h.writeProductError(ctx, w, err)
		return nil, false
	}
	return page, true
}

func (h *ProductHandlers) writeProductError(ctx context.Context, w http.ResponseWriter, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrProductNotFound):
		httpx.WriteError(ctx, w, httpx.NotFound("product_not_found", "product not found"))
	case errors.Is(err, services.ErrProductInvalidInput):
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_request", err.Error()))
	default:
		writeInternalError(ctx, w, err)
	}
}
