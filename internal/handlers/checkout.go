package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// CheckoutHandlers exposes the billing form and order placement.
type CheckoutHandlers struct {
	sessions SessionSource
}

// NewCheckoutHandlers constructs checkout handlers backed by the session registry.
func NewCheckoutHandlers(sessions SessionSource) *CheckoutHandlers {
	return &CheckoutHandlers{sessions: sessions}
}

// Routes wires the /checkout endpoints onto the provided router.
func (h *CheckoutHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getCheckout)
	r.Put("/fields/{field}", h.setField)
	r.Post("/fields/{field}/blur", h.blurField)
	r.Post("/validate", h.validate)
	r.Post("/order", h.submitOrder)
	r.Post("/coupon/open", h.openCoupon)
	r.Post("/coupon/close", h.closeCoupon)
	r.Post("/coupon", h.applyCoupon)
}

const msgFormInvalid = "Please fill in all required fields correctly"

type fieldValueRequest struct {
	Value string `json:"value"`
}

func (h *CheckoutHandlers) getCheckout(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *CheckoutHandlers) setField(w http.ResponseWriter, r *http.Request) {
	var req fieldValueRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := page.SetField(ctx, chi.URLParam(r, "field"), req.Value); err != nil {
		h.writeCheckoutError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *CheckoutHandlers) blurField(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	state, err := page.BlurField(ctx, chi.URLParam(r, "field"))
	if err != nil {
		h.writeCheckoutError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, state)
}

func (h *CheckoutHandlers) validate(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	result := page.ValidateForm(ctx)
	if !result.Valid {
		writeFormInvalid(ctx, w, msgFormInvalid, result.FirstInvalid, result.Errors)
		return
	}
	writeJSONResponse(w, http.StatusOK, result)
}

func (h *CheckoutHandlers) submitOrder(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := page.SubmitOrder(ctx); err != nil {
		h.writeCheckoutError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, page.View())
}

func (h *CheckoutHandlers) openCoupon(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	page.OpenCoupon(r.Context())
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *CheckoutHandlers) closeCoupon(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	page.CloseCoupon(r.Context())
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *CheckoutHandlers) applyCoupon(w http.ResponseWriter, r *http.Request) {
	var req couponRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := page.ApplyCoupon(ctx, req.Code); err != nil {
		h.writeCheckoutError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, page.View())
}

func (h *CheckoutHandlers) page(w http.ResponseWriter, r *http.Request) (services.CheckoutPage, bool) {
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	page, err := sess.Checkout()
	if err != nil {
		writeInternalError(r.Context(), w, err)
		return nil, false
	}
	return page, true
}

func (h *CheckoutHandlers) writeCheckoutError(ctx context.Context, w http.ResponseWriter, page services.CheckoutPage, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrCheckoutInvalid):
		view := page.View()
		fieldErrors := make(map[string]string)
		for _, f := range view.Fields {
			if f.ErrorMessage != "" {
				fieldErrors[f.Name] = f.ErrorMessage
			}
		}
		writeFormInvalid(ctx, w, msgFormInvalid, view.Focus, fieldErrors)
	case errors.Is(err, services.ErrCheckoutUnknownField):
		httpx.WriteError(ctx, w, httpx.NotFound("field_not_found", "unknown checkout field"))
	case errors.Is(err, services.ErrCouponPanelClosed):
		httpx.WriteError(ctx, w, httpx.Conflict("coupon_panel_closed", "open the coupon panel first"))
	default:
		writeInternalError(ctx, w, err)
	}
}

// writeFormInvalid answers 422 with the per-field messages and the field to focus.
func writeFormInvalid(ctx context.Context, w http.ResponseWriter, message, focus string, fieldErrors map[string]string) {
	details := map[string]any{"errors": fieldErrors}
	if focus != "" {
		details["focus"] = focus
	}
	httpx.WriteError(ctx, w, httpx.Unprocessable("validation_failed", message).WithDetails(details))
}
