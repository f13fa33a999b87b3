package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// FAQHandlers exposes the FAQ accordion.
type FAQHandlers struct {
	sessions SessionSource
}

// NewFAQHandlers constructs FAQ handlers backed by the session registry.
func NewFAQHandlers(sessions SessionSource) *FAQHandlers {
	return &FAQHandlers{sessions: sessions}
}

// Routes wires the /faq endpoints onto the provided router.
func (h *FAQHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getFAQ)
	r.Post("/{itemID}/toggle", h.toggle)
}

func (h *FAQHandlers) getFAQ(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *FAQHandlers) toggle(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	if err := page.Toggle(ctx, chi.URLParam(r, "itemID")); err != nil {
		if errors.Is(err, services.ErrFAQNotFound) {
			httpx.WriteError(ctx, w, httpx.NotFound("faq_not_found", "faq item not found"))
			return
		}
		writeInternalError(ctx, w, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *FAQHandlers) page(w http.ResponseWriter, r *http.Request) (services.FAQPage, bool) {
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	page, err := sess.FAQ()
	if err != nil {
		writeInternalError(r.Context(), w, err)
		return nil, false
	}
	return page, true
}
