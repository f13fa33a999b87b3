package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// DealSource lists the countdown deals.
type DealSource interface {
	All() []services.DealView
	Get(id string) (services.DealView, error)
}

// CountdownHandlers serves the remaining time for each deal. It holds no session state.
type CountdownHandlers struct {
	deals DealSource
}

// NewCountdownHandlers constructs countdown handlers.
func NewCountdownHandlers(deals DealSource) *CountdownHandlers {
	return &CountdownHandlers{deals: deals}
}

// Routes wires the /countdown endpoints onto the provided router.
func (h *CountdownHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.listDeals)
	r.Get("/{dealID}", h.getDeal)
}

type dealsResponse struct {
	Deals []services.DealView `json:"deals"`
}

func (h *CountdownHandlers) listDeals(w http.ResponseWriter, r *http.Request) {
	if h.deals == nil {
		httpx.WriteError(r.Context(), w, httpx.NewError("countdown_unavailable", "countdown is unavailable", http.StatusServiceUnavailable))
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, dealsResponse{Deals: h.deals.All()})
}

func (h *CountdownHandlers) getDeal(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if h.deals == nil {
		httpx.WriteError(ctx, w, httpx.NewError("countdown_unavailable", "countdown is unavailable", http.StatusServiceUnavailable))
		return
	}
	deal, err := h.deals.Get(chi.URLParam(r, "dealID"))
	if err != nil {
		if errors.Is(err, services.ErrDealNotFound) {
			httpx.WriteError(ctx, w, httpx.NotFound("deal_not_found", "deal not found"))
			return
		}
		writeInternalError(ctx, w, err)
		return
	}
	w.Header().Set("Cache-Control", "no-store")
	writeJSONResponse(w, http.StatusOK, deal)
}
