package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// ShopHandlers exposes the product grid with its filters, sort and search.
type ShopHandlers struct {
	sessions SessionSource
}

// NewShopHandlers constructs shop handlers backed by the session registry.
func NewShopHandlers(sessions SessionSource) *ShopHandlers {
	return &ShopHandlers{sessions: sessions}
}

// Routes wires the /shop endpoints onto the provided router.
func (h *ShopHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getShop)
	r.Post("/load", h.load)
	r.Post("/filters/apply", h.applyFilters)
	r.Delete("/filters", h.clearFilters)
	r.Post("/filters/price", h.setMaxPrice)
	r.Post("/filters/{filterType}", h.setFilter)
	r.Delete("/filters/{filterType}", h.removeFilter)
	r.Post("/sale", h.viewAllSale)
	r.Post("/page", h.setPage)
	r.Post("/sort", h.applySort)
	r.Post("/search", h.search)
	r.Post("/view", h.setView)
}

type maxPriceRequest struct {
	Value *string `json:"value"`
}

// filterRequest covers checkbox facets (value + checked) and toggles (on).
type filterRequest struct {
	Value   string `json:"value"`
	Checked bool   `json:"checked"`
	On      bool   `json:"on"`
}

type pageRequest struct {
	Page int `json:"page"`
}

type sortRequest struct {
	Key string `json:"key"`
}

type searchRequest struct {
	Query string `json:"query"`
}

type viewRequest struct {
	Mode string `json:"mode"`
}

func (h *ShopHandlers) getShop(w http.ResponseWriter, r *http.Request) {
	h.withShop(w, r, http.StatusOK, func(services.ShopPage, context.Context) error { return nil })
}

func (h *ShopHandlers) load(w http.ResponseWriter, r *http.Request) {
	h.withShop(w, r, http.StatusOK, services.ShopPage.Load)
}

func (h *ShopHandlers) applyFilters(w http.ResponseWriter, r *http.Request) {
	h.withShop(w, r, http.StatusOK, services.ShopPage.ApplyFilters)
}

func (h *ShopHandlers) clearFilters(w http.ResponseWriter, r *http.Request) {
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		page.ClearFilters(ctx)
		return nil
	})
}

func (h *ShopHandlers) setMaxPrice(w http.ResponseWriter, r *http.Request) {
	var req maxPriceRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		return page.SetMaxPrice(ctx, req.Value)
	})
}

func (h *ShopHandlers) setFilter(w http.ResponseWriter, r *http.Request) {
	var req filterRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	filterType := domain.FilterType(chi.URLParam(r, "filterType"))
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		switch filterType {
		case domain.FilterColor:
			page.SetColor(ctx, req.Value, req.Checked)
		case domain.FilterSize:
			page.SetSize(ctx, req.Value, req.Checked)
		case domain.FilterBrand:
			page.SetBrand(ctx, req.Value, req.Checked)
		case domain.FilterSale:
			page.SetOnSale(ctx, req.On)
		case domain.FilterStock:
			page.SetInStock(ctx, req.On)
		default:
			return errUnknownFilter
		}
		return nil
	})
}

var errUnknownFilter = errors.New("unknown filter type")

func (h *ShopHandlers) removeFilter(w http.ResponseWriter, r *http.Request) {
	filterType := domain.FilterType(chi.URLParam(r, "filterType"))
	value := r.URL.Query().Get("value")
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		return page.RemoveFilter(ctx, filterType, value)
	})
}

func (h *ShopHandlers) viewAllSale(w http.ResponseWriter, r *http.Request) {
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		page.ViewAllSale(ctx)
		return nil
	})
}

func (h *ShopHandlers) setPage(w http.ResponseWriter, r *http.Request) {
	var req pageRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	h.withShop(w, r, http.StatusAccepted, func(page services.ShopPage, ctx context.Context) error {
		return page.SetPage(ctx, req.Page)
	})
}

func (h *ShopHandlers) applySort(w http.ResponseWriter, r *http.Request) {
	var req sortRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	h.withShop(w, r, http.StatusOK, func(page services.ShopPage, ctx context.Context) error {
		page.ApplySort(ctx, domain.ParseSortKey(req.Key))
		return nil
	})
}

func (h *ShopHandlers) search(w http.ResponseWriter, r *http.Request) {
	var req searchRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	h.withShop(w, r, http.StatusOK, func(page services.ShopPage, ctx context.Context) error {
		return page.Search(ctx, req.Query)
	})
}

func (h *ShopHandlers) setView(w http.ResponseWriter, r *http.Request) {
	var req viewRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	h.withShop(w, r, http.StatusOK, func(page services.ShopPage, ctx context.Context) error {
		return page.SetView(ctx, domain.ParseViewMode(req.Mode))
	})
}

// withShop runs action and answers with the refreshed grid. A failed catalog
// query still renders the page: the banner and the prior products are in the view.
func (h *ShopHandlers) withShop(w http.ResponseWriter, r *http.Request, status int, action func(services.ShopPage, context.Context) error) {
	ctx := r.Context()
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	page, err := sess.Shop()
	if err != nil {
		writeInternalError(ctx, w, err)
		return
	}
	if err := action(page, ctx); err != nil && !errors.Is(err, services.ErrShopQueryFailed) {
		h.writeShopError(ctx, w, err)
		return
	}
	writeJSONResponse(w, status, page.View(ctx))
}

func (h *ShopHandlers) writeShopError(ctx context.Context, w http.ResponseWriter, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, errUnknownFilter):
		httpx.WriteError(ctx, w, httpx.NotFound("filter_not_found", "unknown filter type"))
	case errors.Is(err, services.ErrShopInvalidInput):
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_request", err.Error()))
	default:
		writeInternalError(ctx, w, err)
	}
}
