package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// DashboardHandlers exposes the account dashboard forms.
type DashboardHandlers struct {
	sessions SessionSource
}

// NewDashboardHandlers constructs dashboard handlers backed by the session registry.
func NewDashboardHandlers(sessions SessionSource) *DashboardHandlers {
	return &DashboardHandlers{sessions: sessions}
}

// Routes wires the /dashboard endpoints onto the provided router.
func (h *DashboardHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getDashboard)
	r.Put("/account", h.saveAccount)
	r.Put("/addresses/{kind}", h.saveAddress)
	r.Post("/logout", h.logout)
	r.Post("/newsletter", h.subscribe)
}

type addressRequest struct {
	Address string `json:"address"`
}

type newsletterRequest struct {
	Email string `json:"email"`
}

func (h *DashboardHandlers) getDashboard(w http.ResponseWriter, r *http.Request) {
	h.withDashboard(w, r, http.StatusOK, func(services.DashboardPage, context.Context) error { return nil })
}

func (h *DashboardHandlers) saveAccount(w http.ResponseWriter, r *http.Request) {
	var form services.AccountForm
	if !decodeBody(w, r, &form, true) {
		return
	}
	h.withDashboard(w, r, http.StatusAccepted, func(page services.DashboardPage, ctx context.Context) error {
		return page.SaveAccount(ctx, form)
	})
}

func (h *DashboardHandlers) saveAddress(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	kind := chi.URLParam(r, "kind")
	h.withDashboard(w, r, http.StatusOK, func(page services.DashboardPage, ctx context.Context) error {
		return page.SaveAddress(ctx, kind, req.Address)
	})
}

func (h *DashboardHandlers) logout(w http.ResponseWriter, r *http.Request) {
	h.withDashboard(w, r, http.StatusAccepted, services.DashboardPage.Logout)
}

func (h *DashboardHandlers) subscribe(w http.ResponseWriter, r *http.Request) {
	var req newsletterRequest
	if !decodeBody(w, r, &req, false) {
		return
	}
	h.withDashboard(w, r, http.StatusAccepted, func(page services.DashboardPage, ctx context.Context) error {
		return page.Subscribe(ctx, req.Email)
	})
}

func (h *DashboardHandlers) withDashboard(w http.ResponseWriter, r *http.Request, status int, action func(services.DashboardPage, context.Context) error) {
	ctx := r.Context()
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	page, err := sess.Dashboard()
	if err != nil {
		writeInternalError(ctx, w, err)
		return
	}
	if err := action(page, ctx); err != nil {
		h.writeDashboardError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, status, page.View())
}

func (h *DashboardHandlers) writeDashboardError(ctx context.Context, w http.ResponseWriter, page services.DashboardPage, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrDashboardInvalidInput):
		details := map[string]any{}
		if notice := page.View().Notice; notice != nil {
			details["notice"] = notice
		}
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_request", err.Error()).WithDetails(details))
	default:
		writeInternalError(ctx, w, err)
	}
}
