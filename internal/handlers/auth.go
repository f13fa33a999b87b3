package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

const authSubmitWindow = time.Minute

// AuthHandlers exposes the simulated login and register forms.
type AuthHandlers struct {
	sessions SessionSource
	limiter  rateLimiter
}

// AuthOption customises AuthHandlers.
type AuthOption func(*AuthHandlers)

// WithAuthRateLimit caps form submissions per visitor session per minute. Zero disables it.
func WithAuthRateLimit(perMinute int, clock func() time.Time) AuthOption {
	return func(h *AuthHandlers) {
		h.limiter = newWindowLimiter(perMinute, authSubmitWindow, clock)
	}
}

// NewAuthHandlers constructs auth handlers backed by the session registry.
func NewAuthHandlers(sessions SessionSource, opts ...AuthOption) *AuthHandlers {
	h := &AuthHandlers{sessions: sessions}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h
}

// Routes wires the /auth endpoints onto the provided router.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Get("/", h.getAuth)
	r.Post("/mode", h.setMode)
	r.Post("/login", h.login)
	r.Post("/register", h.register)
	r.Post("/register/fields/{field}/blur", h.blurRegisterField)
	r.Post("/passwords/{field}/toggle", h.togglePassword)
}

type authModeRequest struct {
	Mode services.AuthMode `json:"mode"`
}

func (h *AuthHandlers) getAuth(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *AuthHandlers) setMode(w http.ResponseWriter, r *http.Request) {
	var req authModeRequest
	if !decodeBody(w, r, &req, true) {
		return
	}
	ctx := r.Context()
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	switch req.Mode {
	case services.AuthModeLogin:
		page.ShowLogin(ctx)
	case services.AuthModeRegister:
		page.ShowRegister(ctx)
	default:
		httpx.WriteError(ctx, w, httpx.Unprocessable("invalid_mode", "mode must be login or register"))
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	var form services.LoginForm
	if !decodeBody(w, r, &form, false) {
		return
	}
	h.submit(w, r, func(ctx context.Context, page services.AuthPage) error {
		return page.SubmitLogin(ctx, form)
	})
}

func (h *AuthHandlers) register(w http.ResponseWriter, r *http.Request) {
	var form services.RegisterForm
	if !decodeBody(w, r, &form, false) {
		return
	}
	h.submit(w, r, func(ctx context.Context, page services.AuthPage) error {
		return page.SubmitRegister(ctx, form)
	})
}

func (h *AuthHandlers) submit(w http.ResponseWriter, r *http.Request, action func(context.Context, services.AuthPage) error) {
	ctx := r.Context()
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return
	}
	if h.limiter != nil {
		if ok, wait := h.limiter.Allow(sess.ID()); !ok {
			httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many attempts, please wait a minute", http.StatusTooManyRequests).WithRetryAfter(wait))
			return
		}
	}
	page, err := sess.Auth()
	if err != nil {
		writeInternalError(ctx, w, err)
		return
	}
	if err := action(ctx, page); err != nil {
		h.writeAuthError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusAccepted, page.View())
}

func (h *AuthHandlers) blurRegisterField(w http.ResponseWriter, r *http.Request) {
	var form services.RegisterForm
	if !decodeBody(w, r, &form, false) {
		return
	}
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	state, err := page.BlurRegisterField(ctx, chi.URLParam(r, "field"), form)
	if err != nil {
		h.writeAuthError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, state)
}

func (h *AuthHandlers) togglePassword(w http.ResponseWriter, r *http.Request) {
	page, ok := h.page(w, r)
	if !ok {
		return
	}
	ctx := r.Context()
	if err := page.TogglePasswordVisibility(ctx, chi.URLParam(r, "field")); err != nil {
		h.writeAuthError(ctx, w, page, err)
		return
	}
	writeJSONResponse(w, http.StatusOK, page.View())
}

func (h *AuthHandlers) page(w http.ResponseWriter, r *http.Request) (services.AuthPage, bool) {
	sess, ok := currentSession(w, r, h.sessions)
	if !ok {
		return nil, false
	}
	page, err := sess.Auth()
	if err != nil {
		writeInternalError(r.Context(), w, err)
		return nil, false
	}
	return page, true
}

func (h *AuthHandlers) writeAuthError(ctx context.Context, w http.ResponseWriter, page services.AuthPage, err error) {
	if writeSharedPageError(ctx, w, err) {
		return
	}
	switch {
	case errors.Is(err, services.ErrAuthInvalid):
		view := page.View()
		writeFormInvalid(ctx, w, "Please correct the highlighted fields", view.Focus, view.Errors)
	case errors.Is(err, services.ErrAuthUnknownField):
		httpx.WriteError(ctx, w, httpx.NotFound("field_not_found", "unknown form field"))
	default:
		writeInternalError(ctx, w, err)
	}
}
