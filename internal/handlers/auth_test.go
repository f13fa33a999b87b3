package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

func TestAuthHandlersLoginValidation(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{"username": " "})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	body := expectErrorCode(t, rr, "validation_failed")
	errs, ok := body["errors"].(map[string]any)
	if !ok {
		t.Fatalf("expected field errors, got %v", body)
	}
	if errs[services.FieldLoginUsername] != "Username or email is required" {
		t.Fatalf("unexpected username error %v", errs[services.FieldLoginUsername])
	}
	if errs[services.FieldLoginPassword] != "Password is required" {
		t.Fatalf("unexpected password error %v", errs[services.FieldLoginPassword])
	}
}

func TestAuthHandlersLoginRedirects(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]any{"username": "mona", "password": "secret", "remember": true})
	expectStatus(t, rr, http.StatusAccepted)
	var view services.AuthView
	decodeJSON(t, rr, &view)
	if !view.LoginButton.Disabled || view.LoginButton.Label != "Logging in..." {
		t.Fatalf("expected a busy login button, got %+v", view.LoginButton)
	}

	env.clock.Advance(2 * time.Second)
	rr = env.do(t, http.MethodGet, "/api/v1/auth", nil)
	decodeJSON(t, rr, &view)
	if view.Notice == nil || view.Notice.Kind != domain.NoticeSuccess {
		t.Fatalf("expected a success notice, got %+v", view.Notice)
	}

	env.clock.Advance(1500 * time.Millisecond)
	rr = env.do(t, http.MethodGet, "/api/v1/auth", nil)
	decodeJSON(t, rr, &view)
	if view.Redirect != "dashboard.html" {
		t.Fatalf("expected the dashboard redirect, got %q", view.Redirect)
	}
}

func TestAuthHandlersRateLimit(t *testing.T) {
	env := newTestEnv(t, WithAuthRateLimit(1, func() time.Time { return testStart }))

	rr := env.do(t, http.MethodPost, "/api/v1/auth/login", map[string]string{})
	expectStatus(t, rr, http.StatusUnprocessableEntity)

	rr = env.do(t, http.MethodPost, "/api/v1/auth/register", map[string]string{})
	expectStatus(t, rr, http.StatusTooManyRequests)
	expectErrorCode(t, rr, "rate_limited")
	if got := rr.Header().Get("Retry-After"); got != "60" {
		t.Fatalf("expected Retry-After 60, got %q", got)
	}

	rr = env.doAs(t, "visitor-2", http.MethodPost, "/api/v1/auth/login", map[string]string{})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
}

func TestAuthHandlersModeAndToggles(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/auth/mode", map[string]string{"mode": "register"})
	expectStatus(t, rr, http.StatusOK)
	var view services.AuthView
	decodeJSON(t, rr, &view)
	if view.Mode != services.AuthModeRegister || view.Focus != services.FieldRegisterUsername {
		t.Fatalf("expected register mode focused on username, got %s/%s", view.Mode, view.Focus)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/auth/mode", map[string]string{"mode": "sso"})
	expectStatus(t, rr, http.StatusUnprocessableEntity)
	expectErrorCode(t, rr, "invalid_mode")

	rr = env.do(t, http.MethodPost, "/api/v1/auth/passwords/"+services.FieldConfirmPassword+"/toggle", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &view)
	if !view.PasswordVisible[services.FieldConfirmPassword] {
		t.Fatalf("expected the confirm password to be visible")
	}

	rr = env.do(t, http.MethodPost, "/api/v1/auth/passwords/pin/toggle", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "field_not_found")
}

func TestAuthHandlersBlurRegisterField(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodPost, "/api/v1/auth/register/fields/"+services.FieldRegisterPassword+"/blur", map[string]string{"password": "abc"})
	expectStatus(t, rr, http.StatusOK)
	var state domain.FormFieldState
	decodeJSON(t, rr, &state)
	if state.Valid || state.ErrorMessage != "Password must be at least 6 characters" {
		t.Fatalf("unexpected blur state %+v", state)
	}
}
