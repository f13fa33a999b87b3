package handlers

import (
	"net/http"
	"testing"

	"github.com/MahmoudAkram21/tiamo/internal/services"
)

func TestFAQHandlersToggle(t *testing.T) {
	env := newTestEnv(t)

	rr := env.do(t, http.MethodGet, "/api/v1/faq", nil)
	expectStatus(t, rr, http.StatusOK)
	var view services.FAQView
	decodeJSON(t, rr, &view)
	if view.OpenID != "shipping" || !view.Items[0].Open {
		t.Fatalf("expected the first entry open, got %q", view.OpenID)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/faq/returns/toggle", nil)
	expectStatus(t, rr, http.StatusOK)
	decodeJSON(t, rr, &view)
	if view.OpenID != "returns" || view.Items[0].Open {
		t.Fatalf("expected only returns open, got %q", view.OpenID)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/faq/returns/toggle", nil)
	view = services.FAQView{}
	decodeJSON(t, rr, &view)
	if view.OpenID != "" {
		t.Fatalf("expected every entry closed, got %q", view.OpenID)
	}

	rr = env.do(t, http.MethodPost, "/api/v1/faq/warranty/toggle", nil)
	expectStatus(t, rr, http.StatusNotFound)
	expectErrorCode(t, rr, "faq_not_found")
}
