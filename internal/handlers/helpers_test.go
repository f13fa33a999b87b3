package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/MahmoudAkram21/tiamo/internal/catalog"
	"github.com/MahmoudAkram21/tiamo/internal/content"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/requestctx"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
	"github.com/MahmoudAkram21/tiamo/internal/repositories/memory"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

const (
	testSessionHeader = "X-Test-Session"
	defaultVisitor    = "visitor-1"
)

var testStart = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

type testEnv struct {
	router   chi.Router
	registry *services.Registry
	clock    *clock.Fake
}

// withTestSession stands in for the signed cookie middleware.
func withTestSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(testSessionHeader)
		if id == "" {
			id = defaultVisitor
		}
		next.ServeHTTP(w, r.WithContext(requestctx.WithSessionID(r.Context(), id)))
	})
}

func newTestEnv(t *testing.T, authOpts ...AuthOption) *testEnv {
	t.Helper()
	fixtures, err := content.Load()
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	kv := memory.New()
	wishlists, err := repositories.NewWishlistStore(kv)
	if err != nil {
		t.Fatalf("wishlist store: %v", err)
	}
	prefs, err := repositories.NewPreferenceStore(kv)
	if err != nil {
		t.Fatalf("preference store: %v", err)
	}
	clk := clock.NewFake(testStart)
	registry, err := services.NewRegistry(services.RegistryDeps{
		Fixtures:    fixtures,
		Catalog:     catalog.NewFixture(fixtures.Products),
		Wishlists:   wishlists,
		Preferences: prefs,
		Currency:    fixtures.Currency,
		Clock:       clk,
		ProductURL:  func(id int64) string { return fmt.Sprintf("https://tiamo.example/product.html?id=%d", id) },
	})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	t.Cleanup(registry.Close)

	deals := make([]services.Deal, 0, len(fixtures.Deals))
	for _, d := range fixtures.Deals {
		deals = append(deals, services.Deal{ID: d.ID, Title: d.Title, EndsAt: d.EndsAt})
	}
	board, err := services.NewDealBoard(clk, deals)
	if err != nil {
		t.Fatalf("deal board: %v", err)
	}

	router := NewRouter(
		WithPageMiddlewares(withTestSession),
		WithCartRoutes(NewCartHandlers(registry).Routes),
		WithCheckoutRoutes(NewCheckoutHandlers(registry).Routes),
		WithWishlistRoutes(NewWishlistHandlers(registry).Routes),
		WithShopRoutes(NewShopHandlers(registry).Routes),
		WithAuthRoutes(NewAuthHandlers(registry, authOpts...).Routes),
		WithProductRoutes(NewProductHandlers(registry).Routes),
		WithDashboardRoutes(NewDashboardHandlers(registry).Routes),
		WithFAQRoutes(NewFAQHandlers(registry).Routes),
		WithCountdownRoutes(NewCountdownHandlers(board).Routes),
	)
	return &testEnv{router: router, registry: registry, clock: clk}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doAs(t, defaultVisitor, method, path, body)
}

func (e *testEnv) doAs(t *testing.T, visitor, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(testSessionHeader, visitor)
	rr := httptest.NewRecorder()
	e.router.ServeHTTP(rr, req)
	return rr
}

func decodeJSON(t *testing.T, rr *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(rr.Body.Bytes(), dst); err != nil {
		t.Fatalf("decode response %q: %v", rr.Body.String(), err)
	}
}

func expectStatus(t *testing.T, rr *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rr.Code != want {
		t.Fatalf("expected status %d, got %d: %s", want, rr.Code, rr.Body.String())
	}
}

func expectErrorCode(t *testing.T, rr *httptest.ResponseRecorder, want string) map[string]any {
	t.Helper()
	var body map[string]any
	decodeJSON(t, rr, &body)
	if body["error"] != want {
		t.Fatalf("expected error %q, got %v", want, body["error"])
	}
	return body
}
