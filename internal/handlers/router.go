package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/MahmoudAkram21/tiamo/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

// pageGroup is one storefront page mounted under the API prefix.
type pageGroup struct {
	name string
	path string
	// sessionless groups skip the page middlewares (countdown is a pure clock read).
	sessionless bool
}

var pageGroups = []pageGroup{
	{name: "cart", path: "/cart"},
	{name: "checkout", path: "/checkout"},
	{name: "wishlist", path: "/wishlist"},
	{name: "shop", path: "/shop"},
	{name: "auth", path: "/auth"},
	{name: "product", path: "/product/{productID}"},
	{name: "dashboard", path: "/dashboard"},
	{name: "faq", path: "/faq"},
	{name: "countdown", path: "/countdown", sessionless: true},
}

type routerConfig struct {
	basePath        string
	middlewares     []func(http.Handler) http.Handler
	pageMiddlewares []func(http.Handler) http.Handler
	health          *HealthHandlers
	registrars      map[string]RouteRegistrar
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix = "/api/v1"
	requestTimeout   = 30 * time.Second
)

// NewRouter builds the storefront router: health probes at the root and one
// group per page under the API prefix. Groups without a registrar answer 501.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath:   defaultAPIPrefix,
		registrars: make(map[string]RouteRegistrar, len(pageGroups)),
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Timeout(requestTimeout))
	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NotFound("route_not_found", "no route for "+req.URL.Path))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed",
			fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
	})

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		for _, page := range pageGroups {
			api.Route(page.path, func(group chi.Router) {
				if !page.sessionless {
					for _, mw := range cfg.pageMiddlewares {
						if mw != nil {
							group.Use(mw)
						}
					}
				}
				if register := cfg.registrars[page.name]; register != nil {
					register(group)
					return
				}
				group.HandleFunc("/", notImplemented(page.name))
				group.HandleFunc("/*", notImplemented(page.name))
			})
		}
	})

	return r
}

// WithMiddlewares appends global middleware, run after request id and timeout.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithPageMiddlewares adds middleware to every session-backed page group.
func WithPageMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.pageMiddlewares = append(cfg.pageMiddlewares, mw...)
	}
}

func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) { cfg.health = h }
}

// WithBasePath changes the API prefix, "/api/v1" by default.
func WithBasePath(path string) Option {
	return func(cfg *routerConfig) {
		if path != "" {
			cfg.basePath = path
		}
	}
}

func withPage(name string, reg RouteRegistrar) Option {
	return func(cfg *routerConfig) { cfg.registrars[name] = reg }
}

func WithCartRoutes(reg RouteRegistrar) Option      { return withPage("cart", reg) }
func WithCheckoutRoutes(reg RouteRegistrar) Option  { return withPage("checkout", reg) }
func WithWishlistRoutes(reg RouteRegistrar) Option  { return withPage("wishlist", reg) }
func WithShopRoutes(reg RouteRegistrar) Option      { return withPage("shop", reg) }
func WithAuthRoutes(reg RouteRegistrar) Option      { return withPage("auth", reg) }
func WithProductRoutes(reg RouteRegistrar) Option   { return withPage("product", reg) }
func WithDashboardRoutes(reg RouteRegistrar) Option { return withPage("dashboard", reg) }
func WithFAQRoutes(reg RouteRegistrar) Option       { return withPage("faq", reg) }
func WithCountdownRoutes(reg RouteRegistrar) Option { return withPage("countdown", reg) }

func notImplemented(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", name+" routes not implemented", http.StatusNotImplemented))
	}
}
