package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"

	"github.com/MahmoudAkram21/tiamo/internal/catalog"
	"github.com/MahmoudAkram21/tiamo/internal/content"
	"github.com/MahmoudAkram21/tiamo/internal/handlers"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	pfirestore "github.com/MahmoudAkram21/tiamo/internal/platform/firestore"
	"github.com/MahmoudAkram21/tiamo/internal/platform/observability"
	"github.com/MahmoudAkram21/tiamo/internal/platform/session"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
	boltstore "github.com/MahmoudAkram21/tiamo/internal/repositories/bolt"
	firestorestore "github.com/MahmoudAkram21/tiamo/internal/repositories/firestore"
	"github.com/MahmoudAkram21/tiamo/internal/repositories/memory"
	redisstore "github.com/MahmoudAkram21/tiamo/internal/repositories/redis"
	"github.com/MahmoudAkram21/tiamo/internal/services"
)

// productCatalog is what the shop queries and readiness pings.
type productCatalog interface {
	services.ProductCatalog
	Ping(ctx context.Context) error
}

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	cfg, err := config.Load(ctx)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			fmt.Fprintf(os.Stderr, "invalid configuration: %v\n", invalid.Fields())
			os.Exit(1)
		}
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(observability.LoggerOptions{Level: cfg.Log.Level, File: cfg.Log.File})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")
	ctx = observability.WithLogger(ctx, logger)

	fixtures, err := content.Load()
	if err != nil {
		logger.Fatal("failed to load storefront content", zap.Error(err))
	}

	kv, err := openStore(ctx, cfg.Store, logger)
	if err != nil {
		logger.Fatal("failed to open storage backend", zap.String("backend", cfg.Store.Backend), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := kv.Close(closeCtx); err != nil {
			logger.Warn("storage close error", zap.Error(err))
		}
	}()

	wishlists, err := repositories.NewWishlistStore(kv)
	if err != nil {
		logger.Fatal("failed to initialise wishlist store", zap.Error(err))
	}
	preferences, err := repositories.NewPreferenceStore(kv)
	if err != nil {
		logger.Fatal("failed to initialise preference store", zap.Error(err))
	}

	products := newCatalog(cfg.Catalog, fixtures, logger.Named("catalog"))
	clk := clock.New()

	registry, err := services.NewRegistry(services.RegistryDeps{
		Fixtures:    fixtures,
		Catalog:     products,
		Wishlists:   wishlists,
		Preferences: preferences,
		Currency:    cfg.Currency,
		Clock:       clk,
		Timings:     cfg.Timings,
		Logger:      observability.EventLogger(logger.Named("pages")),
		IdleTTL:     cfg.Session.IdleTTL,
		ProductURL:  productURL(cfg.Server.PublicURL),
	})
	if err != nil {
		logger.Fatal("failed to initialise session registry", zap.Error(err))
	}
	defer registry.Close()

	stopSweeper, err := registry.StartSweeper(cfg.Session.SweepSpec)
	if err != nil {
		logger.Fatal("failed to schedule session sweep", zap.Error(err))
	}
	defer stopSweeper()

	deals := make([]services.Deal, 0, len(fixtures.Deals))
	for _, d := range fixtures.Deals {
		deals = append(deals, services.Deal{ID: d.ID, Title: d.Title, EndsAt: d.EndsAt})
	}
	dealBoard, err := services.NewDealBoard(clk, deals)
	if err != nil {
		logger.Fatal("failed to initialise deal board", zap.Error(err))
	}

	healthRepo, err := repositories.NewDependencyHealthRepository([]repositories.DependencyCheck{
		repositories.StoreCheck("storage", kv),
		{Name: "catalog", Timeout: 2 * time.Second, Check: products.Ping},
	})
	if err != nil {
		logger.Fatal("failed to initialise health repository", zap.Error(err))
	}

	sessions := session.NewManager(cfg.Session.Secret, logger.Named("session"), session.WithSecure(!cfg.IsLocal()))

	router := handlers.NewRouter(
		handlers.WithMiddlewares(
			observability.TraceMiddleware(cfg.Store.FirestoreProjectID),
			observability.InjectLoggerMiddleware(logger),
			observability.RequestLoggerMiddleware(),
			observability.RecoveryMiddleware(logger),
		),
		handlers.WithPageMiddlewares(sessions.Middleware),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(
			handlers.WithHealthBuildInfo(handlers.BuildInfo{
				Version:     cfg.Server.Version,
				CommitSHA:   cfg.Server.CommitSHA,
				Environment: cfg.Server.Environment,
				StartedAt:   startedAt,
			}),
			handlers.WithHealthRepository(healthRepo),
		)),
		handlers.WithCartRoutes(handlers.NewCartHandlers(registry).Routes),
		handlers.WithCheckoutRoutes(handlers.NewCheckoutHandlers(registry).Routes),
		handlers.WithWishlistRoutes(handlers.NewWishlistHandlers(registry).Routes),
		handlers.WithShopRoutes(handlers.NewShopHandlers(registry).Routes),
		handlers.WithAuthRoutes(handlers.NewAuthHandlers(registry,
			handlers.WithAuthRateLimit(cfg.Auth.SubmissionsPerMinute, time.Now),
		).Routes),
		handlers.WithProductRoutes(handlers.NewProductHandlers(registry).Routes),
		handlers.WithDashboardRoutes(handlers.NewDashboardHandlers(registry).Routes),
		handlers.WithFAQRoutes(handlers.NewFAQHandlers(registry).Routes),
		handlers.WithCountdownRoutes(handlers.NewCountdownHandlers(dealBoard).Routes),
	)
	logRoutes(router, logger)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("tiamo storefront listening",
			zap.String("environment", cfg.Server.Environment),
			zap.String("store", cfg.Store.Backend),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

// openStore builds the key/value backend selected by configuration.
func openStore(ctx context.Context, cfg config.StoreConfig, logger *zap.Logger) (repositories.KVStore, error) {
	switch cfg.Backend {
	case config.BackendMemory:
		logger.Info("storage: in-memory backend; data is lost on restart")
		return memory.New(), nil
	case config.BackendBolt:
		return boltstore.Open(cfg.BoltPath)
	case config.BackendRedis:
		store := redisstore.Dial(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		if err := store.Ping(pingCtx); err != nil {
			logger.Warn("storage: redis not reachable at startup", zap.String("addr", cfg.RedisAddr), zap.Error(err))
		}
		return store, nil
	case config.BackendFirestore:
		provider := pfirestore.NewProvider(cfg)
		return firestorestore.NewStore(provider, cfg.FirestoreCollection)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}

func newCatalog(cfg config.CatalogConfig, fixtures content.Fixtures, logger *zap.Logger) productCatalog {
	if cfg.BaseURL == "" {
		logger.Info("catalog: serving bundled fixtures")
		return catalog.NewFixture(fixtures.Products)
	}
	return catalog.NewClient(cfg.BaseURL,
		catalog.WithTimeout(cfg.Timeout),
		catalog.WithStateChangeHook(func(name string, from, to gobreaker.State) {
			logger.Warn("catalog breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		}),
	)
}

func productURL(publicURL string) func(int64) string {
	if publicURL == "" {
		return nil
	}
	return func(id int64) string {
		return publicURL + "/product.html?id=" + strconv.FormatInt(id, 10)
	}
}

func logRoutes(router chi.Router, logger *zap.Logger) {
	if !logger.Core().Enabled(zap.DebugLevel) {
		return
	}
	_ = chi.Walk(router, func(method, route string, _ http.Handler, _ ...func(http.Handler) http.Handler) error {
		logger.Debug("route", zap.String("method", method), zap.String("path", route))
		return nil
	})
}
