package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile        = ".env"
	defaultPort           = "8080"
	defaultReadTimeout    = 15 * time.Second
	defaultWriteTimeout   = 30 * time.Second
	defaultIdleTimeout    = 120 * time.Second
	defaultEnvironment    = "local"
	defaultSessionIdleTTL = 30 * time.Minute
	defaultSessionSweep   = "@every 5m"
	defaultStoreBackend   = BackendMemory
	defaultBoltPath       = "storefront.db"
	defaultRedisAddr      = "localhost:6379"
	defaultCatalogTimeout = 8 * time.Second
	defaultCurrency       = "EGP"
	defaultAuthRateLimit  = 20
)

// Storage backends accepted by STOREFRONT_STORE_BACKEND.
const (
	BackendMemory    = "memory"
	BackendBolt      = "bolt"
	BackendRedis     = "redis"
	BackendFirestore = "firestore"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server  ServerConfig
	Session SessionConfig
	Store   StoreConfig
	Catalog CatalogConfig
	Log     LogConfig
	Timings Timings
	Auth    AuthConfig
	// Currency is the fixed suffix used when rendering prices, e.g. "EGP".
	Currency string
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	// PublicURL is the storefront origin used for share links. Empty keeps links relative.
	PublicURL string
	Version   string
	CommitSHA string
}

// SessionConfig controls the visitor session cookie and idle eviction.
type SessionConfig struct {
	Secret    string
	IdleTTL   time.Duration
	SweepSpec string
}

// StoreConfig selects the key/value backend that stands in for browser storage.
type StoreConfig struct {
	Backend string

	BoltPath string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	FirestoreProjectID    string
	FirestoreEmulatorHost string
	FirestoreCollection   string
}

// CatalogConfig points the shop at the products API. An empty BaseURL serves fixtures.
type CatalogConfig struct {
	BaseURL string
	Timeout time.Duration
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level string
	File  string
}

// AuthConfig throttles simulated login/register submissions.
type AuthConfig struct {
	SubmissionsPerMinute int
}

// Timings holds every simulated delay and message window used by the page controllers.
type Timings struct {
	FilterDebounce  time.Duration
	CouponDelay     time.Duration
	FadeOut         time.Duration
	CartUpdate      time.Duration
	CartUpdated     time.Duration
	CartCheckout    time.Duration
	ButtonReset     time.Duration
	OrderProcessing time.Duration
	WishlistEvict   time.Duration
	AuthSubmit      time.Duration
	LoginRedirect   time.Duration
	RegisterReturn  time.Duration
	ProductAdd      time.Duration
	DashboardSave   time.Duration
	CartNotice      time.Duration
	CheckoutNotice  time.Duration
	AuthNotice      time.Duration
	WishlistNotice  time.Duration
	ShopErrorBanner time.Duration
	PageNotice      time.Duration
}

// DefaultTimings returns the storefront's stock delays.
func DefaultTimings() Timings {
	return Timings{
		FilterDebounce:  300 * time.Millisecond,
		CouponDelay:     time.Second,
		FadeOut:         300 * time.Millisecond,
		CartUpdate:      time.Second,
		CartUpdated:     2 * time.Second,
		CartCheckout:    1500 * time.Millisecond,
		ButtonReset:     2 * time.Second,
		OrderProcessing: 2 * time.Second,
		WishlistEvict:   time.Second,
		AuthSubmit:      2 * time.Second,
		LoginRedirect:   1500 * time.Millisecond,
		RegisterReturn:  2 * time.Second,
		ProductAdd:      time.Second,
		DashboardSave:   1500 * time.Millisecond,
		CartNotice:      3 * time.Second,
		CheckoutNotice:  4 * time.Second,
		AuthNotice:      5 * time.Second,
		WishlistNotice:  3 * time.Second,
		ShopErrorBanner: 5 * time.Second,
		PageNotice:      3 * time.Second,
	}
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map that takes precedence over the OS environment.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from the process environment.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// Load assembles the configuration from defaults, .env overrides, the process
// environment and explicit maps, in increasing order of precedence.
func Load(_ context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
	}
	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if value, ok := options.envMap[key]; ok {
			return value, true
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if value, ok := dotEnvValues[key]; ok {
			return value, true
		}
		return "", false
	}

	timings := DefaultTimings()
	timings.FilterDebounce = durationWithDefault(lookup, "STOREFRONT_FILTER_DEBOUNCE", timings.FilterDebounce)

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "STOREFRONT_PORT", defaultPort),
			Environment:  strings.ToLower(stringWithDefault(lookup, "STOREFRONT_ENV", defaultEnvironment)),
			ReadTimeout:  durationWithDefault(lookup, "STOREFRONT_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "STOREFRONT_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "STOREFRONT_IDLE_TIMEOUT", defaultIdleTimeout),
			PublicURL:    strings.TrimRight(strings.TrimSpace(stringWithDefault(lookup, "STOREFRONT_PUBLIC_URL", "")), "/"),
			Version:      stringWithDefault(lookup, "STOREFRONT_BUILD_VERSION", "dev"),
			CommitSHA:    stringWithDefault(lookup, "STOREFRONT_BUILD_COMMIT_SHA", "unknown"),
		},
		Session: SessionConfig{
			Secret:    stringWithDefault(lookup, "STOREFRONT_SESSION_SECRET", ""),
			IdleTTL:   durationWithDefault(lookup, "STOREFRONT_SESSION_IDLE_TTL", defaultSessionIdleTTL),
			SweepSpec: stringWithDefault(lookup, "STOREFRONT_SESSION_SWEEP", defaultSessionSweep),
		},
		Store: StoreConfig{
			Backend:               strings.ToLower(stringWithDefault(lookup, "STOREFRONT_STORE_BACKEND", defaultStoreBackend)),
			BoltPath:              stringWithDefault(lookup, "STOREFRONT_BOLT_PATH", defaultBoltPath),
			RedisAddr:             stringWithDefault(lookup, "STOREFRONT_REDIS_ADDR", defaultRedisAddr),
			RedisPassword:         stringWithDefault(lookup, "STOREFRONT_REDIS_PASSWORD", ""),
			RedisDB:               intWithDefault(lookup, "STOREFRONT_REDIS_DB", 0),
			FirestoreProjectID:    stringWithDefault(lookup, "STOREFRONT_FIRESTORE_PROJECT_ID", stringWithDefault(lookup, "GOOGLE_CLOUD_PROJECT", "")),
			FirestoreEmulatorHost: stringWithDefault(lookup, "FIRESTORE_EMULATOR_HOST", ""),
			FirestoreCollection:   stringWithDefault(lookup, "STOREFRONT_FIRESTORE_COLLECTION", "storefrontStorage"),
		},
		Catalog: CatalogConfig{
			BaseURL: strings.TrimRight(strings.TrimSpace(stringWithDefault(lookup, "STOREFRONT_CATALOG_BASE_URL", "")), "/"),
			Timeout: durationWithDefault(lookup, "STOREFRONT_CATALOG_TIMEOUT", defaultCatalogTimeout),
		},
		Log: LogConfig{
			Level: stringWithDefault(lookup, "LOG_LEVEL", "info"),
			File:  stringWithDefault(lookup, "LOG_FILE", ""),
		},
		Timings: timings,
		Auth: AuthConfig{
			SubmissionsPerMinute: intWithDefault(lookup, "STOREFRONT_AUTH_RATE_LIMIT", defaultAuthRateLimit),
		},
		Currency: strings.ToUpper(stringWithDefault(lookup, "STOREFRONT_CURRENCY", defaultCurrency)),
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// IsLocal reports whether the server runs in the local development environment.
func (c Config) IsLocal() bool {
	return c.Server.Environment == defaultEnvironment
}

func validateConfig(cfg Config) error {
	var missing []string

	if cfg.Server.Port == "" {
		missing = append(missing, "Server.Port")
	}
	if cfg.Server.Environment != defaultEnvironment && strings.TrimSpace(cfg.Session.Secret) == "" {
		missing = append(missing, "Session.Secret")
	}
	if cfg.Session.IdleTTL <= 0 {
		missing = append(missing, "Session.IdleTTL")
	}
	switch cfg.Store.Backend {
	case BackendMemory:
	case BackendBolt:
		if strings.TrimSpace(cfg.Store.BoltPath) == "" {
			missing = append(missing, "Store.BoltPath")
		}
	case BackendRedis:
		if strings.TrimSpace(cfg.Store.RedisAddr) == "" {
			missing = append(missing, "Store.RedisAddr")
		}
	case BackendFirestore:
		if strings.TrimSpace(cfg.Store.FirestoreProjectID) == "" {
			missing = append(missing, "Store.FirestoreProjectID")
		}
	default:
		missing = append(missing, "Store.Backend")
	}
	if cfg.Catalog.Timeout <= 0 {
		missing = append(missing, "Catalog.Timeout")
	}
	if len(cfg.Currency) != 3 {
		missing = append(missing, "Currency")
	}
	if cfg.Timings.FilterDebounce < 0 {
		missing = append(missing, "Timings.FilterDebounce")
	}

	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

func loadDotEnv(path string) (map[string]string, error) {
	if path == "" {
		return nil, nil
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		absPath = path
	}

	file, err := os.Open(absPath)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: unable to read %s: %w", absPath, err)
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	values := make(map[string]string)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimSpace(strings.TrimPrefix(line, "export "))
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		values[key] = strings.Trim(strings.TrimSpace(value), "\"'")
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: failed parsing %s: %w", absPath, err)
	}
	return values, nil
}

func stringWithDefault(lookup func(string) (string, bool), key, fallback string) string {
	if value, ok := lookup(key); ok && value != "" {
		return value
	}
	return fallback
}

func durationWithDefault(lookup func(string) (string, bool), key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok && value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}

func intWithDefault(lookup func(string) (string, bool), key string, fallback int) int {
	if value, ok := lookup(key); ok && value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}
