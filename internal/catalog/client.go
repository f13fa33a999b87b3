// Package catalog talks to the products API behind the shop page, or serves the
// embedded fixtures when no API is configured.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"golang.org/x/sync/singleflight"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

const (
	defaultTimeout    = 8 * time.Second
	maxResponseBytes  = 4 << 20
	filterEndpoint    = "products/filter"
	searchEndpoint    = "products/search"
	breakerName       = "catalog"
	breakerTripFailed = 5
	meterName         = "github.com/MahmoudAkram21/tiamo/internal/catalog"
)

// ErrUnavailable is returned while the circuit breaker is open.
var ErrUnavailable = errors.New("catalog: unavailable")

// Client issues filter and search requests against the products API.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *gobreaker.CircuitBreaker[domain.ProductPage]
	group   singleflight.Group

	latency  metric.Float64Histogram
	rejected metric.Int64Counter
}

// Option customises a Client.
type Option func(*clientOptions)

type clientOptions struct {
	timeout       time.Duration
	httpClient    *http.Client
	openTimeout   time.Duration
	onStateChange func(name string, from, to gobreaker.State)
	meter         metric.Meter
}

// WithTimeout overrides the per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.timeout = d
		}
	}
}

// WithHTTPClient replaces the HTTP client, mostly for tests.
func WithHTTPClient(c *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = c }
}

// WithBreakerOpenTimeout sets how long the breaker stays open before probing again.
func WithBreakerOpenTimeout(d time.Duration) Option {
	return func(o *clientOptions) {
		if d > 0 {
			o.openTimeout = d
		}
	}
}

// WithStateChangeHook observes breaker transitions.
func WithStateChangeHook(fn func(name string, from, to gobreaker.State)) Option {
	return func(o *clientOptions) { o.onStateChange = fn }
}

// WithMeter records request latency and breaker rejections on m instead of
// the global meter provider.
func WithMeter(m metric.Meter) Option {
	return func(o *clientOptions) { o.meter = m }
}

// NewClient constructs an API client rooted at baseURL, e.g. "https://shop.example.com/api".
func NewClient(baseURL string, opts ...Option) *Client {
	o := clientOptions{timeout: defaultTimeout, openTimeout: 30 * time.Second}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	httpClient := o.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: o.timeout}
	}

	settings := gobreaker.Settings{
		Name:    breakerName,
		Timeout: o.openTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= breakerTripFailed
		},
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: o.onStateChange,
	}

	meter := o.meter
	if meter == nil {
		meter = otel.GetMeterProvider().Meter(meterName)
	}
	fallback := noop.NewMeterProvider().Meter(meterName)
	latency, err := meter.Float64Histogram("catalog.request.duration",
		metric.WithUnit("ms"),
		metric.WithDescription("Latency of products API requests"),
	)
	if err != nil {
		latency, _ = fallback.Float64Histogram("catalog.request.duration")
	}
	rejected, err := meter.Int64Counter("catalog.requests.rejected",
		metric.WithDescription("Requests refused while the catalog breaker was open"),
	)
	if err != nil {
		rejected, _ = fallback.Int64Counter("catalog.requests.rejected")
	}

	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		http:     httpClient,
		breaker:  gobreaker.NewCircuitBreaker[domain.ProductPage](settings),
		latency:  latency,
		rejected: rejected,
	}
}

// Filter requests GET {base}/products/filter with the serialised filter state.
func (c *Client) Filter(ctx context.Context, state domain.ShopFilterState) (domain.ProductPage, error) {
	return c.fetch(ctx, filterEndpoint, state.Query())
}

// Search requests GET {base}/products/search?q=.
func (c *Client) Search(ctx context.Context, query string) (domain.ProductPage, error) {
	return c.fetch(ctx, searchEndpoint, url.Values{"q": {query}})
}

// Ping reports ErrUnavailable while the breaker is open.
func (c *Client) Ping(context.Context) error {
	if c.breaker.State() == gobreaker.StateOpen {
		return ErrUnavailable
	}
	return nil
}

// fetch collapses identical in-flight requests. The shared request outlives a
// cancelled caller so other waiters still get the result.
func (c *Client) fetch(ctx context.Context, endpoint string, query url.Values) (domain.ProductPage, error) {
	target, err := url.JoinPath(c.baseURL, endpoint)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("catalog: build url: %w", err)
	}
	if encoded := query.Encode(); encoded != "" {
		target += "?" + encoded
	}

	shared := context.WithoutCancel(ctx)
	ch := c.group.DoChan(target, func() (any, error) {
		start := time.Now()
		page, err := c.breaker.Execute(func() (domain.ProductPage, error) {
			return c.get(shared, target)
		})
		endpointAttr := attribute.String("endpoint", endpoint)
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			c.rejected.Add(shared, 1, metric.WithAttributes(endpointAttr))
			return page, fmt.Errorf("%w: %v", ErrUnavailable, err)
		}
		outcome := "ok"
		if err != nil {
			outcome = "error"
		}
		c.latency.Record(shared, float64(time.Since(start))/float64(time.Millisecond),
			metric.WithAttributes(endpointAttr, attribute.String("outcome", outcome)))
		return page, err
	})

	select {
	case <-ctx.Done():
		return domain.ProductPage{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return domain.ProductPage{}, res.Err
		}
		return res.Val.(domain.ProductPage), nil
	}
}

func (c *Client) get(ctx context.Context, target string) (domain.ProductPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.ProductPage{}, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.http.Do(req)
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("catalog: request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return domain.ProductPage{}, fmt.Errorf("catalog: status %d: %s", resp.StatusCode, drainError(resp.Body))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return domain.ProductPage{}, fmt.Errorf("catalog: read body: %w", err)
	}
	return DecodeEnvelope(body)
}

func drainError(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 512))
	return strings.TrimSpace(string(b))
}
