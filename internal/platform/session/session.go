package session

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/MahmoudAkram21/tiamo/internal/platform/requestctx"
)

// CookieName is the visitor session cookie.
const CookieName = "TIAMO_SESSION"

const cookieLifetime = 30 * 24 * time.Hour

// ErrInvalidCookie is returned when a cookie fails signature or payload checks.
var ErrInvalidCookie = errors.New("session: invalid cookie")

type payload struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
}

// Manager issues and verifies the signed visitor cookie.
type Manager struct {
	key    []byte
	secure bool
	now    func() time.Time
	newID  func() string
}

// Option customises a Manager.
type Option func(*Manager)

// WithSecure marks issued cookies Secure.
func WithSecure(secure bool) Option {
	return func(m *Manager) { m.secure = secure }
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithIDGenerator overrides session id generation.
func WithIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		if gen != nil {
			m.newID = gen
		}
	}
}

// NewManager constructs a Manager. An empty secret yields a process-ephemeral key.
func NewManager(secret string, logger *zap.Logger, opts ...Option) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	key := []byte(strings.TrimSpace(secret))
	if len(key) == 0 {
		key = make([]byte, 32)
		if _, err := rand.Read(key); err != nil {
			logger.Warn("session: failed to generate signing key", zap.Error(err))
			key = []byte("tiamo-insecure-dev-session-key")
		}
		logger.Info("session: using ephemeral signing key; set STOREFRONT_SESSION_SECRET to keep sessions across restarts")
	}
	m := &Manager{
		key:   key,
		now:   time.Now,
		newID: func() string { return ulid.Make().String() },
	}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}
	return m
}

// Middleware resolves the visitor session, issuing a fresh cookie when absent or
// tampered, and stores the id on the request context.
func (m *Manager) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, err := m.Read(r)
		if err != nil {
			id = m.newID()
			m.Write(w, r, id)
		}
		ctx := requestctx.WithSessionID(r.Context(), id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// Read returns the session id carried by a verified cookie.
func (m *Manager) Read(r *http.Request) (string, error) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return "", ErrInvalidCookie
	}
	encoded, sig, ok := strings.Cut(c.Value, ".")
	if !ok {
		return "", ErrInvalidCookie
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCookie
	}
	sigBytes, err := base64.RawURLEncoding.DecodeString(sig)
	if err != nil {
		return "", ErrInvalidCookie
	}
	if !hmac.Equal(sigBytes, m.sign(raw)) {
		return "", ErrInvalidCookie
	}
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil || strings.TrimSpace(p.ID) == "" {
		return "", ErrInvalidCookie
	}
	return p.ID, nil
}

// Write sets a signed cookie for id on the response.
func (m *Manager) Write(w http.ResponseWriter, r *http.Request, id string) {
	now := m.now().UTC()
	raw, _ := json.Marshal(payload{ID: id, CreatedAt: now})
	value := base64.RawURLEncoding.EncodeToString(raw) + "." + base64.RawURLEncoding.EncodeToString(m.sign(raw))
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   m.secure || r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
		Expires:  now.Add(cookieLifetime),
	})
}

func (m *Manager) sign(raw []byte) []byte {
	mac := hmac.New(sha256.New, m.key)
	mac.Write(raw)
	return mac.Sum(nil)
}
