package repositories

import (
	"context"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// KVStore is the per-visitor key/value storage standing in for browser local storage.
// Get returns an error satisfying RepositoryError.IsNotFound for absent keys.
type KVStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// WishlistRepository persists a visitor's wishlist array.
type WishlistRepository interface {
	Load(ctx context.Context, sessionID string) ([]domain.WishlistItem, error)
	Save(ctx context.Context, sessionID string, items []domain.WishlistItem) error
}

// PreferenceRepository persists small per-visitor UI preferences.
type PreferenceRepository interface {
	ViewMode(ctx context.Context, sessionID string) (domain.ViewMode, error)
	SetViewMode(ctx context.Context, sessionID string, mode domain.ViewMode) error
}

// HealthRepository reports dependency health for readiness checks.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}
