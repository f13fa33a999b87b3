package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

// WishlistStore keeps the wishlist as one JSON array per visitor under domain.WishlistStorageKey.
type WishlistStore struct {
	kv KVStore
}

var _ WishlistRepository = (*WishlistStore)(nil)

// NewWishlistStore wraps kv.
func NewWishlistStore(kv KVStore) (*WishlistStore, error) {
	if kv == nil {
		return nil, errors.New("wishlist store: kv store is required")
	}
	return &WishlistStore{kv: kv}, nil
}

// Load returns the stored array. Missing keys surface IsNotFound; undecodable
// payloads surface IsCorrupt.
func (s *WishlistStore) Load(ctx context.Context, sessionID string) ([]domain.WishlistItem, error) {
	key := SessionKey(sessionID, domain.WishlistStorageKey)
	raw, err := s.kv.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	var items []domain.WishlistItem
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, NewCorruptError("wishlist.load", key, err)
	}
	return items, nil
}

// Save overwrites the stored array.
func (s *WishlistStore) Save(ctx context.Context, sessionID string, items []domain.WishlistItem) error {
	key := SessionKey(sessionID, domain.WishlistStorageKey)
	if items == nil {
		items = []domain.WishlistItem{}
	}
	raw, err := json.Marshal(items)
	if err != nil {
		return WrapStoreError("wishlist.save", key, err)
	}
	return s.kv.Put(ctx, key, raw)
}

// PreferenceStore keeps the shop grid/list choice under domain.ShopViewStorageKey.
type PreferenceStore struct {
	kv KVStore
}

var _ PreferenceRepository = (*PreferenceStore)(nil)

// NewPreferenceStore wraps kv.
func NewPreferenceStore(kv KVStore) (*PreferenceStore, error) {
	if kv == nil {
		return nil, errors.New("preference store: kv store is required")
	}
	return &PreferenceStore{kv: kv}, nil
}

// ViewMode returns the stored view, defaulting to grid when absent.
func (s *PreferenceStore) ViewMode(ctx context.Context, sessionID string) (domain.ViewMode, error) {
	raw, err := s.kv.Get(ctx, SessionKey(sessionID, domain.ShopViewStorageKey))
	if err != nil {
		if IsNotFound(err) {
			return domain.ViewGrid, nil
		}
		return domain.ViewGrid, err
	}
	return domain.ParseViewMode(strings.TrimSpace(string(raw))), nil
}

// SetViewMode stores mode as a bare string.
func (s *PreferenceStore) SetViewMode(ctx context.Context, sessionID string, mode domain.ViewMode) error {
	return s.kv.Put(ctx, SessionKey(sessionID, domain.ShopViewStorageKey), []byte(domain.ParseViewMode(string(mode))))
}
