package services

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
	"github.com/MahmoudAkram21/tiamo/internal/platform/config"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
)

var (
	errWishlistRepositoryRequired = errors.New("wishlist page: repository is required")
	errWishlistSessionRequired    = errors.New("wishlist page: session id is required")
)

// ErrWishlistInvalidInput indicates the caller supplied invalid input.
var ErrWishlistInvalidInput = errors.New("wishlist page: invalid input")

// ErrWishlistItemNotFound indicates the referenced item is not in the wishlist.
var ErrWishlistItemNotFound = errors.New("wishlist page: item not found")

const (
	msgNoItemsSelected   = "No items selected"
	msgAllDeselected     = "All items deselected"
	msgAllRemoved        = "All items removed from wishlist"
	promptRemoveAll      = "Are you sure you want to remove all items from your wishlist?"
	promptRemoveSelected = "Are you sure you want to remove %d selected item(s) from your wishlist?"
)

// WishlistPageDeps wires the wishlist controller for one visitor session.
type WishlistPageDeps struct {
	SessionID  string
	Repository repositories.WishlistRepository
	// Seed is loaded when storage is missing or unreadable. Nil means start empty.
	Seed     []domain.WishlistItem
	Currency string
	Clock    clock.Clock
	Timings  config.Timings
	Logger   EventLogger
}

// WishlistItemView is one rendered wishlist card.
type WishlistItemView struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Image    string `json:"image"`
	Price    string `json:"price"`
	Selected bool   `json:"selected"`
}

// WishlistView is the rendered wishlist page.
type WishlistView struct {
	Items         []WishlistItemView `json:"items"`
	SelectedCount int                `json:"selectedCount"`
	Empty         bool               `json:"empty"`
	Notice        *NoticeView        `json:"notice,omitempty"`
}

type wishlistPage struct {
	page
	sessionID string
	repo      repositories.WishlistRepository
	seed      []domain.WishlistItem
	currency  string
	timings   config.Timings
	policy    *bluemonday.Policy

	loaded bool
	items  []domain.WishlistItem
}

// NewWishlistPage constructs a wishlist controller. Storage is read lazily on first use.
func NewWishlistPage(deps WishlistPageDeps) (WishlistPage, error) {
	if deps.Repository == nil {
		return nil, errWishlistRepositoryRequired
	}
	sessionID := strings.TrimSpace(deps.SessionID)
	if sessionID == "" {
		return nil, errWishlistSessionRequired
	}
	timings := timingsOrDefault(deps.Timings)
	w := &wishlistPage{
		sessionID: sessionID,
		repo:      deps.Repository,
		seed:      slices.Clone(deps.Seed),
		currency:  currencyOrDefault(deps.Currency),
		timings:   timings,
		policy:    bluemonday.StrictPolicy(),
	}
	if err := w.init(deps.Clock, deps.Logger, timings.WishlistNotice); err != nil {
		return nil, fmt.Errorf("wishlist page: %w", err)
	}
	return w, nil
}

func (w *wishlistPage) View(ctx context.Context) WishlistView {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)

	view := WishlistView{
		Items:         make([]WishlistItemView, 0, len(w.items)),
		SelectedCount: domain.CountSelected(w.items),
		Empty:         len(w.items) == 0,
		Notice:        w.noticeLocked(),
	}
	for _, item := range w.items {
		view.Items = append(view.Items, WishlistItemView{
			ID:       item.ID,
			Name:     item.Name,
			Category: item.Category,
			Image:    item.Image,
			Price:    domain.FormatPrice(item.Price, w.currency),
			Selected: item.Selected,
		})
	}
	return view
}

func (w *wishlistPage) Items(ctx context.Context) []domain.WishlistItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	return slices.Clone(w.items)
}

func (w *wishlistPage) SelectedItems(ctx context.Context) []domain.WishlistItem {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	return selected(w.items)
}

// AddItem appends item unselected. Re-adding a known id is silently ignored.
func (w *wishlistPage) AddItem(ctx context.Context, item domain.WishlistItem) error {
	item.Name = strings.TrimSpace(w.policy.Sanitize(item.Name))
	item.Category = strings.TrimSpace(w.policy.Sanitize(item.Category))
	if item.ID <= 0 || item.Name == "" {
		return fmt.Errorf("%w: id and name are required", ErrWishlistInvalidInput)
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	if domain.IndexWishlistItem(w.items, item.ID) >= 0 {
		return nil
	}
	item.Selected = false
	w.items = append(w.items, item)
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf(`"%s" added to wishlist`, item.Name))
	w.persistLocked(ctx)
	return nil
}

func (w *wishlistPage) ToggleSelection(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.indexLocked(ctx, id)
	if err != nil {
		return err
	}
	w.items[idx].Selected = !w.items[idx].Selected
	w.persistLocked(ctx)
	return nil
}

func (w *wishlistPage) SelectAll(ctx context.Context) error {
	return w.setAllSelected(ctx, true)
}

func (w *wishlistPage) DeselectAll(ctx context.Context) error {
	return w.setAllSelected(ctx, false)
}

func (w *wishlistPage) setAllSelected(ctx context.Context, value bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	for i := range w.items {
		w.items[i].Selected = value
	}
	if !value {
		w.postLocked(domain.NoticeSuccess, msgAllDeselected)
	}
	w.persistLocked(ctx)
	return nil
}

// RemoveItem evicts id. An absent id is a no-op.
func (w *wishlistPage) RemoveItem(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	w.removeLocked(ctx, id)
	return nil
}

func (w *wishlistPage) RemoveAll(ctx context.Context, confirm Confirmer) error {
	if confirm == nil {
		return ErrConfirmationRequired
	}
	w.mu.Lock()
	empty := w.ensureLoadedLocked(ctx) == 0
	w.mu.Unlock()
	if empty {
		return nil
	}
	// the prompt may block on a human; never hold mu across it
	if !confirm.Confirm(ctx, promptRemoveAll) {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	w.items = w.items[:0]
	w.postLocked(domain.NoticeSuccess, msgAllRemoved)
	w.persistLocked(ctx)
	return nil
}

func (w *wishlistPage) RemoveSelected(ctx context.Context, confirm Confirmer) error {
	if confirm == nil {
		return ErrConfirmationRequired
	}
	w.mu.Lock()
	w.ensureLoadedLocked(ctx)
	ids := selectedIDs(w.items)
	if len(ids) == 0 {
		w.postLocked(domain.NoticeInfo, msgNoItemsSelected)
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	if !confirm.Confirm(ctx, fmt.Sprintf(promptRemoveSelected, len(ids))) {
		return nil
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	before := len(w.items)
	w.items = slices.DeleteFunc(w.items, func(item domain.WishlistItem) bool { return slices.Contains(ids, item.ID) })
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf("%d item(s) removed from wishlist", before-len(w.items)))
	w.persistLocked(ctx)
	return nil
}

func (w *wishlistPage) AddSelectedToCart(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.ensureLoadedLocked(ctx)
	picked := selected(w.items)
	if len(picked) == 0 {
		w.postLocked(domain.NoticeInfo, msgNoItemsSelected)
		return nil
	}
	for _, item := range picked {
		w.logger(ctx, "wishlist.transfer_to_cart", map[string]any{"productId": item.ID, "name": item.Name})
	}
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf("%d item(s) added to cart", len(picked)))

	ids := selectedIDs(picked)
	persistCtx := detach(ctx)
	w.afterLocked(w.timings.WishlistEvict, func() {
		w.items = slices.DeleteFunc(w.items, func(item domain.WishlistItem) bool { return slices.Contains(ids, item.ID) })
		w.persistLocked(persistCtx)
	})
	return nil
}

func (w *wishlistPage) AddToCart(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.indexLocked(ctx, id)
	if err != nil {
		return err
	}
	item := w.items[idx]
	w.logger(ctx, "wishlist.transfer_to_cart", map[string]any{"productId": item.ID, "name": item.Name})
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf(`"%s" added to cart`, item.Name))

	persistCtx := detach(ctx)
	w.afterLocked(w.timings.WishlistEvict, func() {
		w.removeLocked(persistCtx, id)
	})
	return nil
}

func (w *wishlistPage) Compare(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.indexLocked(ctx, id)
	if err != nil {
		return err
	}
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf(`"%s" added to comparison`, w.items[idx].Name))
	return nil
}

func (w *wishlistPage) QuickView(ctx context.Context, id int64) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	idx, err := w.indexLocked(ctx, id)
	if err != nil {
		return err
	}
	w.postLocked(domain.NoticeSuccess, "Quick view: "+w.items[idx].Name)
	return nil
}

// ensureLoadedLocked reads storage once and returns the item count.
func (w *wishlistPage) ensureLoadedLocked(ctx context.Context) int {
	if w.loaded {
		return len(w.items)
	}
	w.loaded = true
	items, err := w.repo.Load(ctx, w.sessionID)
	switch {
	case err == nil:
		w.items = dedupeWishlist(items)
	case repositories.IsNotFound(err):
		w.items = slices.Clone(w.seed)
	default:
		w.logger(ctx, "wishlist.load_failed", map[string]any{"error": err.Error()})
		w.items = slices.Clone(w.seed)
	}
	return len(w.items)
}

// persistLocked writes the whole array. Failures are logged only.
func (w *wishlistPage) persistLocked(ctx context.Context) {
	if err := w.repo.Save(ctx, w.sessionID, w.items); err != nil {
		w.logger(ctx, "wishlist.save_failed", map[string]any{"error": err.Error()})
	}
}

func (w *wishlistPage) removeLocked(ctx context.Context, id int64) {
	idx := domain.IndexWishlistItem(w.items, id)
	if idx < 0 {
		return
	}
	name := w.items[idx].Name
	w.items = slices.Delete(w.items, idx, idx+1)
	w.postLocked(domain.NoticeSuccess, fmt.Sprintf(`"%s" removed from wishlist`, name))
	w.persistLocked(ctx)
}

func (w *wishlistPage) indexLocked(ctx context.Context, id int64) (int, error) {
	w.ensureLoadedLocked(ctx)
	idx := domain.IndexWishlistItem(w.items, id)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %d", ErrWishlistItemNotFound, id)
	}
	return idx, nil
}

func selected(items []domain.WishlistItem) []domain.WishlistItem {
	out := make([]domain.WishlistItem, 0, len(items))
	for _, item := range items {
		if item.Selected {
			out = append(out, item)
		}
	}
	return out
}

func selectedIDs(items []domain.WishlistItem) []int64 {
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		if item.Selected {
			ids = append(ids, item.ID)
		}
	}
	return ids
}

func dedupeWishlist(items []domain.WishlistItem) []domain.WishlistItem {
	out := make([]domain.WishlistItem, 0, len(items))
	for _, item := range items {
		if domain.IndexWishlistItem(out, item.ID) < 0 {
			out = append(out, item)
		}
	}
	return out
}
