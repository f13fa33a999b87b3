package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/catalog"
	"github.com/MahmoudAkram21/tiamo/internal/content"
	"github.com/MahmoudAkram21/tiamo/internal/repositories"
	"github.com/MahmoudAkram21/tiamo/internal/repositories/memory"
)

func newTestRegistry(t *testing.T) (*Registry, *eventRecorder, func(time.Duration)) {
	t.Helper()
	fixtures, err := content.Load()
	if err != nil {
		t.Fatalf("fixtures: %v", err)
	}
	kv := memory.New()
	wishlists, err := repositories.NewWishlistStore(kv)
	if err != nil {
		t.Fatalf("wishlists: %v", err)
	}
	prefs, err := repositories.NewPreferenceStore(kv)
	if err != nil {
		t.Fatalf("prefs: %v", err)
	}
	clk := newTestClock()
	rec := &eventRecorder{}
	registry, err := NewRegistry(RegistryDeps{
		Fixtures:    fixtures,
		Catalog:     catalog.NewFixture(fixtures.Products),
		Wishlists:   wishlists,
		Preferences: prefs,
		Currency:    fixtures.Currency,
		Clock:       clk,
		Logger:      rec.log,
		IdleTTL:     10 * time.Minute,
		ProductURL:  func(id int64) string { return fmt.Sprintf("https://tiamo.example/product.html?id=%d", id) },
	})
	if err != nil {
		t.Fatalf("new registry: %v", err)
	}
	t.Cleanup(registry.Close)
	return registry, rec, clk.Advance
}

func TestRegistryBuildsPagesPerSession(t *testing.T) {
	registry, rec, _ := newTestRegistry(t)
	ctx := context.Background()

	a, err := registry.Session("sess-a")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	b, err := registry.Session("sess-b")
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	cartA, err := a.Cart()
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	again, _ := a.Cart()
	if cartA != again {
		t.Fatalf("expected the same cart on repeat access")
	}
	if err := cartA.RemoveLine(ctx, "line-1"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	cartB, _ := b.Cart()
	if cartB.Count() != 3 {
		t.Fatalf("sessions must not share carts, got %d lines", cartB.Count())
	}

	if _, err := a.Wishlist(); err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	shop, err := a.Shop()
	if err != nil {
		t.Fatalf("shop: %v", err)
	}
	if err := shop.Load(ctx); err != nil {
		t.Fatalf("shop load: %v", err)
	}
	if got := len(shop.View(ctx).Products); got == 0 {
		t.Fatalf("expected fixture products")
	}
	event, ok := rec.find("shop.query_applied")
	if !ok || event.fields["sessionId"] != "sess-a" {
		t.Fatalf("expected session-tagged event, got %+v", event)
	}

	for name, build := range map[string]func() error{
		"checkout":  func() error { _, err := a.Checkout(); return err },
		"auth":      func() error { _, err := a.Auth(); return err },
		"dashboard": func() error { _, err := a.Dashboard(); return err },
		"faq":       func() error { _, err := a.FAQ(); return err },
	} {
		if err := build(); err != nil {
			t.Fatalf("%s: %v", name, err)
		}
	}
	if registry.Len() != 2 {
		t.Fatalf("expected 2 sessions, got %d", registry.Len())
	}
	if _, err := registry.Session("  "); err == nil {
		t.Fatalf("expected error for blank session id")
	}
}

func TestRegistryProductPages(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	ctx := context.Background()
	s, _ := registry.Session("sess-a")
	wishlist, err := s.Wishlist()
	if err != nil {
		t.Fatalf("wishlist: %v", err)
	}
	if err := wishlist.SelectAll(ctx); err != nil {
		t.Fatalf("select all: %v", err)
	}

	page, err := s.Product(ctx, 1)
	if err != nil {
		t.Fatalf("product: %v", err)
	}
	view := page.View(ctx)
	if view.CartCount != 3 || len(view.Gallery.Images) != 3 {
		t.Fatalf("unexpected product view %+v", view)
	}
	if view.Tabs[TabDescription] == "" || view.Tabs[TabReviews] != "" {
		t.Fatalf("unexpected tabs %+v", view.Tabs)
	}
	if !view.InWishlist {
		t.Fatalf("expected seeded wishlist membership once the wishlist persisted")
	}

	if _, err := s.Product(ctx, 9999); !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestRegistrySweepClosesIdleSessions(t *testing.T) {
	registry, rec, advance := newTestRegistry(t)
	old, _ := registry.Session("old")
	cart, _ := old.Cart()
	if err := cart.UpdateCart(context.Background()); err != nil {
		t.Fatalf("update: %v", err)
	}

	advance(11 * time.Minute)
	if _, err := registry.Session("fresh"); err != nil {
		t.Fatalf("session: %v", err)
	}

	if swept := registry.Sweep(testStart.Add(11 * time.Minute)); swept != 1 {
		t.Fatalf("expected 1 swept session, got %d", swept)
	}
	if registry.Len() != 1 {
		t.Fatalf("expected fresh session kept, got %d", registry.Len())
	}
	if _, err := old.Cart(); err == nil {
		t.Fatalf("expected closed session to refuse new pages")
	}
	if _, ok := rec.find("session.swept"); !ok {
		t.Fatalf("expected sweep event")
	}
}

func TestRegistryStartSweeperRejectsBadSpec(t *testing.T) {
	registry, _, _ := newTestRegistry(t)
	if _, err := registry.StartSweeper("every tuesday"); err == nil {
		t.Fatalf("expected invalid cron spec error")
	}
	stop, err := registry.StartSweeper("@every 1h")
	if err != nil {
		t.Fatalf("start sweeper: %v", err)
	}
	stop()
}
