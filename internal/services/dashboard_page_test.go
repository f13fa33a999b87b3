package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
)

func newTestDashboard(t *testing.T) (DashboardPage, func(time.Duration)) {
	t.Helper()
	clk := newTestClock()
	page, err := NewDashboardPage(DashboardPageDeps{
		Addresses: map[string]string{AddressBilling: "12 Nile St\nCairo", "office": "ignored"},
		Clock:     clk,
	})
	if err != nil {
		t.Fatalf("new dashboard: %v", err)
	}
	t.Cleanup(page.Close)
	return page, clk.Advance
}

func TestDashboardPageSaveAccount(t *testing.T) {
	page, advance := newTestDashboard(t)
	ctx := context.Background()

	if err := page.SaveAccount(ctx, AccountForm{FirstName: " Mona ", Email: "mona@example.com"}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if got := page.View().SaveButton; got.Label != "Saving..." || !got.Disabled {
		t.Fatalf("expected busy save button, got %+v", got)
	}
	advance(1500 * time.Millisecond)
	view := page.View()
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Account details updated successfully!")
	if view.Account.FirstName != "Mona" || view.SaveButton.Disabled {
		t.Fatalf("unexpected view %+v", view)
	}
}

func TestDashboardPageAddressSanitized(t *testing.T) {
	page, _ := newTestDashboard(t)
	ctx := context.Background()

	if got := page.View().Addresses[AddressBilling]; got != "12 Nile St<br>Cairo" {
		t.Fatalf("unexpected seeded address %q", got)
	}
	if _, ok := page.View().Addresses["office"]; ok {
		t.Fatalf("unknown address kinds must be ignored")
	}
	if err := page.SaveAddress(ctx, "Shipping", "5 Tahrir Sq\r\n<script>alert(1)</script>Giza"); err != nil {
		t.Fatalf("save address: %v", err)
	}
	view := page.View()
	if got := view.Addresses[AddressShipping]; got != "5 Tahrir Sq<br>Giza" {
		t.Fatalf("unexpected shipping address %q", got)
	}
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Address updated successfully!")
	if err := page.SaveAddress(ctx, "office", "x"); !errors.Is(err, ErrDashboardInvalidInput) {
		t.Fatalf("expected ErrDashboardInvalidInput, got %v", err)
	}
}

func TestDashboardPageLogoutReenables(t *testing.T) {
	page, advance := newTestDashboard(t)
	ctx := context.Background()

	if err := page.Logout(ctx); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if err := page.Logout(ctx); !errors.Is(err, ErrControlBusy) {
		t.Fatalf("expected ErrControlBusy, got %v", err)
	}
	advance(1500 * time.Millisecond)
	view := page.View()
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Logged out successfully! Redirecting...")
	if !view.LogoutButton.Disabled {
		t.Fatalf("expected logout button to stay disabled")
	}
	advance(2 * time.Second)
	if got := page.View().LogoutButton; got.Disabled || got.Label != "Logout" {
		t.Fatalf("expected logout button reset, got %+v", got)
	}
}

func TestDashboardPageNewsletter(t *testing.T) {
	page, advance := newTestDashboard(t)
	ctx := context.Background()

	if err := page.Subscribe(ctx, " "); !errors.Is(err, ErrDashboardInvalidInput) {
		t.Fatalf("expected ErrDashboardInvalidInput, got %v", err)
	}
	requireNotice(t, page.View().Notice, domain.NoticeError, "Please enter your email address")

	if err := page.Subscribe(ctx, "mona@example"); !errors.Is(err, ErrDashboardInvalidInput) {
		t.Fatalf("expected ErrDashboardInvalidInput, got %v", err)
	}
	requireNotice(t, page.View().Notice, domain.NoticeError, "Please enter a valid email address")

	if err := page.Subscribe(ctx, "mona@example.com"); err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	if got := page.View().SignUpButton.Label; got != "Signing up..." {
		t.Fatalf("unexpected label %q", got)
	}
	advance(1500 * time.Millisecond)
	view := page.View()
	requireNotice(t, view.Notice, domain.NoticeSuccess, "Successfully subscribed to newsletter!")
	if view.Newsletter != "" {
		t.Fatalf("expected email input cleared, got %q", view.Newsletter)
	}
}
