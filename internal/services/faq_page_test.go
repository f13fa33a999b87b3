package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/MahmoudAkram21/tiamo/internal/content"
)

func newTestFAQ(t *testing.T, open string) FAQPage {
	t.Helper()
	page, err := NewFAQPage(FAQPageDeps{
		Entries: []FAQEntry{
			{ID: "shipping", Question: "How long is shipping?", Answer: "Usually **3-5** days."},
			{ID: "returns", Question: "Can I return items?", Answer: "Yes <script>alert(1)</script>within 14 days."},
		},
		Renderer: content.NewRenderer(),
		OpenID:   open,
		Clock:    newTestClock(),
	})
	if err != nil {
		t.Fatalf("new faq: %v", err)
	}
	t.Cleanup(page.Close)
	return page
}

func TestFAQPageRendersSanitizedMarkdown(t *testing.T) {
	view := newTestFAQ(t, "").View()
	if len(view.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(view.Items))
	}
	if !strings.Contains(view.Items[0].Answer, "<strong>3-5</strong>") {
		t.Fatalf("expected rendered markdown, got %q", view.Items[0].Answer)
	}
	if strings.Contains(view.Items[1].Answer, "<script>") {
		t.Fatalf("expected script stripped, got %q", view.Items[1].Answer)
	}
}

func TestFAQPageSingleOpenAccordion(t *testing.T) {
	page := newTestFAQ(t, "shipping")
	ctx := context.Background()

	if got := page.View().OpenID; got != "shipping" {
		t.Fatalf("expected shipping open initially, got %q", got)
	}
	if err := page.Toggle(ctx, "returns"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	view := page.View()
	if view.Items[0].Open || !view.Items[1].Open {
		t.Fatalf("expected only returns open, got %+v", view.Items)
	}
	if err := page.Toggle(ctx, "returns"); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if got := page.View().OpenID; got != "" {
		t.Fatalf("expected all closed, got %q", got)
	}
	if err := page.Toggle(ctx, "warranty"); !errors.Is(err, ErrFAQNotFound) {
		t.Fatalf("expected ErrFAQNotFound, got %v", err)
	}
}

func TestFAQPageRejectsDuplicateIDs(t *testing.T) {
	_, err := NewFAQPage(FAQPageDeps{
		Entries:  []FAQEntry{{ID: "a", Answer: "x"}, {ID: "a", Answer: "y"}},
		Renderer: content.NewRenderer(),
		Clock:    newTestClock(),
	})
	if err == nil {
		t.Fatalf("expected duplicate id error")
	}
}
