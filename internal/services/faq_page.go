package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

// ErrFAQNotFound indicates a toggle for an unknown accordion item.
var ErrFAQNotFound = errors.New("faq page: item not found")

// MarkdownRenderer converts an answer to sanitized HTML.
type MarkdownRenderer interface {
	HTML(source string) (string, error)
}

// FAQEntry is one accordion item with a Markdown answer.
type FAQEntry struct {
	ID       string
	Question string
	Answer   string
}

// FAQPageDeps wires the accordion.
type FAQPageDeps struct {
	Entries  []FAQEntry
	Renderer MarkdownRenderer
	// OpenID names the item expanded on first render, if any.
	OpenID string
	Clock  clock.Clock
	Logger EventLogger
}

// FAQItemView is one rendered accordion item.
type FAQItemView struct {
	ID       string `json:"id"`
	Question string `json:"question"`
	Answer   string `json:"answerHtml"`
	Open     bool   `json:"open"`
}

// FAQView is the rendered accordion.
type FAQView struct {
	Items  []FAQItemView `json:"items"`
	OpenID string        `json:"openId,omitempty"`
}

type faqPage struct {
	page
	items  []FAQItemView
	openID string
}

// NewFAQPage renders every answer up front. A render failure fails construction.
func NewFAQPage(deps FAQPageDeps) (FAQPage, error) {
	if deps.Renderer == nil {
		return nil, errors.New("faq page: renderer is required")
	}
	f := &faqPage{items: make([]FAQItemView, 0, len(deps.Entries))}
	seen := make(map[string]struct{}, len(deps.Entries))
	for _, entry := range deps.Entries {
		id := strings.TrimSpace(entry.ID)
		if id == "" {
			return nil, fmt.Errorf("faq page: entry %q has no id", entry.Question)
		}
		if _, dup := seen[id]; dup {
			return nil, fmt.Errorf("faq page: duplicate entry id %q", id)
		}
		seen[id] = struct{}{}
		answer, err := deps.Renderer.HTML(entry.Answer)
		if err != nil {
			return nil, fmt.Errorf("faq page: entry %q: %w", id, err)
		}
		f.items = append(f.items, FAQItemView{ID: id, Question: entry.Question, Answer: answer})
	}
	if _, ok := seen[deps.OpenID]; ok {
		f.openID = deps.OpenID
	}
	if err := f.init(deps.Clock, deps.Logger, 0); err != nil {
		return nil, fmt.Errorf("faq page: %w", err)
	}
	return f, nil
}

func (f *faqPage) View() FAQView {
	f.mu.Lock()
	defer f.mu.Unlock()
	view := FAQView{Items: make([]FAQItemView, len(f.items)), OpenID: f.openID}
	for i, item := range f.items {
		item.Open = item.ID == f.openID
		view.Items[i] = item
	}
	return view
}

// Toggle opens id and closes the rest, or closes id when it is already open.
func (f *faqPage) Toggle(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	found := false
	for _, item := range f.items {
		if item.ID == id {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("%w: %q", ErrFAQNotFound, id)
	}
	if f.openID == id {
		f.openID = ""
		return nil
	}
	f.openID = id
	return nil
}
