package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

var testStart = time.Date(2024, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestClock() *clock.Fake {
	return clock.NewFake(testStart)
}

func cartLine(id string, productID int64, name, price string, qty int) domain.CartLine {
	return domain.CartLine{
		ID:        id,
		ProductID: productID,
		Name:      name,
		UnitPrice: decimal.RequireFromString(price),
		Quantity:  qty,
	}
}

func testCoupons() domain.CouponBook {
	return domain.NewCouponBook([]domain.Coupon{{Code: "discount10", Percent: 10}})
}

type recordedEvent struct {
	name   string
	fields map[string]any
}

type eventRecorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *eventRecorder) log(_ context.Context, event string, fields map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{name: event, fields: fields})
}

func (r *eventRecorder) find(name string) (recordedEvent, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.events {
		if e.name == name {
			return e, true
		}
	}
	return recordedEvent{}, false
}

func requireNotice(t *testing.T, got *NoticeView, kind domain.NoticeKind, text string) {
	t.Helper()
	if got == nil {
		t.Fatalf("expected %s notice %q, got none", kind, text)
	}
	if got.Kind != kind || got.Text != text {
		t.Fatalf("expected %s notice %q, got %s %q", kind, text, got.Kind, got.Text)
	}
}
