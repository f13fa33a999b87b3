package debounce

import (
	"testing"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

func TestDebouncerCollapsesBurst(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	d := New(fake, 300*time.Millisecond)

	var calls []int
	d.Trigger(func() { calls = append(calls, 1) })
	fake.Advance(100 * time.Millisecond)
	d.Trigger(func() { calls = append(calls, 2) })

	fake.Advance(299 * time.Millisecond)
	if len(calls) != 0 {
		t.Fatalf("expected no call inside the quiet period, got %v", calls)
	}
	fake.Advance(time.Millisecond)
	if len(calls) != 1 || calls[0] != 2 {
		t.Fatalf("expected only the last trigger to run, got %v", calls)
	}
	if d.Pending() {
		t.Fatalf("expected nothing pending after firing")
	}
}

func TestDebouncerCancel(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	d := New(fake, 300*time.Millisecond)

	called := false
	d.Trigger(func() { called = true })
	if !d.Cancel() {
		t.Fatalf("expected cancel to drop the pending call")
	}
	if d.Cancel() {
		t.Fatalf("expected second cancel to be a no-op")
	}
	fake.Advance(time.Second)
	if called {
		t.Fatalf("cancelled call must not run")
	}
}

func TestDebouncerSeparateBursts(t *testing.T) {
	fake := clock.NewFake(time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC))
	d := New(fake, 300*time.Millisecond)

	count := 0
	d.Trigger(func() { count++ })
	fake.Advance(400 * time.Millisecond)
	d.Trigger(func() { count++ })
	fake.Advance(400 * time.Millisecond)

	if count != 2 {
		t.Fatalf("expected two calls for two quiet periods, got %d", count)
	}
}
