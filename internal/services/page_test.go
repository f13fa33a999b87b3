package services

import (
	"testing"
	"time"
)

func TestPageDelayedCallbackPanicIsContained(t *testing.T) {
	clk := newTestClock()
	events := &eventRecorder{}
	var p page
	if err := p.init(clk, events.log, time.Second); err != nil {
		t.Fatalf("init: %v", err)
	}

	fired := false
	p.mu.Lock()
	p.afterLocked(time.Second, func() { panic("boom") })
	p.afterLocked(2*time.Second, func() { fired = true })
	p.mu.Unlock()

	clk.Advance(2 * time.Second)

	event, ok := events.find("page.callback_panic")
	if !ok {
		t.Fatalf("expected the panic to be logged")
	}
	if event.fields["scope"] != "page.delayed_callback" || event.fields["panic"] != "boom" {
		t.Fatalf("unexpected fields %v", event.fields)
	}
	if !fired {
		t.Fatalf("expected later callbacks to keep running")
	}
	// the page lock must have been released after the panic
	if !p.mu.TryLock() {
		t.Fatalf("expected the page mutex to be free")
	}
	p.mu.Unlock()
}
