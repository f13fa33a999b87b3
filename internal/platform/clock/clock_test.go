package clock

import (
	"testing"
	"time"
)

func TestFakeAdvanceFiresInDeadlineOrder(t *testing.T) {
	start := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)
	fake := NewFake(start)

	var fired []string
	fake.AfterFunc(300*time.Millisecond, func() { fired = append(fired, "fade") })
	fake.AfterFunc(100*time.Millisecond, func() { fired = append(fired, "first") })
	fake.AfterFunc(time.Second, func() { fired = append(fired, "late") })

	fake.Advance(500 * time.Millisecond)

	if len(fired) != 2 || fired[0] != "first" || fired[1] != "fade" {
		t.Fatalf("unexpected firing order: %v", fired)
	}
	if got := fake.Now(); !got.Equal(start.Add(500 * time.Millisecond)) {
		t.Fatalf("expected clock at +500ms, got %s", got)
	}
	if fake.Pending() != 1 {
		t.Fatalf("expected one pending timer, got %d", fake.Pending())
	}
}

func TestFakeStopPreventsCallback(t *testing.T) {
	fake := NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	called := false
	timer := fake.AfterFunc(time.Second, func() { called = true })

	if !timer.Stop() {
		t.Fatalf("expected first stop to report true")
	}
	if timer.Stop() {
		t.Fatalf("expected second stop to report false")
	}
	fake.Advance(2 * time.Second)
	if called {
		t.Fatalf("stopped timer must not fire")
	}
}

func TestFakeChainedCallbacksWithinWindow(t *testing.T) {
	fake := NewFake(time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC))
	var steps []time.Duration
	start := fake.Now()
	fake.AfterFunc(time.Second, func() {
		steps = append(steps, fake.Now().Sub(start))
		fake.AfterFunc(2*time.Second, func() {
			steps = append(steps, fake.Now().Sub(start))
		})
	})

	fake.Advance(5 * time.Second)

	if len(steps) != 2 || steps[0] != time.Second || steps[1] != 3*time.Second {
		t.Fatalf("unexpected chained steps: %v", steps)
	}
}
