package debounce

import (
	"sync"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

// Debouncer collapses bursts of triggers into a single call that runs once
// the input has been quiet for the configured wait.
type Debouncer struct {
	clock clock.Clock
	wait  time.Duration

	mu      sync.Mutex
	pending clock.Timer
	gen     uint64
}

// New constructs a Debouncer. A nil clock uses the runtime clock.
func New(clk clock.Clock, wait time.Duration) *Debouncer {
	if clk == nil {
		clk = clock.New()
	}
	if wait < 0 {
		wait = 0
	}
	return &Debouncer{clock: clk, wait: wait}
}

// Trigger schedules fn, cancelling any call that has not fired yet.
func (d *Debouncer) Trigger(fn func()) {
	if fn == nil {
		return
	}
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.pending != nil {
		d.pending.Stop()
	}
	d.gen++
	gen := d.gen
	d.pending = d.clock.AfterFunc(d.wait, func() {
		d.mu.Lock()
		if gen != d.gen {
			// superseded after Stop lost the race with the runtime timer
			d.mu.Unlock()
			return
		}
		d.pending = nil
		d.mu.Unlock()
		fn()
	})
}

// Cancel drops the pending call, if any. It reports whether one was dropped.
func (d *Debouncer) Cancel() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.pending == nil {
		return false
	}
	d.pending.Stop()
	d.pending = nil
	d.gen++
	return true
}

// Pending reports whether a call is waiting for the quiet period to elapse.
func (d *Debouncer) Pending() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pending != nil
}
