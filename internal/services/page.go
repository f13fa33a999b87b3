package services

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/MahmoudAkram21/tiamo/internal/domain"
	"github.com/MahmoudAkram21/tiamo/internal/platform/clock"
)

// ErrControlBusy indicates a control is disabled while a simulated delay runs.
var ErrControlBusy = errors.New("page: control busy")

// ErrConfirmationRequired indicates a destructive action was not confirmed.
var ErrConfirmationRequired = errors.New("page: confirmation required")

var errClockRequired = errors.New("page: clock is required")

// EventLogger receives structured page events. Services never log through zap directly.
type EventLogger func(ctx context.Context, event string, fields map[string]any)

func noopEventLogger(context.Context, string, map[string]any) {}

// NoticeView is the rendered page message.
type NoticeView struct {
	Kind domain.NoticeKind `json:"kind"`
	Text string            `json:"text"`
}

// ButtonView is the rendered state of a control with a transient label.
type ButtonView struct {
	Label    string `json:"label"`
	Disabled bool   `json:"disabled"`
}

// button tracks a control that swaps its label and disables itself during a delay.
type button struct {
	idle  string
	label string
	busy  bool
}

func newButton(idle string) button {
	return button{idle: idle, label: idle}
}

func (b *button) start(label string) bool {
	if b.busy {
		return false
	}
	b.busy = true
	b.label = label
	return true
}

func (b *button) reset() {
	b.busy = false
	b.label = b.idle
}

func (b button) view() ButtonView {
	return ButtonView{Label: b.label, Disabled: b.busy}
}

// page is the state every controller shares: one lock, one notice slot and the
// scheduled callbacks that drive simulated delays.
type page struct {
	mu     sync.Mutex
	clock  clock.Clock
	logger EventLogger
	notice domain.Notice
	window time.Duration
	timers []clock.Timer
	closed bool
}

func (p *page) init(clk clock.Clock, logger EventLogger, window time.Duration) error {
	if clk == nil {
		return errClockRequired
	}
	if logger == nil {
		logger = noopEventLogger
	}
	p.clock = clk
	p.logger = logger
	p.window = window
	return nil
}

// postLocked replaces the current notice. Callers hold mu.
func (p *page) postLocked(kind domain.NoticeKind, text string) {
	p.notice = domain.NewNotice(kind, text, p.clock.Now(), p.window)
}

func (p *page) noticeLocked() *NoticeView {
	if !p.notice.Visible(p.clock.Now()) {
		return nil
	}
	return &NoticeView{Kind: p.notice.Kind, Text: p.notice.Text}
}

// afterLocked runs fn under mu once d has elapsed. Callers hold mu.
func (p *page) afterLocked(d time.Duration, fn func()) {
	if p.closed {
		return
	}
	var t clock.Timer
	t = p.clock.AfterFunc(d, func() {
		p.mu.Lock()
		defer p.mu.Unlock()
		defer p.recoverCallback(context.Background(), "page.delayed_callback")
		p.forgetLocked(t)
		if p.closed {
			return
		}
		fn()
	})
	p.timers = append(p.timers, t)
}

// recoverCallback keeps a panic in a timer or debounce callback from taking
// down the process. Those run outside any HTTP recovery middleware.
func (p *page) recoverCallback(ctx context.Context, scope string) {
	if rec := recover(); rec != nil {
		p.logger(ctx, "page.callback_panic", map[string]any{
			"scope": scope,
			"panic": fmt.Sprint(rec),
			"stack": string(debug.Stack()),
		})
	}
}

func (p *page) forgetLocked(t clock.Timer) {
	for i, candidate := range p.timers {
		if candidate == t {
			p.timers = append(p.timers[:i], p.timers[i+1:]...)
			return
		}
	}
}

// Close stops every pending callback. A closed page ignores further delays.
func (p *page) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	for _, t := range p.timers {
		t.Stop()
	}
	p.timers = nil
}

func detach(ctx context.Context) context.Context {
	if ctx == nil {
		return context.Background()
	}
	return context.WithoutCancel(ctx)
}
