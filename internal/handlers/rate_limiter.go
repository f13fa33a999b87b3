package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	// Allow records one submission for key. When refused it returns how long
	// until the key's window reopens.
	Allow(key string) (bool, time.Duration)
}

// windowLimiter admits at most limit submissions per key in each fixed window.
type windowLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]submissionWindow
}

type submissionWindow struct {
	used    int
	resetAt time.Time
}

func newWindowLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &windowLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]submissionWindow),
	}
}

// Allow keys on the visitor session; blank keys share one anonymous bucket.
func (l *windowLimiter) Allow(key string) (bool, time.Duration) {
	key = strings.TrimSpace(key)
	if key == "" {
		key = "anonymous"
	}
	now := l.clock()

	l.mu.Lock()
	defer l.mu.Unlock()
	current, ok := l.windows[key]
	if !ok || !now.Before(current.resetAt) {
		l.dropExpiredLocked(now)
		l.windows[key] = submissionWindow{used: 1, resetAt: now.Add(l.window)}
		return true, 0
	}
	if current.used >= l.limit {
		return false, current.resetAt.Sub(now)
	}
	current.used++
	l.windows[key] = current
	return true, 0
}

func (l *windowLimiter) dropExpiredLocked(now time.Time) {
	for key, w := range l.windows {
		if !now.Before(w.resetAt) {
			delete(l.windows, key)
		}
	}
}
