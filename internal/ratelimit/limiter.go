// Package ratelimit implements a fixed-window request limiter keyed by client identity.
package ratelimit

import (
	"sync"
	"time"
)

// Decision describes the outcome of a single Allow call.
type Decision struct {
	Allowed   bool
	Limit     int
	Remaining int
	// Reset is when the current window ends and counters start over.
	Reset time.Time
}

// Limiter admits at most a fixed number of hits per key within each window. Windows are aligned
// to multiples of the window length, and every counter resets at the boundary.
type Limiter struct {
	window time.Duration
	max    int

	mu          sync.Mutex
	now         func() time.Time
	windowStart time.Time
	hits        map[string]int
}

// New returns a limiter allowing limit hits per window.
func New(window time.Duration, limit int) *Limiter {
	if window <= 0 {
		window = 15 * time.Minute
	}
	if limit <= 0 {
		limit = 1
	}
	return &Limiter{
		window: window,
		max:    limit,
		now:    time.Now,
		hits:   make(map[string]int),
	}
}

// WithClock overrides the time provider (used primarily in tests).
func (l *Limiter) WithClock(now func() time.Time) *Limiter {
	if now != nil {
		l.mu.Lock()
		l.now = now
		l.mu.Unlock()
	}
	return l
}

// Window returns the configured window length.
func (l *Limiter) Window() time.Duration {
	return l.window
}

// Max returns the per-window allowance.
func (l *Limiter) Max() int {
	return l.max
}

// Allow records a hit for key and reports whether it fits in the current window.
// Rejected hits are still counted.
func (l *Limiter) Allow(key string) Decision {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	start := now.Truncate(l.window)
	if !start.Equal(l.windowStart) {
		l.windowStart = start
		clear(l.hits)
	}

	l.hits[key]++
	count := l.hits[key]
	remaining := l.max - count
	if remaining < 0 {
		remaining = 0
	}
	return Decision{
		Allowed:   count <= l.max,
		Limit:     l.max,
		Remaining: remaining,
		Reset:     start.Add(l.window),
	}
}
