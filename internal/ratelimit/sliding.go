// Package ratelimit implements process-local admission control for the
// mutating API endpoints: a per-key sliding-window log plus optional
// best-effort recording of every decision.
//
// The limiter keeps one ordered list of admission timestamps per key. A call
// first drops timestamps that have aged out of the window, then admits and
// records the call only if fewer than limit admissions remain. Rejected calls
// are not recorded, so a client that keeps hammering the endpoint is let back
// in exactly one window after its oldest admitted request.
//
// Keys are never evicted. Memory grows with the number of distinct keys seen
// during the process lifetime.
package ratelimit

import (
	"sync"
	"time"
)

// Decision is the outcome of one admission check.
type Decision struct {
	Allowed bool
	// RetryAfter is how long until the oldest admission leaves the window.
	// Zero when Allowed.
	RetryAfter time.Duration
}

// history is the admission log of a single key.
type history struct {
	mu     sync.Mutex
	stamps []time.Time
}

// SlidingWindow admits at most limit calls per key within any rolling window.
// It is safe for concurrent use.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu   sync.Mutex
	keys map[string]*history
}

// Option customizes a SlidingWindow.
type Option func(*SlidingWindow)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *SlidingWindow) {
		if now != nil {
			s.now = now
		}
	}
}

// NewSlidingWindow builds a limiter. A limit below 1 is coerced to 1 and a
// non-positive window to one minute.
func NewSlidingWindow(limit int, window time.Duration, opts ...Option) *SlidingWindow {
	if limit < 1 {
		limit = 1
	}
	if window <= 0 {
		window = time.Minute
	}
	s := &SlidingWindow{
		limit:  limit,
		window: window,
		now:    time.Now,
		keys:   make(map[string]*history),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Limit returns the configured admissions per window.
func (s *SlidingWindow) Limit() int { return s.limit }

// Window returns the configured window length.
func (s *SlidingWindow) Window() time.Duration { return s.window }

// Admit reports whether a call for key may proceed, recording it if so.
func (s *SlidingWindow) Admit(key string) bool { return s.Decide(key).Allowed }

// Decide runs one admission check for key. Pruning, the count check and the
// append happen under the key's lock, so concurrent callers on one key can
// never push it past the limit.
func (s *SlidingWindow) Decide(key string) Decision {
	h := s.history(key)

	h.mu.Lock()
	defer h.mu.Unlock()

	now := s.now()

	// stamps are appended in call order, so the expired ones form a prefix.
	drop := 0
	for drop < len(h.stamps) && now.Sub(h.stamps[drop]) >= s.window {
		drop++
	}
	if drop > 0 {
		h.stamps = append(h.stamps[:0], h.stamps[drop:]...)
	}

	if len(h.stamps) >= s.limit {
		wait := s.window - now.Sub(h.stamps[0])
		if wait <= 0 {
			wait = time.Nanosecond
		}
		return Decision{Allowed: false, RetryAfter: wait}
	}

	h.stamps = append(h.stamps, now)
	return Decision{Allowed: true}
}
