// Package ratelimit implements an exact sliding-window request limiter keyed
// by client identity. State lives in process memory and resets on restart.
package ratelimit

import (
	"fmt"
	"sync"
	"time"

	"github.com/boomchecker/moderation-gateway/internal/apperrors"
)

const (
	// DefaultLimit is the number of requests admitted per window
	DefaultLimit = 60

	// DefaultWindow is the trailing window length
	DefaultWindow = time.Minute
)

// ErrRateLimitExceeded is returned (wrapped in *LimitError) when a client is over budget
var ErrRateLimitExceeded = apperrors.ErrRateLimitExceeded

// Config holds limiter configuration options
type Config struct {
	// Limit is the maximum number of requests admitted per window (0 = DefaultLimit)
	Limit int

	// Window is the trailing window length (0 = DefaultWindow)
	Window time.Duration

	// Now returns the current time (nil = time.Now)
	Now func() time.Time
}

// Info describes the limiter state for a key after a check
type Info struct {
	Limit      int
	Remaining  int
	RetryAfter time.Duration // meaningful only when the request was rejected
}

// LimitError carries details about a rejected request
type LimitError struct {
	Key        string
	Limit      int
	Window     time.Duration
	RetryAfter time.Duration
}

func (e *LimitError) Error() string {
	return fmt.Sprintf("rate limit exceeded: %d requests per %s", e.Limit, e.Window)
}

// Unwrap returns ErrRateLimitExceeded
func (e *LimitError) Unwrap() error {
	return ErrRateLimitExceeded
}

// SlidingWindow counts requests per key inside a continuously moving window.
// It is safe for concurrent use: the prune-check-append sequence for a call
// runs inside a single critical section.
type SlidingWindow struct {
	limit  int
	window time.Duration
	now    func() time.Time

	mu      sync.Mutex
	history map[string][]time.Time
}

// New creates a sliding-window limiter
func New(cfg Config) (*SlidingWindow, error) {
	if cfg.Limit < 0 {
		return nil, fmt.Errorf("rate limit must not be negative (got %d)", cfg.Limit)
	}
	if cfg.Window < 0 {
		return nil, fmt.Errorf("rate limit window must not be negative (got %s)", cfg.Window)
	}
	if cfg.Limit == 0 {
		cfg.Limit = DefaultLimit
	}
	if cfg.Window == 0 {
		cfg.Window = DefaultWindow
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}

	return &SlidingWindow{
		limit:   cfg.Limit,
		window:  cfg.Window,
		now:     cfg.Now,
		history: make(map[string][]time.Time),
	}, nil
}

// Limit returns the configured number of requests per window
func (l *SlidingWindow) Limit() int {
	return l.limit
}

// Window returns the configured window length
func (l *SlidingWindow) Window() time.Duration {
	return l.window
}

// Allow checks whether a request for key fits in the current window and, if
// so, records it. A rejected request is not recorded.
func (l *SlidingWindow) Allow(key string) (Info, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	history := prune(l.history[key], now.Add(-l.window))

	if len(history) >= l.limit {
		l.history[key] = history
		retryAfter := history[0].Add(l.window).Sub(now)
		return Info{Limit: l.limit, Remaining: 0, RetryAfter: retryAfter}, &LimitError{
			Key:        key,
			Limit:      l.limit,
			Window:     l.window,
			RetryAfter: retryAfter,
		}
	}

	history = append(history, now)
	l.history[key] = history

	return Info{Limit: l.limit, Remaining: l.limit - len(history)}, nil
}

// Sweep evicts keys with no requests left inside the window and returns how
// many keys were removed.
func (l *SlidingWindow) Sweep() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	windowStart := l.now().Add(-l.window)
	removed := 0
	for key, history := range l.history {
		if len(history) == 0 || !history[len(history)-1].After(windowStart) {
			delete(l.history, key)
			removed++
		}
	}
	return removed
}

// Len returns the number of tracked keys
func (l *SlidingWindow) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.history)
}

// prune drops timestamps at or before windowStart. A request exactly one
// window old is no longer counted. Timestamps are stored in ascending order.
func prune(history []time.Time, windowStart time.Time) []time.Time {
	i := 0
	for i < len(history) && !history[i].After(windowStart) {
		i++
	}
	if i == 0 {
		return history
	}
	n := copy(history, history[i:])
	return history[:n]
}
