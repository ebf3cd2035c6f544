// Package ratelimit provides a simple keyed rate limiter used to throttle
// password-reset requests per email address.
package ratelimit

import (
	"sync"
	"time"
)

// Clock abstracts the current time so that tests can control it.
type Clock interface {
	Now() time.Time
}

// systemClock is the clock used outside of tests.
type systemClock struct{}

func (systemClock) Now() time.Time {
	return time.Now()
}

// Limiter tracks the last time each key was allowed and rejects keys that come
// back before the window has elapsed. It's safe for concurrent use.
type Limiter struct {
	window   time.Duration
	clock    Clock
	mu       sync.Mutex
	lastSeen map[string]time.Time
}

// New creates a limiter that allows each key once per window.
func New(window time.Duration) *Limiter {
	return NewWithClock(window, systemClock{})
}

// NewWithClock creates a limiter with an explicit clock. Tests use this to advance
// time without sleeping.
func NewWithClock(window time.Duration, clock Clock) *Limiter {
	return &Limiter{
		window:   window,
		clock:    clock,
		lastSeen: make(map[string]time.Time),
	}
}

// Allow reports whether the key may proceed, recording the attempt if so. A key
// that is rejected does not reset its own window.
func (l *Limiter) Allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	if last, ok := l.lastSeen[key]; ok && now.Sub(last) < l.window {
		return false
	}

	l.lastSeen[key] = now
	return true
}
