// Package ratelimit enforces process-wide search quotas: a sliding
// one-hour window plus a daily budget tied to the calendar date.
//
// Denial is silent backpressure. Allow has no side effects beyond
// purging expired window entries; callers invoke Record only once a
// real browser request is about to go out.
package ratelimit

import (
	"sync"
	"time"
)

// Config sets the quota ceilings.
type Config struct {
	MaxPerHour int
	MaxPerDay  int
}

func (c *Config) defaults() {
	if c.MaxPerHour <= 0 {
		c.MaxPerHour = 12
	}
	if c.MaxPerDay <= 0 {
		c.MaxPerDay = 60
	}
}

// Limiter tracks search attempts against hourly and daily budgets.
type Limiter struct {
	mu       sync.Mutex
	cfg      Config
	now      func() time.Time
	window   []time.Time // attempts within the last hour
	day      string      // calendar date of the daily counter
	dayCount int
}

// Option configures a Limiter.
type Option func(*Limiter)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(l *Limiter) { l.now = now }
}

// New creates a Limiter.
func New(cfg Config, opts ...Option) *Limiter {
	cfg.defaults()
	l := &Limiter{cfg: cfg, now: time.Now}
	for _, o := range opts {
		o(l)
	}
	return l
}

// Allow reports whether a new search attempt fits within both budgets.
// Timestamps older than one hour are purged before the check; the daily
// counter resets when the calendar date changes.
func (l *Limiter) Allow() bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.purge(now)

	if len(l.window) >= l.cfg.MaxPerHour {
		return false
	}

	if day := now.Format("2006-01-02"); day != l.day {
		l.day = day
		l.dayCount = 0
	}
	return l.dayCount < l.cfg.MaxPerDay
}

// Record registers an attempt. Call only after Allow returned true and
// a network request is actually being issued.
func (l *Limiter) Record() {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	l.window = append(l.window, now)

	if day := now.Format("2006-01-02"); day != l.day {
		l.day = day
		l.dayCount = 0
	}
	l.dayCount++
}

// purge drops window entries older than one hour. Caller holds the lock.
func (l *Limiter) purge(now time.Time) {
	cutoff := now.Add(-time.Hour)
	i := 0
	for i < len(l.window) && !l.window[i].After(cutoff) {
		i++
	}
	if i > 0 {
		l.window = append(l.window[:0], l.window[i:]...)
	}
}
