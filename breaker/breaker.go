// Package breaker isolates consistently failing routes. After a
// configurable number of failures a route is paused for a long cooldown
// (hours, not seconds — the point is to leave the target site alone).
//
// Expiry is lazy: there is no timer, the pause is checked on the next
// Check call and the state deleted once it has elapsed. Any success
// forgives all prior failures.
package breaker

import (
	"sync"
	"time"
)

// Config sets the trip threshold and pause duration.
type Config struct {
	FailureThreshold int
	Cooldown         time.Duration
}

func (c *Config) defaults() {
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = 3
	}
	if c.Cooldown <= 0 {
		c.Cooldown = 4 * time.Hour
	}
}

// Decision is the outcome of a Check.
type Decision struct {
	Paused     bool
	PauseUntil time.Time
}

type state struct {
	failures      int
	lastFailureAt time.Time
	pauseUntil    time.Time // zero until failures reach the threshold
}

// Breaker tracks per-route failure state.
type Breaker struct {
	mu     sync.Mutex
	cfg    Config
	now    func() time.Time
	routes map[string]*state
}

// Option configures a Breaker.
type Option func(*Breaker)

// WithClock overrides the time source. Used by tests.
func WithClock(now func() time.Time) Option {
	return func(b *Breaker) { b.now = now }
}

// New creates a Breaker.
func New(cfg Config, opts ...Option) *Breaker {
	cfg.defaults()
	b := &Breaker{cfg: cfg, now: time.Now, routes: make(map[string]*state)}
	for _, o := range opts {
		o(b)
	}
	return b
}

// Check reports whether the route is currently paused. An elapsed pause
// deletes the state entirely, so the next attempt runs unthrottled.
func (b *Breaker) Check(route string) Decision {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.routes[route]
	if !ok || st.pauseUntil.IsZero() {
		return Decision{}
	}
	if b.now().After(st.pauseUntil) {
		delete(b.routes, route)
		return Decision{}
	}
	return Decision{Paused: true, PauseUntil: st.pauseUntil}
}

// RecordFailure counts a failure against the route and opens the
// breaker once the threshold is reached.
func (b *Breaker) RecordFailure(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.routes[route]
	if !ok {
		st = &state{}
		b.routes[route] = st
	}
	st.failures++
	st.lastFailureAt = b.now()
	if st.failures >= b.cfg.FailureThreshold && st.pauseUntil.IsZero() {
		st.pauseUntil = b.now().Add(b.cfg.Cooldown)
	}
}

// RecordSuccess deletes the route state. Full reset, not a decrement.
func (b *Breaker) RecordSuccess(route string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.routes, route)
}
