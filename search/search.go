package search

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/hazyhaar/fareveille/breaker"
	"github.com/hazyhaar/fareveille/cache"
	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/ratelimit"
)

// Page is one open browser page. Implemented by browser.Page; tests
// use stubs.
type Page interface {
	HTML(ctx context.Context) (string, error)
	FinalURL() string
	Screenshot(ctx context.Context) ([]byte, error)
	Close() error
}

// Browser acquires pages. Each search attempt opens and closes its own.
type Browser interface {
	Open(ctx context.Context, url string) (Page, error)
}

// SnapshotSink persists diagnostic page snapshots on blocked or
// zero-result outcomes. Implementations must never fail the search.
type SnapshotSink interface {
	Save(ctx context.Context, id string, html string, screenshot []byte)
}

// Sleeper suspends between attempts. Injectable so tests run instantly.
type Sleeper func(ctx context.Context, d time.Duration) error

func defaultSleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Config tunes one Orchestrator.
type Config struct {
	MaxRetries int           // attempts per search. Default: 3.
	RetryBase  time.Duration // backoff base. Default: 2s.
	Currency   string        // price denomination hint. Default: EUR.
	Locale     string        // page language hint. Default: en.
	BaseURL    string        // search entry point. Default: DefaultBaseURL.
	CacheTTL   time.Duration // result memoization window. Default: 3h.

	Bounds    extract.Bounds   // plausible-price policy
	RateLimit ratelimit.Config // process-wide quotas
	Breaker   breaker.Config   // per-route failure isolation
}

func (c *Config) defaults() {
	if c.MaxRetries <= 0 {
		c.MaxRetries = 3
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 2 * time.Second
	}
	if c.Currency == "" {
		c.Currency = "EUR"
	}
	if c.Locale == "" {
		c.Locale = "en"
	}
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 3 * time.Hour
	}
}

// Orchestrator runs searches. Limiter, breaker and cache state are
// owned here and shared across all searches of the process.
type Orchestrator struct {
	cfg     Config
	browser Browser
	limiter *ratelimit.Limiter
	breaker *breaker.Breaker
	cache   *cache.Cache[Result]
	cascade *extract.Cascade
	snaps   SnapshotSink
	sleep   Sleeper
	jitter  func() float64
	logger  *slog.Logger
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithSleeper overrides the backoff sleep. Used by tests.
func WithSleeper(s Sleeper) Option {
	return func(o *Orchestrator) { o.sleep = s }
}

// WithJitter overrides the jitter source. Used by tests.
func WithJitter(f func() float64) Option {
	return func(o *Orchestrator) { o.jitter = f }
}

// WithSnapshotSink enables the diagnostic snapshot side channel.
func WithSnapshotSink(s SnapshotSink) Option {
	return func(o *Orchestrator) { o.snaps = s }
}

// WithLimiter injects a rate limiter (shared or preconfigured).
func WithLimiter(l *ratelimit.Limiter) Option {
	return func(o *Orchestrator) { o.limiter = l }
}

// WithBreaker injects a circuit breaker.
func WithBreaker(b *breaker.Breaker) Option {
	return func(o *Orchestrator) { o.breaker = b }
}

// WithCache injects a result cache.
func WithCache(c *cache.Cache[Result]) Option {
	return func(o *Orchestrator) { o.cache = c }
}

// WithCascade injects an extraction cascade.
func WithCascade(c *extract.Cascade) Option {
	return func(o *Orchestrator) { o.cascade = c }
}

// New creates an Orchestrator around a Browser. Components not injected
// via options are built from cfg.
func New(cfg Config, b Browser, opts ...Option) *Orchestrator {
	cfg.defaults()
	o := &Orchestrator{
		cfg:     cfg,
		browser: b,
		sleep:   defaultSleep,
		jitter:  rand.Float64,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.limiter == nil {
		o.limiter = ratelimit.New(cfg.RateLimit)
	}
	if o.breaker == nil {
		o.breaker = breaker.New(cfg.Breaker)
	}
	if o.cache == nil {
		o.cache = cache.New[Result](cfg.CacheTTL)
	}
	if o.cascade == nil {
		o.cascade = extract.New(extract.Config{
			Bounds:          cfg.Bounds,
			DefaultCurrency: cfg.Currency,
		})
	}
	return o
}

// Search runs one route+date search. It always returns a finalized
// Result; failures degrade to a status, never a panic or partial
// state. Gate order: cache, breaker, limiter — a cache hit costs
// nothing against either budget.
func (o *Orchestrator) Search(ctx context.Context, req Request) Result {
	started := time.Now()
	res := Result{Request: req, Status: StatusError}
	res.Diagnostics.StartedAt = started

	if err := req.Validate(); err != nil {
		res.Diagnostics.Error = err.Error()
		return finalize(res, started)
	}

	if cached, ok := o.cache.Get(req.key()); ok {
		cached.Diagnostics.FromCache = true
		cached.Diagnostics.StartedAt = started
		o.logger.Debug("search: cache hit", "route", req.RouteKey(), "date", req.Date)
		return finalize(cached, started)
	}

	if d := o.breaker.Check(req.RouteKey()); d.Paused {
		res.Status = StatusBlocked
		res.Diagnostics.Blocked = true
		res.Diagnostics.BlockReason = "route paused until " + d.PauseUntil.Format(time.RFC3339)
		o.logger.Info("search: route paused", "route", req.RouteKey(), "until", d.PauseUntil)
		return finalize(res, started)
	}

	if !o.limiter.Allow() {
		res.Status = StatusRateLimited
		res.Diagnostics.Error = ErrRateLimited.Error()
		o.logger.Info("search: rate limited", "route", req.RouteKey())
		return finalize(res, started)
	}

	target := buildURL(o.cfg.BaseURL, req, o.cfg.Currency, o.cfg.Locale)
	res.Diagnostics.URL = target
	o.limiter.Record()

	cap, retries, err := o.fetchWithRetry(ctx, target)
	res.Diagnostics.Retries = retries
	if err != nil {
		o.breaker.RecordFailure(req.RouteKey())
		if be, ok := AsBlocked(err); ok {
			res.Status = StatusBlocked
			res.Diagnostics.Blocked = true
			res.Diagnostics.BlockReason = be.Reason
			o.saveSnapshot(ctx, req, cap)
			o.logger.Warn("search: blocked", "route", req.RouteKey(), "reason", be.Reason)
		} else {
			res.Diagnostics.Error = err.Error()
			o.logger.Warn("search: failed", "route", req.RouteKey(), "retries", retries, "error", err)
		}
		return finalize(res, started)
	}

	meta := extract.Meta{Origin: req.Origin, Destination: req.Destination, Date: req.Date}
	items, strategy, err := o.cascade.Run(cap.html, meta)
	if err != nil {
		// The page loaded cleanly; a parse failure is ours, not the
		// site's, so the breaker is not fed.
		res.Diagnostics.Error = err.Error()
		return finalize(res, started)
	}

	o.breaker.RecordSuccess(req.RouteKey())

	res.Items = items
	res.Found = len(items) > 0
	res.Diagnostics.Strategy = strategy
	if res.Found {
		res.Status = StatusOK
	} else {
		res.Status = StatusNoResults
		o.saveSnapshot(ctx, req, cap)
	}

	o.cache.Set(req.key(), res)
	o.logger.Info("search: done",
		"route", req.RouteKey(), "date", req.Date,
		"status", res.Status, "items", len(items), "strategy", strategy, "retries", retries)
	return finalize(res, started)
}

// saveSnapshot hands page evidence to the sink, if any.
func (o *Orchestrator) saveSnapshot(ctx context.Context, req Request, cap *capture) {
	if o.snaps == nil || cap == nil {
		return
	}
	id := fmt.Sprintf("%s-%s-%s-%d", req.Origin, req.Destination, req.Date, time.Now().UnixMilli())
	o.snaps.Save(ctx, id, cap.html, cap.screenshot)
}

func finalize(r Result, started time.Time) Result {
	r.Diagnostics.FinishedAt = time.Now()
	r.Diagnostics.DurationMs = r.Diagnostics.FinishedAt.Sub(started).Milliseconds()
	return r
}
