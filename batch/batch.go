// Package batch sequences many searches with human-like pacing and
// aggregates a run summary. Searches run strictly one at a time —
// concurrency would defeat the pacing design.
package batch

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/hazyhaar/fareveille/idgen"
	"github.com/hazyhaar/fareveille/search"
)

// Searcher runs one search. Implemented by search.Orchestrator.
type Searcher interface {
	Search(ctx context.Context, req search.Request) search.Result
}

// Config tunes a Runner.
type Config struct {
	// InterSearchDelayMin/Max bound the randomized pause between
	// consecutive searches. Defaults: 20s–45s.
	InterSearchDelayMin time.Duration
	InterSearchDelayMax time.Duration
	// SampleSize caps the items copied into each route report.
	// Default: 3.
	SampleSize int
}

func (c *Config) defaults() {
	if c.InterSearchDelayMin <= 0 {
		c.InterSearchDelayMin = 20 * time.Second
	}
	if c.InterSearchDelayMax < c.InterSearchDelayMin {
		c.InterSearchDelayMax = c.InterSearchDelayMin + 25*time.Second
	}
	if c.SampleSize <= 0 {
		c.SampleSize = 3
	}
}

// Runner executes request sequences.
type Runner struct {
	searcher Searcher
	cfg      Config
	sleep    search.Sleeper
	delay    func(min, max time.Duration) time.Duration
	newID    idgen.Generator
	logger   *slog.Logger
}

// Option configures a Runner.
type Option func(*Runner)

// WithLogger sets a custom logger.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// WithSleeper overrides the pacing sleep. Used by tests.
func WithSleeper(s search.Sleeper) Option {
	return func(r *Runner) { r.sleep = s }
}

// WithDelayPolicy overrides the randomized delay pick. Used by tests.
func WithDelayPolicy(f func(min, max time.Duration) time.Duration) Option {
	return func(r *Runner) { r.delay = f }
}

// WithIDGenerator sets the run ID generator.
func WithIDGenerator(gen idgen.Generator) Option {
	return func(r *Runner) { r.newID = gen }
}

func randomDelay(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	return min + time.Duration(rand.Int64N(int64(max-min)))
}

// New creates a Runner.
func New(s Searcher, cfg Config, opts ...Option) *Runner {
	cfg.defaults()
	r := &Runner{
		searcher: s,
		cfg:      cfg,
		sleep:    defaultSleep,
		delay:    randomDelay,
		newID:    idgen.Prefixed("run_", idgen.Default),
		logger:   slog.Default(),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

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

// Run executes the requests in order and returns the summary. A failing
// route degrades to its report entry; the run itself always completes.
// Cancellation is cooperative: once ctx is done, remaining requests are
// skipped rather than interrupted mid-search.
func (r *Runner) Run(ctx context.Context, reqs []search.Request) *Summary {
	sum := &Summary{
		RunID:     r.newID(),
		StartedAt: time.Now(),
		Results:   make([]RouteReport, 0, len(reqs)),
	}
	r.logger.Info("batch: run started", "run_id", sum.RunID, "requests", len(reqs))

	for i, req := range reqs {
		if ctx.Err() != nil {
			break
		}
		if i > 0 {
			d := r.delay(r.cfg.InterSearchDelayMin, r.cfg.InterSearchDelayMax)
			r.logger.Debug("batch: pacing", "delay", d)
			if err := r.sleep(ctx, d); err != nil {
				break
			}
		}

		res := r.searcher.Search(ctx, req)
		sum.add(newRouteReport(res, r.cfg.SampleSize))
	}

	sum.FinishedAt = time.Now()
	sum.DurationMs = sum.FinishedAt.Sub(sum.StartedAt).Milliseconds()
	r.logger.Info("batch: run finished",
		"run_id", sum.RunID,
		"found", sum.FoundCount, "blocked", sum.BlockedCount,
		"errors", sum.ErrorCount, "duration_ms", sum.DurationMs)
	return sum
}
