// Command fareveille searches flight fares for configured routes.
//
// Usage:
//
//	fareveille -config fareveille.yaml              # run configured routes
//	fareveille -route MAD:EZE:2026-03-28            # one-shot search
//	fareveille -config fareveille.yaml -out run.json
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	_ "modernc.org/sqlite"

	"github.com/hazyhaar/fareveille/batch"
	"github.com/hazyhaar/fareveille/breaker"
	"github.com/hazyhaar/fareveille/browser"
	"github.com/hazyhaar/fareveille/config"
	"github.com/hazyhaar/fareveille/dbopen"
	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/ledger"
	"github.com/hazyhaar/fareveille/ratelimit"
	"github.com/hazyhaar/fareveille/search"
	"github.com/hazyhaar/fareveille/snapshot"
)

func main() {
	configPath := flag.String("config", "", "path to fareveille.yaml config file")
	routesPath := flag.String("routes", "", "path to a routes-only YAML file (overrides config routes)")
	route := flag.String("route", "", "one-shot search: ORIGIN:DEST:YYYY-MM-DD")
	outPath := flag.String("out", "", "write run summary JSON to this file (default stdout)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error (overrides config)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.LogLevel = *logLevel
	}
	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if *routesPath != "" {
		routes, err := config.LoadRoutesFile(*routesPath)
		if err != nil {
			logger.Error("fareveille: load routes", "error", err)
			os.Exit(1)
		}
		cfg.Routes = routes
	}

	if err := run(ctx, logger, cfg, *route, *outPath); err != nil {
		logger.Error("fareveille: fatal", "error", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		return config.Default(), nil
	}
	return config.LoadFile(path)
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

// sessionBrowser adapts browser.Session to the search.Browser interface.
type sessionBrowser struct {
	s *browser.Session
}

func (b sessionBrowser) Open(ctx context.Context, url string) (search.Page, error) {
	return b.s.Open(ctx, url)
}

// recordingSearcher persists extracted items after each search. Cache
// hits replay into the ledger too; the fingerprint index keeps that
// idempotent.
type recordingSearcher struct {
	inner  batch.Searcher
	store  *ledger.Store
	logger *slog.Logger
}

func (r recordingSearcher) Search(ctx context.Context, req search.Request) search.Result {
	res := r.inner.Search(ctx, req)
	if len(res.Items) == 0 {
		return res
	}
	if n, err := r.store.RecordItems(ctx, req, res.Items); err != nil {
		r.logger.Warn("fareveille: record fares failed", "route", req.RouteKey(), "error", err)
	} else if n > 0 {
		r.logger.Info("fareveille: new fares recorded", "route", req.RouteKey(), "count", n)
	}
	return res
}

func run(ctx context.Context, logger *slog.Logger, cfg *config.Config, route, outPath string) error {
	reqs, err := buildRequests(cfg, route)
	if err != nil {
		return err
	}
	if len(reqs) == 0 {
		fmt.Fprintln(os.Stderr, "usage: fareveille -config <file> | -routes <file> | -route ORIGIN:DEST:YYYY-MM-DD")
		os.Exit(1)
	}

	db, err := dbopen.Open(filepath.Join(cfg.DataDir, "fareveille.db"),
		dbopen.WithMkdirAll(), dbopen.WithSchema(ledger.Schema))
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	defer db.Close()
	store := ledger.NewStore(db)

	session := browser.NewSession(browser.Config{
		Headless:          cfg.Browser.Headless,
		RemoteURL:         cfg.Browser.Remote,
		NavigationTimeout: cfg.Browser.NavigationTimeout,
		ActionDelayMin:    cfg.Browser.ActionDelayMin,
		ActionDelayMax:    cfg.Browser.ActionDelayMax,
		ResourceBlocking:  cfg.Browser.ResourceBlocking,
		Logger:            logger,
	})
	if err := session.Start(ctx); err != nil {
		return fmt.Errorf("start browser: %w", err)
	}
	defer session.Close()

	orch := search.New(search.Config{
		MaxRetries: cfg.Search.MaxRetries,
		RetryBase:  cfg.Search.RetryBase,
		Currency:   cfg.Search.Currency,
		Locale:     cfg.Search.Locale,
		BaseURL:    cfg.Search.BaseURL,
		CacheTTL:   cfg.Search.CacheTTL,
		Bounds:     extract.Bounds{Min: cfg.Search.PriceMin, Max: cfg.Search.PriceMax},
		RateLimit: ratelimit.Config{
			MaxPerHour: cfg.RateLimit.MaxPerHour,
			MaxPerDay:  cfg.RateLimit.MaxPerDay,
		},
		Breaker: breaker.Config{
			FailureThreshold: cfg.Breaker.FailureThreshold,
			Cooldown:         cfg.Breaker.Cooldown,
		},
	}, sessionBrowser{session},
		search.WithLogger(logger),
		search.WithSnapshotSink(snapshot.NewFileSink(cfg.SnapshotDir, logger)),
	)

	runner := batch.New(
		recordingSearcher{inner: orch, store: store, logger: logger},
		batch.Config{
			InterSearchDelayMin: cfg.Batch.InterSearchDelayMin,
			InterSearchDelayMax: cfg.Batch.InterSearchDelayMax,
			SampleSize:          cfg.Batch.SampleSize,
		}, batch.WithLogger(logger))

	sum := runner.Run(ctx, reqs)

	if err := store.RecordRun(ctx, sum); err != nil {
		logger.Warn("fareveille: record run failed", "run_id", sum.RunID, "error", err)
	}

	return writeSummary(sum, outPath)
}

// buildRequests resolves the route list: one-shot flag wins over config.
func buildRequests(cfg *config.Config, route string) ([]search.Request, error) {
	if route != "" {
		parts := strings.Split(route, ":")
		if len(parts) != 3 {
			return nil, fmt.Errorf("bad -route %q, want ORIGIN:DEST:YYYY-MM-DD", route)
		}
		req := search.Request{
			Origin:      strings.ToUpper(parts[0]),
			Destination: strings.ToUpper(parts[1]),
			Date:        parts[2],
		}
		if err := req.Validate(); err != nil {
			return nil, err
		}
		return []search.Request{req}, nil
	}

	reqs := make([]search.Request, 0, len(cfg.Routes))
	for _, rc := range cfg.Routes {
		req := search.Request{
			Origin:      strings.ToUpper(rc.Origin),
			Destination: strings.ToUpper(rc.Destination),
			Date:        rc.Date,
		}
		if err := req.Validate(); err != nil {
			return nil, fmt.Errorf("route %s-%s: %w", rc.Origin, rc.Destination, err)
		}
		reqs = append(reqs, req)
	}
	return reqs, nil
}

func writeSummary(sum *batch.Summary, outPath string) error {
	data, err := json.MarshalIndent(sum, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal summary: %w", err)
	}
	data = append(data, '\n')

	if outPath == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write summary: %w", err)
	}
	return nil
}
