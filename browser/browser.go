// Package browser manages the Chrome session: launch (or connect to a
// remote instance) via Rod, stealth page creation, resource blocking,
// navigation with consent handling, and jittered action pacing.
//
// One Session is reused across all searches of a batch run; each search
// opens and closes its own page.
package browser

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
)

// Config configures the session.
type Config struct {
	// Headless renders without a visible window. Headful can lower
	// detection rates at the cost of needing a display.
	Headless bool

	// RemoteURL is the WebSocket URL of an external Chrome instance.
	// Empty = launch a local Chrome via launcher.
	RemoteURL string

	// NavigationTimeout bounds navigate + initial load. Default: 30s.
	NavigationTimeout time.Duration

	// ActionDelayMin/Max bound the jittered pause after page actions,
	// emulating human pacing. Defaults: 500ms–1.5s.
	ActionDelayMin time.Duration
	ActionDelayMax time.Duration

	// ResourceBlocking lists resource types to drop (images, fonts,
	// media, stylesheets) — lighter on the target, faster for us.
	ResourceBlocking []string

	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.NavigationTimeout <= 0 {
		c.NavigationTimeout = 30 * time.Second
	}
	if c.ActionDelayMin <= 0 {
		c.ActionDelayMin = 500 * time.Millisecond
	}
	if c.ActionDelayMax < c.ActionDelayMin {
		c.ActionDelayMax = c.ActionDelayMin + time.Second
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}

// Session owns one Chrome instance.
type Session struct {
	cfg     Config
	browser *rod.Browser
	lnch    *launcher.Launcher
}

// NewSession creates a Session. Call Start to launch Chrome.
func NewSession(cfg Config) *Session {
	cfg.defaults()
	return &Session{cfg: cfg}
}

// Start launches Chrome or connects to a remote instance.
func (s *Session) Start(ctx context.Context) error {
	log := s.cfg.Logger

	var wsURL string
	if s.cfg.RemoteURL != "" {
		wsURL = s.cfg.RemoteURL
		log.Info("browser: connecting to remote", "url", wsURL)
	} else {
		l := launcher.New().
			Headless(s.cfg.Headless).
			Set("disable-blink-features", "AutomationControlled")

		u, err := l.Launch()
		if err != nil {
			return fmt.Errorf("browser: launch: %w", err)
		}
		wsURL = u
		s.lnch = l
		log.Info("browser: launched local chrome", "headless", s.cfg.Headless)
	}

	b := rod.New().Context(ctx).ControlURL(wsURL)
	if err := b.Connect(); err != nil {
		return fmt.Errorf("browser: connect: %w", err)
	}
	s.browser = b
	return nil
}

// Close shuts down Chrome.
func (s *Session) Close() error {
	if s.browser != nil {
		s.browser.Close()
		s.browser = nil
	}
	if s.lnch != nil {
		s.lnch.Cleanup()
		s.lnch = nil
	}
	return nil
}

// actionDelay sleeps a jittered interval between page actions.
func (s *Session) actionDelay(ctx context.Context) {
	d := s.cfg.ActionDelayMin
	if span := s.cfg.ActionDelayMax - s.cfg.ActionDelayMin; span > 0 {
		d += time.Duration(rand.Int64N(int64(span)))
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}
