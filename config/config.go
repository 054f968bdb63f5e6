// Package config loads fareveille configuration from YAML files.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level fareveille configuration.
type Config struct {
	Browser     BrowserConfig   `yaml:"browser"`
	Search      SearchConfig    `yaml:"search"`
	RateLimit   RateLimitConfig `yaml:"rate_limit"`
	Breaker     BreakerConfig   `yaml:"circuit_breaker"`
	Batch       BatchConfig     `yaml:"batch"`
	Routes      []RouteConfig   `yaml:"routes"`
	SnapshotDir string          `yaml:"snapshot_dir"`
	DataDir     string          `yaml:"data_dir"`
	LogLevel    string          `yaml:"log_level"` // debug | info | warn | error
}

// BrowserConfig controls Chrome lifecycle.
type BrowserConfig struct {
	Headless          bool          `yaml:"headless"`
	Remote            string        `yaml:"remote"`
	NavigationTimeout time.Duration `yaml:"navigation_timeout"`
	ActionDelayMin    time.Duration `yaml:"action_delay_min"`
	ActionDelayMax    time.Duration `yaml:"action_delay_max"`
	ResourceBlocking  []string      `yaml:"resource_blocking"`
}

// SearchConfig controls a single route search.
type SearchConfig struct {
	Currency   string        `yaml:"currency"`
	Locale     string        `yaml:"locale"`
	BaseURL    string        `yaml:"base_url"`
	MaxRetries int           `yaml:"max_retries"`
	RetryBase  time.Duration `yaml:"retry_base"`
	CacheTTL   time.Duration `yaml:"cache_ttl"`
	PriceMin   float64       `yaml:"price_min"`
	PriceMax   float64       `yaml:"price_max"`
}

// RateLimitConfig caps request volume per route.
type RateLimitConfig struct {
	MaxPerHour int `yaml:"max_per_hour"`
	MaxPerDay  int `yaml:"max_per_day"`
}

// BreakerConfig controls the per-route circuit breaker.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	Cooldown         time.Duration `yaml:"cooldown"`
}

// BatchConfig controls multi-route run pacing.
type BatchConfig struct {
	InterSearchDelayMin time.Duration `yaml:"inter_search_delay_min"`
	InterSearchDelayMax time.Duration `yaml:"inter_search_delay_max"`
	SampleSize          int           `yaml:"sample_size"`
}

// RouteConfig defines one route+date to search.
type RouteConfig struct {
	Origin      string `yaml:"origin"`
	Destination string `yaml:"destination"`
	Date        string `yaml:"date"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadRoutesFile reads a standalone routes file: a YAML document with
// a top-level `routes:` list, same shape as the main config.
func LoadRoutesFile(path string) ([]RouteConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}

	var doc struct {
		Routes []RouteConfig `yaml:"routes"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	return doc.Routes, nil
}

// Default returns a configuration with every default applied, for
// running without a config file.
func Default() *Config {
	cfg := &Config{Browser: BrowserConfig{Headless: true}}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Browser.NavigationTimeout <= 0 {
		c.Browser.NavigationTimeout = 30 * time.Second
	}
	if c.Browser.ActionDelayMin <= 0 {
		c.Browser.ActionDelayMin = 500 * time.Millisecond
	}
	if c.Browser.ActionDelayMax <= c.Browser.ActionDelayMin {
		c.Browser.ActionDelayMax = c.Browser.ActionDelayMin + time.Second
	}
	if c.Browser.ResourceBlocking == nil {
		c.Browser.ResourceBlocking = []string{"images", "fonts", "media"}
	}
	if c.Search.Currency == "" {
		c.Search.Currency = "EUR"
	}
	if c.Search.Locale == "" {
		c.Search.Locale = "en"
	}
	if c.Search.MaxRetries <= 0 {
		c.Search.MaxRetries = 3
	}
	if c.Search.RetryBase <= 0 {
		c.Search.RetryBase = 2 * time.Second
	}
	if c.Search.CacheTTL <= 0 {
		c.Search.CacheTTL = 3 * time.Hour
	}
	if c.Search.PriceMin <= 0 {
		c.Search.PriceMin = 50
	}
	if c.Search.PriceMax <= c.Search.PriceMin {
		c.Search.PriceMax = 10000
	}
	if c.RateLimit.MaxPerHour <= 0 {
		c.RateLimit.MaxPerHour = 12
	}
	if c.RateLimit.MaxPerDay <= 0 {
		c.RateLimit.MaxPerDay = 60
	}
	if c.Breaker.FailureThreshold <= 0 {
		c.Breaker.FailureThreshold = 3
	}
	if c.Breaker.Cooldown <= 0 {
		c.Breaker.Cooldown = 4 * time.Hour
	}
	if c.Batch.InterSearchDelayMin <= 0 {
		c.Batch.InterSearchDelayMin = 20 * time.Second
	}
	if c.Batch.InterSearchDelayMax <= c.Batch.InterSearchDelayMin {
		c.Batch.InterSearchDelayMax = c.Batch.InterSearchDelayMin + 25*time.Second
	}
	if c.Batch.SampleSize <= 0 {
		c.Batch.SampleSize = 3
	}
	if c.SnapshotDir == "" {
		c.SnapshotDir = "snapshots"
	}
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
}
