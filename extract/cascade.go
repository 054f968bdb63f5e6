package extract

import (
	"fmt"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Strategy is one parsing approach over a results page. Strategies
// return raw candidates; the cascade applies bounds, dedup, ordering
// and fingerprints.
type Strategy interface {
	Name() string
	Extract(doc *goquery.Document, defCurrency string) []Item
}

// Config tunes the cascade.
type Config struct {
	// Bounds rejects obviously-corrupt extractions.
	Bounds Bounds
	// DefaultCurrency is assumed when no symbol/code can be mapped.
	DefaultCurrency string
	// MinDistinct is the number of distinct prices a strategy must
	// yield to be accepted before falling through. Default: 2.
	MinDistinct int
	// MaxFallback caps the raw-text strategy's matches. Default: 5.
	MaxFallback int
}

func (c *Config) defaults() {
	c.Bounds.defaults()
	if c.DefaultCurrency == "" {
		c.DefaultCurrency = "EUR"
	}
	if c.MinDistinct <= 0 {
		c.MinDistinct = 2
	}
	if c.MaxFallback <= 0 {
		c.MaxFallback = 5
	}
}

// Cascade runs strategies in strict priority order and stops at the
// first one yielding enough plausible items.
type Cascade struct {
	cfg        Config
	strategies []Strategy
}

// Option configures a Cascade.
type Option func(*Cascade)

// WithStrategies replaces the default strategy chain. Order matters.
func WithStrategies(s ...Strategy) Option {
	return func(c *Cascade) { c.strategies = s }
}

// New creates a Cascade with the default chain: structured list scan,
// rich label scan, broad label scan, raw-text fallback.
func New(cfg Config, opts ...Option) *Cascade {
	cfg.defaults()
	c := &Cascade{
		cfg: cfg,
		strategies: []Strategy{
			&listScan{},
			&labelScan{name: "rich-label", itineraryOnly: true},
			&labelScan{name: "broad-label"},
			&textScan{cap: cfg.MaxFallback},
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Run parses the page once and walks the cascade. It returns the
// accepted items sorted ascending by price, plus the name of the
// strategy that produced them. Zero items with a nil error means the
// page loaded cleanly but nothing plausible was found.
func (c *Cascade) Run(pageHTML string, meta Meta) ([]Item, string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(pageHTML))
	if err != nil {
		return nil, "", fmt.Errorf("extract: parse page: %w", err)
	}

	var bestItems []Item
	var bestSource string

	for _, s := range c.strategies {
		items := c.normalize(s.Extract(doc, c.cfg.DefaultCurrency))
		if len(items) == 0 {
			continue
		}
		if distinctPrices(items) >= c.cfg.MinDistinct {
			return c.finalize(items, s.Name(), meta), s.Name(), nil
		}
		// Below threshold: remember the best yield and keep falling.
		if len(items) > len(bestItems) {
			bestItems, bestSource = items, s.Name()
		}
	}

	if len(bestItems) > 0 {
		return c.finalize(bestItems, bestSource, meta), bestSource, nil
	}
	return nil, "", nil
}

// normalize applies the shared bounds filter, (price, airline) dedup
// and ascending-price sort.
func (c *Cascade) normalize(raw []Item) []Item {
	seen := make(map[string]bool, len(raw))
	out := make([]Item, 0, len(raw))
	for _, it := range raw {
		if !c.cfg.Bounds.Contains(it.Price) {
			continue
		}
		key := fmt.Sprintf("%.2f|%s", it.Price, strings.ToLower(it.Airline))
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, it)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Price != out[j].Price {
			return out[i].Price < out[j].Price
		}
		return out[i].Airline < out[j].Airline
	})
	return out
}

// finalize stamps the strategy tag and content fingerprint.
func (c *Cascade) finalize(items []Item, source string, meta Meta) []Item {
	for i := range items {
		items[i].Source = source
		items[i].Fingerprint = fingerprint(meta, items[i])
	}
	return items
}

func distinctPrices(items []Item) int {
	seen := make(map[float64]bool, len(items))
	for _, it := range items {
		seen[it.Price] = true
	}
	return len(seen)
}
