// Package search drives one route+date fare search end to end: cache
// and policy gates first, then a bounded retry loop around the browser,
// block detection, the extraction cascade, and breaker feedback.
package search

import (
	"fmt"
	"regexp"
	"time"

	"github.com/hazyhaar/fareveille/extract"
)

// Request is the immutable input to one search.
type Request struct {
	Origin      string `json:"origin" yaml:"origin"`
	Destination string `json:"destination" yaml:"destination"`
	Date        string `json:"date" yaml:"date"` // YYYY-MM-DD
}

var (
	iataRe = regexp.MustCompile(`^[A-Z]{3}$`)
	dateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// Validate checks the IATA codes and date format.
func (r Request) Validate() error {
	if !iataRe.MatchString(r.Origin) {
		return fmt.Errorf("search: invalid origin %q", r.Origin)
	}
	if !iataRe.MatchString(r.Destination) {
		return fmt.Errorf("search: invalid destination %q", r.Destination)
	}
	if !dateRe.MatchString(r.Date) {
		return fmt.Errorf("search: invalid date %q", r.Date)
	}
	return nil
}

// RouteKey identifies the origin/destination corridor. Breaker state is
// scoped to it.
func (r Request) RouteKey() string {
	return r.Origin + "-" + r.Destination
}

// key is the cache key: route plus date.
func (r Request) key() string {
	return r.Origin + "|" + r.Destination + "|" + r.Date
}

// Status is the terminal outcome of a search.
type Status string

const (
	StatusOK          Status = "ok"
	StatusNoResults   Status = "no-results"
	StatusBlocked     Status = "blocked"
	StatusRateLimited Status = "rate-limited"
	StatusError       Status = "error"
)

// Diagnostics describes how a result was obtained.
type Diagnostics struct {
	URL         string    `json:"url,omitempty"`
	Retries     int       `json:"retries"`
	Blocked     bool      `json:"blocked,omitempty"`
	BlockReason string    `json:"block_reason,omitempty"`
	FromCache   bool      `json:"from_cache,omitempty"`
	Strategy    string    `json:"strategy,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	DurationMs  int64     `json:"duration_ms"`
}

// Result is the outcome of one search. Created at search start,
// populated once, finalized with end timestamp and duration on return.
// Handed to callers by value.
type Result struct {
	Request     Request        `json:"request"`
	Status      Status         `json:"status"`
	Found       bool           `json:"found"`
	Items       []extract.Item `json:"items,omitempty"` // ascending price
	Diagnostics Diagnostics    `json:"diagnostics"`
}
