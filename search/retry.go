package search

import (
	"context"
	"fmt"
	"time"

	"github.com/hazyhaar/fareveille/detect"
)

// capture is what one structurally successful (or blocked) page visit
// yields.
type capture struct {
	html       string
	finalURL   string
	screenshot []byte
}

// fetchWithRetry runs up to MaxRetries attempts with exponential
// backoff and jitter between them. A detected block aborts the loop
// immediately; transient errors retry until attempts run out. The
// returned retry count is the number of attempts beyond the first.
// On a blocked abort the capture is returned alongside the error so
// the caller can persist a diagnostic snapshot.
func (o *Orchestrator) fetchWithRetry(ctx context.Context, target string) (*capture, int, error) {
	var lastErr error

	for attempt := 1; attempt <= o.cfg.MaxRetries; attempt++ {
		cap, err := o.attempt(ctx, target)
		if err == nil {
			return cap, attempt - 1, nil
		}
		if _, blocked := AsBlocked(err); blocked {
			return cap, attempt - 1, err
		}

		lastErr = err
		o.logger.Warn("search: attempt failed",
			"url", target, "attempt", attempt, "error", err)

		if attempt < o.cfg.MaxRetries {
			if err := o.sleep(ctx, o.backoff(attempt)); err != nil {
				return nil, attempt - 1, err
			}
		}
	}

	return nil, o.cfg.MaxRetries - 1, lastErr
}

// attempt acquires a fresh page, reads it, and classifies it. The page
// is always closed before returning.
func (o *Orchestrator) attempt(ctx context.Context, target string) (*capture, error) {
	page, err := o.browser.Open(ctx, target)
	if err != nil {
		return nil, fmt.Errorf("search: open page: %w", err)
	}
	defer page.Close()

	html, err := page.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("search: read page: %w", err)
	}

	cap := &capture{html: html, finalURL: page.FinalURL()}

	if det := detect.Detect(html, cap.finalURL); det.Blocked {
		// Grab the evidence while the page is still alive. Best effort.
		if shot, err := page.Screenshot(ctx); err == nil {
			cap.screenshot = shot
		}
		return cap, &BlockedError{Reason: det.Reason}
	}

	if shot, err := page.Screenshot(ctx); err == nil {
		cap.screenshot = shot
	}
	return cap, nil
}

// backoff returns base * 2^(attempt-1) plus up to one base of jitter.
func (o *Orchestrator) backoff(attempt int) time.Duration {
	d := o.cfg.RetryBase << (attempt - 1)
	return d + time.Duration(o.jitter()*float64(o.cfg.RetryBase))
}
