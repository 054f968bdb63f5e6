package browser

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

// consentButtons matches the cookie/consent dialog across the locales
// the target serves. Dismissal is best effort: a missing dialog is the
// common case, not an error.
var consentButtons = []string{
	"Accept all", "I agree", "Agree",
	"Aceptar todo", "Acepto",
	"Tout accepter", "J'accepte",
	"Alle akzeptieren", "Ich stimme zu",
	"Accetta tutto",
}

// Page wraps one open Rod page.
type Page struct {
	page     *rod.Page
	finalURL string
}

// Open creates a stealth page, applies resource blocking, navigates,
// dismisses the consent prompt if present, and waits for the page to
// settle. The caller must Close the returned Page.
func (s *Session) Open(ctx context.Context, pageURL string) (*Page, error) {
	if s.browser == nil {
		return nil, fmt.Errorf("browser: session not started")
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("browser: create stealth page: %w", err)
	}

	if len(s.cfg.ResourceBlocking) > 0 {
		if err := applyResourceBlocking(page, s.cfg.ResourceBlocking); err != nil {
			s.cfg.Logger.Warn("browser: resource blocking failed", "error", err)
		}
	}

	navCtx, cancel := context.WithTimeout(ctx, s.cfg.NavigationTimeout)
	defer cancel()

	if err := page.Context(navCtx).Navigate(pageURL); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: navigate %s: %w", pageURL, err)
	}
	if err := page.Context(navCtx).WaitLoad(); err != nil {
		page.Close()
		return nil, fmt.Errorf("browser: wait load: %w", err)
	}

	s.dismissConsent(navCtx, page)
	s.actionDelay(ctx)

	// Results render asynchronously; wait for the DOM to settle.
	if err := page.Context(navCtx).WaitStable(time.Second); err != nil {
		s.cfg.Logger.Debug("browser: wait stable timeout", "url", pageURL, "error", err)
	}

	p := &Page{page: page, finalURL: pageURL}
	if info, err := page.Info(); err == nil {
		p.finalURL = info.URL
	}
	return p, nil
}

// dismissConsent clicks the consent button when the dialog is shown.
func (s *Session) dismissConsent(ctx context.Context, page *rod.Page) {
	pattern := "/" + strings.Join(consentButtons, "|") + "/i"

	el, err := page.Context(ctx).Timeout(3 * time.Second).ElementR("button", pattern)
	if err != nil {
		return // no dialog
	}
	if err := el.Click(proto.InputMouseButtonLeft, 1); err != nil {
		s.cfg.Logger.Debug("browser: consent click failed", "error", err)
		return
	}
	s.cfg.Logger.Debug("browser: consent dismissed")
	s.actionDelay(ctx)
}

// HTML serialises the complete DOM.
func (p *Page) HTML(ctx context.Context) (string, error) {
	html, err := p.page.Context(ctx).HTML()
	if err != nil {
		return "", fmt.Errorf("browser: get DOM: %w", err)
	}
	return html, nil
}

// FinalURL is the URL after any redirects, captured at open time.
func (p *Page) FinalURL() string { return p.finalURL }

// Screenshot captures a full-page PNG.
func (p *Page) Screenshot(ctx context.Context) ([]byte, error) {
	shot, err := p.page.Context(ctx).Screenshot(true, &proto.PageCaptureScreenshot{
		Format: proto.PageCaptureScreenshotFormatPng,
	})
	if err != nil {
		return nil, fmt.Errorf("browser: screenshot: %w", err)
	}
	return shot, nil
}

// Close closes the page.
func (p *Page) Close() error {
	if p.page != nil {
		return p.page.Close()
	}
	return nil
}
