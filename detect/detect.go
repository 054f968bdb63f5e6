// Package detect classifies a fetched page as blocked/challenged or
// normal. The check is purely observational: it never submits, solves,
// or waits out a challenge. Callers that see Blocked stop immediately.
package detect

import "strings"

// Result of a block check.
type Result struct {
	Blocked bool
	Reason  string
}

// challengeFrames are iframe source fragments that indicate a
// verification challenge is being served instead of results.
var challengeFrames = []string{
	"google.com/recaptcha",
	"recaptcha/api",
	"hcaptcha.com",
	"challenges.cloudflare.com",
	"geo.captcha-delivery.com",
}

// blockPhrases span the locales the target serves. Matched against the
// lowercased page markup, so they catch both visible text and attributes.
var blockPhrases = []string{
	"unusual traffic",
	"automated queries",
	"verify you're not a robot",
	"verify that you are not a robot",
	"our systems have detected",
	"tráfico inusual",
	"consultas automatizadas",
	"trafic inhabituel",
	"requêtes automatisées",
	"ungewöhnlichen datenverkehr",
	"automatisierte anfragen",
	"traffico insolito",
}

// blockPaths are URL path fragments of known block/verification pages.
var blockPaths = []string{
	"/sorry/",
	"/recaptcha",
	"/challenge",
	"ipv4check",
}

// Detect classifies page content. Checks run in order — challenge
// iframe, block phrases, redirect URL — and the first match wins.
func Detect(pageHTML, pageURL string) Result {
	lower := strings.ToLower(pageHTML)

	for _, frame := range challengeFrames {
		if containsIframe(lower, frame) {
			return Result{Blocked: true, Reason: "challenge iframe: " + frame}
		}
	}

	for _, phrase := range blockPhrases {
		if strings.Contains(lower, phrase) {
			return Result{Blocked: true, Reason: "block phrase: " + phrase}
		}
	}

	lowerURL := strings.ToLower(pageURL)
	for _, path := range blockPaths {
		if strings.Contains(lowerURL, path) {
			return Result{Blocked: true, Reason: "block url: " + path}
		}
	}

	return Result{}
}

// containsIframe reports whether an iframe tag in the markup references
// the given source fragment.
func containsIframe(lowerHTML, src string) bool {
	rest := lowerHTML
	for {
		i := strings.Index(rest, "<iframe")
		if i < 0 {
			return false
		}
		rest = rest[i:]
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return false
		}
		if strings.Contains(rest[:end], src) {
			return true
		}
		rest = rest[end:]
	}
}
