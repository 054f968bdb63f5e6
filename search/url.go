package search

import (
	"fmt"
	"net/url"
)

// DefaultBaseURL is the flight search entry point.
const DefaultBaseURL = "https://www.google.com/travel/flights"

// buildURL composes the search URL for a request. Currency and locale
// ride along as query parameters so the page renders prices in a
// predictable denomination.
func buildURL(base string, req Request, currency, locale string) string {
	q := url.Values{}
	q.Set("q", fmt.Sprintf("Flights from %s to %s on %s", req.Origin, req.Destination, req.Date))
	if currency != "" {
		q.Set("curr", currency)
	}
	if locale != "" {
		q.Set("hl", locale)
	}
	return base + "?" + q.Encode()
}
