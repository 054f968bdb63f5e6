package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Itinerary-shape patterns. Rich label scanning keeps only elements
// whose text looks like a flight (time, duration or stop-count
// substring) so unrelated priced elements such as ads are filtered out.
var (
	timeRe     = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)
	durationRe = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:h|hr|hrs|hour|hours|Std)\.?\s*(?:(\d{1,2})\s*(?:m|min|mins|minutes)\b)?`)
	stopsRe    = regexp.MustCompile(`(?i)\b(\d{1,2})\s*(?:stop|stops|escala|escalas|escale|escales|Zwischenstopp|Zwischenstopps|scalo|scali)\b`)
	nonstopRe  = regexp.MustCompile(`(?i)\b(nonstop|non-stop|direct|directo|direkt|diretto|sin escalas)\b`)
)

// carriers is the airline vocabulary the page is expected to mention.
// Free-text airline recovery is best-effort; an unmatched carrier just
// leaves the field empty.
var carriers = []string{
	"Aerolineas Argentinas", "Aerolíneas Argentinas", "Air Canada",
	"Air Europa", "Air France", "American", "Avianca", "British Airways",
	"Delta", "easyJet", "Emirates", "Iberia", "Iberojet", "ITA Airways",
	"JetSMART", "KLM", "LATAM", "Level", "Lufthansa", "Norwegian",
	"Qatar Airways", "Ryanair", "SWISS", "TAP", "Turkish Airlines",
	"United", "Vueling", "Wizz Air",
}

var carriersLower []string

func init() {
	carriersLower = make([]string, len(carriers))
	for i, c := range carriers {
		carriersLower[i] = strings.ToLower(c)
	}
}

// looksLikeItinerary reports whether text carries a time-like,
// duration-like or stop-like substring.
func looksLikeItinerary(text string) bool {
	return timeRe.MatchString(text) ||
		durationRe.MatchString(text) ||
		stopsRe.MatchString(text) ||
		nonstopRe.MatchString(text)
}

// parseTimes returns the first two HH:MM occurrences as departure and
// arrival. Zero-padded on the hour for a stable schema.
func parseTimes(text string) (dep, arr string) {
	matches := timeRe.FindAllStringSubmatch(text, 2)
	pad := func(m []string) string {
		h := m[1]
		if len(h) == 1 {
			h = "0" + h
		}
		return h + ":" + m[2]
	}
	if len(matches) > 0 {
		dep = pad(matches[0])
	}
	if len(matches) > 1 {
		arr = pad(matches[1])
	}
	return dep, arr
}

// parseDuration returns total minutes, or 0 when absent.
func parseDuration(text string) int {
	m := durationRe.FindStringSubmatch(text)
	if m == nil {
		return 0
	}
	hours, _ := strconv.Atoi(m[1])
	minutes := 0
	if m[2] != "" {
		minutes, _ = strconv.Atoi(m[2])
	}
	return hours*60 + minutes
}

// parseStops returns the stop count, or -1 when it cannot be recovered.
func parseStops(text string) int {
	if nonstopRe.MatchString(text) {
		return 0
	}
	m := stopsRe.FindStringSubmatch(text)
	if m == nil {
		return -1
	}
	n, _ := strconv.Atoi(m[1])
	return n
}

// parseAirline matches the text against the carrier vocabulary,
// preferring the longest match ("Air France" over "Air").
func parseAirline(text string) string {
	lower := strings.ToLower(text)
	best := ""
	for i, c := range carriersLower {
		if strings.Contains(lower, c) && len(carriers[i]) > len(best) {
			best = carriers[i]
		}
	}
	return best
}
