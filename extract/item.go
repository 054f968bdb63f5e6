// Package extract turns raw flight-results markup into normalized
// price items via an ordered cascade of parsing strategies.
//
// The target page has no stable schema, so strategies range from a
// high-confidence structured list scan down to a raw-text regex
// fallback. Every strategy shares the same price-bounds filter, dedup
// rule and ascending-price ordering.
package extract

import (
	"crypto/sha256"
	"fmt"
	"strconv"
	"strings"
)

// Item is one normalized flight offer extracted from a results page.
// Stops is -1 when the stop count could not be recovered.
type Item struct {
	Price         float64 `json:"price"`
	Currency      string  `json:"currency"`
	Airline       string  `json:"airline,omitempty"`
	DepartureTime string  `json:"departure_time,omitempty"` // HH:MM
	ArrivalTime   string  `json:"arrival_time,omitempty"`   // HH:MM
	DurationMin   int     `json:"duration_min,omitempty"`
	Stops         int     `json:"stops"`
	Source        string  `json:"source"`      // strategy tag
	Fingerprint   string  `json:"fingerprint"` // content hash for idempotent storage
}

// Meta identifies the search that produced the page. It feeds the
// fingerprint so the same offer on different dates hashes differently.
type Meta struct {
	Origin      string
	Destination string
	Date        string
}

// fingerprint hashes the fields that identify an offer. Two entries
// with the same route, date, price, airline, stops and duration are
// the same offer as far as downstream storage is concerned.
func fingerprint(m Meta, it Item) string {
	var sb strings.Builder
	sb.WriteString(m.Origin)
	sb.WriteByte('|')
	sb.WriteString(m.Destination)
	sb.WriteByte('|')
	sb.WriteString(m.Date)
	sb.WriteByte('|')
	sb.WriteString(strconv.FormatFloat(it.Price, 'f', 2, 64))
	sb.WriteByte('|')
	sb.WriteString(strings.ToLower(it.Airline))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(it.Stops))
	sb.WriteByte('|')
	sb.WriteString(strconv.Itoa(it.DurationMin))
	sum := sha256.Sum256([]byte(sb.String()))
	return fmt.Sprintf("%x", sum[:16])
}
