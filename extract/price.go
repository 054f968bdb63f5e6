package extract

import (
	"regexp"
	"strconv"
	"strings"
)

// Bounds is the accepted price range. Values outside it are treated as
// extraction artifacts (ad prices, seat fees, corrupt matches) and
// dropped. The range is policy, not business logic, so it is
// configurable.
type Bounds struct {
	Min float64
	Max float64
}

func (b *Bounds) defaults() {
	if b.Min <= 0 {
		b.Min = 50
	}
	if b.Max <= 0 {
		b.Max = 10000
	}
}

// Contains reports whether p is a plausible fare.
func (b Bounds) Contains(p float64) bool {
	return p >= b.Min && p <= b.Max
}

// amountPat matches grouped amounts (1.234,56 / 1,234.56 / 1 234) and
// plain ones (620 / 620.50 / 78950).
const amountPat = `\d{1,3}(?:[.,\x{a0} ]\d{3})+(?:[.,]\d{1,2})?|\d+(?:[.,]\d{1,2})?`

var (
	// €620, $ 1,234.56, £99
	symbolFirstRe = regexp.MustCompile(`([€$£])\s?(` + amountPat + `)`)
	// 620 €, 1.234,56 EUR
	symbolLastRe = regexp.MustCompile(`(` + amountPat + `)\s?(€|\$|£|EUR|USD|GBP|ARS)`)
)

var symbolCurrency = map[string]string{
	"€": "EUR",
	"$": "USD",
	"£": "GBP",
}

// priceMatch is one price found in free text.
type priceMatch struct {
	value    float64
	currency string
}

// findPrices scans text for currency-denominated amounts, both
// symbol-first (€620) and symbol-last (620 €) forms. defCurrency is the
// fallback when the matched token maps to no known code.
func findPrices(text, defCurrency string) []priceMatch {
	var out []priceMatch
	var taken [][2]int // byte ranges already consumed by symbol-first matches

	for _, m := range symbolFirstRe.FindAllStringSubmatchIndex(text, -1) {
		taken = append(taken, [2]int{m[0], m[1]})
		amount, ok := parseAmount(text[m[4]:m[5]])
		if !ok {
			continue
		}
		out = append(out, priceMatch{value: amount, currency: currencyFor(text[m[2]:m[3]], defCurrency)})
	}

	for _, m := range symbolLastRe.FindAllStringSubmatchIndex(text, -1) {
		if overlaps(taken, m[0], m[1]) {
			continue
		}
		amount, ok := parseAmount(text[m[2]:m[3]])
		if !ok {
			continue
		}
		out = append(out, priceMatch{value: amount, currency: currencyFor(text[m[4]:m[5]], defCurrency)})
	}

	return out
}

func overlaps(taken [][2]int, start, end int) bool {
	for _, r := range taken {
		if start < r[1] && end > r[0] {
			return true
		}
	}
	return false
}

func currencyFor(sym, def string) string {
	if c, ok := symbolCurrency[sym]; ok {
		return c
	}
	if len(sym) == 3 {
		return sym
	}
	return def
}

// parseAmount normalizes locale-dependent separators. When both '.'
// and ',' appear, the last one is the decimal separator. A single
// separator followed by exactly three digits is read as a thousands
// separator.
func parseAmount(s string) (float64, bool) {
	s = strings.Map(func(r rune) rune {
		if r == ' ' || r == '\u00a0' {
			return -1
		}
		return r
	}, s)

	lastDot := strings.LastIndexByte(s, '.')
	lastComma := strings.LastIndexByte(s, ',')

	var dec byte
	switch {
	case lastDot >= 0 && lastComma >= 0:
		if lastDot > lastComma {
			dec = '.'
		} else {
			dec = ','
		}
	case lastDot >= 0 && len(s)-lastDot-1 != 3:
		dec = '.'
	case lastComma >= 0 && len(s)-lastComma-1 != 3:
		dec = ','
	}

	var sb strings.Builder
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '.', ',':
			if c == dec && (i == lastDot || i == lastComma) {
				sb.WriteByte('.')
			}
		default:
			sb.WriteByte(c)
		}
	}

	v, err := strconv.ParseFloat(sb.String(), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
