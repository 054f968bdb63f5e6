package extract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// listScan locates a repeated list structure whose entries each carry a
// parseable price — the shape flight results render as. Highest
// confidence: entry text is scoped per offer, so airline, times,
// duration and stop count can be recovered alongside the price.
type listScan struct{}

func (listScan) Name() string { return "list" }

// listSelectors in order of confidence. ARIA list roles are what the
// target actually renders; plain ul/ol cover markup drift.
var listSelectors = []string{
	`[role="list"] > [role="listitem"]`,
	`ul > li`,
	`ol > li`,
}

func (listScan) Extract(doc *goquery.Document, defCurrency string) []Item {
	var best []Item

	for _, sel := range listSelectors {
		var items []Item
		doc.Find(sel).Each(func(_ int, entry *goquery.Selection) {
			text := entry.Text()
			prices := findPrices(text, defCurrency)
			if len(prices) == 0 {
				return
			}
			items = append(items, itemFromText(text, prices[0]))
		})
		// A results list repeats; a lone priced entry is noise.
		if len(items) >= 2 && len(items) > len(best) {
			best = items
		}
	}

	return best
}

// labelScan walks elements carrying a descriptive accessibility label.
// With itineraryOnly set it keeps only entries whose text also looks
// like a flight (time/duration/stops substring), filtering out
// unrelated priced elements such as ads. The broad variant drops that
// filter and is only reached when the rich one finds nothing.
type labelScan struct {
	name          string
	itineraryOnly bool
}

func (s *labelScan) Name() string { return s.name }

func (s *labelScan) Extract(doc *goquery.Document, defCurrency string) []Item {
	var items []Item

	doc.Find("[aria-label]").Each(func(_ int, el *goquery.Selection) {
		label, _ := el.Attr("aria-label")
		combined := label + " " + el.Text()

		prices := findPrices(combined, defCurrency)
		if len(prices) == 0 {
			return
		}
		if s.itineraryOnly && !looksLikeItinerary(combined) {
			return
		}
		items = append(items, itemFromText(combined, prices[0]))
	})

	return items
}

// textScan is the last resort: a regex over the full visible text,
// capped to a small number of matches. Lowest confidence — no
// itinerary context survives, only prices.
type textScan struct {
	cap int
}

func (textScan) Name() string { return "text" }

func (s *textScan) Extract(doc *goquery.Document, defCurrency string) []Item {
	body := doc.Find("body")
	if len(body.Nodes) == 0 {
		return nil
	}

	prices := findPrices(visibleText(body.Nodes[0]), defCurrency)
	if len(prices) > s.cap {
		prices = prices[:s.cap]
	}

	items := make([]Item, 0, len(prices))
	for _, p := range prices {
		items = append(items, Item{Price: p.value, Currency: p.currency, Stops: -1})
	}
	return items
}

// itemFromText builds an Item from entry-scoped text and a price match.
func itemFromText(text string, p priceMatch) Item {
	dep, arr := parseTimes(text)
	return Item{
		Price:         p.value,
		Currency:      p.currency,
		Airline:       parseAirline(text),
		DepartureTime: dep,
		ArrivalTime:   arr,
		DurationMin:   parseDuration(text),
		Stops:         parseStops(text),
	}
}

// visibleText collects text nodes, skipping script/style/noscript
// subtrees, with single-space joining.
func visibleText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			}
		}
		if n.Type == html.TextNode {
			if t := strings.TrimSpace(n.Data); t != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(t)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
