package batch

import (
	"time"

	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/search"
)

// RouteReport is one route's entry in a run summary: status, item
// count, price range, a capped sample of items, and diagnostics.
type RouteReport struct {
	Request     search.Request     `json:"request"`
	Status      search.Status      `json:"status"`
	Found       bool               `json:"found"`
	ItemCount   int                `json:"item_count"`
	MinPrice    float64            `json:"min_price,omitempty"`
	MaxPrice    float64            `json:"max_price,omitempty"`
	Sample      []extract.Item     `json:"sample,omitempty"`
	Diagnostics search.Diagnostics `json:"diagnostics"`
}

// newRouteReport reduces a search result to its summary entry. Items
// arrive sorted ascending, so min/max are the ends.
func newRouteReport(res search.Result, sampleSize int) RouteReport {
	rep := RouteReport{
		Request:     res.Request,
		Status:      res.Status,
		Found:       res.Found,
		ItemCount:   len(res.Items),
		Diagnostics: res.Diagnostics,
	}
	if n := len(res.Items); n > 0 {
		rep.MinPrice = res.Items[0].Price
		rep.MaxPrice = res.Items[n-1].Price
		if n > sampleSize {
			n = sampleSize
		}
		rep.Sample = append([]extract.Item(nil), res.Items[:n]...)
	}
	return rep
}

// Summary aggregates one batch run. Results preserve input order.
type Summary struct {
	RunID      string        `json:"run_id"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt time.Time     `json:"finished_at"`
	DurationMs int64         `json:"duration_ms"`
	Results    []RouteReport `json:"results"`

	FoundCount    int `json:"found_count"`
	NoResultCount int `json:"no_result_count"`
	BlockedCount  int `json:"blocked_count"`
	ErrorCount    int `json:"error_count"`
}

func (s *Summary) add(rep RouteReport) {
	s.Results = append(s.Results, rep)
	switch rep.Status {
	case search.StatusOK:
		s.FoundCount++
	case search.StatusNoResults:
		s.NoResultCount++
	case search.StatusBlocked:
		s.BlockedCount++
	default:
		s.ErrorCount++
	}
}
