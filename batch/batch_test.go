package batch

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/search"
)

// fakeSearcher returns a scripted result per route key.
type fakeSearcher struct {
	results map[string]search.Result
	calls   []string
}

func (f *fakeSearcher) Search(_ context.Context, req search.Request) search.Result {
	f.calls = append(f.calls, req.RouteKey())
	res, ok := f.results[req.RouteKey()]
	if !ok {
		res = search.Result{Request: req, Status: search.StatusError}
	}
	res.Request = req
	return res
}

func okResult(prices ...float64) search.Result {
	items := make([]extract.Item, len(prices))
	for i, p := range prices {
		items[i] = extract.Item{Price: p, Currency: "EUR"}
	}
	return search.Result{Status: search.StatusOK, Found: true, Items: items}
}

func TestRun_OrderCountsAndPacing(t *testing.T) {
	reqs := []search.Request{
		{Origin: "MAD", Destination: "EZE", Date: "2026-03-28"},
		{Origin: "BCN", Destination: "JFK", Date: "2026-04-02"},
		{Origin: "MAD", Destination: "GRU", Date: "2026-04-10"},
	}
	f := &fakeSearcher{results: map[string]search.Result{
		"MAD-EZE": okResult(620, 780),
		"BCN-JFK": {Status: search.StatusBlocked, Diagnostics: search.Diagnostics{Blocked: true}},
		"MAD-GRU": okResult(430),
	}}

	var slept []time.Duration
	r := New(f, Config{InterSearchDelayMin: 10 * time.Second, InterSearchDelayMax: 30 * time.Second},
		WithSleeper(func(_ context.Context, d time.Duration) error {
			slept = append(slept, d)
			return nil
		}),
		WithDelayPolicy(func(min, _ time.Duration) time.Duration { return min }),
	)

	sum := r.Run(context.Background(), reqs)

	if len(sum.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(sum.Results))
	}
	for i, req := range reqs {
		if sum.Results[i].Request != req {
			t.Fatalf("result %d out of order: got %v", i, sum.Results[i].Request)
		}
	}
	if sum.FoundCount != 2 || sum.BlockedCount != 1 || sum.ErrorCount != 0 {
		t.Fatalf("expected found=2 blocked=1, got found=%d blocked=%d errors=%d",
			sum.FoundCount, sum.BlockedCount, sum.ErrorCount)
	}

	// A delay between each pair of consecutive searches, none before
	// the first; the summed pacing is the elapsed-time floor.
	if len(slept) != 2 {
		t.Fatalf("expected 2 pacing delays, got %d", len(slept))
	}
	var total time.Duration
	for _, d := range slept {
		if d < 10*time.Second || d > 30*time.Second {
			t.Fatalf("delay %v outside configured bounds", d)
		}
		total += d
	}
	if total < 20*time.Second {
		t.Fatalf("expected total pacing >= 20s, got %v", total)
	}

	if !strings.HasPrefix(sum.RunID, "run_") {
		t.Fatalf("expected run_ prefixed id, got %q", sum.RunID)
	}
}

func TestRun_RouteReportShape(t *testing.T) {
	f := &fakeSearcher{results: map[string]search.Result{
		"MAD-EZE": okResult(620, 700, 780, 910, 1200),
	}}
	r := New(f, Config{SampleSize: 3},
		WithSleeper(func(context.Context, time.Duration) error { return nil }))

	sum := r.Run(context.Background(), []search.Request{
		{Origin: "MAD", Destination: "EZE", Date: "2026-03-28"},
	})

	rep := sum.Results[0]
	if rep.ItemCount != 5 {
		t.Fatalf("expected item count 5, got %d", rep.ItemCount)
	}
	if rep.MinPrice != 620 || rep.MaxPrice != 1200 {
		t.Fatalf("expected min/max 620/1200, got %.0f/%.0f", rep.MinPrice, rep.MaxPrice)
	}
	if len(rep.Sample) != 3 {
		t.Fatalf("expected sample capped at 3, got %d", len(rep.Sample))
	}
}

func TestRun_CancelledContextSkipsRemaining(t *testing.T) {
	f := &fakeSearcher{results: map[string]search.Result{"MAD-EZE": okResult(620, 700)}}
	r := New(f, Config{},
		WithSleeper(func(ctx context.Context, _ time.Duration) error { return ctx.Err() }))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum := r.Run(ctx, []search.Request{
		{Origin: "MAD", Destination: "EZE", Date: "2026-03-28"},
		{Origin: "BCN", Destination: "JFK", Date: "2026-04-02"},
	})

	if len(sum.Results) != 0 {
		t.Fatalf("expected no searches after cancellation, got %d", len(sum.Results))
	}
	if len(f.calls) != 0 {
		t.Fatalf("expected searcher untouched, got %v", f.calls)
	}
}
