package search

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/hazyhaar/fareveille/breaker"
	"github.com/hazyhaar/fareveille/ratelimit"
)

const fixtureOK = `<html><body><ul>
	<li>08:00 – 20:10 Iberia nonstop 13 h 10 min €620</li>
	<li>10:30 – 22:15 Iberia nonstop 13 h 45 min €780</li>
	<li>11:05 – 23:20 Iberia nonstop 13 h 15 min €620</li>
	<li>Seat selection from €12</li>
</ul></body></html>`

const fixtureBlocked = `<html><body>
	Our systems have detected unusual traffic from your computer network.
</body></html>`

const fixtureEmpty = `<html><body><p>No flights found for these dates.</p></body></html>`

type stubPage struct {
	html   string
	url    string
	closed bool
}

func (p *stubPage) HTML(context.Context) (string, error)         { return p.html, nil }
func (p *stubPage) FinalURL() string                             { return p.url }
func (p *stubPage) Screenshot(context.Context) ([]byte, error)   { return []byte("png"), nil }
func (p *stubPage) Close() error                                 { p.closed = true; return nil }

// stubBrowser serves one scripted outcome per Open call and counts
// calls. Running past the script repeats the last outcome.
type stubBrowser struct {
	opens   int
	script  []any // string (page HTML) or error
	pages   []*stubPage
}

func (b *stubBrowser) Open(_ context.Context, url string) (Page, error) {
	i := b.opens
	b.opens++
	if i >= len(b.script) {
		i = len(b.script) - 1
	}
	switch v := b.script[i].(type) {
	case error:
		return nil, v
	case string:
		p := &stubPage{html: v, url: url}
		b.pages = append(b.pages, p)
		return p, nil
	}
	panic("stubBrowser: bad script entry")
}

type recordingSleeper struct {
	slept []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) error {
	s.slept = append(s.slept, d)
	return nil
}

type recordingSink struct {
	ids []string
}

func (s *recordingSink) Save(_ context.Context, id, html string, shot []byte) {
	s.ids = append(s.ids, id)
}

var testReq = Request{Origin: "MAD", Destination: "EZE", Date: "2026-03-28"}

func newTestOrchestrator(b Browser, extra ...Option) (*Orchestrator, *recordingSleeper) {
	sl := &recordingSleeper{}
	opts := append([]Option{WithSleeper(sl.sleep), WithJitter(func() float64 { return 0 })}, extra...)
	return New(Config{MaxRetries: 3, RetryBase: time.Second}, b, opts...), sl
}

func TestSearch_EndToEnd(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureOK}}
	o, _ := newTestOrchestrator(b)

	res := o.Search(context.Background(), testReq)

	if res.Status != StatusOK || !res.Found {
		t.Fatalf("expected ok/found, got %s found=%v (%s)", res.Status, res.Found, res.Diagnostics.Error)
	}
	if len(res.Items) != 2 {
		t.Fatalf("expected 2 items (bounds + dedup applied), got %d", len(res.Items))
	}
	if res.Items[0].Price != 620 || res.Items[1].Price != 780 {
		t.Fatalf("expected [620 780], got [%.0f %.0f]", res.Items[0].Price, res.Items[1].Price)
	}
	if res.Diagnostics.Retries != 0 {
		t.Fatalf("expected 0 retries, got %d", res.Diagnostics.Retries)
	}
	if res.Diagnostics.URL == "" {
		t.Fatal("expected target URL in diagnostics")
	}
	if !b.pages[0].closed {
		t.Fatal("expected page closed after attempt")
	}
}

func TestSearch_PausedBreakerSkipsNetwork(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureOK}}
	br := breaker.New(breaker.Config{FailureThreshold: 1, Cooldown: time.Hour})
	br.RecordFailure(testReq.RouteKey())

	o, _ := newTestOrchestrator(b, WithBreaker(br))
	res := o.Search(context.Background(), testReq)

	if res.Status != StatusBlocked {
		t.Fatalf("expected blocked, got %s", res.Status)
	}
	if b.opens != 0 {
		t.Fatalf("expected no browser calls, got %d", b.opens)
	}
	if res.Diagnostics.BlockReason == "" {
		t.Fatal("expected pause reason in diagnostics")
	}
}

func TestSearch_RateLimitedSkipsNetwork(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureOK}}
	l := ratelimit.New(ratelimit.Config{MaxPerHour: 1, MaxPerDay: 10})
	l.Record()

	o, _ := newTestOrchestrator(b, WithLimiter(l))
	res := o.Search(context.Background(), testReq)

	if res.Status != StatusRateLimited {
		t.Fatalf("expected rate-limited, got %s", res.Status)
	}
	if b.opens != 0 {
		t.Fatalf("expected no browser calls, got %d", b.opens)
	}
}

func TestSearch_TransientThenSuccess(t *testing.T) {
	b := &stubBrowser{script: []any{
		errors.New("net::ERR_TIMED_OUT"),
		errors.New("navigation timeout"),
		fixtureOK,
	}}
	o, sl := newTestOrchestrator(b)

	res := o.Search(context.Background(), testReq)

	if res.Status != StatusOK {
		t.Fatalf("expected ok, got %s (%s)", res.Status, res.Diagnostics.Error)
	}
	if res.Diagnostics.Retries != 2 {
		t.Fatalf("expected 2 retries, got %d", res.Diagnostics.Retries)
	}
	if b.opens != 3 {
		t.Fatalf("expected 3 attempts, got %d", b.opens)
	}
	// Zero jitter: backoff doubles from the base.
	if len(sl.slept) != 2 || sl.slept[0] != time.Second || sl.slept[1] != 2*time.Second {
		t.Fatalf("expected backoff [1s 2s], got %v", sl.slept)
	}
}

func TestSearch_BlockedAbortsImmediately(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureBlocked}}
	sink := &recordingSink{}
	o, sl := newTestOrchestrator(b, WithSnapshotSink(sink))

	res := o.Search(context.Background(), testReq)

	if res.Status != StatusBlocked || !res.Diagnostics.Blocked {
		t.Fatalf("expected blocked, got %s", res.Status)
	}
	if res.Diagnostics.Retries != 0 {
		t.Fatalf("expected 0 retries on block, got %d", res.Diagnostics.Retries)
	}
	if b.opens != 1 {
		t.Fatalf("expected a single attempt, got %d", b.opens)
	}
	if len(sl.slept) != 0 {
		t.Fatalf("expected no backoff sleeps, got %v", sl.slept)
	}
	if len(sink.ids) != 1 {
		t.Fatalf("expected 1 snapshot, got %d", len(sink.ids))
	}

	// The breaker was fed: enough blocks pause the route.
	o.Search(context.Background(), testReq)
	o.Search(context.Background(), testReq)
	res = o.Search(context.Background(), testReq)
	if res.Status != StatusBlocked || b.opens != 3 {
		t.Fatalf("expected route paused after threshold, status %s opens %d", res.Status, b.opens)
	}
}

func TestSearch_ExhaustedRetries(t *testing.T) {
	b := &stubBrowser{script: []any{errors.New("net::ERR_CONNECTION_RESET")}}
	o, _ := newTestOrchestrator(b)

	res := o.Search(context.Background(), testReq)

	if res.Status != StatusError {
		t.Fatalf("expected error, got %s", res.Status)
	}
	if b.opens != 3 {
		t.Fatalf("expected 3 attempts, got %d", b.opens)
	}
	if res.Diagnostics.Retries != 2 {
		t.Fatalf("expected 2 retries, got %d", res.Diagnostics.Retries)
	}
	if res.Diagnostics.Error == "" {
		t.Fatal("expected last error surfaced in diagnostics")
	}
}

func TestSearch_CacheHit(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureOK}}
	o, _ := newTestOrchestrator(b)

	first := o.Search(context.Background(), testReq)
	if first.Diagnostics.FromCache {
		t.Fatal("first search must not come from cache")
	}

	second := o.Search(context.Background(), testReq)
	if !second.Diagnostics.FromCache {
		t.Fatal("expected cache hit")
	}
	if b.opens != 1 {
		t.Fatalf("expected a single browser call across both searches, got %d", b.opens)
	}
	if len(second.Items) != len(first.Items) {
		t.Fatalf("expected identical items, got %d vs %d", len(second.Items), len(first.Items))
	}
}

func TestSearch_EmptyResultIsSuccess(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureEmpty}}
	sink := &recordingSink{}
	br := breaker.New(breaker.Config{FailureThreshold: 1, Cooldown: time.Hour})
	o, _ := newTestOrchestrator(b, WithSnapshotSink(sink), WithBreaker(br))

	res := o.Search(context.Background(), testReq)

	if res.Status != StatusNoResults || res.Found {
		t.Fatalf("expected no-results, got %s found=%v", res.Status, res.Found)
	}
	if d := br.Check(testReq.RouteKey()); d.Paused {
		t.Fatal("empty result is a success: breaker must stay closed")
	}
	if len(sink.ids) != 1 {
		t.Fatalf("expected diagnostic snapshot on empty result, got %d", len(sink.ids))
	}
}

func TestSearch_InvalidRequest(t *testing.T) {
	b := &stubBrowser{script: []any{fixtureOK}}
	o, _ := newTestOrchestrator(b)

	res := o.Search(context.Background(), Request{Origin: "Madrid", Destination: "EZE", Date: "2026-03-28"})

	if res.Status != StatusError || b.opens != 0 {
		t.Fatalf("expected validation error without network, got %s opens=%d", res.Status, b.opens)
	}
}
