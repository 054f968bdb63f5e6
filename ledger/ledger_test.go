package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/hazyhaar/fareveille/batch"
	"github.com/hazyhaar/fareveille/dbopen"
	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/search"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

var testReq = search.Request{Origin: "MAD", Destination: "EZE", Date: "2026-03-28"}

func testStore(t *testing.T) *Store {
	t.Helper()
	return NewStore(dbopen.OpenMemory(t, dbopen.WithSchema(Schema)))
}

func TestRecordItems_IdempotentByFingerprint(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	items := []extract.Item{
		{Price: 620, Currency: "EUR", Airline: "Iberia", Fingerprint: "fp-620"},
		{Price: 780, Currency: "EUR", Airline: "Iberia", Fingerprint: "fp-780"},
	}

	n, err := s.RecordItems(ctx, testReq, items)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("expected 2 inserted, got %d", n)
	}

	// Replaying the same extraction inserts nothing.
	n, err = s.RecordItems(ctx, testReq, items)
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Fatalf("expected 0 inserted on replay, got %d", n)
	}
}

func TestBestPrice(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	if _, ok, err := s.BestPrice(ctx, "MAD", "EZE", "2026-03-28"); err != nil || ok {
		t.Fatalf("expected no price yet, ok=%v err=%v", ok, err)
	}

	_, err := s.RecordItems(ctx, testReq, []extract.Item{
		{Price: 780, Currency: "EUR", Fingerprint: "a"},
		{Price: 620, Currency: "EUR", Fingerprint: "b"},
	})
	if err != nil {
		t.Fatal(err)
	}

	price, ok, err := s.BestPrice(ctx, "MAD", "EZE", "2026-03-28")
	if err != nil || !ok {
		t.Fatalf("expected price, ok=%v err=%v", ok, err)
	}
	if price != 620 {
		t.Fatalf("expected 620, got %.2f", price)
	}
}

func TestRecordRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	sum := &batch.Summary{
		RunID:      "run_test",
		StartedAt:  time.Now().Add(-time.Minute),
		FinishedAt: time.Now(),
		DurationMs: 60000,
		Results: []batch.RouteReport{
			{Request: testReq, Status: search.StatusOK, Found: true, ItemCount: 2},
		},
		FoundCount: 1,
	}

	if err := s.RecordRun(ctx, sum); err != nil {
		t.Fatal(err)
	}

	var found int
	if err := s.db.QueryRowContext(ctx,
		"SELECT found_count FROM runs WHERE run_id = 'run_test'").Scan(&found); err != nil {
		t.Fatal(err)
	}
	if found != 1 {
		t.Fatalf("expected found_count 1, got %d", found)
	}
}
