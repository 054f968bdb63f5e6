// Package ledger is the persistence sink for normalized fare items and
// run summaries. The core search/batch layers never call it directly —
// composition happens in cmd, one layer up.
//
// It receives an already-opened *sql.DB (see dbopen) so tests can hand
// it an in-memory database.
package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hazyhaar/fareveille/batch"
	"github.com/hazyhaar/fareveille/extract"
	"github.com/hazyhaar/fareveille/idgen"
	"github.com/hazyhaar/fareveille/search"
)

// Store wraps the ledger database.
type Store struct {
	db    *sql.DB
	newID idgen.Generator
}

// NewStore creates a Store from an already-opened database.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db, newID: idgen.Prefixed("fare_", idgen.Default)}
}

// RecordItems inserts extracted items for a request, keyed by content
// fingerprint. Already-seen offers are skipped; the returned count is
// the number of genuinely new rows.
func (s *Store) RecordItems(ctx context.Context, req search.Request, items []extract.Item) (int, error) {
	if len(items) == 0 {
		return 0, nil
	}

	now := time.Now().Unix()
	inserted := 0
	for _, it := range items {
		res, err := s.db.ExecContext(ctx, `
			INSERT OR IGNORE INTO fares (
				id, origin, destination, travel_date, price, currency,
				airline, departure_time, arrival_time, duration_min,
				stops, source, fingerprint, recorded_at
			) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			s.newID(), req.Origin, req.Destination, req.Date, it.Price, it.Currency,
			it.Airline, it.DepartureTime, it.ArrivalTime, it.DurationMin,
			it.Stops, it.Source, it.Fingerprint, now)
		if err != nil {
			return inserted, fmt.Errorf("ledger: insert fare: %w", err)
		}
		n, _ := res.RowsAffected()
		inserted += int(n)
	}
	return inserted, nil
}

// RecordRun stores a batch summary, including its full JSON for later
// inspection.
func (s *Store) RecordRun(ctx context.Context, sum *batch.Summary) error {
	raw, err := json.Marshal(sum)
	if err != nil {
		return fmt.Errorf("ledger: marshal summary: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (
			run_id, started_at, finished_at, duration_ms,
			route_count, found_count, blocked_count, error_count, summary_json
		) VALUES (?,?,?,?,?,?,?,?,?)`,
		sum.RunID, sum.StartedAt.Unix(), sum.FinishedAt.Unix(), sum.DurationMs,
		len(sum.Results), sum.FoundCount, sum.BlockedCount, sum.ErrorCount, string(raw))
	if err != nil {
		return fmt.Errorf("ledger: insert run: %w", err)
	}
	return nil
}

// BestPrice returns the lowest recorded fare for a route+date, or
// ok=false when nothing has been recorded yet.
func (s *Store) BestPrice(ctx context.Context, origin, destination, date string) (float64, bool, error) {
	var price sql.NullFloat64
	err := s.db.QueryRowContext(ctx, `
		SELECT MIN(price) FROM fares
		WHERE origin = ? AND destination = ? AND travel_date = ?`,
		origin, destination, date).Scan(&price)
	if err != nil {
		return 0, false, fmt.Errorf("ledger: best price: %w", err)
	}
	if !price.Valid {
		return 0, false, nil
	}
	return price.Float64, true, nil
}
