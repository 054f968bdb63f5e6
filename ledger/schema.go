package ledger

import "database/sql"

// Schema is the fare ledger schema. The UNIQUE index on fingerprint is
// what makes item recording idempotent: replaying a run re-inserts
// nothing.
const Schema = `
-- Normalized fare items, one row per extracted offer
CREATE TABLE IF NOT EXISTS fares (
    id             TEXT PRIMARY KEY,
    origin         TEXT NOT NULL,
    destination    TEXT NOT NULL,
    travel_date    TEXT NOT NULL,
    price          REAL NOT NULL,
    currency       TEXT NOT NULL,
    airline        TEXT NOT NULL DEFAULT '',
    departure_time TEXT NOT NULL DEFAULT '',
    arrival_time   TEXT NOT NULL DEFAULT '',
    duration_min   INTEGER NOT NULL DEFAULT 0,
    stops          INTEGER NOT NULL DEFAULT -1,
    source         TEXT NOT NULL DEFAULT '',
    fingerprint    TEXT NOT NULL,
    recorded_at    INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_fares_fingerprint ON fares(fingerprint);
CREATE INDEX IF NOT EXISTS idx_fares_route ON fares(origin, destination, travel_date, price);

-- Batch runs (observability)
CREATE TABLE IF NOT EXISTS runs (
    run_id        TEXT PRIMARY KEY,
    started_at    INTEGER NOT NULL,
    finished_at   INTEGER NOT NULL,
    duration_ms   INTEGER NOT NULL,
    route_count   INTEGER NOT NULL,
    found_count   INTEGER NOT NULL,
    blocked_count INTEGER NOT NULL,
    error_count   INTEGER NOT NULL,
    summary_json  TEXT NOT NULL DEFAULT '{}'
);
CREATE INDEX IF NOT EXISTS idx_runs_time ON runs(started_at DESC);
`

// ApplySchema creates all tables and indexes on the given database.
func ApplySchema(db *sql.DB) error {
	_, err := db.Exec(Schema)
	return err
}
