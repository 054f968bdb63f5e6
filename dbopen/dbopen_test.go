package dbopen

import (
	"testing"

	_ "modernc.org/sqlite" // register "sqlite" driver
)

func TestOpenMemory_PragmasApplied(t *testing.T) {
	db := OpenMemory(t)

	var fk int
	if err := db.QueryRow("PRAGMA foreign_keys").Scan(&fk); err != nil {
		t.Fatal(err)
	}
	if fk != 1 {
		t.Fatalf("expected foreign_keys=1, got %d", fk)
	}
}

func TestOpen_WithSchema(t *testing.T) {
	db := OpenMemory(t, WithSchema("CREATE TABLE fares (id TEXT PRIMARY KEY)"))

	if _, err := db.Exec("INSERT INTO fares (id) VALUES ('a')"); err != nil {
		t.Fatalf("expected schema applied, got %v", err)
	}
}

func TestOpen_BadSchemaClosesDB(t *testing.T) {
	_, err := Open(":memory:", WithSchema("CREATE BOGUS"))
	if err == nil {
		t.Fatal("expected error for invalid schema")
	}
}
