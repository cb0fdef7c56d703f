package db

import (
	"path/filepath"
	"testing"
)

func TestBootstrapCreatesSchema(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "library.db")

	database, err := Bootstrap(dbPath)
	if err != nil {
		t.Fatalf("bootstrap: %v", err)
	}
	defer database.Close()

	for _, table := range []string{"songs", "watched_roots", "schema_migrations"} {
		var name string
		err := database.QueryRow(
			"SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?",
			table,
		).Scan(&name)
		if err != nil {
			t.Fatalf("expected table %s to exist: %v", table, err)
		}
	}
}

func TestBootstrapIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "library.db")

	first, err := Bootstrap(dbPath)
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := Bootstrap(dbPath)
	if err != nil {
		t.Fatalf("second bootstrap must reuse applied migrations: %v", err)
	}
	second.Close()
}
