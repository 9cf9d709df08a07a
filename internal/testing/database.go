// Package testing provides shared test fixtures for watertrace packages.
package testing

import (
	"context"
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hydroline/watertrace/db"
	"github.com/hydroline/watertrace/logger"
	"github.com/hydroline/watertrace/network"
	"github.com/hydroline/watertrace/store"
)

// CreateTestDB creates an in-memory SQLite test database with the watertrace
// schema applied. Automatically registers cleanup via t.Cleanup().
func CreateTestDB(t *testing.T) *sql.DB {
	t.Helper()

	database, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}

	if _, err := database.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("Failed to enable foreign keys: %v", err)
	}

	if err := db.Migrate(database, nil); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	t.Cleanup(func() {
		database.Close()
	})

	return database
}

// CreateTestStore creates an in-memory spatial store seeded with the given
// records, merged through the graph builder exactly as ingest does.
func CreateTestStore(t *testing.T, records []network.Record) *store.SQLStore {
	t.Helper()

	database := CreateTestDB(t)
	s := store.NewSQLStore(database, logger.Logger.Named("test"))

	builder := network.NewBuilder(logger.Logger.Named("test"))
	for _, rec := range records {
		builder.Add(rec)
	}
	g := builder.Build()

	if _, err := s.InsertSnapshot(context.Background(), g); err != nil {
		t.Fatalf("Failed to seed test store: %v", err)
	}

	return s
}
