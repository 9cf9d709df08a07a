package db

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open in-memory db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMigrateCreatesSchema(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db, nil); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	// elements table must exist and accept a row
	_, err := db.Exec(`INSERT INTO elements (short_code, category) VALUES ('FOLSM', 'node')`)
	if err != nil {
		t.Fatalf("insert into elements: %v", err)
	}

	var count int
	if err := db.QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&count); err != nil {
		t.Fatalf("count elements: %v", err)
	}
	if count != 1 {
		t.Errorf("element count = %d, want 1", count)
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := openTestDB(t)

	if err := Migrate(db, nil); err != nil {
		t.Fatalf("first Migrate failed: %v", err)
	}
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("second Migrate failed: %v", err)
	}

	var versions int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&versions); err != nil {
		t.Fatalf("count schema_migrations: %v", err)
	}
	if versions < 2 {
		t.Errorf("applied migrations = %d, want at least 2", versions)
	}
}

func TestMigrateRejectsInvalidCategory(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}

	_, err := db.Exec(`INSERT INTO elements (short_code, category) VALUES ('X', 'pipe')`)
	if err == nil {
		t.Error("expected CHECK constraint failure for invalid category")
	}
}

func TestIsDatabaseClosed(t *testing.T) {
	db := openTestDB(t)
	if err := Migrate(db, nil); err != nil {
		t.Fatalf("Migrate failed: %v", err)
	}
	db.Close()

	var n int
	err := db.QueryRow(`SELECT COUNT(*) FROM elements`).Scan(&n)
	if !IsDatabaseClosed(err) {
		t.Errorf("IsDatabaseClosed(%v) = false, want true", err)
	}
	if IsDatabaseClosed(nil) {
		t.Error("IsDatabaseClosed(nil) = true, want false")
	}
}
