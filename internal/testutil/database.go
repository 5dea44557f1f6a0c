// Package testutil provides database helpers for integration tests.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	_ "github.com/lib/pq"
)

// SetupTestDB connects to the database named by TEST_DATABASE_URL, skipping
// the test when it is unset. The schema from migrations/ must already be
// applied.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	connStr := os.Getenv("TEST_DATABASE_URL")
	if connStr == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	if err := db.Ping(); err != nil {
		t.Fatalf("Failed to ping test database: %v", err)
	}
	return db
}

// SetupTestTransaction begins a transaction that is rolled back when the test
// ends, so tests never leave rows behind.
func SetupTestTransaction(t *testing.T) (*sql.DB, *sql.Tx) {
	t.Helper()

	db := SetupTestDB(t)
	tx, err := db.BeginTx(context.Background(), nil)
	if err != nil {
		db.Close()
		t.Fatalf("Failed to begin transaction: %v", err)
	}

	t.Cleanup(func() {
		tx.Rollback()
		db.Close()
	})
	return db, tx
}

// CleanupTestDB removes all intake data. Use when a test needs committed rows
// instead of a rolled-back transaction.
func CleanupTestDB(t *testing.T, db *sql.DB) {
	t.Helper()

	_, err := db.Exec(`TRUNCATE TABLE care_plans, orders, medication_history, patient_diagnoses, patients, providers CASCADE`)
	if err != nil {
		t.Logf("Warning: Failed to clean up test data: %v", err)
	}
}
