// Package testutil holds helpers for integration tests that need Postgres.
// They skip when TEST_DATABASE_URL is not set.
package testutil

import (
	"context"
	"database/sql"
	"os"
	"testing"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/Domenick1991/tourbooking/migrations"
)

// NewPool returns a migrated pool. Tables are truncated when the test ends.
func NewPool(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dsn := requireDSN(t)
	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("testutil.NewPool: open pool: %v", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("testutil.NewPool: ping: %v", err)
	}

	db := stdlib.OpenDBFromPool(pool)
	if _, err := migrations.Up(ctx, db); err != nil {
		db.Close()
		pool.Close()
		t.Fatalf("testutil.NewPool: migrate: %v", err)
	}
	db.Close()

	t.Cleanup(func() {
		_, _ = pool.Exec(context.Background(), `TRUNCATE bookings, schedules RESTART IDENTITY CASCADE`)
		pool.Close()
	})
	return pool
}

// NewSQLDB opens a database/sql handle through the pgx driver.
func NewSQLDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := sql.Open("pgx", requireDSN(t))
	if err != nil {
		t.Fatalf("testutil.NewSQLDB: open: %v", err)
	}
	if err := db.PingContext(context.Background()); err != nil {
		db.Close()
		t.Fatalf("testutil.NewSQLDB: ping: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func requireDSN(t *testing.T) string {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping integration test")
	}
	return dsn
}
