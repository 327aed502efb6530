package testutil

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/iho/walletledger/internal/domain"
	"github.com/iho/walletledger/internal/infrastructure/postgres"
	"github.com/iho/walletledger/internal/infrastructure/postgres/generated"
)

// TestDB provides a migrated database connection for integration tests.
type TestDB struct {
	Pool    *pgxpool.Pool
	Queries *generated.Queries
	t       *testing.T
}

// NewTestDB connects to TEST_DATABASE_URL and migrates it to the latest schema.
// The test is skipped when the variable is unset or -short is given.
func NewTestDB(t *testing.T) *TestDB {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test")
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	if err := postgres.RunMigrations(dbURL, zerolog.Nop()); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		t.Fatalf("failed to connect to test database: %v", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		t.Fatalf("failed to ping test database: %v", err)
	}

	db := &TestDB{
		Pool:    pool,
		Queries: generated.New(pool),
		t:       t,
	}
	t.Cleanup(db.Cleanup)

	return db
}

// Cleanup closes the database connection.
func (db *TestDB) Cleanup() {
	db.Pool.Close()
}

// TruncateAll removes all data from tables.
func (db *TestDB) TruncateAll(ctx context.Context) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `TRUNCATE TABLE operations, wallets CASCADE`)
	if err != nil {
		db.t.Fatalf("failed to truncate tables: %v", err)
	}
}

// CreateTestWallet inserts an empty wallet directly, bypassing the use cases.
func (db *TestDB) CreateTestWallet(ctx context.Context, currency string) *domain.Wallet {
	db.t.Helper()

	now := time.Now().UTC().Truncate(time.Microsecond)
	id := uuid.NewString()
	ts := pgtype.Timestamptz{Time: now, Valid: true}

	_, err := db.Queries.CreateWallet(ctx, generated.CreateWalletParams{
		ID:        id,
		Currency:  currency,
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		db.t.Fatalf("failed to create test wallet: %v", err)
	}

	return &domain.Wallet{
		ID:        id,
		Currency:  currency,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// ForceBalance overwrites a wallet balance without touching the operation log.
func (db *TestDB) ForceBalance(ctx context.Context, walletID string, balance int64) {
	db.t.Helper()

	_, err := db.Pool.Exec(ctx, `UPDATE wallets SET balance = $2 WHERE id = $1`, walletID, balance)
	if err != nil {
		db.t.Fatalf("failed to force balance: %v", err)
	}
}
