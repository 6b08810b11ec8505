// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"

	"github.com/elys-network/yieldkeeper/internal/config"
)

// DB is a global database connection pool.
var DB *sql.DB

// ErrNotInitialized is returned by every store function before InitDB succeeds.
var ErrNotInitialized = errors.New("database not initialized")

// InitDB initializes the database connection pool.
// A Lambda container serves one invocation at a time, so the pool stays small.
func InitDB(cfg config.DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(4)
	DB.SetMaxIdleConns(2)
	DB.SetConnMaxLifetime(5 * time.Minute)

	if err := PingDB(context.Background()); err != nil {
		DB.Close()
		DB = nil
		return err
	}

	log.Info().Str("host", cfg.Host).Str("db", cfg.DBName).Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS keeper_runs (
		run_id UUID PRIMARY KEY,
		run_number INTEGER NOT NULL,
		status VARCHAR(16) NOT NULL,
		started_at TIMESTAMPTZ NOT NULL,
		finished_at TIMESTAMPTZ NOT NULL,
		assets_evaluated INTEGER NOT NULL DEFAULT 0,
		transaction_hashes TEXT[],
		error_message TEXT
	);
	CREATE INDEX IF NOT EXISTS idx_keeper_runs_started ON keeper_runs(started_at DESC);

	CREATE TABLE IF NOT EXISTS keeper_actions (
		action_id SERIAL PRIMARY KEY,
		run_id UUID NOT NULL REFERENCES keeper_runs(run_id) ON DELETE CASCADE,
		asset_address CHAR(42) NOT NULL,
		asset_symbol VARCHAR(32) NOT NULL,
		action_type VARCHAR(16) NOT NULL,
		amount NUMERIC(78, 0) NOT NULL,
		leverage INTEGER,
		tx_hash VARCHAR(66),
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP
	);
	CREATE INDEX IF NOT EXISTS idx_keeper_actions_run ON keeper_actions(run_id);
	CREATE INDEX IF NOT EXISTS idx_keeper_actions_asset ON keeper_actions(asset_address, created_at DESC);

	-- Single-row counter giving each run a sequential number
	CREATE TABLE IF NOT EXISTS run_counter (
		id INTEGER PRIMARY KEY DEFAULT 1,
		current_run INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT single_row_check CHECK (id = 1)
	);

	INSERT INTO run_counter (id, current_run)
	VALUES (1, 0)
	ON CONFLICT (id) DO NOTHING;
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}

	if _, err := DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// DropSchema removes every ledger table. Used by the reset-db command only.
func DropSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}

	dropSQL := `
		DROP TABLE IF EXISTS keeper_actions CASCADE;
		DROP TABLE IF EXISTS keeper_runs CASCADE;
		DROP TABLE IF EXISTS run_counter CASCADE;
	`
	if _, err := DB.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop ledger tables: %w", err)
	}
	log.Warn().Msg("Ledger tables dropped")
	return nil
}

// PingDB tests if the database connection is healthy
func PingDB(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
