package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq" // PostgreSQL driver for array support
	"github.com/rs/zerolog/log"

	"github.com/elys-network/yieldkeeper/internal/types"
)

// Run status values stored in keeper_runs.status.
const (
	RunStatusSuccess = "success"
	RunStatusFailure = "failure"
)

// Ledger records invocations in the global DB.
type Ledger struct{}

// RecordRun implements the handler's ledger dependency.
func (Ledger) RecordRun(ctx context.Context, result *types.RunResult, runErr error) error {
	_, err := SaveRun(ctx, result, runErr)
	return err
}

// SaveRun stores one keeper_runs row and a keeper_actions row per submitted transaction.
// Everything is written in one transaction; APY estimates are not persisted.
func SaveRun(ctx context.Context, result *types.RunResult, runErr error) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	if result == nil {
		return 0, errors.New("run result cannot be nil")
	}

	status := RunStatusSuccess
	var errorMessage sql.NullString
	if runErr != nil {
		status = RunStatusFailure
		errorMessage = sql.NullString{String: runErr.Error(), Valid: true}
	}

	submitted := result.Submitted()
	hashes := make([]string, 0, len(submitted))
	for _, e := range submitted {
		if e.TxHash != "" {
			hashes = append(hashes, e.TxHash)
		}
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin ledger transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error().Err(rbErr).Msg("Failed to roll back ledger transaction")
			}
		}
	}()

	runNumber, err := nextRunNumber(ctx, tx)
	if err != nil {
		return 0, err
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO keeper_runs (
			run_id, run_number, status, started_at, finished_at,
			assets_evaluated, transaction_hashes, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8);`,
		result.RunID, runNumber, status, result.StartedAt, result.FinishedAt,
		len(result.Evaluations), pq.Array(hashes), errorMessage,
	)
	if err != nil {
		err = fmt.Errorf("failed to insert keeper run: %w", err)
		return 0, err
	}

	for _, e := range submitted {
		var leverage sql.NullInt64
		if e.Action == types.ActionDeposit {
			leverage = sql.NullInt64{Int64: int64(e.Leverage), Valid: true}
		}
		var txHash sql.NullString
		if e.TxHash != "" {
			txHash = sql.NullString{String: e.TxHash, Valid: true}
		}

		_, err = tx.ExecContext(ctx, `
			INSERT INTO keeper_actions (
				run_id, asset_address, asset_symbol, action_type, amount, leverage, tx_hash
			) VALUES ($1, $2, $3, $4, $5, $6, $7);`,
			result.RunID, e.Asset.Address.Hex(), e.Asset.Symbol, string(e.Action), e.Amount.String(), leverage, txHash,
		)
		if err != nil {
			err = fmt.Errorf("failed to insert %s action for %s: %w", e.Action, e.Asset.Symbol, err)
			return 0, err
		}
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("failed to commit ledger transaction: %w", err)
		return 0, err
	}

	log.Info().
		Str("run_id", result.RunID).
		Int("run_number", runNumber).
		Str("status", status).
		Int("actions", len(submitted)).
		Msg("Keeper run saved to database")

	return runNumber, nil
}
