package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"
)

// ErrRunNotFound is returned when a run id has no keeper_runs row.
var ErrRunNotFound = errors.New("run not found")

// RunSummary is one keeper_runs row.
type RunSummary struct {
	RunID             string    `json:"run_id"`
	RunNumber         int       `json:"run_number"`
	Status            string    `json:"status"`
	StartedAt         time.Time `json:"started_at"`
	FinishedAt        time.Time `json:"finished_at"`
	AssetsEvaluated   int       `json:"assets_evaluated"`
	TransactionHashes []string  `json:"transaction_hashes"`
	ErrorMessage      string    `json:"error_message,omitempty"`
}

// ActionRecord is one keeper_actions row. Amount is kept as the decimal string of base units.
type ActionRecord struct {
	AssetAddress string    `json:"asset_address"`
	AssetSymbol  string    `json:"asset_symbol"`
	ActionType   string    `json:"action_type"`
	Amount       string    `json:"amount"`
	Leverage     *int64    `json:"leverage,omitempty"`
	TxHash       string    `json:"tx_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// LedgerSummary aggregates the whole ledger.
type LedgerSummary struct {
	TotalRuns   int    `json:"total_runs"`
	FailedRuns  int    `json:"failed_runs"`
	Deposits    int    `json:"deposits"`
	Withdrawals int    `json:"withdrawals"`
	LastRunAt   string `json:"last_run_at,omitempty"`
}

// GetRecentRuns retrieves the latest runs, newest first.
func GetRecentRuns(ctx context.Context, limit int) ([]RunSummary, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	query := `
		SELECT
			run_id, run_number, status, started_at, finished_at,
			assets_evaluated, transaction_hashes, error_message
		FROM keeper_runs
		ORDER BY started_at DESC
		LIMIT $1`

	rows, err := DB.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent runs: %w", err)
	}
	defer rows.Close()

	runs := make([]RunSummary, 0, limit)
	for rows.Next() {
		var run RunSummary
		var errorMessage sql.NullString
		if err := rows.Scan(
			&run.RunID, &run.RunNumber, &run.Status, &run.StartedAt, &run.FinishedAt,
			&run.AssetsEvaluated, pq.Array(&run.TransactionHashes), &errorMessage,
		); err != nil {
			log.Error().Err(err).Msg("Failed to scan run row")
			continue // Skip this row and continue with others
		}
		run.ErrorMessage = errorMessage.String
		runs = append(runs, run)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	log.Debug().Int("count", len(runs)).Int("limit", limit).Msg("Retrieved recent runs")
	return runs, nil
}

// GetRunActions retrieves the submitted transactions of one run.
func GetRunActions(ctx context.Context, runID string) ([]ActionRecord, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	var exists bool
	if err := DB.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM keeper_runs WHERE run_id = $1)`, runID).Scan(&exists); err != nil {
		return nil, fmt.Errorf("failed to look up run %s: %w", runID, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	rows, err := DB.QueryContext(ctx, `
		SELECT asset_address, asset_symbol, action_type, amount::TEXT, leverage, tx_hash, created_at
		FROM keeper_actions
		WHERE run_id = $1
		ORDER BY action_id`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query actions for run %s: %w", runID, err)
	}
	defer rows.Close()

	actions := []ActionRecord{}
	for rows.Next() {
		var a ActionRecord
		var leverage sql.NullInt64
		var txHash sql.NullString
		if err := rows.Scan(&a.AssetAddress, &a.AssetSymbol, &a.ActionType, &a.Amount, &leverage, &txHash, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action row: %w", err)
		}
		if leverage.Valid {
			v := leverage.Int64
			a.Leverage = &v
		}
		a.TxHash = txHash.String
		actions = append(actions, a)
	}
	return actions, rows.Err()
}

// GetLedgerSummary retrieves aggregate counts over all runs.
func GetLedgerSummary(ctx context.Context) (*LedgerSummary, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}

	summary := &LedgerSummary{}
	var lastRun sql.NullTime

	err := DB.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(CASE WHEN status = 'failure' THEN 1 END),
			MAX(started_at)
		FROM keeper_runs`).Scan(&summary.TotalRuns, &summary.FailedRuns, &lastRun)
	if err != nil {
		return nil, fmt.Errorf("failed to get run counts: %w", err)
	}
	if lastRun.Valid {
		summary.LastRunAt = lastRun.Time.UTC().Format(time.RFC3339)
	}

	err = DB.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN action_type = 'DEPOSIT' THEN 1 END),
			COUNT(CASE WHEN action_type = 'WITHDRAW' THEN 1 END)
		FROM keeper_actions`).Scan(&summary.Deposits, &summary.Withdrawals)
	if err != nil {
		return nil, fmt.Errorf("failed to get action counts: %w", err)
	}

	return summary, nil
}
