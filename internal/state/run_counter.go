/*

This file manages the persistent run counter.
The counter lives in the database so run numbers keep increasing across cold starts.

*/

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
)

// GetCurrentRunNumber retrieves the last issued run number.
func GetCurrentRunNumber(ctx context.Context) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	var current int
	err := DB.QueryRowContext(ctx, `SELECT current_run FROM run_counter WHERE id = 1;`).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Warn().Msg("No run counter row found, treating as 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current run number: %w", err)
	}
	return current, nil
}

// nextRunNumber increments the counter inside tx and returns the new value.
func nextRunNumber(ctx context.Context, tx *sql.Tx) (int, error) {
	updateQuery := `
		UPDATE run_counter
		SET current_run = current_run + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_run;`

	var next int
	if err := tx.QueryRowContext(ctx, updateQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment run number: %w", err)
	}
	return next, nil
}
