/*

This file contains the types for positions and the per-cycle evaluation record.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// PositionSnapshot is the farm's view of one asset, all amounts in the asset's base unit.
// It is read fresh on every evaluation and never mutated.
type PositionSnapshot struct {
	Supplied sdkmath.Int `json:"supplied"`
	Borrowed sdkmath.Int `json:"borrowed"`
	Rewards  sdkmath.Int `json:"rewards"`
}

// NetPosition returns supplied minus borrowed.
func (p PositionSnapshot) NetPosition() sdkmath.Int {
	return p.Supplied.Sub(p.Borrowed)
}

// ActionType defines the outcome of evaluating one asset.
type ActionType string

const (
	ActionDeposit  ActionType = "DEPOSIT"
	ActionWithdraw ActionType = "WITHDRAW"
	ActionNoOp     ActionType = "NO_OP"
)

// AssetEvaluation records what happened to a single asset during a cycle.
type AssetEvaluation struct {
	Asset    AssetDescriptor  `json:"asset"`
	Snapshot PositionSnapshot `json:"snapshot"`
	APY      float64          `json:"apy"`
	Action   ActionType       `json:"action"`
	Amount   sdkmath.Int      `json:"amount,omitempty"`   // Deposit notional or withdraw amount, base units
	Leverage uint64           `json:"leverage,omitempty"` // Deposit only
	TxHash   string           `json:"tx_hash,omitempty"`  // Empty for NO_OP and dry runs
}

// RunResult aggregates one invocation.
type RunResult struct {
	RunID       string            `json:"run_id"`
	StartedAt   time.Time         `json:"started_at"`
	FinishedAt  time.Time         `json:"finished_at"`
	Evaluations []AssetEvaluation `json:"evaluations"`
}

// Submitted returns the evaluations that produced a contract-mutating call.
func (r *RunResult) Submitted() []AssetEvaluation {
	if r == nil {
		return nil
	}
	out := make([]AssetEvaluation, 0, len(r.Evaluations))
	for _, e := range r.Evaluations {
		if e.Action != ActionNoOp {
			out = append(out, e)
		}
	}
	return out
}
