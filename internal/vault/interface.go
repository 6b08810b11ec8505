package vault

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/yieldkeeper/internal/types"
)

// Farm defines the interface for interacting with the leveraged yield farm contract.
// The contract itself is an external service; implementations only translate calls.
type Farm interface {
	// GetPositionInfo returns the supplied, borrowed and accrued reward amounts for an asset.
	// It performs exactly one read-only chain call.
	GetPositionInfo(ctx context.Context, asset common.Address) (types.PositionSnapshot, error)

	// Deposit submits a leveraged deposit and returns the transaction hash without waiting for inclusion.
	Deposit(ctx context.Context, asset common.Address, amount sdkmath.Int, leverage uint64) (string, error)

	// Withdraw submits a withdrawal and returns the transaction hash without waiting for inclusion.
	Withdraw(ctx context.Context, asset common.Address, amount sdkmath.Int) (string, error)
}
