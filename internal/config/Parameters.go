/*

This file contains the static strategy parameters for the keeper.

They are compile-time constants on purpose: changing a threshold or the asset list is a deploy,
not a runtime input.

*/

package config

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/yieldkeeper/internal/types"
)

// Strategy holds the thresholds and sizing used by the decision loop.
type Strategy struct {
	// DepositTriggerAPY: deposit when the estimate is strictly above this percentage.
	DepositTriggerAPY float64
	// WithdrawTriggerAPY: withdraw when the estimate is strictly below this percentage.
	WithdrawTriggerAPY float64
	// DepositNotional is the deposit size in whole units, scaled by each asset's decimals.
	DepositNotional int64
	// Leverage is the multiplier passed to the farm's deposit method.
	Leverage uint64
	// WithdrawDivisor: a withdrawal takes supplied / WithdrawDivisor.
	WithdrawDivisor int64
	// Assets are evaluated in slice order.
	Assets []types.AssetDescriptor
}

// DefaultStrategy is the production parameter set.
var DefaultStrategy = Strategy{
	DepositTriggerAPY:  5.0, // 5% APY
	WithdrawTriggerAPY: 2.0, // 2% APY
	DepositNotional:    1000,
	Leverage:           3,
	WithdrawDivisor:    2, // withdraw half of the supplied amount
	Assets: []types.AssetDescriptor{
		{Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Symbol: "USDC", Decimals: 6},
	},
}

// DepositAmount returns the deposit notional in the asset's base units.
func (s Strategy) DepositAmount(asset types.AssetDescriptor) sdkmath.Int {
	return sdkmath.NewInt(s.DepositNotional).Mul(sdkmath.NewIntWithDecimal(1, asset.Decimals))
}

// Validate rejects parameter sets the decision loop cannot act on safely.
func (s Strategy) Validate() error {
	if math.IsNaN(s.DepositTriggerAPY) || math.IsInf(s.DepositTriggerAPY, 0) ||
		math.IsNaN(s.WithdrawTriggerAPY) || math.IsInf(s.WithdrawTriggerAPY, 0) {
		return errors.New("strategy thresholds must be finite")
	}
	if s.WithdrawTriggerAPY >= s.DepositTriggerAPY {
		return fmt.Errorf("withdraw trigger (%.2f%%) must be below deposit trigger (%.2f%%)", s.WithdrawTriggerAPY, s.DepositTriggerAPY)
	}
	if s.DepositNotional <= 0 {
		return errors.New("deposit notional must be positive")
	}
	if s.Leverage == 0 {
		return errors.New("leverage cannot be zero")
	}
	if s.WithdrawDivisor <= 0 {
		return errors.New("withdraw divisor must be positive")
	}
	if len(s.Assets) == 0 {
		return errors.New("at least one supported asset is required")
	}

	seen := make(map[common.Address]struct{}, len(s.Assets))
	for i, asset := range s.Assets {
		if asset.Address == (common.Address{}) {
			return fmt.Errorf("asset %d (%s) has a zero address", i, asset.Symbol)
		}
		if asset.Symbol == "" {
			return fmt.Errorf("asset %d has an empty symbol", i)
		}
		if asset.Decimals < 0 || asset.Decimals > 36 {
			return fmt.Errorf("asset %s has invalid decimals %d", asset.Symbol, asset.Decimals)
		}
		if _, dup := seen[asset.Address]; dup {
			return fmt.Errorf("asset %s is listed twice", asset.Symbol)
		}
		seen[asset.Address] = struct{}{}
	}
	return nil
}
