package vault

import (
	"context"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/types"
)

// DryRunFarm passes reads through and only logs writes.
type DryRunFarm struct {
	next   Farm
	logger zerolog.Logger
}

var _ Farm = (*DryRunFarm)(nil)

func NewDryRunFarm(next Farm) *DryRunFarm {
	return &DryRunFarm{next: next, logger: logger.GetForComponent("farm_dry_run")}
}

func (d *DryRunFarm) GetPositionInfo(ctx context.Context, asset common.Address) (types.PositionSnapshot, error) {
	return d.next.GetPositionInfo(ctx, asset)
}

func (d *DryRunFarm) Deposit(_ context.Context, asset common.Address, amount sdkmath.Int, leverage uint64) (string, error) {
	d.logger.Warn().
		Str("asset", asset.Hex()).
		Str("amount", amount.String()).
		Uint64("leverage", leverage).
		Msg("DRY RUN: deposit not broadcast")
	return "", nil
}

func (d *DryRunFarm) Withdraw(_ context.Context, asset common.Address, amount sdkmath.Int) (string, error) {
	d.logger.Warn().
		Str("asset", asset.Hex()).
		Str("amount", amount.String()).
		Msg("DRY RUN: withdraw not broadcast")
	return "", nil
}
