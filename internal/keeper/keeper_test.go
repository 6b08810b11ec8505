package keeper

import (
	"context"
	"errors"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldkeeper/internal/analyzer"
	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/types"
)

var (
	usdc = types.AssetDescriptor{Address: common.HexToAddress("0x833589fCD6eDb6E08f4c7C32D4f71b54bdA02913"), Symbol: "USDC", Decimals: 6}
	weth = types.AssetDescriptor{Address: common.HexToAddress("0x4200000000000000000000000000000000000006"), Symbol: "WETH", Decimals: 18}
)

type depositCall struct {
	asset    common.Address
	amount   sdkmath.Int
	leverage uint64
}

type withdrawCall struct {
	asset  common.Address
	amount sdkmath.Int
}

// fakeFarm serves queued snapshots per asset and records every call in order.
type fakeFarm struct {
	positions map[common.Address][]types.PositionSnapshot
	readErr   error
	writeErr  error

	reads     []common.Address
	deposits  []depositCall
	withdraws []withdrawCall
}

func newFakeFarm() *fakeFarm {
	return &fakeFarm{positions: make(map[common.Address][]types.PositionSnapshot)}
}

func (f *fakeFarm) set(asset common.Address, snapshots ...types.PositionSnapshot) {
	f.positions[asset] = snapshots
}

func (f *fakeFarm) GetPositionInfo(_ context.Context, asset common.Address) (types.PositionSnapshot, error) {
	f.reads = append(f.reads, asset)
	if f.readErr != nil {
		return types.PositionSnapshot{}, f.readErr
	}
	queue := f.positions[asset]
	if len(queue) == 0 {
		return types.PositionSnapshot{}, errors.New("no position scripted")
	}
	snapshot := queue[0]
	if len(queue) > 1 {
		f.positions[asset] = queue[1:]
	}
	return snapshot, nil
}

func (f *fakeFarm) Deposit(_ context.Context, asset common.Address, amount sdkmath.Int, leverage uint64) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.deposits = append(f.deposits, depositCall{asset: asset, amount: amount, leverage: leverage})
	return "0xdeposit", nil
}

func (f *fakeFarm) Withdraw(_ context.Context, asset common.Address, amount sdkmath.Int) (string, error) {
	if f.writeErr != nil {
		return "", f.writeErr
	}
	f.withdraws = append(f.withdraws, withdrawCall{asset: asset, amount: amount})
	return "0xwithdraw", nil
}

func snapshot(supplied, borrowed, rewards int64) types.PositionSnapshot {
	return types.PositionSnapshot{
		Supplied: sdkmath.NewInt(supplied),
		Borrowed: sdkmath.NewInt(borrowed),
		Rewards:  sdkmath.NewInt(rewards),
	}
}

// Net position of 1,000,000 base units in every fixture below.
var (
	threePointSixFive = snapshot(2_000_000, 1_000_000, 864_000_000)
	sixPercent        = snapshot(2_000_000, 1_000_000, 16_439*86_400)
	onePercent        = snapshot(2_000_000, 1_000_000, 2_740*86_400)
)

func strategyFor(assets ...types.AssetDescriptor) config.Strategy {
	s := config.DefaultStrategy
	s.Assets = assets
	return s
}

func newTestKeeper(t *testing.T, farm *fakeFarm, assets ...types.AssetDescriptor) *Keeper {
	t.Helper()
	k, err := NewKeeper(Config{Farm: farm, Strategy: strategyFor(assets...)})
	require.NoError(t, err)
	return k
}

func TestNewKeeper_Validation(t *testing.T) {
	_, err := NewKeeper(Config{Strategy: config.DefaultStrategy})
	assert.Error(t, err)

	bad := config.DefaultStrategy
	bad.Leverage = 0
	_, err = NewKeeper(Config{Farm: newFakeFarm(), Strategy: bad})
	assert.Error(t, err)

	_, err = NewKeeper(Config{Farm: newFakeFarm(), Strategy: config.DefaultStrategy})
	assert.NoError(t, err)
}

func TestRunCycle_WithinThresholdsTakesNoAction(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, threePointSixFive)

	result, err := newTestKeeper(t, farm, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, result.Evaluations, 1)
	assert.InDelta(t, 3.65, result.Evaluations[0].APY, 1e-9)
	assert.Equal(t, types.ActionNoOp, result.Evaluations[0].Action)
	assert.Empty(t, result.Submitted())
	assert.Empty(t, farm.deposits)
	assert.Empty(t, farm.withdraws)
	assert.Len(t, farm.reads, 1)
	assert.NotEmpty(t, result.RunID)
}

func TestRunCycle_HighYieldDeposits(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, sixPercent)

	result, err := newTestKeeper(t, farm, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, farm.deposits, 1)
	assert.Empty(t, farm.withdraws)

	call := farm.deposits[0]
	assert.Equal(t, usdc.Address, call.asset)
	assert.True(t, call.amount.Equal(sdkmath.NewInt(1_000_000_000)), "got %s", call.amount)
	assert.Equal(t, uint64(3), call.leverage)

	eval := result.Evaluations[0]
	assert.InDelta(t, 6.0, eval.APY, 1e-9)
	assert.Equal(t, types.ActionDeposit, eval.Action)
	assert.Equal(t, "0xdeposit", eval.TxHash)
	assert.Equal(t, uint64(3), eval.Leverage)
}

func TestRunCycle_DepositScalesByDecimals(t *testing.T) {
	farm := newFakeFarm()
	farm.set(weth.Address, sixPercent)

	_, err := newTestKeeper(t, farm, weth).RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, farm.deposits, 1)
	expected := sdkmath.NewIntWithDecimal(1000, 18)
	assert.True(t, farm.deposits[0].amount.Equal(expected), "got %s", farm.deposits[0].amount)
}

func TestRunCycle_LowYieldWithdrawsHalfOfFreshSupply(t *testing.T) {
	farm := newFakeFarm()
	// The second read is what the withdrawal is sized from.
	farm.set(usdc.Address, onePercent, snapshot(3_000_000, 1_000_000, 0))

	result, err := newTestKeeper(t, farm, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	assert.Empty(t, farm.deposits)
	require.Len(t, farm.withdraws, 1)
	assert.Equal(t, usdc.Address, farm.withdraws[0].asset)
	assert.True(t, farm.withdraws[0].amount.Equal(sdkmath.NewInt(1_500_000)), "got %s", farm.withdraws[0].amount)
	assert.Equal(t, []common.Address{usdc.Address, usdc.Address}, farm.reads)

	eval := result.Evaluations[0]
	assert.InDelta(t, 1.0, eval.APY, 1e-9)
	assert.Equal(t, types.ActionWithdraw, eval.Action)
	assert.Equal(t, "0xwithdraw", eval.TxHash)
}

func TestRunCycle_LowYieldUnchangedPositionWithdrawsHalf(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, onePercent)

	_, err := newTestKeeper(t, farm, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	require.Len(t, farm.withdraws, 1)
	assert.True(t, farm.withdraws[0].amount.Equal(sdkmath.NewInt(1_000_000)))
}

func TestRunCycle_WithdrawRoundingToZeroIsSkipped(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, onePercent, snapshot(1, 0, 0))

	result, err := newTestKeeper(t, farm, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	assert.Empty(t, farm.withdraws)
	assert.Equal(t, types.ActionNoOp, result.Evaluations[0].Action)
}

func TestRunCycle_ReadFailureAbortsWithoutWrites(t *testing.T) {
	farm := newFakeFarm()
	farm.readErr = errors.New("execution reverted")

	result, err := newTestKeeper(t, farm, usdc, weth).RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, farm.readErr)

	assert.Len(t, farm.reads, 1, "no further assets are read after a failure")
	assert.Empty(t, farm.deposits)
	assert.Empty(t, farm.withdraws)
	assert.Empty(t, result.Evaluations)
}

func TestRunCycle_UndefinedYieldAborts(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, snapshot(1_000_000, 1_000_000, 864_000_000))
	farm.set(weth.Address, sixPercent)

	_, err := newTestKeeper(t, farm, usdc, weth).RunCycle(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, analyzer.ErrUndefinedYield)
	assert.Equal(t, []common.Address{usdc.Address}, farm.reads)
	assert.Empty(t, farm.deposits)
}

func TestRunCycle_SubmissionFailureStopsLaterAssets(t *testing.T) {
	farm := newFakeFarm()
	farm.writeErr = errors.New("insufficient funds")
	farm.set(usdc.Address, sixPercent)
	farm.set(weth.Address, threePointSixFive)

	result, err := newTestKeeper(t, farm, usdc, weth).RunCycle(context.Background())
	require.Error(t, err)
	assert.Equal(t, []common.Address{usdc.Address}, farm.reads)
	assert.Empty(t, result.Evaluations)
}

func TestRunCycle_EvaluatesAssetsInListOrder(t *testing.T) {
	farm := newFakeFarm()
	farm.set(usdc.Address, threePointSixFive)
	farm.set(weth.Address, sixPercent)

	result, err := newTestKeeper(t, farm, weth, usdc).RunCycle(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []common.Address{weth.Address, usdc.Address}, farm.reads)
	require.Len(t, result.Evaluations, 2)
	assert.Equal(t, "WETH", result.Evaluations[0].Asset.Symbol)
	assert.Equal(t, "USDC", result.Evaluations[1].Asset.Symbol)
	assert.Len(t, result.Submitted(), 1)
}
