package keeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/analyzer"
	"github.com/elys-network/yieldkeeper/internal/config"
	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/metrics"
	"github.com/elys-network/yieldkeeper/internal/types"
	"github.com/elys-network/yieldkeeper/internal/utils"
	"github.com/elys-network/yieldkeeper/internal/vault"
)

// Keeper evaluates every configured asset once per cycle and acts on the thresholds.
type Keeper struct {
	logger   zerolog.Logger
	farm     vault.Farm
	strategy config.Strategy
}

// Config holds the dependencies for creating a new Keeper
type Config struct {
	Farm     vault.Farm
	Strategy config.Strategy
}

// NewKeeper creates a Keeper after validating its dependencies.
func NewKeeper(cfg Config) (*Keeper, error) {
	if err := validateKeeperConfig(cfg); err != nil {
		return nil, fmt.Errorf("keeper configuration validation failed: %w", err)
	}

	return &Keeper{
		logger:   logger.GetForComponent("keeper"),
		farm:     cfg.Farm,
		strategy: cfg.Strategy,
	}, nil
}

func validateKeeperConfig(cfg Config) error {
	if cfg.Farm == nil {
		return errors.New("farm cannot be nil")
	}
	return cfg.Strategy.Validate()
}

// RunCycle evaluates the assets sequentially in list order.
// The first error aborts the cycle: no further reads or submissions happen, and the
// partial result (evaluations completed so far) is returned alongside the error.
func (k *Keeper) RunCycle(ctx context.Context) (*types.RunResult, error) {
	result := &types.RunResult{
		RunID:       uuid.New().String(),
		StartedAt:   time.Now().UTC(),
		Evaluations: make([]types.AssetEvaluation, 0, len(k.strategy.Assets)),
	}
	cycleLogger := k.logger.With().Str("run_id", result.RunID).Logger()

	cycleLogger.Info().Int("assets", len(k.strategy.Assets)).Msg("--- Starting keeper cycle ---")

	for _, asset := range k.strategy.Assets {
		evaluation, err := k.evaluateAsset(ctx, cycleLogger, asset)
		if err != nil {
			result.FinishedAt = time.Now().UTC()
			cycleLogger.Error().Err(err).Str("asset", asset.Symbol).Msg("Cycle aborted")
			return result, fmt.Errorf("asset %s: %w", asset.Symbol, err)
		}
		result.Evaluations = append(result.Evaluations, evaluation)
	}

	result.FinishedAt = time.Now().UTC()
	cycleLogger.Info().
		Int("submitted", len(result.Submitted())).
		Str("duration", result.FinishedAt.Sub(result.StartedAt).String()).
		Msg("--- Keeper cycle completed ---")

	return result, nil
}

// evaluateAsset runs read -> estimate -> report -> decide for one asset.
func (k *Keeper) evaluateAsset(ctx context.Context, cycleLogger zerolog.Logger, asset types.AssetDescriptor) (types.AssetEvaluation, error) {
	assetLogger := cycleLogger.With().Str("asset", asset.Symbol).Logger()
	evaluation := types.AssetEvaluation{Asset: asset, Action: types.ActionNoOp}

	snapshot, err := k.farm.GetPositionInfo(ctx, asset.Address)
	if err != nil {
		return evaluation, err
	}
	evaluation.Snapshot = snapshot

	apy, err := analyzer.EstimateAPY(snapshot)
	if err != nil {
		return evaluation, err
	}
	evaluation.APY = apy

	assetLogger.Info().
		Float64("apy", apy).
		Str("supplied", snapshot.Supplied.String()).
		Str("borrowed", snapshot.Borrowed.String()).
		Str("rewards", snapshot.Rewards.String()).
		Msgf("Current APY for %s: %.2f%%", asset.Symbol, apy)
	metrics.ObserveAPY(asset.Symbol, apy)

	switch {
	case apy > k.strategy.DepositTriggerAPY:
		amount := k.strategy.DepositAmount(asset)
		txHash, err := k.farm.Deposit(ctx, asset.Address, amount, k.strategy.Leverage)
		if err != nil {
			return evaluation, err
		}
		evaluation.Action = types.ActionDeposit
		evaluation.Amount = amount
		evaluation.Leverage = k.strategy.Leverage
		evaluation.TxHash = txHash

		assetLogger.Info().
			Str("amount", amount.String()).
			Str("units", utils.MustFormatUnits(amount, asset.Decimals)).
			Uint64("leverage", k.strategy.Leverage).
			Str("txHash", txHash).
			Msgf("Deposited %s %s with %dx leverage", amount, asset.Symbol, k.strategy.Leverage)

	case apy < k.strategy.WithdrawTriggerAPY:
		// Re-read so the amount reflects the position at submission time.
		current, err := k.farm.GetPositionInfo(ctx, asset.Address)
		if err != nil {
			return evaluation, err
		}
		amount := current.Supplied.Quo(sdkmath.NewInt(k.strategy.WithdrawDivisor))
		if !amount.IsPositive() {
			assetLogger.Warn().
				Str("supplied", current.Supplied.String()).
				Msg("Withdraw amount rounds to zero, skipping")
			break
		}

		txHash, err := k.farm.Withdraw(ctx, asset.Address, amount)
		if err != nil {
			return evaluation, err
		}
		evaluation.Action = types.ActionWithdraw
		evaluation.Amount = amount
		evaluation.TxHash = txHash

		assetLogger.Info().
			Str("amount", amount.String()).
			Str("units", utils.MustFormatUnits(amount, asset.Decimals)).
			Str("txHash", txHash).
			Msgf("Withdrawn %s %s", amount, asset.Symbol)

	default:
		assetLogger.Debug().Msg("APY within thresholds, no action")
	}

	metrics.ObserveAction(asset.Symbol, evaluation.Action)
	return evaluation, nil
}
