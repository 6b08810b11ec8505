package vault

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/elys-network/yieldkeeper/internal/logger"
	"github.com/elys-network/yieldkeeper/internal/types"
	"github.com/elys-network/yieldkeeper/internal/wallet"
)

// Error definitions for contract calls
var (
	ErrChainQuery      = errors.New("chain query failed")
	ErrChainSubmission = errors.New("chain submission failed")
	ErrInvalidAmount   = errors.New("amount is invalid")
	ErrInvalidResponse = errors.New("response data is invalid")
)

var parsedFarmABI = mustParseABI(LeveragedYieldFarmABI)

func mustParseABI(definition string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(definition))
	if err != nil {
		panic(fmt.Sprintf("invalid farm ABI: %v", err))
	}
	return parsed
}

// FarmClient talks to a deployed LeveragedYieldFarm through a go-ethereum bound contract.
type FarmClient struct {
	address  common.Address
	contract *bind.BoundContract
	signer   *wallet.Signer
	logger   zerolog.Logger
}

var _ Farm = (*FarmClient)(nil)

// NewFarmClient binds the farm at address. The signer is used for deposit and withdraw.
func NewFarmClient(address common.Address, backend bind.ContractBackend, signer *wallet.Signer) (*FarmClient, error) {
	if address == (common.Address{}) {
		return nil, errors.New("farm contract address cannot be zero")
	}
	if backend == nil {
		return nil, errors.New("contract backend cannot be nil")
	}
	if signer == nil {
		return nil, errors.New("signer cannot be nil")
	}

	client := &FarmClient{
		address:  address,
		contract: bind.NewBoundContract(address, parsedFarmABI, backend, backend, backend),
		signer:   signer,
		logger:   logger.GetForComponent("farm_client"),
	}

	client.logger.Debug().
		Str("contract", address.Hex()).
		Str("signer", signer.Address.Hex()).
		Msg("Farm client bound")

	return client, nil
}

// GetPositionInfo calls getPositionInfo(asset) at the latest block.
func (f *FarmClient) GetPositionInfo(ctx context.Context, asset common.Address) (types.PositionSnapshot, error) {
	var out []interface{}
	err := f.contract.Call(&bind.CallOpts{Context: ctx}, &out, methodGetPositionInfo, asset)
	if err != nil {
		return types.PositionSnapshot{}, errors.Join(ErrChainQuery, fmt.Errorf("getPositionInfo(%s): %w", asset.Hex(), err))
	}
	if len(out) != 3 {
		return types.PositionSnapshot{}, errors.Join(ErrChainQuery, ErrInvalidResponse, fmt.Errorf("getPositionInfo returned %d values, want 3", len(out)))
	}

	values := make([]sdkmath.Int, 3)
	for i := range out {
		raw, ok := out[i].(*big.Int)
		if !ok || raw == nil || raw.Sign() < 0 {
			return types.PositionSnapshot{}, errors.Join(ErrChainQuery, ErrInvalidResponse, fmt.Errorf("getPositionInfo value %d is not a uint256", i))
		}
		values[i] = sdkmath.NewIntFromBigInt(raw)
	}

	snapshot := types.PositionSnapshot{Supplied: values[0], Borrowed: values[1], Rewards: values[2]}

	f.logger.Debug().
		Str("asset", asset.Hex()).
		Str("supplied", snapshot.Supplied.String()).
		Str("borrowed", snapshot.Borrowed.String()).
		Str("rewards", snapshot.Rewards.String()).
		Msg("Position info read")

	return snapshot, nil
}

// Deposit submits deposit(asset, amount, leverage).
func (f *FarmClient) Deposit(ctx context.Context, asset common.Address, amount sdkmath.Int, leverage uint64) (string, error) {
	if err := validateAmount(amount); err != nil {
		return "", errors.Join(ErrChainSubmission, err)
	}
	if leverage == 0 {
		return "", errors.Join(ErrChainSubmission, errors.New("leverage cannot be zero"))
	}
	return f.transact(ctx, methodDeposit, asset, amount.BigInt(), new(big.Int).SetUint64(leverage))
}

// Withdraw submits withdraw(asset, amount).
func (f *FarmClient) Withdraw(ctx context.Context, asset common.Address, amount sdkmath.Int) (string, error) {
	if err := validateAmount(amount); err != nil {
		return "", errors.Join(ErrChainSubmission, err)
	}
	return f.transact(ctx, methodWithdraw, asset, amount.BigInt())
}

func (f *FarmClient) transact(ctx context.Context, method string, params ...interface{}) (string, error) {
	tx, err := f.contract.Transact(f.signer.TransactOpts(ctx), method, params...)
	if err != nil {
		return "", errors.Join(ErrChainSubmission, fmt.Errorf("%s: %w", method, err))
	}

	f.logger.Info().
		Str("method", method).
		Str("txHash", tx.Hash().Hex()).
		Uint64("nonce", tx.Nonce()).
		Msg("Transaction submitted")

	return tx.Hash().Hex(), nil
}

func validateAmount(amount sdkmath.Int) error {
	if amount.IsNil() {
		return errors.Join(ErrInvalidAmount, errors.New("amount is nil"))
	}
	if !amount.IsPositive() {
		return errors.Join(ErrInvalidAmount, fmt.Errorf("amount must be positive, got %s", amount))
	}
	return nil
}
