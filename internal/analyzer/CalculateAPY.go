package analyzer

import (
	"errors"
	"fmt"
	"math"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/yieldkeeper/internal/types"
)

// ErrUndefinedYield indicates the net position is zero, so no yield can be expressed against it.
var ErrUndefinedYield = errors.New("yield is undefined for a zero net position")

const (
	// SecondsPerDay is the reward accrual window: rewards are treated as accumulated over one day.
	SecondsPerDay = 86400
	DaysPerYear   = 365
	// percentScale turns the integer quotient into hundredths of a percent.
	percentScale = 100
)

// EstimateAPY converts a position snapshot into an approximate annual percentage yield.
//
//	net    = supplied - borrowed
//	daily  = rewards / 86400
//	scaled = daily * 365 * 100 / net
//	apy    = scaled / 100
//
// All intermediate steps are integer divisions truncating toward zero, so the result has a
// resolution of 0.01%. This is an approximation and is kept as-is, not a compounding model.
func EstimateAPY(snapshot types.PositionSnapshot) (float64, error) {
	if snapshot.Supplied.IsNil() || snapshot.Borrowed.IsNil() || snapshot.Rewards.IsNil() {
		return 0, errors.New("position snapshot has nil amounts")
	}
	if snapshot.Rewards.IsNegative() {
		return 0, fmt.Errorf("rewards cannot be negative: %s", snapshot.Rewards)
	}

	netPosition := snapshot.NetPosition()
	if netPosition.IsZero() {
		return 0, ErrUndefinedYield
	}

	dailyRewards := snapshot.Rewards.QuoRaw(SecondsPerDay)
	scaled := dailyRewards.MulRaw(DaysPerYear).MulRaw(percentScale).Quo(netPosition)

	apy, err := sdkmath.LegacyNewDecFromInt(scaled).QuoInt64(percentScale).Float64()
	if err != nil {
		return 0, fmt.Errorf("failed to convert APY to float: %w", err)
	}
	if math.IsNaN(apy) || math.IsInf(apy, 0) {
		return 0, fmt.Errorf("APY is not finite: %f", apy)
	}

	return apy, nil
}
