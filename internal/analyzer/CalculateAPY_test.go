package analyzer

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	sdkmath "cosmossdk.io/math"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/yieldkeeper/internal/types"
)

func snap(supplied, borrowed, rewards int64) types.PositionSnapshot {
	return types.PositionSnapshot{
		Supplied: sdkmath.NewInt(supplied),
		Borrowed: sdkmath.NewInt(borrowed),
		Rewards:  sdkmath.NewInt(rewards),
	}
}

func TestEstimateAPY(t *testing.T) {
	tests := []struct {
		name     string
		snapshot types.PositionSnapshot
		want     float64
	}{
		// daily = 10,000; 10,000 * 36,500 / 1,000,000 = 365
		{"reference position", snap(2_000_000, 1_000_000, 864_000_000), 3.65},
		// daily = 16,439; 16,439 * 36,500 / 1,000,000 = 600 (truncated)
		{"above deposit trigger", snap(2_000_000, 1_000_000, 16_439*SecondsPerDay), 6.00},
		// daily = 2,740; 2,740 * 36,500 / 1,000,000 = 100 (truncated)
		{"below withdraw trigger", snap(2_000_000, 1_000_000, 2_740*SecondsPerDay), 1.00},
		{"no rewards", snap(2_000_000, 1_000_000, 0), 0},
		{"rewards below one day window", snap(2_000_000, 0, SecondsPerDay-1), 0},
		{"unleveraged", snap(1_000_000, 0, 864_000_000), 3.65},
		{"borrowed exceeds supplied", snap(1_000_000, 2_000_000, 864_000_000), -3.65},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := EstimateAPY(tt.snapshot)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestEstimateAPY_ZeroNetPositionIsUndefined(t *testing.T) {
	for _, s := range []types.PositionSnapshot{
		snap(0, 0, 0),
		snap(1_000_000, 1_000_000, 864_000_000),
		snap(5, 5, 0),
	} {
		apy, err := EstimateAPY(s)
		assert.ErrorIs(t, err, ErrUndefinedYield)
		assert.Zero(t, apy)
	}
}

func TestEstimateAPY_RejectsMalformedSnapshots(t *testing.T) {
	_, err := EstimateAPY(types.PositionSnapshot{})
	assert.Error(t, err)

	_, err = EstimateAPY(snap(10, 1, -1))
	assert.Error(t, err)
}

func TestEstimateAPY_FiniteAndNonNegativeWhenSuppliedExceedsBorrowed(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 1000; i++ {
		borrowed := rng.Int63n(1 << 40)
		supplied := borrowed + 1 + rng.Int63n(1<<40)
		rewards := rng.Int63()

		apy, err := EstimateAPY(snap(supplied, borrowed, rewards))
		require.NoError(t, err)
		require.False(t, math.IsNaN(apy) || math.IsInf(apy, 0), "apy=%v", apy)
		require.GreaterOrEqual(t, apy, 0.0, "supplied=%d borrowed=%d rewards=%d", supplied, borrowed, rewards)
	}
}

func TestEstimateAPY_MaxUint256Rewards(t *testing.T) {
	maxUint256 := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))
	s := types.PositionSnapshot{
		Supplied: sdkmath.NewIntFromBigInt(maxUint256),
		Borrowed: sdkmath.ZeroInt(),
		Rewards:  sdkmath.NewIntFromBigInt(maxUint256),
	}

	apy, err := EstimateAPY(s)
	require.NoError(t, err)
	// 36,500 / 86,400 < 1, so the integer quotient truncates to zero
	assert.Zero(t, apy)

	s.Supplied = sdkmath.NewIntFromBigInt(new(big.Int).Lsh(big.NewInt(1), 200))
	apy, err = EstimateAPY(s)
	require.NoError(t, err)
	assert.False(t, math.IsInf(apy, 0))
	assert.Greater(t, apy, 0.0)
}
