package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSharesEmptyPool(t *testing.T) {
	zero := new(big.Int)

	// First deposit against an empty pool prices one asset at the virtual
	// share ratio.
	shares, err := ToSharesDown(big.NewInt(5), zero, zero)
	require.NoError(t, err)
	assert.Equal(t, 5*VirtualShares.Int64(), shares.Int64())

	assets, err := ToAssetsDown(shares, zero, zero)
	require.NoError(t, err)
	assert.Equal(t, int64(5), assets.Int64())
}

func TestSharesRoundTripNeverCreatesValue(t *testing.T) {
	totalAssets := big.NewInt(1_234_567)
	totalShares := big.NewInt(999_999_999)

	for _, amount := range []int64{1, 2, 3, 7, 999, 123_456} {
		assets := big.NewInt(amount)

		down, err := ToSharesDown(assets, totalAssets, totalShares)
		require.NoError(t, err)
		back, err := ToAssetsDown(down, totalAssets, totalShares)
		require.NoError(t, err)
		assert.True(t, back.Cmp(assets) <= 0, "down round-trip inflated %d", amount)

		up, err := ToSharesUp(assets, totalAssets, totalShares)
		require.NoError(t, err)
		assert.True(t, up.Cmp(down) >= 0)

		// Up exceeds down by at most one share.
		diff := new(big.Int).Sub(up, down)
		assert.True(t, diff.Cmp(big.NewInt(1)) <= 0)
	}
}

func TestAssetsUpDominatesAssetsDown(t *testing.T) {
	totalAssets := big.NewInt(777_001)
	totalShares := big.NewInt(500_000_003)

	shares := big.NewInt(12_345_678)
	down, err := ToAssetsDown(shares, totalAssets, totalShares)
	require.NoError(t, err)
	up, err := ToAssetsUp(shares, totalAssets, totalShares)
	require.NoError(t, err)

	assert.True(t, up.Cmp(down) >= 0)
	diff := new(big.Int).Sub(up, down)
	assert.True(t, diff.Cmp(big.NewInt(1)) <= 0)
}
