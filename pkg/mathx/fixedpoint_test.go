package mathx

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditline/core"
)

func TestMulDivDown(t *testing.T) {
	out, err := MulDivDown(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(33), out.Int64())

	out, err = MulDivDown(big.NewInt(6), big.NewInt(5), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Int64())
}

func TestMulDivUp(t *testing.T) {
	out, err := MulDivUp(big.NewInt(10), big.NewInt(10), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(34), out.Int64())

	// exact multiples do not round up
	out, err = MulDivUp(big.NewInt(6), big.NewInt(5), big.NewInt(3))
	require.NoError(t, err)
	assert.Equal(t, int64(10), out.Int64())
}

func TestMulDivOverflow(t *testing.T) {
	huge := new(big.Int).Lsh(big.NewInt(1), 255)
	_, err := MulDivDown(huge, huge, big.NewInt(1))
	assert.ErrorIs(t, err, core.ErrArithmeticOverflow)

	_, err = MulDivUp(huge, huge, big.NewInt(1))
	assert.ErrorIs(t, err, core.ErrArithmeticOverflow)
}

func TestMulDivPanicsOnZeroDenominator(t *testing.T) {
	assert.Panics(t, func() {
		MulDivDown(big.NewInt(1), big.NewInt(1), new(big.Int))
	})
}

func TestWTaylorCompounded(t *testing.T) {
	// 10% per year continuous, one year elapsed.
	secondsPerYear := int64(365 * 24 * 3600)
	rate := new(big.Int).Quo(new(big.Int).Quo(WAD, big.NewInt(10)), big.NewInt(secondsPerYear))

	growth, err := WTaylorCompounded(rate, secondsPerYear)
	require.NoError(t, err)

	// e^0.1 - 1 = 0.10517...; the 3-term expansion gives 0.1051666...
	lo, _ := new(big.Int).SetString("105100000000000000", 10)
	hi, _ := new(big.Int).SetString("105200000000000000", 10)
	assert.True(t, growth.Cmp(lo) > 0, "growth %s too small", growth)
	assert.True(t, growth.Cmp(hi) < 0, "growth %s too large", growth)
}

func TestWTaylorCompoundedZero(t *testing.T) {
	out, err := WTaylorCompounded(new(big.Int), 1000)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	out, err = WTaylorCompounded(WAD, 0)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())
}

func TestWTaylorCompoundedMonotonic(t *testing.T) {
	rate := new(big.Int).Quo(WAD, big.NewInt(31_536_000*20)) // 5% per year
	prev := new(big.Int)
	for _, elapsed := range []int64{1, 60, 3600, 86400, 604800, 31_536_000} {
		out, err := WTaylorCompounded(rate, elapsed)
		require.NoError(t, err)
		assert.True(t, out.Cmp(prev) > 0, "not monotonic at %d", elapsed)
		prev = out
	}
}

func TestBpsMulDown(t *testing.T) {
	out, err := BpsMulDown(big.NewInt(1_000_000), 2500)
	require.NoError(t, err)
	assert.Equal(t, int64(250_000), out.Int64())
}
