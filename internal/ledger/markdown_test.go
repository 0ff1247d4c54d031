package ledger

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLinearMarkdownRamp(t *testing.T) {
	principal := big.NewInt(1_000_000)
	full := 60 * day

	zero, err := LinearMarkdown(principal, 0, full)
	require.NoError(t, err)
	assert.Zero(t, zero.Sign())

	half, err := LinearMarkdown(principal, 30*day, full)
	require.NoError(t, err)
	assert.Equal(t, int64(500_000), half.Int64())

	capped, err := LinearMarkdown(principal, 60*day, full)
	require.NoError(t, err)
	assert.Equal(t, principal.Int64(), capped.Int64())

	// Past the full period the markdown stays clamped at 100%.
	over, err := LinearMarkdown(principal, 400*day, full)
	require.NoError(t, err)
	assert.Equal(t, principal.Int64(), over.Int64())
}

func TestLinearMarkdownMonotonic(t *testing.T) {
	principal := big.NewInt(777_777)
	full := 60 * day

	prev := new(big.Int)
	for d := int64(0); d <= 70; d++ {
		cur, err := LinearMarkdown(principal, d*day, full)
		require.NoError(t, err)
		assert.True(t, cur.Cmp(prev) >= 0, "markdown decreased at day %d", d)
		assert.True(t, cur.Cmp(principal) <= 0, "markdown exceeded principal at day %d", d)
		prev = cur
	}
}

func TestLinearMarkdownEdgeInputs(t *testing.T) {
	out, err := LinearMarkdown(nil, day, 60*day)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	out, err = LinearMarkdown(big.NewInt(0), day, 60*day)
	require.NoError(t, err)
	assert.Zero(t, out.Sign())

	// A zero full period writes the whole principal down at onset.
	out, err = LinearMarkdown(big.NewInt(500), 1, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(500), out.Int64())
}
