// Package ledger the market accounting core: share conversions, interest and
// premium accrual, payment-cycle status derivation, markdown math and cap
// checks. Everything here is pure state-struct manipulation; persistence and
// transaction boundaries live in the service layer.
package ledger

import (
	"math/big"

	"creditline/pkg/mathx"
)

// Virtual offsets added to pool totals in every conversion. They pin the
// first depositor's share price and harden the pool against donation attacks
// inflating an empty pool's share price.
var (
	// VirtualShares 1 asset unit prices at 1e6 shares on an empty pool.
	VirtualShares = big.NewInt(1_000_000)
	// VirtualAssets one base unit of the loan asset.
	VirtualAssets = big.NewInt(1)
)

// ToSharesDown assets -> shares, rounding shares down.
func ToSharesDown(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return mathx.MulDivDown(assets, withVirtualShares(totalShares), withVirtualAssets(totalAssets))
}

// ToSharesUp assets -> shares, rounding shares up.
func ToSharesUp(assets, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return mathx.MulDivUp(assets, withVirtualShares(totalShares), withVirtualAssets(totalAssets))
}

// ToAssetsDown shares -> assets, rounding assets down.
func ToAssetsDown(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return mathx.MulDivDown(shares, withVirtualAssets(totalAssets), withVirtualShares(totalShares))
}

// ToAssetsUp shares -> assets, rounding assets up.
func ToAssetsUp(shares, totalAssets, totalShares *big.Int) (*big.Int, error) {
	return mathx.MulDivUp(shares, withVirtualAssets(totalAssets), withVirtualShares(totalShares))
}

func withVirtualShares(totalShares *big.Int) *big.Int {
	return new(big.Int).Add(totalShares, VirtualShares)
}

func withVirtualAssets(totalAssets *big.Int) *big.Int {
	return new(big.Int).Add(totalAssets, VirtualAssets)
}
