// Package irm interest rate model implementations selectable per market.
package irm

import (
	"context"
	"math/big"

	"github.com/shopspring/decimal"

	"creditline/core"
	"creditline/pkg/mathx"
)

// SecondsPerYear accrual is continuous; yearly rates are scaled down to
// per-second before compounding.
const SecondsPerYear = 31_536_000

// JumpRate the kinked utilization curve: a base rate plus a multiplier slope
// up to the kink utilization, then a steeper jump multiplier beyond it.
type JumpRate struct {
	name           string
	baseRate       *big.Int // WAD per year
	multiplier     *big.Int // WAD per year
	jumpMultiplier *big.Int // WAD per year
	kink           *big.Int // WAD utilization
}

// NewJumpRate rates are yearly decimals, e.g. 0.025 for a 2.5% base APR, and
// kink is a utilization fraction, e.g. 0.8.
func NewJumpRate(name string, baseRate, multiplier, jumpMultiplier, kink decimal.Decimal) *JumpRate {
	return &JumpRate{
		name:           name,
		baseRate:       toWAD(baseRate),
		multiplier:     toWAD(multiplier),
		jumpMultiplier: toWAD(jumpMultiplier),
		kink:           toWAD(kink),
	}
}

// Name implements core.InterestRateModel.
func (m *JumpRate) Name() string {
	return m.name
}

// BorrowRatePerSecond implements core.InterestRateModel.
func (m *JumpRate) BorrowRatePerSecond(ctx context.Context, market *core.Market) (*big.Int, error) {
	u, err := utilization(market)
	if err != nil {
		return nil, err
	}

	rate := new(big.Int).Set(m.baseRate)

	normal := mathx.Min(u, m.kink)
	slope, err := mathx.WMulDown(m.multiplier, normal)
	if err != nil {
		return nil, err
	}
	rate.Add(rate, slope)

	if u.Cmp(m.kink) > 0 {
		excess := new(big.Int).Sub(u, m.kink)
		jump, err := mathx.WMulDown(m.jumpMultiplier, excess)
		if err != nil {
			return nil, err
		}
		rate.Add(rate, jump)
	}

	return rate.Quo(rate, big.NewInt(SecondsPerYear)), nil
}

// Fixed a constant-rate model, mostly for tests and bootstrap markets.
type Fixed struct {
	name string
	rate *big.Int // WAD per second
}

// NewFixed yearly decimal rate, e.g. 0.10 for 10% APR.
func NewFixed(name string, yearly decimal.Decimal) *Fixed {
	rate := toWAD(yearly)
	return &Fixed{
		name: name,
		rate: rate.Quo(rate, big.NewInt(SecondsPerYear)),
	}
}

// Name implements core.InterestRateModel.
func (m *Fixed) Name() string {
	return m.name
}

// BorrowRatePerSecond implements core.InterestRateModel.
func (m *Fixed) BorrowRatePerSecond(ctx context.Context, market *core.Market) (*big.Int, error) {
	return new(big.Int).Set(m.rate), nil
}

func utilization(market *core.Market) (*big.Int, error) {
	if market.TotalSupplyAssets.Sign() == 0 {
		return new(big.Int), nil
	}
	return mathx.WDivDown(&market.TotalBorrowAssets.Int, &market.TotalSupplyAssets.Int)
}

func toWAD(d decimal.Decimal) *big.Int {
	return d.Shift(18).Truncate(0).BigInt()
}
