package views

import (
	"math/big"

	"github.com/shopspring/decimal"

	"creditline/core"
	"creditline/internal/irm"
)

// Market market view with derived rate and liquidity fields
type Market struct {
	core.Market
	UtilizationRate    decimal.Decimal `json:"utilization_rate"`
	BorrowAPR          decimal.Decimal `json:"borrow_apr"`
	AvailableLiquidity string          `json:"available_liquidity"`
	ReportedSupply     string          `json:"reported_supply"`
	Frozen             bool            `json:"frozen"`
}

// MarketView builds the market view; ratePerSecond may be nil when the rate
// model lookup failed.
func MarketView(market *core.Market, ratePerSecond *big.Int, now int64) *Market {
	view := &Market{
		Market:             *market,
		AvailableLiquidity: market.AvailableLiquidity().String(),
		ReportedSupply:     market.ReportedSupplyAssets().String(),
		Frozen:             market.Frozen(now),
	}

	if market.TotalSupplyAssets.Sign() > 0 {
		borrow := decimal.NewFromBigInt(&market.TotalBorrowAssets.Int, 0)
		supply := decimal.NewFromBigInt(&market.TotalSupplyAssets.Int, 0)
		view.UtilizationRate = borrow.DivRound(supply, 8)
	}
	if ratePerSecond != nil {
		view.BorrowAPR = decimal.NewFromBigInt(ratePerSecond, -18).
			Mul(decimal.NewFromInt(irm.SecondsPerYear)).
			Round(8)
	}

	return view
}

// Position position view with share balances converted to assets
type Position struct {
	core.Position
	SupplyBalance string `json:"supply_balance"`
	BorrowBalance string `json:"borrow_balance"`
}

// Obligation obligation view with the derived repayment status
type Obligation struct {
	core.RepaymentObligation
	Status string `json:"status"`
}
