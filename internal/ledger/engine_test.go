package ledger

import (
	"context"
	"math/big"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditline/core"
	"creditline/internal/irm"
)

const (
	day  = int64(24 * 3600)
	year = 365 * day
)

func newCreditMarket(t0 int64) *core.Market {
	return &core.Market{
		ID:                 1,
		MarketID:           "6c1a838d-6c3c-4fd1-b3cb-1b1d3a2c9f01",
		LoanAssetID:        "965e5c6e-434c-3fa9-b780-c50f43cd955c",
		IRMKey:             "fixed-10",
		Authority:          "8017d200-7870-4b82-b083-2cba8d03b719",
		LastUpdate:         t0,
		CycleDuration:      30 * day,
		GracePeriod:        7 * day,
		DelinquencyPeriod:  23 * day,
		FullMarkdownPeriod: 60 * day,
		// A first cycle has been posted; borrowing is open until
		// t0 + 60 days without further cycle administration.
		LastCycleEnd: t0 + 30*day,
	}
}

func newLine(limit int64) *core.CreditLine {
	return &core.CreditLine{
		ID:          1,
		CreditLimit: core.NewBigInt(big.NewInt(limit)),
	}
}

func fixedEngine(t *testing.T, yearly float64) *Engine {
	t.Helper()
	return NewEngine(irm.NewFixed("fixed", decimal.NewFromFloat(yearly)))
}

func assertLedgerInvariant(t *testing.T, market *core.Market) {
	t.Helper()
	assert.True(t, market.TotalBorrowAssets.Cmp(&market.TotalSupplyAssets.Int) <= 0,
		"totalBorrowAssets %s > totalSupplyAssets %s", market.TotalBorrowAssets.String(), market.TotalSupplyAssets.String())
}

func TestAccrueInterestBasic(t *testing.T) {
	// 1,000,000 supplied, 500,000 borrowed, 10%/year for 365 days.
	ctx := context.Background()
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)

	supplier := &core.Position{ID: 1, UserID: "supplier"}
	borrower := &core.Position{ID: 2, UserID: "borrower"}

	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	accr, err := e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)

	// e^0.1-1 via the 3-term expansion is ~5.258% on 500,000.
	assert.InDelta(t, 552_583, float64(market.TotalBorrowAssets.Int64()), 100)
	assert.InDelta(t, 1_052_583, float64(market.TotalSupplyAssets.Int64()), 100)
	assert.InDelta(t, 52_583, float64(accr.Interest.Int64()), 100)
	assert.Equal(t, year, market.LastUpdate)
	assertLedgerInvariant(t, market)

	// The supplier's claim grew with the pool.
	balance, err := e.SupplyBalance(market, supplier)
	require.NoError(t, err)
	assert.InDelta(t, 1_052_583, float64(balance.Int64()), 100)

	// Second accrual at the same timestamp is a no-op.
	before := market.TotalBorrowAssets.String()
	_, err = e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)
	assert.Equal(t, before, market.TotalBorrowAssets.String())
}

func TestAccruePremiumLayersOnTopOfBaseRate(t *testing.T) {
	// Base 10%/year plus a 5%/year borrower premium.
	ctx := context.Background()
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)

	supplier := &core.Position{ID: 1, UserID: "supplier"}
	borrower := &core.Position{ID: 2, UserID: "borrower"}

	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	line := newLine(2_000_000)
	premium := decimal.NewFromFloat(0.05).Shift(18).BigInt()
	premium.Quo(premium, big.NewInt(irm.SecondsPerYear))
	line.PremiumRatePerSecond = core.NewBigInt(premium)

	_, err = e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)
	interest, err := e.AccruePremium(market, borrower, line, year)
	require.NoError(t, err)
	assert.True(t, interest.Sign() > 0)

	// 500,000 * e^0.1 * e^0.05 is ~580,900; the premium compounds on the
	// base-accrued balance through the per-borrower path.
	debt, err := e.BorrowBalance(market, borrower)
	require.NoError(t, err)
	assert.InDelta(t, 580_900, float64(debt.Int64()), 600)
	assertLedgerInvariant(t, market)
}

func TestAccruePremiumFirstTouchStartsClock(t *testing.T) {
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)
	position := &core.Position{ID: 1, UserID: "borrower"}
	line := newLine(1000)
	line.PremiumRatePerSecond = core.NewBigInt(big.NewInt(1_000_000_000))

	interest, err := e.AccruePremium(market, position, line, 1000)
	require.NoError(t, err)
	assert.Zero(t, interest.Sign())
	assert.Equal(t, int64(1000), position.LastPremiumUpdate)
}

func TestAccruePremiumRateChangeIsNotRetroactive(t *testing.T) {
	ctx := context.Background()
	e := fixedEngine(t, 0)
	market := newCreditMarket(0)

	supplier := &core.Position{ID: 1, UserID: "supplier"}
	borrower := &core.Position{ID: 2, UserID: "borrower"}
	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	// Zero premium for the first half year.
	line := newLine(2_000_000)
	_, err = e.AccrueInterest(ctx, market, year/2)
	require.NoError(t, err)
	interest, err := e.AccruePremium(market, borrower, line, year/2)
	require.NoError(t, err)
	assert.Zero(t, interest.Sign())

	// Premium set afterwards accrues only from the next accrual window.
	premium := decimal.NewFromFloat(0.05).Shift(18).BigInt()
	premium.Quo(premium, big.NewInt(irm.SecondsPerYear))
	line.PremiumRatePerSecond = core.NewBigInt(premium)

	_, err = e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)
	interest, err = e.AccruePremium(market, borrower, line, year)
	require.NoError(t, err)

	// Half a year of 5% on 500,000 is ~12,600, not a full year's ~25,600.
	assert.InDelta(t, 12_650, float64(interest.Int64()), 200)
}

func TestAccrueInterestFeeSplit(t *testing.T) {
	ctx := context.Background()
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)
	market.FeeBps = 1000 // 10% of interest
	market.FeeRecipient = "fee-recipient"

	supplier := &core.Position{ID: 1, UserID: "supplier"}
	borrower := &core.Position{ID: 2, UserID: "borrower"}
	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	accr, err := e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)
	assert.True(t, accr.FeeShares.Sign() > 0)
	assert.InDelta(t, float64(accr.Interest.Int64())/10, float64(accr.FeeAssets.Int64()), 2)

	// Crediting the fee shares to a recipient position keeps the share sum
	// equal to the market total.
	feePos := &core.Position{ID: 3, UserID: market.FeeRecipient}
	feePos.SupplyShares.Add(&feePos.SupplyShares.Int, accr.FeeShares)

	sum := new(big.Int).Add(&supplier.SupplyShares.Int, &feePos.SupplyShares.Int)
	assert.Zero(t, sum.Cmp(&market.TotalSupplyShares.Int))

	// The fee claim converts back to roughly the fee assets.
	claim, err := e.SupplyBalance(market, feePos)
	require.NoError(t, err)
	assert.InDelta(t, float64(accr.FeeAssets.Int64()), float64(claim.Int64()), 2)
	assertLedgerInvariant(t, market)
}

func TestAccrueInterestNoFeeWithoutRecipient(t *testing.T) {
	ctx := context.Background()
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)
	market.FeeBps = 1000

	supplier := &core.Position{ID: 1, UserID: "supplier"}
	borrower := &core.Position{ID: 2, UserID: "borrower"}
	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	accr, err := e.AccrueInterest(ctx, market, year)
	require.NoError(t, err)
	assert.True(t, accr.Interest.Sign() > 0)
	assert.Zero(t, accr.FeeShares.Sign())

	// No unowned shares minted: the supplier still holds every supply share.
	assert.Zero(t, supplier.SupplyShares.Cmp(&market.TotalSupplyShares.Int))
}

func TestBorrowGuards(t *testing.T) {
	e := fixedEngine(t, 0.10)

	t.Run("frozen market", func(t *testing.T) {
		market := newCreditMarket(0)
		supplier := &core.Position{ID: 1}
		_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
		require.NoError(t, err)

		now := market.LastCycleEnd + market.CycleDuration + 1
		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(1_000_000), nil, big.NewInt(1000), now)
		assert.ErrorIs(t, err, core.ErrMarketFrozen)
	})

	t.Run("no cycle ever posted", func(t *testing.T) {
		market := newCreditMarket(0)
		market.LastCycleEnd = 0
		supplier := &core.Position{ID: 1}
		_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
		require.NoError(t, err)

		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(1_000_000), nil, big.NewInt(1000), 10)
		assert.ErrorIs(t, err, core.ErrMarketFrozen)
	})

	t.Run("credit limit", func(t *testing.T) {
		market := newCreditMarket(0)
		supplier := &core.Position{ID: 1}
		_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
		require.NoError(t, err)

		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(500), nil, big.NewInt(501), 0)
		assert.ErrorIs(t, err, core.ErrCreditLimitExceeded)

		// No credit line at all.
		_, err = e.Borrow(market, &core.Position{ID: 2}, nil, nil, big.NewInt(1), 0)
		assert.ErrorIs(t, err, core.ErrCreditLimitExceeded)
	})

	t.Run("debt cap", func(t *testing.T) {
		market := newCreditMarket(0)
		market.DebtCap = core.NewBigInt(big.NewInt(100_000))
		supplier := &core.Position{ID: 1}
		_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
		require.NoError(t, err)

		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(1_000_000), nil, big.NewInt(100_001), 0)
		assert.ErrorIs(t, err, core.ErrDebtCapExceeded)

		// Zero cap means unlimited.
		market.DebtCap = core.NewBigInt(nil)
		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(1_000_000), nil, big.NewInt(500_000), 0)
		assert.NoError(t, err)
	})

	t.Run("insufficient liquidity", func(t *testing.T) {
		market := newCreditMarket(0)
		supplier := &core.Position{ID: 1}
		_, err := e.Supply(market, supplier, big.NewInt(1000))
		require.NoError(t, err)

		_, err = e.Borrow(market, &core.Position{ID: 2}, newLine(1_000_000), nil, big.NewInt(1001), 0)
		assert.ErrorIs(t, err, core.ErrInsufficientLiquidity)
	})
}

func TestWithdrawGuards(t *testing.T) {
	e := fixedEngine(t, 0.10)
	market := newCreditMarket(0)
	supplier := &core.Position{ID: 1}
	borrower := &core.Position{ID: 2}

	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(600_000), 0)
	require.NoError(t, err)

	_, err = e.Withdraw(market, supplier, big.NewInt(500_000))
	assert.ErrorIs(t, err, core.ErrInsufficientLiquidity)

	_, err = e.Withdraw(market, supplier, big.NewInt(400_000))
	assert.NoError(t, err)
	assertLedgerInvariant(t, market)
}

func TestRepayReducesObligationAndResetsStatus(t *testing.T) {
	e := fixedEngine(t, 0)
	market := newCreditMarket(0)
	supplier := &core.Position{ID: 1}
	borrower := &core.Position{ID: 2}

	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	obligation := &core.RepaymentObligation{
		ID:          1,
		CycleNumber: 1,
		AmountDue:   core.NewBigInt(big.NewInt(100_000)),
		DueDate:     0,
	}

	// Deep in default, a partial payment reduces the due amount.
	out, err := e.Repay(market, borrower, obligation, big.NewInt(40_000))
	require.NoError(t, err)
	assert.False(t, out.ObligationCleared)
	assert.Equal(t, int64(60_000), obligation.AmountDue.Int64())

	// Paying the rest of the due resets the borrower to Current immediately,
	// regardless of elapsed time.
	out, err = e.Repay(market, borrower, obligation, big.NewInt(60_000))
	require.NoError(t, err)
	assert.True(t, out.ObligationCleared)
	assert.Zero(t, obligation.AmountDue.Sign())
	status := StatusOf(35*day, obligation.DueDate, &obligation.AmountDue.Int, market.GracePeriod, market.DelinquencyPeriod)
	assert.Equal(t, core.StatusCurrent, status)
	assertLedgerInvariant(t, market)
}

func TestRepayCapsAtFullBalance(t *testing.T) {
	e := fixedEngine(t, 0)
	market := newCreditMarket(0)
	supplier := &core.Position{ID: 1}
	borrower := &core.Position{ID: 2}

	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, borrower, newLine(2_000_000), nil, big.NewInt(500_000), 0)
	require.NoError(t, err)

	out, err := e.Repay(market, borrower, nil, big.NewInt(10_000_000))
	require.NoError(t, err)
	assert.True(t, out.Assets.Cmp(big.NewInt(500_001)) <= 0)
	assert.Zero(t, borrower.BorrowShares.Sign())
	assert.Zero(t, market.TotalBorrowShares.Sign())
}

func TestSupplyWithdrawRoundingSafety(t *testing.T) {
	// 1000 rounds of supply 1 / withdraw 1 must not leak value in either
	// direction beyond the virtual-share rounding bound.
	e := fixedEngine(t, 0)
	market := newCreditMarket(0)
	position := &core.Position{ID: 1}

	one := big.NewInt(1)
	for i := 0; i < 1000; i++ {
		_, err := e.Supply(market, position, one)
		require.NoError(t, err)
		_, err = e.Withdraw(market, position, one)
		require.NoError(t, err)
	}

	assert.True(t, market.TotalSupplyAssets.Sign() >= 0)
	assert.True(t, position.SupplyShares.Sign() >= 0)
	// Nothing was extracted beyond deposits: the pool never owes more assets
	// than it holds.
	claim, err := e.SupplyBalance(market, position)
	require.NoError(t, err)
	assert.True(t, claim.Cmp(&market.TotalSupplyAssets.Int) <= 0)
	assert.True(t, market.TotalSupplyAssets.Int64() <= 1000)
}

func TestShareSumMatchesTotals(t *testing.T) {
	ctx := context.Background()
	e := fixedEngine(t, 0.07)
	market := newCreditMarket(0)

	a := &core.Position{ID: 1, UserID: "a"}
	b := &core.Position{ID: 2, UserID: "b"}
	c := &core.Position{ID: 3, UserID: "c"}

	_, err := e.Supply(market, a, big.NewInt(750_000))
	require.NoError(t, err)
	_, err = e.Supply(market, b, big.NewInt(250_000))
	require.NoError(t, err)
	_, err = e.Borrow(market, c, newLine(1_000_000), nil, big.NewInt(400_000), 0)
	require.NoError(t, err)

	_, err = e.AccrueInterest(ctx, market, 90*day)
	require.NoError(t, err)
	market.LastCycleEnd = 90 * day // cycle administration kept the market open
	_, err = e.Borrow(market, c, newLine(1_000_000), nil, big.NewInt(100_000), 90*day)
	require.NoError(t, err)
	out, err := e.Repay(market, c, nil, big.NewInt(50_000))
	require.NoError(t, err)
	assert.True(t, out.Assets.Sign() > 0)

	supplySum := new(big.Int).Add(&a.SupplyShares.Int, &b.SupplyShares.Int)
	assert.Zero(t, supplySum.Cmp(&market.TotalSupplyShares.Int))
	assert.Zero(t, c.BorrowShares.Cmp(&market.TotalBorrowShares.Int))
	assertLedgerInvariant(t, market)
}

func TestCollateralizedBorrow(t *testing.T) {
	e := fixedEngine(t, 0.05)
	market := newCreditMarket(0)
	market.CollateralAssetID = "a5d0fd16-fc66-491f-acde-2fccef34ce46"
	market.LLTVBps = 8000

	supplier := &core.Position{ID: 1}
	borrower := &core.Position{ID: 2}
	_, err := e.Supply(market, supplier, big.NewInt(1_000_000))
	require.NoError(t, err)

	require.NoError(t, e.SupplyCollateral(borrower, big.NewInt(500_000)))

	price := new(big.Int).Set(wad()) // 1.0

	// 80% LLTV on 500,000 collateral allows at most 400,000.
	_, err = e.Borrow(market, borrower, nil, price, big.NewInt(400_001), 0)
	assert.ErrorIs(t, err, core.ErrInsufficientCollateral)

	_, err = e.Borrow(market, borrower, nil, price, big.NewInt(400_000), 0)
	require.NoError(t, err)

	// Collateral cannot leave while the debt depends on it.
	err = e.WithdrawCollateral(market, borrower, price, big.NewInt(100_000))
	assert.ErrorIs(t, err, core.ErrInsufficientCollateral)
}

func wad() *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
}
