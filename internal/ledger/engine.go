package ledger

import (
	"context"
	"math/big"

	"creditline/core"
	"creditline/pkg/mathx"
)

// Engine the market core state machine. Methods mutate the passed core
// structs in memory and return the deltas; the service layer wraps each
// operation in one database transaction so a failed call leaves no partial
// state. Accrual ordering is the caller's contract: AccrueInterest runs
// before any share-price-dependent computation, AccruePremium before any
// borrower-balance-dependent one, and cap checks see post-accrual state.
type Engine struct {
	irm core.InterestRateModel
}

// NewEngine engine with the given interest rate model.
func NewEngine(irm core.InterestRateModel) *Engine {
	return &Engine{irm: irm}
}

// Accrual the outcome of one base-interest accrual.
type Accrual struct {
	Interest  *big.Int
	FeeAssets *big.Int
	// FeeShares supply shares minted to the fee recipient at the pre-fee
	// share price. The caller credits them to the recipient's position.
	FeeShares *big.Int
}

// Repayment the outcome of one repay operation.
type Repayment struct {
	// Assets actually applied; capped at the borrower's full balance.
	Assets *big.Int
	Shares *big.Int
	// ObligationCleared the posted amount due reached zero, resetting the
	// borrower to Current.
	ObligationCleared bool
}

// AccrueInterest brings the market to now: queries the IRM once, compounds
// the borrow side with the Taylor multiplier and mirrors the interest into
// the supply side before the fee split, so totalBorrowAssets never exceeds
// totalSupplyAssets. Idempotent within one timestamp.
func (e *Engine) AccrueInterest(ctx context.Context, market *core.Market, now int64) (*Accrual, error) {
	out := &Accrual{Interest: new(big.Int), FeeAssets: new(big.Int), FeeShares: new(big.Int)}

	elapsed := now - market.LastUpdate
	if elapsed <= 0 {
		return out, nil
	}

	if market.TotalBorrowAssets.Sign() > 0 {
		rate, err := e.irm.BorrowRatePerSecond(ctx, market)
		if err != nil {
			return nil, err
		}

		growth, err := mathx.WTaylorCompounded(rate, elapsed)
		if err != nil {
			return nil, err
		}
		interest, err := mathx.WMulDown(&market.TotalBorrowAssets.Int, growth)
		if err != nil {
			return nil, err
		}

		market.TotalBorrowAssets.Add(&market.TotalBorrowAssets.Int, interest)
		market.TotalSupplyAssets.Add(&market.TotalSupplyAssets.Int, interest)
		out.Interest = interest

		// Fee shares must land on a recipient position or the share sum
		// drifts from the market total.
		if market.FeeBps > 0 && market.FeeRecipient != "" && interest.Sign() > 0 {
			feeAssets, err := mathx.BpsMulDown(interest, market.FeeBps)
			if err != nil {
				return nil, err
			}
			// Shares priced before the fee accrues so the recipient does not
			// dilute itself.
			preFeeAssets := new(big.Int).Sub(&market.TotalSupplyAssets.Int, feeAssets)
			feeShares, err := ToSharesDown(feeAssets, preFeeAssets, &market.TotalSupplyShares.Int)
			if err != nil {
				return nil, err
			}
			market.TotalSupplyShares.Add(&market.TotalSupplyShares.Int, feeShares)
			out.FeeAssets = feeAssets
			out.FeeShares = feeShares
		}
	}

	market.LastUpdate = now
	return out, nil
}

// AccruePremium layers the borrower-specific risk premium on top of the base
// rate: the premium compounds on the borrower's own outstanding balance and
// is added to the borrower's shares and both aggregate sides, so suppliers
// see the premium income too. The premium clock is per borrower.
func (e *Engine) AccruePremium(market *core.Market, position *core.Position, line *core.CreditLine, now int64) (*big.Int, error) {
	zero := new(big.Int)

	if position.LastPremiumUpdate == 0 {
		position.LastPremiumUpdate = now
		return zero, nil
	}
	elapsed := now - position.LastPremiumUpdate
	if elapsed <= 0 {
		return zero, nil
	}
	position.LastPremiumUpdate = now

	if line == nil || line.PremiumRatePerSecond.Sign() == 0 || position.BorrowShares.Sign() == 0 {
		return zero, nil
	}

	borrowed, err := ToAssetsUp(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return nil, err
	}

	growth, err := mathx.WTaylorCompounded(&line.PremiumRatePerSecond.Int, elapsed)
	if err != nil {
		return nil, err
	}
	interest, err := mathx.WMulDown(borrowed, growth)
	if err != nil {
		return nil, err
	}
	if interest.Sign() == 0 {
		return zero, nil
	}

	shares, err := ToSharesUp(interest, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return nil, err
	}

	position.BorrowShares.Add(&position.BorrowShares.Int, shares)
	market.TotalBorrowShares.Add(&market.TotalBorrowShares.Int, shares)
	market.TotalBorrowAssets.Add(&market.TotalBorrowAssets.Int, interest)
	market.TotalSupplyAssets.Add(&market.TotalSupplyAssets.Int, interest)

	return interest, nil
}

// Supply mints supply shares for the deposited assets, rounding shares down
// in the pool's favor.
func (e *Engine) Supply(market *core.Market, position *core.Position, assets *big.Int) (*big.Int, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	shares, err := ToSharesDown(assets, &market.TotalSupplyAssets.Int, &market.TotalSupplyShares.Int)
	if err != nil {
		return nil, err
	}

	position.SupplyShares.Add(&position.SupplyShares.Int, shares)
	market.TotalSupplyAssets.Add(&market.TotalSupplyAssets.Int, assets)
	market.TotalSupplyShares.Add(&market.TotalSupplyShares.Int, shares)

	return shares, nil
}

// Withdraw burns supply shares for the requested assets, rounding shares up
// in the pool's favor. Fails when idle liquidity cannot cover the request.
func (e *Engine) Withdraw(market *core.Market, position *core.Position, assets *big.Int) (*big.Int, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if assets.Cmp(market.AvailableLiquidity()) > 0 {
		return nil, core.ErrInsufficientLiquidity
	}

	shares, err := ToSharesUp(assets, &market.TotalSupplyAssets.Int, &market.TotalSupplyShares.Int)
	if err != nil {
		return nil, err
	}
	if shares.Cmp(&position.SupplyShares.Int) > 0 {
		return nil, core.ErrInsufficientBalance
	}

	position.SupplyShares.Sub(&position.SupplyShares.Int, shares)
	market.TotalSupplyAssets.Sub(&market.TotalSupplyAssets.Int, assets)
	market.TotalSupplyShares.Sub(&market.TotalSupplyShares.Int, shares)

	return shares, nil
}

// Borrow mints borrow shares rounded up. Credit-line markets require an
// active payment cycle and an unexhausted credit line; collateralized markets
// require the position to stay within the liquidation threshold at the given
// oracle price. The debt cap is evaluated on post-accrual state.
func (e *Engine) Borrow(market *core.Market, position *core.Position, line *core.CreditLine, collateralPrice, assets *big.Int, now int64) (*big.Int, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	borrowed, err := ToAssetsUp(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return nil, err
	}
	prospectiveDebt := new(big.Int).Add(borrowed, assets)

	if market.IsCreditLine() {
		if market.Frozen(now) {
			return nil, core.ErrMarketFrozen
		}
		if line == nil || line.ID == 0 || prospectiveDebt.Cmp(&line.CreditLimit.Int) > 0 {
			return nil, core.ErrCreditLimitExceeded
		}
	} else {
		maxBorrow, err := collateralValue(&position.Collateral.Int, collateralPrice, market.LLTVBps)
		if err != nil {
			return nil, err
		}
		if prospectiveDebt.Cmp(maxBorrow) > 0 {
			return nil, core.ErrInsufficientCollateral
		}
	}

	prospectiveTotal := new(big.Int).Add(&market.TotalBorrowAssets.Int, assets)
	if err := CheckDebtCap(market, prospectiveTotal); err != nil {
		return nil, err
	}
	if assets.Cmp(market.AvailableLiquidity()) > 0 {
		return nil, core.ErrInsufficientLiquidity
	}

	shares, err := ToSharesUp(assets, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return nil, err
	}

	if position.LastPremiumUpdate == 0 {
		position.LastPremiumUpdate = now
	}
	position.BorrowShares.Add(&position.BorrowShares.Int, shares)
	market.TotalBorrowAssets.Add(&market.TotalBorrowAssets.Int, assets)
	market.TotalBorrowShares.Add(&market.TotalBorrowShares.Int, shares)

	return shares, nil
}

// Repay burns borrow shares for the paid assets, rounding burned shares down
// in the pool's favor. Payments above the outstanding balance are capped at
// full repayment. The posted obligation is reduced by the applied amount; a
// cleared obligation resets the borrower to Current immediately.
func (e *Engine) Repay(market *core.Market, position *core.Position, obligation *core.RepaymentObligation, assets *big.Int) (*Repayment, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}
	if position.BorrowShares.Sign() == 0 {
		return nil, core.ErrInsufficientBalance
	}

	balance, err := ToAssetsUp(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return nil, err
	}

	applied := new(big.Int).Set(assets)
	var shares *big.Int
	if applied.Cmp(balance) >= 0 {
		applied.Set(balance)
		shares = new(big.Int).Set(&position.BorrowShares.Int)
	} else {
		shares, err = ToSharesDown(applied, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
		if err != nil {
			return nil, err
		}
	}

	position.BorrowShares.Sub(&position.BorrowShares.Int, shares)
	market.TotalBorrowShares.Sub(&market.TotalBorrowShares.Int, shares)
	if applied.Cmp(&market.TotalBorrowAssets.Int) >= 0 {
		market.TotalBorrowAssets.SetInt64(0)
	} else {
		market.TotalBorrowAssets.Sub(&market.TotalBorrowAssets.Int, applied)
	}

	out := &Repayment{Assets: applied, Shares: shares}
	if obligation != nil && obligation.ID != 0 && obligation.AmountDue.Sign() > 0 {
		if applied.Cmp(&obligation.AmountDue.Int) >= 0 {
			obligation.AmountDue.SetInt64(0)
			out.ObligationCleared = true
		} else {
			obligation.AmountDue.Sub(&obligation.AmountDue.Int, applied)
		}
	}

	return out, nil
}

// SupplyBalance the position's supply claim in assets, rounded down.
func (e *Engine) SupplyBalance(market *core.Market, position *core.Position) (*big.Int, error) {
	return ToAssetsDown(&position.SupplyShares.Int, &market.TotalSupplyAssets.Int, &market.TotalSupplyShares.Int)
}

// BorrowBalance the position's debt in assets, rounded up.
func (e *Engine) BorrowBalance(market *core.Market, position *core.Position) (*big.Int, error) {
	return ToAssetsUp(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
}

// SupplyCollateral locks collateral for a borrower. Collateral is ignored on
// credit-line markets.
func (e *Engine) SupplyCollateral(position *core.Position, assets *big.Int) error {
	if assets == nil || assets.Sign() <= 0 {
		return core.ErrInvalidAmount
	}
	position.Collateral.Add(&position.Collateral.Int, assets)
	return nil
}

// WithdrawCollateral releases collateral as long as the remaining position
// stays within the liquidation threshold at the given oracle price.
func (e *Engine) WithdrawCollateral(market *core.Market, position *core.Position, collateralPrice, assets *big.Int) error {
	if assets == nil || assets.Sign() <= 0 {
		return core.ErrInvalidAmount
	}
	if assets.Cmp(&position.Collateral.Int) > 0 {
		return core.ErrInsufficientBalance
	}

	remaining := new(big.Int).Sub(&position.Collateral.Int, assets)
	borrowed, err := ToAssetsUp(&position.BorrowShares.Int, &market.TotalBorrowAssets.Int, &market.TotalBorrowShares.Int)
	if err != nil {
		return err
	}
	maxBorrow, err := collateralValue(remaining, collateralPrice, market.LLTVBps)
	if err != nil {
		return err
	}
	if borrowed.Cmp(maxBorrow) > 0 {
		return core.ErrInsufficientCollateral
	}

	position.Collateral.Set(remaining)
	return nil
}

func collateralValue(collateral, price *big.Int, lltvBps uint64) (*big.Int, error) {
	if price == nil || price.Sign() <= 0 {
		return new(big.Int), nil
	}
	value, err := mathx.WMulDown(collateral, price)
	if err != nil {
		return nil, err
	}
	return mathx.BpsMulDown(value, lltvBps)
}
