package ledger

import (
	"math/big"

	"creditline/core"
	"creditline/pkg/mathx"
)

// CheckDebtCap rejects a prospective total borrow above the market debt cap.
// A zero cap is the explicit "unlimited" sentinel, never "blocked".
func CheckDebtCap(market *core.Market, prospectiveTotalBorrow *big.Int) error {
	cap := &market.DebtCap.Int
	if cap.Sign() == 0 {
		return nil
	}
	if prospectiveTotalBorrow.Cmp(cap) > 0 {
		return core.ErrDebtCapExceeded
	}
	return nil
}

// SubordinationCap the ceiling on junior-tranche capital:
// min(actual debt, potential debt at max utilization) * maxSubordinationBps
// / 10000. Potential debt at max utilization equals total supply. All values
// are underlying asset units; callers convert tranche shares exactly once
// before calling in.
func SubordinationCap(market *core.Market) (*big.Int, error) {
	debt := mathx.Min(&market.TotalBorrowAssets.Int, &market.TotalSupplyAssets.Int)
	return mathx.BpsMulDown(debt, market.MaxSubordinationBps)
}

// BackingFloor the minimum junior capital required to keep backing the debt:
// debt * minBackingBps / 10000, in underlying asset units.
func BackingFloor(market *core.Market) (*big.Int, error) {
	return mathx.BpsMulDown(&market.TotalBorrowAssets.Int, market.MinBackingBps)
}

// CheckTrancheDeposit rejects a junior deposit that would lift junior capital
// above the subordination cap. A zero ratio disables the check.
func CheckTrancheDeposit(market *core.Market, juniorAssets, deposit *big.Int) error {
	if market.MaxSubordinationBps == 0 {
		return nil
	}
	cap, err := SubordinationCap(market)
	if err != nil {
		return err
	}
	prospective := new(big.Int).Add(juniorAssets, deposit)
	if prospective.Cmp(cap) > 0 {
		return core.ErrSubordinationCapExceeded
	}
	return nil
}

// CheckTrancheWithdraw rejects a junior withdrawal that would drop junior
// capital below the backing floor. A zero ratio disables the check.
func CheckTrancheWithdraw(market *core.Market, juniorAssets, withdrawal *big.Int) error {
	if market.MinBackingBps == 0 {
		return nil
	}
	floor, err := BackingFloor(market)
	if err != nil {
		return err
	}
	remaining := new(big.Int).Sub(juniorAssets, withdrawal)
	if remaining.Cmp(floor) < 0 {
		return core.ErrBackingFloorViolated
	}
	return nil
}
