package core

import (
	"context"
	"math/big"
)

// ICapsService cap and tranche-ratio checks evaluated against post-accrual
// state. All math is performed in underlying asset units; tranche wrappers
// convert their shares to assets exactly once before calling in.
type ICapsService interface {
	// CheckDebtCap rejects with ErrDebtCapExceeded when a nonzero cap would be
	// exceeded by the prospective total borrow. A zero cap means unlimited.
	CheckDebtCap(ctx context.Context, marketID string, prospectiveTotalBorrow *big.Int) error
	// CheckTrancheDeposit rejects junior deposits above the subordination
	// ceiling min(debt, potential debt) * maxSubordinationBps / 10000.
	CheckTrancheDeposit(ctx context.Context, marketID string, juniorAssets, deposit *big.Int) error
	// CheckTrancheWithdraw rejects junior withdrawals that would leave junior
	// capital below debt * minBackingBps / 10000.
	CheckTrancheWithdraw(ctx context.Context, marketID string, juniorAssets, withdrawal *big.Int) error
}
