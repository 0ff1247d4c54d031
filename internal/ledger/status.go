package ledger

import (
	"math/big"

	"creditline/core"
)

// StatusOf derives the repayment status from elapsed time. Pure: the status
// is never stored as authoritative state, only cached. Obligations are due at
// the cycle end; the grace window runs after the due date, delinquency after
// grace, default after delinquency.
func StatusOf(now, dueDate int64, amountDue *big.Int, gracePeriod, delinquencyPeriod int64) core.RepaymentStatus {
	if amountDue == nil || amountDue.Sign() == 0 || now <= dueDate {
		return core.StatusCurrent
	}
	if now <= dueDate+gracePeriod {
		return core.StatusGracePeriod
	}
	if now <= dueDate+gracePeriod+delinquencyPeriod {
		return core.StatusDelinquent
	}
	return core.StatusDefault
}

// TimeInDistress seconds spent past the grace window, i.e. in Delinquent or
// Default status. Zero while Current or in grace.
func TimeInDistress(now, dueDate int64, amountDue *big.Int, gracePeriod int64) int64 {
	if amountDue == nil || amountDue.Sign() == 0 {
		return 0
	}
	onset := dueDate + gracePeriod
	if now <= onset {
		return 0
	}
	return now - onset
}
