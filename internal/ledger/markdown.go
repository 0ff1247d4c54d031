package ledger

import (
	"math/big"

	"creditline/pkg/mathx"
)

// LinearMarkdown the reference expected-loss policy: zero until delinquency
// onset, then a linear ramp from 0 to 100% of principal over fullPeriod
// seconds, clamped at 100%.
func LinearMarkdown(principal *big.Int, timeInDistress, fullPeriod int64) (*big.Int, error) {
	if principal == nil || principal.Sign() <= 0 || timeInDistress <= 0 {
		return new(big.Int), nil
	}
	if fullPeriod <= 0 || timeInDistress >= fullPeriod {
		return new(big.Int).Set(principal), nil
	}
	return mathx.MulDivDown(principal, big.NewInt(timeInDistress), big.NewInt(fullPeriod))
}
