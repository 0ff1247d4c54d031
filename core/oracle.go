package core

import (
	"context"
	"math/big"
)

// IPriceOracleService price feed consumed by collateralized markets. The
// returned price is WAD-scaled collateral/loan units. Credit-line markets
// never query it.
type IPriceOracleService interface {
	GetPrice(ctx context.Context, assetID string) (*big.Int, error)
}
