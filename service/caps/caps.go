package caps

import (
	"context"
	"math/big"

	"creditline/core"
	"creditline/internal/ledger"
)

type service struct {
	markets core.IMarketStore
}

// New new caps service
func New(markets core.IMarketStore) core.ICapsService {
	return &service{markets: markets}
}

func (s *service) CheckDebtCap(ctx context.Context, marketID string, prospectiveTotalBorrow *big.Int) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}
	return ledger.CheckDebtCap(market, prospectiveTotalBorrow)
}

func (s *service) CheckTrancheDeposit(ctx context.Context, marketID string, juniorAssets, deposit *big.Int) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}
	return ledger.CheckTrancheDeposit(market, juniorAssets, deposit)
}

func (s *service) CheckTrancheWithdraw(ctx context.Context, marketID string, juniorAssets, withdrawal *big.Int) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}
	return ledger.CheckTrancheWithdraw(market, juniorAssets, withdrawal)
}

func (s *service) findMarket(ctx context.Context, marketID string) (*core.Market, error) {
	market, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.ID == 0 {
		return nil, core.ErrMarketNotCreated
	}
	return market, nil
}
