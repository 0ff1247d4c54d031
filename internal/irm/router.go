package irm

import (
	"context"
	"math/big"

	"creditline/core"
)

// Router dispatches to the model registered under the market's irm key.
type Router struct {
	resolve func(key string) core.InterestRateModel
}

func NewRouter(resolve func(key string) core.InterestRateModel) *Router {
	return &Router{resolve: resolve}
}

func (r *Router) Name() string {
	return "router"
}

func (r *Router) BorrowRatePerSecond(ctx context.Context, market *core.Market) (*big.Int, error) {
	return r.resolve(market.IRMKey).BorrowRatePerSecond(ctx, market)
}
