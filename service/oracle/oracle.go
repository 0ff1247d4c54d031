package oracle

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"creditline/core"
	"creditline/pkg/resthttp"

	"github.com/bluele/gcache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/singleflight"
)

// Price one asset quote from the price feed, WAD-scaled on read.
type Price struct {
	AssetID string          `json:"asset_id"`
	Price   decimal.Decimal `json:"price"`
}

type service struct {
	endpoint string
	cache    gcache.Cache
	sf       *singleflight.Group
}

// New new price oracle service backed by an HTTP price feed. Quotes are
// cached briefly; a stale-by-seconds quote is acceptable for collateral
// checks.
func New(endpoint string, exp time.Duration) core.IPriceOracleService {
	return &service{
		endpoint: endpoint,
		cache:    gcache.New(128).LRU().Expiration(exp).Build(),
		sf:       &singleflight.Group{},
	}
}

func (s *service) GetPrice(ctx context.Context, assetID string) (*big.Int, error) {
	if v, err := s.cache.Get(assetID); err == nil {
		if price, ok := v.(*big.Int); ok {
			return new(big.Int).Set(price), nil
		}
	}

	v, err, _ := s.sf.Do(assetID, func() (interface{}, error) {
		price, err := s.fetch(ctx, assetID)
		if err != nil {
			return nil, err
		}
		s.cache.Set(assetID, price)
		return price, nil
	})
	if err != nil {
		return nil, err
	}
	return new(big.Int).Set(v.(*big.Int)), nil
}

func (s *service) fetch(ctx context.Context, assetID string) (*big.Int, error) {
	var quote Price
	r, err := resthttp.Request(ctx).Get(fmt.Sprintf("%s/prices/%s", s.endpoint, assetID))
	if err != nil {
		return nil, err
	}
	if err := resthttp.ParseResponse(r, &quote); err != nil {
		return nil, err
	}
	if quote.Price.Sign() <= 0 {
		return nil, fmt.Errorf("oracle: no price for asset %s", assetID)
	}

	return quote.Price.Shift(18).Truncate(0).BigInt(), nil
}
