package market

import (
	"context"
	"fmt"
	"time"

	"creditline/core"

	"github.com/bluele/gcache"
	"github.com/fox-one/pkg/store/db"
	"golang.org/x/sync/singleflight"
)

// Cache wraps a market store with a read-through LRU for the REST read
// surface. Ledger mutations run against fresh rows inside transactions and
// never read through this wrapper.
func Cache(store core.IMarketStore, exp time.Duration) core.IMarketStore {
	return &cacheMarketStore{
		IMarketStore: store,
		cache:        gcache.New(256).LRU().Expiration(exp).Build(),
		sf:           &singleflight.Group{},
	}
}

type cacheMarketStore struct {
	core.IMarketStore
	cache gcache.Cache
	sf    *singleflight.Group
}

func (s *cacheMarketStore) Find(ctx context.Context, marketID string) (*core.Market, error) {
	key := s.marketKey(marketID)
	if v, err := s.cache.Get(key); err == nil {
		if market, ok := v.(*core.Market); ok {
			return market, nil
		}
	}

	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		market, err := s.IMarketStore.Find(ctx, marketID)
		if err != nil {
			return nil, err
		}
		if market.ID > 0 {
			s.cache.Set(key, market)
		}
		return market, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*core.Market), nil
}

func (s *cacheMarketStore) Update(ctx context.Context, tx *db.DB, market *core.Market) error {
	if err := s.IMarketStore.Update(ctx, tx, market); err != nil {
		return err
	}
	s.cache.Remove(s.marketKey(market.MarketID))
	return nil
}

func (s *cacheMarketStore) marketKey(marketID string) string {
	return fmt.Sprintf("market:id:%s", marketID)
}
