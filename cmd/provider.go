package cmd

import (
	"time"

	"creditline/config"
	"creditline/core"
	"creditline/store/creditline"
	"creditline/store/cycle"
	"creditline/store/markdown"
	"creditline/store/market"
	"creditline/store/position"

	"github.com/fox-one/pkg/property"
	"github.com/fox-one/pkg/store/db"
	propertystore "github.com/fox-one/pkg/store/property"
)

func provideDatabase() *db.DB {
	return db.MustOpen(cfg.DB)
}

func provideConfig() *config.Config {
	return &cfg
}

// ---------------store-----------------------------------------

func providePropertyStore(db *db.DB) property.Store {
	return propertystore.New(db)
}

func provideMarketStore(db *db.DB) core.IMarketStore {
	return market.New(db)
}

// provideCachedMarketStore read path for the api server; ledger mutations use
// the uncached store.
func provideCachedMarketStore(db *db.DB) core.IMarketStore {
	return market.Cache(market.New(db), 5*time.Second)
}

func providePositionStore(db *db.DB) core.IPositionStore {
	return position.New(db)
}

func provideCreditLineStore(db *db.DB) core.ICreditLineStore {
	return creditline.New(db)
}

func provideCycleStore(db *db.DB) core.IPaymentCycleStore {
	return cycle.New(db)
}

func provideObligationStore(db *db.DB) core.IObligationStore {
	return cycle.NewObligation(db)
}

func provideMarkdownStore(db *db.DB) core.IMarkdownStore {
	return markdown.New(db)
}
