package cmd

import (
	"time"

	"creditline/core"
	"creditline/internal/irm"
	capsservice "creditline/service/caps"
	cycleservice "creditline/service/cycle"
	ledgerservice "creditline/service/ledger"
	markdownservice "creditline/service/markdown"
	oracleservice "creditline/service/oracle"

	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

var zeroRate = decimal.Zero

// provideInterestRateModel resolves the configured rate curve. Unknown keys
// fall back to a flat zero rate so a misconfigured market cannot mint
// interest out of thin air.
func provideInterestRateModel(key string) core.InterestRateModel {
	if model, ok := cfg.RateModels[key]; ok {
		return irm.NewJumpRate(key, model.BaseRate, model.Multiplier, model.JumpMultiplier, model.Kink)
	}
	return irm.NewFixed(key, zeroRate)
}

// provideRateModelRouter one model per market, routed by the market irm key.
func provideRateModelRouter() core.InterestRateModel {
	return irm.NewRouter(provideInterestRateModel)
}

func provideOracleService() core.IPriceOracleService {
	return oracleservice.New(cfg.PriceOracle.EndPoint, time.Duration(cfg.PriceOracle.CacheExpire)*time.Second)
}

func provideLedgerService(db *db.DB) core.ILedgerService {
	return ledgerservice.New(
		db,
		provideMarketStore(db),
		providePositionStore(db),
		provideCreditLineStore(db),
		provideObligationStore(db),
		provideMarkdownStore(db),
		provideOracleService(),
		provideRateModelRouter(),
	)
}

func provideCycleService(db *db.DB) core.ICycleService {
	return cycleservice.New(
		db,
		provideMarketStore(db),
		providePositionStore(db),
		provideCreditLineStore(db),
		provideCycleStore(db),
		provideObligationStore(db),
		provideRateModelRouter(),
	)
}

func provideMarkdownService(db *db.DB) core.IMarkdownService {
	return markdownservice.New(
		db,
		provideMarketStore(db),
		providePositionStore(db),
		provideObligationStore(db),
		provideMarkdownStore(db),
		markdownservice.LinearManager{},
		provideRateModelRouter(),
	)
}

func provideCapsService(db *db.DB) core.ICapsService {
	return capsservice.New(provideMarketStore(db))
}
