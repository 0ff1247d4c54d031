package config

import (
	"github.com/fox-one/pkg/store/db"
	"github.com/shopspring/decimal"
)

// Config service config
type Config struct {
	App         App                  `json:"app"`
	DB          db.Config            `json:"db"`
	PriceOracle PriceOracle          `json:"price_oracle"`
	RateModels  map[string]RateModel `json:"rate_models"`
}

// App app config
type App struct {
	Location string `json:"location"`
}

// PriceOracle price feed config
type PriceOracle struct {
	EndPoint    string `json:"end_point"`
	CacheExpire int64  `json:"cache_expire"`
}

// RateModel kinked borrow-rate curve parameters, yearly rates. The map key is
// the irm key markets reference at creation.
type RateModel struct {
	BaseRate       decimal.Decimal `json:"base_rate"`
	Multiplier     decimal.Decimal `json:"multiplier"`
	JumpMultiplier decimal.Decimal `json:"jump_multiplier"`
	Kink           decimal.Decimal `json:"kink"`
}
