package market

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
	"github.com/jinzhu/gorm"
)

type marketStore struct {
	db *db.DB
}

// New new market store
func New(db *db.DB) core.IMarketStore {
	return &marketStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Market{})

		if err := tx.AutoMigrate(core.Market{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_markets_market_id", "market_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *marketStore) Create(ctx context.Context, tx *db.DB, market *core.Market) error {
	return tx.Update().Where("market_id = ?", market.MarketID).FirstOrCreate(market).Error
}

func (s *marketStore) Find(ctx context.Context, marketID string) (*core.Market, error) {
	var market core.Market
	err := s.db.View().Where("market_id = ?", marketID).First(&market).Error
	if store.IsErrNotFound(err) {
		return &core.Market{}, nil
	}
	return &market, err
}

func (s *marketStore) All(ctx context.Context) ([]*core.Market, error) {
	var markets []*core.Market
	if err := s.db.View().Find(&markets).Error; err != nil {
		return nil, err
	}
	return markets, nil
}

func (s *marketStore) Update(ctx context.Context, tx *db.DB, market *core.Market) error {
	version := market.Version
	market.Version++

	// Column map rather than struct: totals may legitimately return to zero
	// and struct updates skip blank fields.
	updated := tx.Update().Model(core.Market{}).
		Where("market_id = ? and version = ?", market.MarketID, version).
		Updates(map[string]interface{}{
			"total_supply_assets": market.TotalSupplyAssets,
			"total_supply_shares": market.TotalSupplyShares,
			"total_borrow_assets": market.TotalBorrowAssets,
			"total_borrow_shares": market.TotalBorrowShares,
			"last_update":         market.LastUpdate,
			"last_cycle_end":      market.LastCycleEnd,
			"cycle_count":         market.CycleCount,
			"total_markdown":      market.TotalMarkdown,
			"version":             gorm.Expr("version + 1"),
		})
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
