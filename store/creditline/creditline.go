package creditline

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type creditLineStore struct {
	db *db.DB
}

// New new credit line store
func New(db *db.DB) core.ICreditLineStore {
	return &creditLineStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.CreditLine{})

		if err := tx.AutoMigrate(core.CreditLine{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_credit_lines_market_borrower", "market_id", "borrower_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *creditLineStore) Save(ctx context.Context, tx *db.DB, line *core.CreditLine) error {
	if line.ID == 0 {
		return tx.Update().
			Where("market_id = ? and borrower_id = ?", line.MarketID, line.BorrowerID).
			FirstOrCreate(line).Error
	}

	version := line.Version
	line.Version++

	updated := tx.Update().Model(core.CreditLine{}).
		Where("market_id = ? and borrower_id = ? and version = ?", line.MarketID, line.BorrowerID, version).
		Updates(map[string]interface{}{
			"credit_limit":            line.CreditLimit,
			"premium_rate_per_second": line.PremiumRatePerSecond,
			"version":                 line.Version,
		})
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}

func (s *creditLineStore) Find(ctx context.Context, marketID, borrowerID string) (*core.CreditLine, error) {
	var line core.CreditLine
	err := s.db.View().Where("market_id = ? and borrower_id = ?", marketID, borrowerID).First(&line).Error
	if store.IsErrNotFound(err) {
		return &core.CreditLine{}, nil
	}
	return &line, err
}

func (s *creditLineStore) FindByMarket(ctx context.Context, marketID string) ([]*core.CreditLine, error) {
	var lines []*core.CreditLine
	if err := s.db.View().Where("market_id = ?", marketID).Find(&lines).Error; err != nil {
		return nil, err
	}
	return lines, nil
}
