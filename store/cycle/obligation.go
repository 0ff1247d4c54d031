package cycle

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type obligationStore struct {
	db *db.DB
}

// NewObligation new repayment obligation store
func NewObligation(db *db.DB) core.IObligationStore {
	return &obligationStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.RepaymentObligation{})

		if err := tx.AutoMigrate(core.RepaymentObligation{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_obligations_market_borrower", "market_id", "borrower_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *obligationStore) Save(ctx context.Context, tx *db.DB, obligation *core.RepaymentObligation) error {
	return tx.Update().
		Where("market_id = ? and borrower_id = ?", obligation.MarketID, obligation.BorrowerID).
		FirstOrCreate(obligation).Error
}

func (s *obligationStore) Find(ctx context.Context, marketID, borrowerID string) (*core.RepaymentObligation, error) {
	var obligation core.RepaymentObligation
	err := s.db.View().Where("market_id = ? and borrower_id = ?", marketID, borrowerID).First(&obligation).Error
	if store.IsErrNotFound(err) {
		return &core.RepaymentObligation{}, nil
	}
	return &obligation, err
}

func (s *obligationStore) FindByMarket(ctx context.Context, marketID string) ([]*core.RepaymentObligation, error) {
	var obligations []*core.RepaymentObligation
	if err := s.db.View().Where("market_id = ?", marketID).Find(&obligations).Error; err != nil {
		return nil, err
	}
	return obligations, nil
}

func (s *obligationStore) Update(ctx context.Context, tx *db.DB, obligation *core.RepaymentObligation) error {
	version := obligation.Version
	obligation.Version++

	updated := tx.Update().Model(core.RepaymentObligation{}).
		Where("market_id = ? and borrower_id = ? and version = ?", obligation.MarketID, obligation.BorrowerID, version).
		Updates(map[string]interface{}{
			"cycle_number":   obligation.CycleNumber,
			"amount_due":     obligation.AmountDue,
			"ending_balance": obligation.EndingBalance,
			"due_date":       obligation.DueDate,
			"version":        obligation.Version,
		})
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
