package cycle

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type cycleStore struct {
	db *db.DB
}

// New new payment cycle store
func New(db *db.DB) core.IPaymentCycleStore {
	return &cycleStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.PaymentCycle{})

		if err := tx.AutoMigrate(core.PaymentCycle{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_payment_cycles_market_number", "market_id", "cycle_number").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *cycleStore) Create(ctx context.Context, tx *db.DB, cycle *core.PaymentCycle) error {
	return tx.Update().Create(cycle).Error
}

func (s *cycleStore) Last(ctx context.Context, marketID string) (*core.PaymentCycle, error) {
	var cycle core.PaymentCycle
	err := s.db.View().Where("market_id = ?", marketID).Order("cycle_number desc").First(&cycle).Error
	if store.IsErrNotFound(err) {
		return &core.PaymentCycle{}, nil
	}
	return &cycle, err
}

func (s *cycleStore) List(ctx context.Context, marketID string, limit int) ([]*core.PaymentCycle, error) {
	var cycles []*core.PaymentCycle
	if err := s.db.View().Where("market_id = ?", marketID).Order("cycle_number desc").Limit(limit).Find(&cycles).Error; err != nil {
		return nil, err
	}
	return cycles, nil
}
