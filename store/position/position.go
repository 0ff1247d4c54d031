package position

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type positionStore struct {
	db *db.DB
}

// New new position store
func New(db *db.DB) core.IPositionStore {
	return &positionStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.Position{})

		if err := tx.AutoMigrate(core.Position{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_positions_market_user", "market_id", "user_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *positionStore) Save(ctx context.Context, tx *db.DB, position *core.Position) error {
	return tx.Update().
		Where("market_id = ? and user_id = ?", position.MarketID, position.UserID).
		FirstOrCreate(position).Error
}

func (s *positionStore) Find(ctx context.Context, marketID, userID string) (*core.Position, error) {
	var position core.Position
	err := s.db.View().Where("market_id = ? and user_id = ?", marketID, userID).First(&position).Error
	if store.IsErrNotFound(err) {
		return &core.Position{}, nil
	}
	return &position, err
}

func (s *positionStore) FindByMarket(ctx context.Context, marketID string) ([]*core.Position, error) {
	var positions []*core.Position
	if err := s.db.View().Where("market_id = ?", marketID).Find(&positions).Error; err != nil {
		return nil, err
	}
	return positions, nil
}

func (s *positionStore) Borrowers(ctx context.Context, marketID string) ([]string, error) {
	var userIDs []string
	err := s.db.View().Model(core.Position{}).
		Where("market_id = ? and borrow_shares <> '0' and borrow_shares <> ''", marketID).
		Pluck("user_id", &userIDs).Error
	if err != nil {
		return nil, err
	}
	return userIDs, nil
}

func (s *positionStore) Update(ctx context.Context, tx *db.DB, position *core.Position) error {
	version := position.Version
	position.Version++

	updated := tx.Update().Model(core.Position{}).
		Where("market_id = ? and user_id = ? and version = ?", position.MarketID, position.UserID, version).
		Updates(map[string]interface{}{
			"supply_shares":       position.SupplyShares,
			"borrow_shares":       position.BorrowShares,
			"collateral":          position.Collateral,
			"last_premium_update": position.LastPremiumUpdate,
			"version":             position.Version,
		})
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
