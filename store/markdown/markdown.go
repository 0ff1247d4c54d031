package markdown

import (
	"context"

	"creditline/core"

	"github.com/fox-one/pkg/store"
	"github.com/fox-one/pkg/store/db"
)

type markdownStore struct {
	db *db.DB
}

// New new borrower markdown store
func New(db *db.DB) core.IMarkdownStore {
	return &markdownStore{db: db}
}

func init() {
	db.RegisterMigrate(func(db *db.DB) error {
		tx := db.Update().Model(core.BorrowerMarkdown{})

		if err := tx.AutoMigrate(core.BorrowerMarkdown{}).Error; err != nil {
			return err
		}

		if err := tx.AddUniqueIndex("idx_markdowns_market_borrower", "market_id", "borrower_id").Error; err != nil {
			return err
		}

		return nil
	})
}

func (s *markdownStore) Save(ctx context.Context, tx *db.DB, markdown *core.BorrowerMarkdown) error {
	return tx.Update().
		Where("market_id = ? and borrower_id = ?", markdown.MarketID, markdown.BorrowerID).
		FirstOrCreate(markdown).Error
}

func (s *markdownStore) Find(ctx context.Context, marketID, borrowerID string) (*core.BorrowerMarkdown, error) {
	var markdown core.BorrowerMarkdown
	err := s.db.View().Where("market_id = ? and borrower_id = ?", marketID, borrowerID).First(&markdown).Error
	if store.IsErrNotFound(err) {
		return &core.BorrowerMarkdown{}, nil
	}
	return &markdown, err
}

func (s *markdownStore) FindByMarket(ctx context.Context, marketID string) ([]*core.BorrowerMarkdown, error) {
	var markdowns []*core.BorrowerMarkdown
	if err := s.db.View().Where("market_id = ?", marketID).Find(&markdowns).Error; err != nil {
		return nil, err
	}
	return markdowns, nil
}

func (s *markdownStore) Update(ctx context.Context, tx *db.DB, markdown *core.BorrowerMarkdown) error {
	version := markdown.Version
	markdown.Version++

	updated := tx.Update().Model(core.BorrowerMarkdown{}).
		Where("market_id = ? and borrower_id = ? and version = ?", markdown.MarketID, markdown.BorrowerID, version).
		Updates(map[string]interface{}{
			"amount":        markdown.Amount,
			"distressed_at": markdown.DistressedAt,
			"version":       markdown.Version,
		})
	if updated.Error != nil {
		return updated.Error
	}
	if updated.RowsAffected == 0 {
		return db.ErrOptimisticLock
	}
	return nil
}
