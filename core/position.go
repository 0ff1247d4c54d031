package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// Position per-user per-market claim and debt in share units. Created lazily
// on first supply/borrow; shares decay to zero, rows are never deleted.
type Position struct {
	ID       uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID string `sql:"size:36;unique_index:position_idx" json:"market_id"`
	UserID   string `sql:"size:36;unique_index:position_idx" json:"user_id"`

	SupplyShares BigInt `sql:"type:varchar(80)" json:"supply_shares"`
	BorrowShares BigInt `sql:"type:varchar(80)" json:"borrow_shares"`
	Collateral   BigInt `sql:"type:varchar(80)" json:"collateral"`

	// LastPremiumUpdate tracks the borrower's premium clock independently of
	// the market-wide LastUpdate; premium rates differ per borrower so their
	// accrual cadence is independent.
	LastPremiumUpdate int64 `json:"last_premium_update"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IPositionStore position persistence
type IPositionStore interface {
	Save(ctx context.Context, tx *db.DB, position *Position) error
	// Find returns a position with ID == 0 when none exists yet.
	Find(ctx context.Context, marketID, userID string) (*Position, error)
	FindByMarket(ctx context.Context, marketID string) ([]*Position, error)
	// Borrowers lists user ids with outstanding borrow shares in the market.
	Borrowers(ctx context.Context, marketID string) ([]string, error)
	Update(ctx context.Context, tx *db.DB, position *Position) error
}
