package core

import (
	"context"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// CreditLine per-borrower terms set by the market's credit-line authority:
// the principal ceiling and the borrower-specific risk premium layered on top
// of the base rate. Updating the premium is never retroactive; it applies from
// the borrower's next premium accrual.
type CreditLine struct {
	ID         uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID   string `sql:"size:36;unique_index:credit_line_idx" json:"market_id"`
	BorrowerID string `sql:"size:36;unique_index:credit_line_idx" json:"borrower_id"`

	CreditLimit          BigInt `sql:"type:varchar(80)" json:"credit_limit"`
	PremiumRatePerSecond BigInt `sql:"type:varchar(80)" json:"premium_rate_per_second"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ICreditLineStore credit line persistence
type ICreditLineStore interface {
	Save(ctx context.Context, tx *db.DB, line *CreditLine) error
	// Find returns a line with ID == 0 when the borrower has no credit line.
	Find(ctx context.Context, marketID, borrowerID string) (*CreditLine, error)
	FindByMarket(ctx context.Context, marketID string) ([]*CreditLine, error)
}
