package core

import (
	"context"
	"math/big"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// BorrowerMarkdown the current writedown applied to one borrower's expected
// balance. The market aggregate is maintained incrementally from these rows.
type BorrowerMarkdown struct {
	ID         uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID   string `sql:"size:36;unique_index:markdown_idx" json:"market_id"`
	BorrowerID string `sql:"size:36;unique_index:markdown_idx" json:"borrower_id"`

	Amount BigInt `sql:"type:varchar(80)" json:"amount"`
	// DistressedAt when the borrower entered Delinquent status; zero while
	// Current or in grace.
	DistressedAt int64 `json:"distressed_at"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// IMarkdownStore markdown persistence
type IMarkdownStore interface {
	Save(ctx context.Context, tx *db.DB, markdown *BorrowerMarkdown) error
	// Find returns a markdown with ID == 0 when the borrower has none.
	Find(ctx context.Context, marketID, borrowerID string) (*BorrowerMarkdown, error)
	FindByMarket(ctx context.Context, marketID string) ([]*BorrowerMarkdown, error)
	Update(ctx context.Context, tx *db.DB, markdown *BorrowerMarkdown) error
}

// MarkdownManager pluggable expected-loss policy. Implementations must return
// zero for borrowers that are Current or in grace, and must never exceed the
// principal.
type MarkdownManager interface {
	Name() string
	// CalculateMarkdown returns the writedown in asset units for a borrower
	// that has spent timeInDistress seconds in Delinquent/Default status.
	CalculateMarkdown(ctx context.Context, market *Market, principal *big.Int, timeInDistress int64) (*big.Int, error)
}

// BorrowerMarkdownInfo read view for one borrower.
type BorrowerMarkdownInfo struct {
	MarketID   string          `json:"market_id"`
	BorrowerID string          `json:"borrower_id"`
	Status     RepaymentStatus `json:"status"`
	Principal  *big.Int        `json:"principal"`
	Markdown   *big.Int        `json:"markdown"`
}

// MarketMarkdownInfo read view for tranche wrappers: supply-side value after
// the markdown adjustment. The underlying ledger totals are not mutated.
type MarketMarkdownInfo struct {
	MarketID            string   `json:"market_id"`
	TotalSupplyAssets   *big.Int `json:"total_supply_assets"`
	TotalMarkdown       *big.Int `json:"total_markdown"`
	ReportedSupplyValue *big.Int `json:"reported_supply_value"`
}

// IMarkdownService markdown read/refresh surface exposed to tranche wrappers.
type IMarkdownService interface {
	GetBorrowerMarkdownInfo(ctx context.Context, marketID, borrowerID string) (*BorrowerMarkdownInfo, error)
	GetMarketMarkdownInfo(ctx context.Context, marketID string) (*MarketMarkdownInfo, error)
	GetMarkdownManager(ctx context.Context) MarkdownManager
	// RefreshBorrower recomputes one borrower's markdown and folds the delta
	// into the market aggregate.
	RefreshBorrower(ctx context.Context, marketID, borrowerID string) error
	// RefreshMarket recomputes every borrower markdown in the market; full
	// scan, reporting/maintenance path only.
	RefreshMarket(ctx context.Context, marketID string) error
}
