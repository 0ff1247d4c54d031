package core

import (
	"context"
	"math/big"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// MarketParams immutable parameters fixed at market creation. The market id is
// a deterministic content hash of these fields.
type MarketParams struct {
	LoanAssetID       string `json:"loan_asset_id" valid:"uuid,required"`
	CollateralAssetID string `json:"collateral_asset_id,omitempty" valid:"uuid,optional"`
	OracleID          string `json:"oracle_id,omitempty"`
	IRMKey            string `json:"irm_key" valid:"required"`
	LLTVBps           uint64 `json:"lltv_bps"`
	Authority         string `json:"authority" valid:"required"`
}

// IsCreditLine reports whether the market extends under-collateralized credit
// lines instead of requiring collateral.
func (p MarketParams) IsCreditLine() bool {
	return p.CollateralAssetID == ""
}

// Market one lending pool. Aggregate ledger totals plus the credit-cycle and
// cap configuration. TotalMarkdown is a reporting-layer adjustment and is
// never folded back into TotalSupplyAssets.
type Market struct {
	ID       uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID string `sql:"size:36;unique_index:market_idx" json:"market_id"`

	LoanAssetID       string `sql:"size:36" json:"loan_asset_id"`
	CollateralAssetID string `sql:"size:36" json:"collateral_asset_id"`
	OracleID          string `sql:"size:36" json:"oracle_id"`
	IRMKey            string `sql:"size:36" json:"irm_key"`
	LLTVBps           uint64 `json:"lltv_bps"`
	Authority         string `sql:"size:36" json:"authority"`

	TotalSupplyAssets BigInt `sql:"type:varchar(80)" json:"total_supply_assets"`
	TotalSupplyShares BigInt `sql:"type:varchar(80)" json:"total_supply_shares"`
	TotalBorrowAssets BigInt `sql:"type:varchar(80)" json:"total_borrow_assets"`
	TotalBorrowShares BigInt `sql:"type:varchar(80)" json:"total_borrow_shares"`
	LastUpdate        int64  `json:"last_update"`
	FeeBps            uint64 `json:"fee_bps"`
	FeeRecipient      string `sql:"size:36" json:"fee_recipient"`

	CycleDuration      int64  `json:"cycle_duration"`
	GracePeriod        int64  `json:"grace_period"`
	DelinquencyPeriod  int64  `json:"delinquency_period"`
	FullMarkdownPeriod int64  `json:"full_markdown_period"`
	LastCycleEnd       int64  `json:"last_cycle_end"`
	CycleCount         int64  `json:"cycle_count"`

	DebtCap             BigInt `sql:"type:varchar(80)" json:"debt_cap"`
	MaxSubordinationBps uint64 `json:"max_subordination_bps"`
	MinBackingBps       uint64 `json:"min_backing_bps"`

	TotalMarkdown BigInt `sql:"type:varchar(80)" json:"total_markdown"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// Params reconstructs the immutable parameter set.
func (m *Market) Params() MarketParams {
	return MarketParams{
		LoanAssetID:       m.LoanAssetID,
		CollateralAssetID: m.CollateralAssetID,
		OracleID:          m.OracleID,
		IRMKey:            m.IRMKey,
		LLTVBps:           m.LLTVBps,
		Authority:         m.Authority,
	}
}

// IsCreditLine reports whether this market runs on credit lines.
func (m *Market) IsCreditLine() bool {
	return m.CollateralAssetID == ""
}

// Frozen reports whether no payment cycle covers the given time. A frozen
// credit-line market blocks new borrows; existing debt still accrues and can
// still be repaid.
func (m *Market) Frozen(now int64) bool {
	if !m.IsCreditLine() {
		return false
	}
	if m.LastCycleEnd == 0 {
		return true
	}
	return now > m.LastCycleEnd+m.CycleDuration
}

// AvailableLiquidity idle supply-side assets.
func (m *Market) AvailableLiquidity() *big.Int {
	out := new(big.Int).Sub(&m.TotalSupplyAssets.Int, &m.TotalBorrowAssets.Int)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

// ReportedSupplyAssets supply-side value after markdown, as exposed to tranche
// holders.
func (m *Market) ReportedSupplyAssets() *big.Int {
	out := new(big.Int).Sub(&m.TotalSupplyAssets.Int, &m.TotalMarkdown.Int)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

// IMarketStore market persistence
type IMarketStore interface {
	Create(ctx context.Context, tx *db.DB, market *Market) error
	// Find returns a market with ID == 0 when the market id is unknown.
	Find(ctx context.Context, marketID string) (*Market, error)
	All(ctx context.Context) ([]*Market, error)
	Update(ctx context.Context, tx *db.DB, market *Market) error
}

// InterestRateModel pluggable base-rate strategy queried once per accrual.
type InterestRateModel interface {
	Name() string
	// BorrowRatePerSecond returns the market-wide borrow rate as a WAD-scaled
	// per-second rate derived from current utilization.
	BorrowRatePerSecond(ctx context.Context, market *Market) (*big.Int, error)
}

// ILedgerService the market core operation surface. Every mutating call is
// atomic and accrues interest before touching share-price-dependent state.
type ILedgerService interface {
	CreateMarket(ctx context.Context, params MarketParams, cfg MarketConfig) (*Market, error)
	Supply(ctx context.Context, marketID, userID string, assets *big.Int) (*Transfer, error)
	Withdraw(ctx context.Context, marketID, userID string, assets *big.Int) (*Transfer, error)
	Borrow(ctx context.Context, marketID, borrowerID string, assets *big.Int) (*Transfer, error)
	Repay(ctx context.Context, marketID, borrowerID string, assets *big.Int) (*Transfer, error)
	AccrueInterest(ctx context.Context, marketID string) (*Market, error)
	AccruePremium(ctx context.Context, marketID, borrowerID string) error
	AccruePremiumsForBorrowers(ctx context.Context, marketID string, borrowerIDs []string) error
	SetCreditLine(ctx context.Context, callerID, marketID, borrowerID string, creditLimit, premiumRatePerSecond *big.Int) error
}

// MarketConfig mutable market configuration supplied at creation.
type MarketConfig struct {
	FeeBps              uint64   `json:"fee_bps"`
	FeeRecipient        string   `json:"fee_recipient"`
	CycleDuration       int64    `json:"cycle_duration"`
	GracePeriod         int64    `json:"grace_period"`
	DelinquencyPeriod   int64    `json:"delinquency_period"`
	FullMarkdownPeriod  int64    `json:"full_markdown_period"`
	DebtCap             *big.Int `json:"-"`
	MaxSubordinationBps uint64   `json:"max_subordination_bps"`
	MinBackingBps       uint64   `json:"min_backing_bps"`
}

// Transfer result of a ledger mutation: the asset delta and the share delta it
// settled at.
type Transfer struct {
	MarketID string   `json:"market_id"`
	UserID   string   `json:"user_id"`
	Assets   *big.Int `json:"assets"`
	Shares   *big.Int `json:"shares"`
}
