package core

import (
	"context"
	"math/big"
	"time"

	"github.com/fox-one/pkg/store/db"
)

// RepaymentStatus classification of a borrower's obligation by elapsed time.
type RepaymentStatus int

const (
	// StatusCurrent no amount due, or the due date has not passed
	StatusCurrent RepaymentStatus = iota
	// StatusGracePeriod past due inside the grace window
	StatusGracePeriod
	// StatusDelinquent past the grace window
	StatusDelinquent
	// StatusDefault past the delinquency window
	StatusDefault
)

func (s RepaymentStatus) String() string {
	switch s {
	case StatusCurrent:
		return "current"
	case StatusGracePeriod:
		return "grace_period"
	case StatusDelinquent:
		return "delinquent"
	case StatusDefault:
		return "default"
	default:
		return "unknown"
	}
}

// PaymentCycle append-only per-market cycle record. Cycles are strictly
// increasing in end timestamp.
type PaymentCycle struct {
	ID           uint64    `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID     string    `sql:"size:36;unique_index:cycle_idx" json:"market_id"`
	CycleNumber  int64     `sql:"unique_index:cycle_idx" json:"cycle_number"`
	EndTimestamp int64     `json:"end_timestamp"`
	CreatedAt    time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
}

// RepaymentObligation the amount a borrower owes for the latest posted cycle.
// Status is derived on read from elapsed time, never stored as authoritative
// state.
type RepaymentObligation struct {
	ID         uint64 `sql:"PRIMARY_KEY;AUTO_INCREMENT" json:"id"`
	MarketID   string `sql:"size:36;unique_index:obligation_idx" json:"market_id"`
	BorrowerID string `sql:"size:36;unique_index:obligation_idx" json:"borrower_id"`

	CycleNumber   int64  `json:"cycle_number"`
	AmountDue     BigInt `sql:"type:varchar(80)" json:"amount_due"`
	EndingBalance BigInt `sql:"type:varchar(80)" json:"ending_balance"`
	DueDate       int64  `json:"due_date"`

	Version   int64     `sql:"default:0" json:"version"`
	CreatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `sql:"default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// ObligationPosting one borrower's due posted with a cycle close.
type ObligationPosting struct {
	BorrowerID    string   `json:"borrower_id"`
	ObligationBps uint64   `json:"obligation_bps"`
	EndingBalance *big.Int `json:"-"`
}

// IPaymentCycleStore cycle persistence
type IPaymentCycleStore interface {
	Create(ctx context.Context, tx *db.DB, cycle *PaymentCycle) error
	// Last returns a cycle with ID == 0 when the market has no cycles yet.
	Last(ctx context.Context, marketID string) (*PaymentCycle, error)
	List(ctx context.Context, marketID string, limit int) ([]*PaymentCycle, error)
}

// IObligationStore obligation persistence
type IObligationStore interface {
	Save(ctx context.Context, tx *db.DB, obligation *RepaymentObligation) error
	// Find returns an obligation with ID == 0 when none exists.
	Find(ctx context.Context, marketID, borrowerID string) (*RepaymentObligation, error)
	FindByMarket(ctx context.Context, marketID string) ([]*RepaymentObligation, error)
	Update(ctx context.Context, tx *db.DB, obligation *RepaymentObligation) error
}

// ICycleService posts payment cycles and derives repayment status.
type ICycleService interface {
	// CloseCycleAndPostObligations is restricted to the market's credit-line
	// authority. Empty postings advance the cycle without posting dues.
	CloseCycleAndPostObligations(ctx context.Context, callerID, marketID string, cycleEnd int64, postings []ObligationPosting) error
	// StatusOf derives the borrower's repayment status at now.
	StatusOf(ctx context.Context, marketID, borrowerID string, now int64) (RepaymentStatus, error)
}
