package cycle

import (
	"context"
	"time"

	"creditline/core"
	"creditline/internal/ledger"
	"creditline/pkg/mathx"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
)

type service struct {
	db          *db.DB
	markets     core.IMarketStore
	positions   core.IPositionStore
	lines       core.ICreditLineStore
	cycles      core.IPaymentCycleStore
	obligations core.IObligationStore
	engine      *ledger.Engine
}

// New new payment cycle service
func New(
	db *db.DB,
	markets core.IMarketStore,
	positions core.IPositionStore,
	lines core.ICreditLineStore,
	cycles core.IPaymentCycleStore,
	obligations core.IObligationStore,
	irm core.InterestRateModel,
) core.ICycleService {
	return &service{
		db:          db,
		markets:     markets,
		positions:   positions,
		lines:       lines,
		cycles:      cycles,
		obligations: obligations,
		engine:      ledger.NewEngine(irm),
	}
}

func (s *service) CloseCycleAndPostObligations(ctx context.Context, callerID, marketID string, cycleEnd int64, postings []core.ObligationPosting) error {
	log := logger.FromContext(ctx).WithField("service", "cycle")

	market, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return err
	}
	if market.ID == 0 {
		return core.ErrMarketNotCreated
	}
	if !market.IsCreditLine() {
		return core.ErrInvalidMarketParams
	}
	if callerID != market.Authority {
		return core.ErrNotAuthorized
	}
	if cycleEnd < market.LastCycleEnd+market.CycleDuration {
		return core.ErrCycleTooSoon
	}

	now := time.Now().Unix()
	if _, err := s.engine.AccrueInterest(ctx, market, now); err != nil {
		return err
	}

	cycleNumber := market.CycleCount + 1
	market.LastCycleEnd = cycleEnd
	market.CycleCount = cycleNumber

	type posted struct {
		obligation *core.RepaymentObligation
		isNew      bool
	}
	var updates []posted
	var touched []*core.Position

	for _, posting := range postings {
		balance := posting.EndingBalance
		if balance == nil {
			position, err := s.positions.Find(ctx, marketID, posting.BorrowerID)
			if err != nil {
				return err
			}
			// The snapshot must include the borrower's premium up to the
			// close, not just the base-accrued balance.
			line, err := s.lines.Find(ctx, marketID, posting.BorrowerID)
			if err != nil {
				return err
			}
			if _, err := s.engine.AccruePremium(market, position, line, now); err != nil {
				return err
			}
			balance, err = s.engine.BorrowBalance(market, position)
			if err != nil {
				return err
			}
			if position.ID > 0 {
				touched = append(touched, position)
			}
		}

		amountDue, err := mathx.BpsMulDown(balance, posting.ObligationBps)
		if err != nil {
			return err
		}

		obligation, err := s.obligations.Find(ctx, marketID, posting.BorrowerID)
		if err != nil {
			return err
		}
		isNew := obligation.ID == 0
		obligation.MarketID = marketID
		obligation.BorrowerID = posting.BorrowerID
		obligation.CycleNumber = cycleNumber
		obligation.AmountDue = core.NewBigInt(amountDue)
		obligation.EndingBalance = core.NewBigInt(balance)
		obligation.DueDate = cycleEnd

		updates = append(updates, posted{obligation: obligation, isNew: isNew})
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.cycles.Create(ctx, tx, &core.PaymentCycle{
			MarketID:     marketID,
			CycleNumber:  cycleNumber,
			EndTimestamp: cycleEnd,
		}); err != nil {
			return err
		}
		for _, u := range updates {
			if u.isNew {
				if err := s.obligations.Save(ctx, tx, u.obligation); err != nil {
					return err
				}
			} else {
				if err := s.obligations.Update(ctx, tx, u.obligation); err != nil {
					return err
				}
			}
		}
		for _, position := range touched {
			if err := s.positions.Update(ctx, tx, position); err != nil {
				return err
			}
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return err
	}

	log.WithFields(map[string]interface{}{
		"market_id": marketID,
		"cycle":     cycleNumber,
		"postings":  len(postings),
	}).Infoln("cycle closed")
	return nil
}

func (s *service) StatusOf(ctx context.Context, marketID, borrowerID string, now int64) (core.RepaymentStatus, error) {
	market, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return core.StatusCurrent, err
	}
	if market.ID == 0 {
		return core.StatusCurrent, core.ErrMarketNotCreated
	}

	obligation, err := s.obligations.Find(ctx, marketID, borrowerID)
	if err != nil {
		return core.StatusCurrent, err
	}
	if obligation.ID == 0 {
		return core.StatusCurrent, nil
	}

	status := ledger.StatusOf(now, obligation.DueDate, &obligation.AmountDue.Int, market.GracePeriod, market.DelinquencyPeriod)
	return status, nil
}

func (s *service) txn(fn func(tx *db.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Tx(fn)
}
