package markdown

import (
	"context"
	"math/big"
	"time"

	"creditline/core"
	"creditline/internal/ledger"

	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
)

// LinearManager the reference expected-loss policy: a linear ramp from zero
// to full principal over the market's full markdown period, starting at
// delinquency onset.
type LinearManager struct{}

func (LinearManager) Name() string {
	return "linear"
}

func (LinearManager) CalculateMarkdown(ctx context.Context, market *core.Market, principal *big.Int, timeInDistress int64) (*big.Int, error) {
	return ledger.LinearMarkdown(principal, timeInDistress, market.FullMarkdownPeriod)
}

type service struct {
	db          *db.DB
	markets     core.IMarketStore
	positions   core.IPositionStore
	obligations core.IObligationStore
	markdowns   core.IMarkdownStore
	manager     core.MarkdownManager
	engine      *ledger.Engine
}

// New new markdown service
func New(
	db *db.DB,
	markets core.IMarketStore,
	positions core.IPositionStore,
	obligations core.IObligationStore,
	markdowns core.IMarkdownStore,
	manager core.MarkdownManager,
	irm core.InterestRateModel,
) core.IMarkdownService {
	return &service{
		db:          db,
		markets:     markets,
		positions:   positions,
		obligations: obligations,
		markdowns:   markdowns,
		manager:     manager,
		engine:      ledger.NewEngine(irm),
	}
}

func (s *service) GetMarkdownManager(ctx context.Context) core.MarkdownManager {
	return s.manager
}

func (s *service) GetBorrowerMarkdownInfo(ctx context.Context, marketID, borrowerID string) (*core.BorrowerMarkdownInfo, error) {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	position, err := s.positions.Find(ctx, marketID, borrowerID)
	if err != nil {
		return nil, err
	}
	principal, err := s.engine.BorrowBalance(market, position)
	if err != nil {
		return nil, err
	}

	obligation, err := s.obligations.Find(ctx, marketID, borrowerID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	status := core.StatusCurrent
	markdown := new(big.Int)
	if obligation.ID > 0 {
		status = ledger.StatusOf(now, obligation.DueDate, &obligation.AmountDue.Int, market.GracePeriod, market.DelinquencyPeriod)
		distress := ledger.TimeInDistress(now, obligation.DueDate, &obligation.AmountDue.Int, market.GracePeriod)
		if markdown, err = s.manager.CalculateMarkdown(ctx, market, principal, distress); err != nil {
			return nil, err
		}
	}

	return &core.BorrowerMarkdownInfo{
		MarketID:   marketID,
		BorrowerID: borrowerID,
		Status:     status,
		Principal:  principal,
		Markdown:   markdown,
	}, nil
}

func (s *service) GetMarketMarkdownInfo(ctx context.Context, marketID string) (*core.MarketMarkdownInfo, error) {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	return &core.MarketMarkdownInfo{
		MarketID:            marketID,
		TotalSupplyAssets:   new(big.Int).Set(&market.TotalSupplyAssets.Int),
		TotalMarkdown:       new(big.Int).Set(&market.TotalMarkdown.Int),
		ReportedSupplyValue: market.ReportedSupplyAssets(),
	}, nil
}

func (s *service) RefreshBorrower(ctx context.Context, marketID, borrowerID string) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}

	return s.txn(func(tx *db.DB) error {
		if err := s.refreshBorrower(ctx, tx, market, borrowerID); err != nil {
			return err
		}
		return s.markets.Update(ctx, tx, market)
	})
}

func (s *service) RefreshMarket(ctx context.Context, marketID string) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}

	obligations, err := s.obligations.FindByMarket(ctx, marketID)
	if err != nil {
		return err
	}

	return s.txn(func(tx *db.DB) error {
		for _, obligation := range obligations {
			if err := s.refreshBorrower(ctx, tx, market, obligation.BorrowerID); err != nil {
				return err
			}
		}
		return s.markets.Update(ctx, tx, market)
	})
}

// refreshBorrower recomputes one borrower markdown and folds the delta into
// the market aggregate held by the caller. The aggregate is maintained
// incrementally; no full scan happens outside RefreshMarket.
func (s *service) refreshBorrower(ctx context.Context, tx *db.DB, market *core.Market, borrowerID string) error {
	log := logger.FromContext(ctx).WithField("service", "markdown")

	obligation, err := s.obligations.Find(ctx, market.MarketID, borrowerID)
	if err != nil {
		return err
	}

	position, err := s.positions.Find(ctx, market.MarketID, borrowerID)
	if err != nil {
		return err
	}
	principal, err := s.engine.BorrowBalance(market, position)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	var distress int64
	var onset int64
	if obligation.ID > 0 {
		distress = ledger.TimeInDistress(now, obligation.DueDate, &obligation.AmountDue.Int, market.GracePeriod)
		if distress > 0 {
			onset = obligation.DueDate + market.GracePeriod
		}
	}

	amount := new(big.Int)
	if distress > 0 {
		if amount, err = s.manager.CalculateMarkdown(ctx, market, principal, distress); err != nil {
			return err
		}
	}

	markdown, err := s.markdowns.Find(ctx, market.MarketID, borrowerID)
	if err != nil {
		return err
	}

	delta := new(big.Int).Sub(amount, &markdown.Amount.Int)
	if delta.Sign() == 0 && markdown.DistressedAt == onset {
		return nil
	}

	isNew := markdown.ID == 0
	markdown.MarketID = market.MarketID
	markdown.BorrowerID = borrowerID
	markdown.Amount = core.NewBigInt(amount)
	markdown.DistressedAt = onset

	total := new(big.Int).Add(&market.TotalMarkdown.Int, delta)
	if total.Sign() < 0 {
		total.SetInt64(0)
	}
	market.TotalMarkdown = core.NewBigInt(total)

	if isNew {
		if err := s.markdowns.Save(ctx, tx, markdown); err != nil {
			return err
		}
	} else {
		if err := s.markdowns.Update(ctx, tx, markdown); err != nil {
			return err
		}
	}

	log.WithFields(map[string]interface{}{
		"market_id":   market.MarketID,
		"borrower_id": borrowerID,
		"markdown":    amount.String(),
	}).Debugln("markdown refreshed")
	return nil
}

func (s *service) findMarket(ctx context.Context, marketID string) (*core.Market, error) {
	market, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if market.ID == 0 {
		return nil, core.ErrMarketNotCreated
	}
	return market, nil
}

func (s *service) txn(fn func(tx *db.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Tx(fn)
}
