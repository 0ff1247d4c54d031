package ledger

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"creditline/core"
	"creditline/internal/ledger"
	"creditline/pkg/id"

	"github.com/asaskevich/govalidator"
	"github.com/fox-one/pkg/logger"
	"github.com/fox-one/pkg/store/db"
)

type service struct {
	db          *db.DB
	markets     core.IMarketStore
	positions   core.IPositionStore
	lines       core.ICreditLineStore
	obligations core.IObligationStore
	markdowns   core.IMarkdownStore
	oracle      core.IPriceOracleService
	engine      *ledger.Engine
}

// New new ledger service
func New(
	db *db.DB,
	markets core.IMarketStore,
	positions core.IPositionStore,
	lines core.ICreditLineStore,
	obligations core.IObligationStore,
	markdowns core.IMarkdownStore,
	oracle core.IPriceOracleService,
	irm core.InterestRateModel,
) core.ILedgerService {
	return &service{
		db:          db,
		markets:     markets,
		positions:   positions,
		lines:       lines,
		obligations: obligations,
		markdowns:   markdowns,
		oracle:      oracle,
		engine:      ledger.NewEngine(irm),
	}
}

// MarketID the deterministic market identifier: a content-hash uuid of the
// immutable parameter set. Creating the same params twice maps to the same id.
func MarketID(params core.MarketParams) string {
	return id.UUIDFromString(fmt.Sprintf(
		"market:%s:%s:%s:%s:%d:%s",
		params.LoanAssetID,
		params.CollateralAssetID,
		params.OracleID,
		params.IRMKey,
		params.LLTVBps,
		params.Authority,
	))
}

func (s *service) CreateMarket(ctx context.Context, params core.MarketParams, cfg core.MarketConfig) (*core.Market, error) {
	log := logger.FromContext(ctx).WithField("service", "ledger")

	if params.LoanAssetID == "" || params.IRMKey == "" || params.Authority == "" {
		return nil, core.ErrInvalidMarketParams
	}
	if ok, err := govalidator.ValidateStruct(params); !ok {
		log.WithError(err).Debugln("market params rejected")
		return nil, core.ErrInvalidMarketParams
	}
	if params.IsCreditLine() && cfg.CycleDuration <= 0 {
		return nil, core.ErrInvalidMarketParams
	}
	if !params.IsCreditLine() && (params.LLTVBps == 0 || params.LLTVBps > 10000) {
		return nil, core.ErrInvalidMarketParams
	}
	if cfg.FeeBps > 10000 || (cfg.FeeBps > 0 && cfg.FeeRecipient == "") {
		return nil, core.ErrInvalidMarketParams
	}

	marketID := MarketID(params)
	existing, err := s.markets.Find(ctx, marketID)
	if err != nil {
		return nil, err
	}
	if existing.ID > 0 {
		return nil, core.ErrMarketAlreadyCreated
	}

	market := &core.Market{
		MarketID:            marketID,
		LoanAssetID:         params.LoanAssetID,
		CollateralAssetID:   params.CollateralAssetID,
		OracleID:            params.OracleID,
		IRMKey:              params.IRMKey,
		LLTVBps:             params.LLTVBps,
		Authority:           params.Authority,
		LastUpdate:          time.Now().Unix(),
		FeeBps:              cfg.FeeBps,
		FeeRecipient:        cfg.FeeRecipient,
		CycleDuration:       cfg.CycleDuration,
		GracePeriod:         cfg.GracePeriod,
		DelinquencyPeriod:   cfg.DelinquencyPeriod,
		FullMarkdownPeriod:  cfg.FullMarkdownPeriod,
		DebtCap:             core.NewBigInt(cfg.DebtCap),
		MaxSubordinationBps: cfg.MaxSubordinationBps,
		MinBackingBps:       cfg.MinBackingBps,
	}

	if err := s.txn(func(tx *db.DB) error {
		return s.markets.Create(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	log.WithField("market_id", marketID).Infoln("market created")
	return market, nil
}

func (s *service) Supply(ctx context.Context, marketID, userID string, assets *big.Int) (*core.Transfer, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return nil, err
	}

	position, isNew, err := s.findOrInitPosition(ctx, marketID, userID)
	if err != nil {
		return nil, err
	}

	shares, err := s.engine.Supply(market, position, assets)
	if err != nil {
		return nil, err
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		if err := s.persistPosition(ctx, tx, position, isNew); err != nil {
			return err
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(map[string]interface{}{
		"market_id": marketID,
		"user_id":   userID,
		"assets":    assets.String(),
	}).Debugln("supply")

	return &core.Transfer{MarketID: marketID, UserID: userID, Assets: assets, Shares: shares}, nil
}

func (s *service) Withdraw(ctx context.Context, marketID, userID string, assets *big.Int) (*core.Transfer, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return nil, err
	}

	position, err := s.positions.Find(ctx, marketID, userID)
	if err != nil {
		return nil, err
	}
	if position.ID == 0 {
		return nil, core.ErrInsufficientBalance
	}

	shares, err := s.engine.Withdraw(market, position, assets)
	if err != nil {
		return nil, err
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		if err := s.positions.Update(ctx, tx, position); err != nil {
			return err
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	return &core.Transfer{MarketID: marketID, UserID: userID, Assets: assets, Shares: shares}, nil
}

func (s *service) Borrow(ctx context.Context, marketID, borrowerID string, assets *big.Int) (*core.Transfer, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return nil, err
	}

	position, isNew, err := s.findOrInitPosition(ctx, marketID, borrowerID)
	if err != nil {
		return nil, err
	}

	var line *core.CreditLine
	var collateralPrice *big.Int
	if market.IsCreditLine() {
		line, err = s.lines.Find(ctx, marketID, borrowerID)
		if err != nil {
			return nil, err
		}
		if _, err := s.engine.AccruePremium(market, position, line, now); err != nil {
			return nil, err
		}
	} else {
		collateralPrice, err = s.oracle.GetPrice(ctx, market.CollateralAssetID)
		if err != nil {
			return nil, err
		}
	}

	shares, err := s.engine.Borrow(market, position, line, collateralPrice, assets, now)
	if err != nil {
		return nil, err
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		if err := s.persistPosition(ctx, tx, position, isNew); err != nil {
			return err
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	logger.FromContext(ctx).WithFields(map[string]interface{}{
		"market_id":   marketID,
		"borrower_id": borrowerID,
		"assets":      assets.String(),
	}).Debugln("borrow")

	return &core.Transfer{MarketID: marketID, UserID: borrowerID, Assets: assets, Shares: shares}, nil
}

func (s *service) Repay(ctx context.Context, marketID, borrowerID string, assets *big.Int) (*core.Transfer, error) {
	if assets == nil || assets.Sign() <= 0 {
		return nil, core.ErrInvalidAmount
	}

	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return nil, err
	}

	position, err := s.positions.Find(ctx, marketID, borrowerID)
	if err != nil {
		return nil, err
	}
	if position.ID == 0 || position.BorrowShares.Sign() == 0 {
		return nil, core.ErrInsufficientBalance
	}

	if market.IsCreditLine() {
		line, err := s.lines.Find(ctx, marketID, borrowerID)
		if err != nil {
			return nil, err
		}
		if _, err := s.engine.AccruePremium(market, position, line, now); err != nil {
			return nil, err
		}
	}

	obligation, err := s.obligations.Find(ctx, marketID, borrowerID)
	if err != nil {
		return nil, err
	}
	var tracked *core.RepaymentObligation
	if obligation.ID > 0 {
		tracked = obligation
	}

	out, err := s.engine.Repay(market, position, tracked, assets)
	if err != nil {
		return nil, err
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		if err := s.positions.Update(ctx, tx, position); err != nil {
			return err
		}
		if tracked != nil {
			if err := s.obligations.Update(ctx, tx, tracked); err != nil {
				return err
			}
			if out.ObligationCleared {
				if err := s.releaseMarkdown(ctx, tx, market, borrowerID); err != nil {
					return err
				}
			}
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	return &core.Transfer{MarketID: marketID, UserID: borrowerID, Assets: out.Assets, Shares: out.Shares}, nil
}

// releaseMarkdown zeroes the borrower's writedown and folds it out of the
// market aggregate once the posted due is fully paid, in the same transaction
// as the repayment itself.
func (s *service) releaseMarkdown(ctx context.Context, tx *db.DB, market *core.Market, borrowerID string) error {
	markdown, err := s.markdowns.Find(ctx, market.MarketID, borrowerID)
	if err != nil {
		return err
	}
	if markdown.ID == 0 || (markdown.Amount.Sign() == 0 && markdown.DistressedAt == 0) {
		return nil
	}

	total := new(big.Int).Sub(&market.TotalMarkdown.Int, &markdown.Amount.Int)
	if total.Sign() < 0 {
		total.SetInt64(0)
	}
	market.TotalMarkdown = core.NewBigInt(total)

	markdown.Amount = core.NewBigInt(nil)
	markdown.DistressedAt = 0
	return s.markdowns.Update(ctx, tx, markdown)
}

func (s *service) AccrueInterest(ctx context.Context, marketID string) (*core.Market, error) {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return nil, err
	}

	if err := s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		return s.markets.Update(ctx, tx, market)
	}); err != nil {
		return nil, err
	}

	return market, nil
}

func (s *service) AccruePremium(ctx context.Context, marketID, borrowerID string) error {
	return s.AccruePremiumsForBorrowers(ctx, marketID, []string{borrowerID})
}

// AccruePremiumsForBorrowers accrues the base rate then each borrower's
// premium. The market-existence check runs before any state is touched so a
// call against an unknown market can never leave tracking residue behind.
func (s *service) AccruePremiumsForBorrowers(ctx context.Context, marketID string, borrowerIDs []string) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}

	now := time.Now().Unix()
	accrual, err := s.engine.AccrueInterest(ctx, market, now)
	if err != nil {
		return err
	}

	type touched struct {
		position *core.Position
		isNew    bool
	}
	var updates []touched

	for _, borrowerID := range borrowerIDs {
		position, isNew, err := s.findOrInitPosition(ctx, marketID, borrowerID)
		if err != nil {
			return err
		}
		line, err := s.lines.Find(ctx, marketID, borrowerID)
		if err != nil {
			return err
		}
		if _, err := s.engine.AccruePremium(market, position, line, now); err != nil {
			return err
		}
		updates = append(updates, touched{position: position, isNew: isNew})
	}

	return s.txn(func(tx *db.DB) error {
		if err := s.creditFee(ctx, tx, market, accrual); err != nil {
			return err
		}
		for _, u := range updates {
			if err := s.persistPosition(ctx, tx, u.position, u.isNew); err != nil {
				return err
			}
		}
		return s.markets.Update(ctx, tx, market)
	})
}

func (s *service) SetCreditLine(ctx context.Context, callerID, marketID, borrowerID string, creditLimit, premiumRatePerSecond *big.Int) error {
	market, err := s.findMarket(ctx, marketID)
	if err != nil {
		return err
	}
	if callerID != market.Authority {
		return core.ErrNotAuthorized
	}
	if creditLimit == nil || creditLimit.Sign() < 0 || premiumRatePerSecond == nil || premiumRatePerSecond.Sign() < 0 {
		return core.ErrInvalidAmount
	}

	line, err := s.lines.Find(ctx, marketID, borrowerID)
	if err != nil {
		return err
	}
	line.MarketID = marketID
	line.BorrowerID = borrowerID
	line.CreditLimit = core.NewBigInt(creditLimit)
	line.PremiumRatePerSecond = core.NewBigInt(premiumRatePerSecond)

	return s.txn(func(tx *db.DB) error {
		return s.lines.Save(ctx, tx, line)
	})
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

func (s *service) findOrInitPosition(ctx context.Context, marketID, userID string) (*core.Position, bool, error) {
	position, err := s.positions.Find(ctx, marketID, userID)
	if err != nil {
		return nil, false, err
	}
	if position.ID == 0 {
		position.MarketID = marketID
		position.UserID = userID
		return position, true, nil
	}
	return position, false, nil
}

func (s *service) persistPosition(ctx context.Context, tx *db.DB, position *core.Position, isNew bool) error {
	if isNew {
		return s.positions.Save(ctx, tx, position)
	}
	return s.positions.Update(ctx, tx, position)
}

// creditFee routes freshly minted fee shares to the fee recipient's position.
func (s *service) creditFee(ctx context.Context, tx *db.DB, market *core.Market, accrual *ledger.Accrual) error {
	if accrual == nil || accrual.FeeShares == nil || accrual.FeeShares.Sign() == 0 || market.FeeRecipient == "" {
		return nil
	}

	position, isNew, err := s.findOrInitPosition(ctx, market.MarketID, market.FeeRecipient)
	if err != nil {
		return err
	}
	position.SupplyShares.Add(&position.SupplyShares.Int, accrual.FeeShares)
	return s.persistPosition(ctx, tx, position, isNew)
}

func (s *service) txn(fn func(tx *db.DB) error) error {
	if s.db == nil {
		return fn(nil)
	}
	return s.db.Tx(fn)
}
