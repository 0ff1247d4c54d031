package cycle

import (
	"context"
	"math/big"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"creditline/core"
	"creditline/internal/irm"

	"github.com/fox-one/pkg/store/db"
)

const day = int64(24 * 3600)

type memStores struct {
	market      *core.Market
	positions   map[string]*core.Position
	lines       map[string]*core.CreditLine
	cycles      []*core.PaymentCycle
	obligations map[string]*core.RepaymentObligation
}

func (s *memStores) Create(ctx context.Context, tx *db.DB, market *core.Market) error { return nil }

func (s *memStores) Find(ctx context.Context, marketID string) (*core.Market, error) {
	if s.market != nil && s.market.MarketID == marketID {
		cp := *s.market
		return &cp, nil
	}
	return &core.Market{}, nil
}

func (s *memStores) All(ctx context.Context) ([]*core.Market, error) {
	return []*core.Market{s.market}, nil
}

func (s *memStores) Update(ctx context.Context, tx *db.DB, market *core.Market) error {
	cp := *market
	s.market = &cp
	return nil
}

type positionStore memStores

func (s *positionStore) Save(ctx context.Context, tx *db.DB, position *core.Position) error {
	cp := *position
	s.positions[position.UserID] = &cp
	return nil
}

func (s *positionStore) Find(ctx context.Context, marketID, userID string) (*core.Position, error) {
	if p, ok := s.positions[userID]; ok {
		cp := *p
		return &cp, nil
	}
	return &core.Position{}, nil
}

func (s *positionStore) FindByMarket(ctx context.Context, marketID string) ([]*core.Position, error) {
	var out []*core.Position
	for _, p := range s.positions {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (s *positionStore) Borrowers(ctx context.Context, marketID string) ([]string, error) {
	var out []string
	for _, p := range s.positions {
		if p.BorrowShares.Sign() > 0 {
			out = append(out, p.UserID)
		}
	}
	return out, nil
}

func (s *positionStore) Update(ctx context.Context, tx *db.DB, position *core.Position) error {
	cp := *position
	s.positions[position.UserID] = &cp
	return nil
}

type creditLineStore memStores

func (s *creditLineStore) Save(ctx context.Context, tx *db.DB, line *core.CreditLine) error {
	if line.ID == 0 {
		line.ID = uint64(len(s.lines) + 1)
	}
	cp := *line
	s.lines[line.BorrowerID] = &cp
	return nil
}

func (s *creditLineStore) Find(ctx context.Context, marketID, borrowerID string) (*core.CreditLine, error) {
	if l, ok := s.lines[borrowerID]; ok {
		cp := *l
		return &cp, nil
	}
	return &core.CreditLine{}, nil
}

func (s *creditLineStore) FindByMarket(ctx context.Context, marketID string) ([]*core.CreditLine, error) {
	var out []*core.CreditLine
	for _, l := range s.lines {
		cp := *l
		out = append(out, &cp)
	}
	return out, nil
}

type cycleStore memStores

func (s *cycleStore) Create(ctx context.Context, tx *db.DB, cycle *core.PaymentCycle) error {
	cp := *cycle
	s.cycles = append(s.cycles, &cp)
	return nil
}

func (s *cycleStore) Last(ctx context.Context, marketID string) (*core.PaymentCycle, error) {
	if len(s.cycles) == 0 {
		return &core.PaymentCycle{}, nil
	}
	cp := *s.cycles[len(s.cycles)-1]
	return &cp, nil
}

func (s *cycleStore) List(ctx context.Context, marketID string, limit int) ([]*core.PaymentCycle, error) {
	return s.cycles, nil
}

type obligationStore memStores

func (s *obligationStore) Save(ctx context.Context, tx *db.DB, obligation *core.RepaymentObligation) error {
	obligation.ID = uint64(len(s.obligations) + 1)
	cp := *obligation
	s.obligations[obligation.BorrowerID] = &cp
	return nil
}

func (s *obligationStore) Find(ctx context.Context, marketID, borrowerID string) (*core.RepaymentObligation, error) {
	if o, ok := s.obligations[borrowerID]; ok {
		cp := *o
		return &cp, nil
	}
	return &core.RepaymentObligation{}, nil
}

func (s *obligationStore) FindByMarket(ctx context.Context, marketID string) ([]*core.RepaymentObligation, error) {
	var out []*core.RepaymentObligation
	for _, o := range s.obligations {
		cp := *o
		out = append(out, &cp)
	}
	return out, nil
}

func (s *obligationStore) Update(ctx context.Context, tx *db.DB, obligation *core.RepaymentObligation) error {
	cp := *obligation
	s.obligations[obligation.BorrowerID] = &cp
	return nil
}

const (
	testMarketID  = "6c1a838d-6c3c-4fd1-b3cb-1b1d3a2c9f01"
	testAuthority = "8017d200-7870-4b82-b083-2cba8d03b719"
)

func newFixture(t *testing.T) (*memStores, core.ICycleService) {
	t.Helper()
	stores := &memStores{
		positions:   map[string]*core.Position{},
		lines:       map[string]*core.CreditLine{},
		obligations: map[string]*core.RepaymentObligation{},
	}
	stores.market = &core.Market{
		ID:                1,
		MarketID:          testMarketID,
		LoanAssetID:       "965e5c6e-434c-3fa9-b780-c50f43cd955c",
		IRMKey:            "fixed",
		Authority:         testAuthority,
		LastUpdate:        time.Now().Unix(),
		CycleDuration:     30 * day,
		GracePeriod:       7 * day,
		DelinquencyPeriod: 23 * day,
	}

	svc := New(
		nil,
		stores,
		(*positionStore)(stores),
		(*creditLineStore)(stores),
		(*cycleStore)(stores),
		(*obligationStore)(stores),
		irm.NewFixed("fixed", decimal.NewFromFloat(0.10)),
	)
	return stores, svc
}

func TestCloseCycleAuthority(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)

	cycleEnd := stores.market.CycleDuration

	err := svc.CloseCycleAndPostObligations(ctx, "intruder", testMarketID, cycleEnd, nil)
	assert.ErrorIs(t, err, core.ErrNotAuthorized)

	err = svc.CloseCycleAndPostObligations(ctx, testAuthority, "a4a7f9e1-0000-0000-0000-000000000000", cycleEnd, nil)
	assert.ErrorIs(t, err, core.ErrMarketNotCreated)
}

func TestCloseCycleTooSoon(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)
	stores.market.LastCycleEnd = 100 * day
	stores.market.CycleCount = 3

	err := svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, 129*day, nil)
	assert.ErrorIs(t, err, core.ErrCycleTooSoon)

	require.NoError(t, svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, 130*day, nil))
	assert.Equal(t, int64(130*day), stores.market.LastCycleEnd)
	assert.Equal(t, int64(4), stores.market.CycleCount)
}

func TestCloseCycleEmptyPostingsAdvancesCycle(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)

	cycleEnd := stores.market.CycleDuration
	require.NoError(t, svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, cycleEnd, []core.ObligationPosting{}))

	assert.Len(t, stores.cycles, 1)
	assert.Equal(t, int64(1), stores.cycles[0].CycleNumber)
	assert.Equal(t, cycleEnd, stores.market.LastCycleEnd)
	assert.Empty(t, stores.obligations)
}

func TestCloseCyclePostsObligations(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)

	cycleEnd := stores.market.CycleDuration
	postings := []core.ObligationPosting{
		{BorrowerID: "borrower-1", ObligationBps: 1000, EndingBalance: big.NewInt(500_000)},
		{BorrowerID: "borrower-2", ObligationBps: 10000, EndingBalance: big.NewInt(70_001)},
	}
	require.NoError(t, svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, cycleEnd, postings))

	first := stores.obligations["borrower-1"]
	require.NotNil(t, first)
	assert.Equal(t, int64(50_000), first.AmountDue.Int64())
	assert.Equal(t, cycleEnd, first.DueDate)
	assert.Equal(t, int64(1), first.CycleNumber)

	second := stores.obligations["borrower-2"]
	require.NotNil(t, second)
	assert.Equal(t, int64(70_001), second.AmountDue.Int64())

	// A later cycle replaces the tracked obligation for the borrower.
	postings = []core.ObligationPosting{
		{BorrowerID: "borrower-1", ObligationBps: 2000, EndingBalance: big.NewInt(400_000)},
	}
	require.NoError(t, svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, 2*cycleEnd, postings))

	first = stores.obligations["borrower-1"]
	assert.Equal(t, int64(80_000), first.AmountDue.Int64())
	assert.Equal(t, int64(2), first.CycleNumber)
	assert.Equal(t, 2*cycleEnd, first.DueDate)
}

func TestCloseCycleSnapshotsPremiumAccruedBalance(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)

	borrowShares := new(big.Int).Mul(big.NewInt(1_000_000), big.NewInt(1_000_000))
	stores.market.TotalSupplyAssets = core.NewBigInt(big.NewInt(2_000_000))
	stores.market.TotalSupplyShares = core.NewBigInt(new(big.Int).Mul(big.NewInt(2_000_000), big.NewInt(1_000_000)))
	stores.market.TotalBorrowAssets = core.NewBigInt(big.NewInt(1_000_000))
	stores.market.TotalBorrowShares = core.NewBigInt(borrowShares)

	now := time.Now().Unix()
	stores.positions["borrower-1"] = &core.Position{
		ID:                1,
		MarketID:          testMarketID,
		UserID:            "borrower-1",
		BorrowShares:      core.NewBigInt(borrowShares),
		LastPremiumUpdate: now - 365*day,
	}

	rate := decimal.NewFromFloat(0.05).Shift(18).BigInt()
	rate.Quo(rate, big.NewInt(irm.SecondsPerYear))
	stores.lines["borrower-1"] = &core.CreditLine{
		ID:                   1,
		MarketID:             testMarketID,
		BorrowerID:           "borrower-1",
		CreditLimit:          core.NewBigInt(big.NewInt(2_000_000)),
		PremiumRatePerSecond: core.NewBigInt(rate),
	}

	cycleEnd := stores.market.CycleDuration
	postings := []core.ObligationPosting{{BorrowerID: "borrower-1", ObligationBps: 10000}}
	require.NoError(t, svc.CloseCycleAndPostObligations(ctx, testAuthority, testMarketID, cycleEnd, postings))

	// The snapshot carries a year of the 5% premium, not just the base
	// balance.
	obligation := stores.obligations["borrower-1"]
	require.NotNil(t, obligation)
	assert.True(t, obligation.AmountDue.Int64() > 1_000_000)
	assert.InDelta(t, 1_051_270, float64(obligation.AmountDue.Int64()), 300)

	// The accrued premium is persisted on the position and in the aggregates.
	position := stores.positions["borrower-1"]
	assert.True(t, position.BorrowShares.Cmp(borrowShares) > 0)
	assert.True(t, position.LastPremiumUpdate >= now)
	assert.True(t, stores.market.TotalBorrowAssets.Int64() > 1_000_000)
	assert.True(t, stores.market.TotalBorrowAssets.Cmp(&stores.market.TotalSupplyAssets.Int) <= 0)
}

func TestStatusOf(t *testing.T) {
	ctx := context.Background()
	stores, svc := newFixture(t)

	// No obligation tracked yet.
	status, err := svc.StatusOf(ctx, testMarketID, "borrower", 10*day)
	require.NoError(t, err)
	assert.Equal(t, core.StatusCurrent, status)

	stores.obligations["borrower"] = &core.RepaymentObligation{
		ID:          1,
		MarketID:    testMarketID,
		BorrowerID:  "borrower",
		CycleNumber: 1,
		AmountDue:   core.NewBigInt(big.NewInt(100_000)),
		DueDate:     0,
	}

	for _, tc := range []struct {
		now  int64
		want core.RepaymentStatus
	}{
		{5 * day, core.StatusGracePeriod},
		{10 * day, core.StatusDelinquent},
		{35 * day, core.StatusDefault},
	} {
		status, err = svc.StatusOf(ctx, testMarketID, "borrower", tc.now)
		require.NoError(t, err)
		assert.Equal(t, tc.want, status, "now=%d", tc.now)
	}

	_, err = svc.StatusOf(ctx, "a4a7f9e1-0000-0000-0000-000000000000", "borrower", 0)
	assert.ErrorIs(t, err, core.ErrMarketNotCreated)
}
