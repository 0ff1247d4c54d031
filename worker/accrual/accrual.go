package accrual

import (
	"context"
	"sync"
	"time"

	"creditline/config"
	"creditline/core"
	"creditline/worker"

	"github.com/fox-one/pkg/logger"
	"github.com/robfig/cron/v3"
)

// Worker periodic interest and premium accrual across all markets.
type Worker struct {
	worker.BaseJob
	Config        *config.Config
	MarketStore   core.IMarketStore
	PositionStore core.IPositionStore
	LedgerService core.ILedgerService
}

// New new accrual worker
func New(
	cfg *config.Config,
	marketStore core.IMarketStore,
	positionStore core.IPositionStore,
	ledgerService core.ILedgerService,
) *Worker {
	job := Worker{
		Config:        cfg,
		MarketStore:   marketStore,
		PositionStore: positionStore,
		LedgerService: ledgerService,
	}

	l, _ := time.LoadLocation(job.Config.App.Location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := "@every 60s"
	job.Cron.AddFunc(spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "accrual")

	markets, err := w.MarketStore.All(ctx)
	if err != nil {
		log.Errorln("fetch all markets error:", err)
		return err
	}

	wg := sync.WaitGroup{}
	for _, m := range markets {
		wg.Add(1)
		go func(market *core.Market) {
			defer wg.Done()
			w.accrueMarket(ctx, market)
		}(m)
	}
	wg.Wait()

	return nil
}

func (w *Worker) accrueMarket(ctx context.Context, market *core.Market) {
	log := logger.FromContext(ctx).WithFields(map[string]interface{}{
		"worker":    "accrual",
		"market_id": market.MarketID,
	})

	if _, err := w.LedgerService.AccrueInterest(ctx, market.MarketID); err != nil {
		log.Errorln("accrue interest error:", err)
		return
	}

	if !market.IsCreditLine() {
		return
	}

	borrowers, err := w.PositionStore.Borrowers(ctx, market.MarketID)
	if err != nil {
		log.Errorln("list borrowers error:", err)
		return
	}
	if len(borrowers) == 0 {
		return
	}

	if err := w.LedgerService.AccruePremiumsForBorrowers(ctx, market.MarketID, borrowers); err != nil {
		log.Errorln("accrue premiums error:", err)
	}
}
