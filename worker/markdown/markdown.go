package markdown

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

// Worker periodic markdown refresh: walks each market's posted obligations
// and keeps the aggregate markdown in step with the ramp.
type Worker struct {
	worker.BaseJob
	Config          *config.Config
	MarketStore     core.IMarketStore
	MarkdownService core.IMarkdownService
}

// New new markdown worker
func New(
	cfg *config.Config,
	marketStore core.IMarketStore,
	markdownService core.IMarkdownService,
) *Worker {
	job := Worker{
		Config:          cfg,
		MarketStore:     marketStore,
		MarkdownService: markdownService,
	}

	l, _ := time.LoadLocation(job.Config.App.Location)
	job.Cron = cron.New(cron.WithLocation(l))
	spec := "@every 5m"
	job.Cron.AddFunc(spec, job.Run)
	job.OnWork = func() error {
		return job.onWork(context.Background())
	}

	return &job
}

func (w *Worker) onWork(ctx context.Context) error {
	log := logger.FromContext(ctx).WithField("worker", "markdown")

	markets, err := w.MarketStore.All(ctx)
	if err != nil {
		log.Errorln("fetch all markets error:", err)
		return err
	}

	wg := sync.WaitGroup{}
	for _, m := range markets {
		if !m.IsCreditLine() {
			continue
		}
		wg.Add(1)
		go func(market *core.Market) {
			defer wg.Done()
			if err := w.MarkdownService.RefreshMarket(ctx, market.MarketID); err != nil {
				log.WithField("market_id", market.MarketID).Errorln("refresh markdown error:", err)
			}
		}(m)
	}
	wg.Wait()

	return nil
}
