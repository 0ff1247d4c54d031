package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"creditline/worker"
	"creditline/worker/accrual"
	"creditline/worker/markdown"

	"github.com/fox-one/pkg/logger"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "run background accrual and markdown jobs",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		log := logger.FromContext(ctx)

		database := provideDatabase()
		defer database.Close()

		conf := provideConfig()
		marketStore := provideCachedMarketStore(database)
		positionStore := providePositionStore(database)
		ledgerService := provideLedgerService(database)
		markdownService := provideMarkdownService(database)

		workers := []worker.IJob{
			accrual.New(conf, marketStore, positionStore, ledgerService),
			markdown.New(conf, marketStore, markdownService),
		}

		for _, w := range workers {
			if err := w.Start(); err != nil {
				log.WithError(err).Fatal("start worker failed")
			}
		}

		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		for _, w := range workers {
			w.Stop()
		}
	},
}

func init() {
	rootCmd.AddCommand(workerCmd)
}
