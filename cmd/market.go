package cmd

import (
	"math/big"

	"creditline/core"

	"github.com/spf13/cobra"
)

// command for bootstrapping markets from the ops box without going
// through the http surface.
var createMarketCmd = &cobra.Command{
	Use:     "create-market",
	Aliases: []string{"cm"},
	Short:   "create a lending market",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()

		database := provideDatabase()
		defer database.Close()

		ledgerz := provideLedgerService(database)

		loanAsset, e := cmd.Flags().GetString("loan-asset")
		if e != nil || loanAsset == "" {
			cmd.PrintErrln("invalid loan asset id")
			return
		}
		collateralAsset, _ := cmd.Flags().GetString("collateral-asset")
		oracleID, _ := cmd.Flags().GetString("oracle")
		irmKey, _ := cmd.Flags().GetString("irm")
		lltvBps, _ := cmd.Flags().GetUint64("lltv-bps")
		authority, e := cmd.Flags().GetString("authority")
		if e != nil || authority == "" {
			cmd.PrintErrln("invalid authority")
			return
		}

		params := core.MarketParams{
			LoanAssetID:       loanAsset,
			CollateralAssetID: collateralAsset,
			OracleID:          oracleID,
			IRMKey:            irmKey,
			LLTVBps:           lltvBps,
			Authority:         authority,
		}

		feeBps, _ := cmd.Flags().GetUint64("fee-bps")
		feeRecipient, _ := cmd.Flags().GetString("fee-recipient")
		cycleDuration, _ := cmd.Flags().GetInt64("cycle-duration")
		gracePeriod, _ := cmd.Flags().GetInt64("grace-period")
		delinquencyPeriod, _ := cmd.Flags().GetInt64("delinquency-period")
		fullMarkdownPeriod, _ := cmd.Flags().GetInt64("full-markdown-period")
		maxSubordinationBps, _ := cmd.Flags().GetUint64("max-subordination-bps")
		minBackingBps, _ := cmd.Flags().GetUint64("min-backing-bps")

		cfg := core.MarketConfig{
			FeeBps:              feeBps,
			FeeRecipient:        feeRecipient,
			CycleDuration:       cycleDuration,
			GracePeriod:         gracePeriod,
			DelinquencyPeriod:   delinquencyPeriod,
			FullMarkdownPeriod:  fullMarkdownPeriod,
			MaxSubordinationBps: maxSubordinationBps,
			MinBackingBps:       minBackingBps,
		}

		if raw, _ := cmd.Flags().GetString("debt-cap"); raw != "" {
			cap, ok := new(big.Int).SetString(raw, 10)
			if !ok || cap.Sign() < 0 {
				cmd.PrintErrln("invalid debt cap:", raw)
				return
			}
			cfg.DebtCap = cap
		}

		market, err := ledgerz.CreateMarket(ctx, params, cfg)
		if err != nil {
			cmd.PrintErrln("create market error:", err)
			return
		}

		cmd.Println("market created:", market.MarketID)
	},
}

func init() {
	rootCmd.AddCommand(createMarketCmd)

	createMarketCmd.Flags().String("loan-asset", "", "loan asset id")
	createMarketCmd.Flags().String("collateral-asset", "", "collateral asset id, empty for a credit line market")
	createMarketCmd.Flags().String("oracle", "", "price oracle id")
	createMarketCmd.Flags().String("irm", "", "interest rate model key")
	createMarketCmd.Flags().Uint64("lltv-bps", 0, "liquidation loan to value in bps")
	createMarketCmd.Flags().String("authority", "", "market authority user id")
	createMarketCmd.Flags().Uint64("fee-bps", 0, "protocol fee in bps")
	createMarketCmd.Flags().String("fee-recipient", "", "fee recipient user id")
	createMarketCmd.Flags().Int64("cycle-duration", 0, "payment cycle duration in seconds")
	createMarketCmd.Flags().Int64("grace-period", 0, "grace period in seconds")
	createMarketCmd.Flags().Int64("delinquency-period", 0, "delinquency period in seconds")
	createMarketCmd.Flags().Int64("full-markdown-period", 0, "full markdown ramp in seconds")
	createMarketCmd.Flags().Uint64("max-subordination-bps", 0, "max junior tranche share in bps")
	createMarketCmd.Flags().Uint64("min-backing-bps", 0, "min senior backing in bps")
	createMarketCmd.Flags().String("debt-cap", "", "total debt cap in base units, 0 or empty for unlimited")
}
