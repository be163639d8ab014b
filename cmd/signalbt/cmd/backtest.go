package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/backtest"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Backtest a single symbol",
	Long: `Backtest replays one signal CSV (Date,Close,Signal) through a trade policy.

Policies:
  - risk:      size by a fraction of initial cash, exit on signal, stop loss or take profit
  - execution: commit the whole balance on entry, pay commission on both legs

Example:
  signalbt backtest --csv data/aapl.csv --policy risk --stop-loss 0.05
  signalbt backtest --csv data/aapl.csv --policy execution --db runs.sqlite`,
	RunE: runBacktest,
}

var (
	btCSVPath string
	btSymbol  string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVarP(&btCSVPath, "csv", "f", "", "path to signal CSV (required)")
	backtestCmd.Flags().StringVarP(&btSymbol, "symbol", "s", "", "symbol name (default from file name)")
	addRunFlags(backtestCmd)

	backtestCmd.MarkFlagRequired("csv")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	if err := applyRunFlags(cmd); err != nil {
		return err
	}
	policy, err := tradePolicy()
	if err != nil {
		return err
	}

	symbol := btSymbol
	if symbol == "" {
		symbol = symbolFromPath(btCSVPath)
	}

	res, err := backtest.RunPortfolio(context.Background(), backtest.Portfolio{
		Policy:      policy,
		InitialCash: cfg.Account.InitialCash,
		Workers:     1,
		Logger:      log,
	}, []backtest.Input{backtest.FromCSV(symbol, btCSVPath)})
	if err != nil {
		return err
	}
	if err := res.Symbols[0].Err; err != nil {
		return err
	}

	runID, err := record(res)
	if err != nil {
		return err
	}
	if runID != "" {
		log.Info("run recorded", zap.String("run_id", runID), zap.String("journal", cfg.Journal.Type))
	}

	backtest.PrintResult(os.Stdout, runID, res)
	if res.Skipped > 0 {
		fmt.Printf("note: %d entries skipped for insufficient capital\n", res.Skipped)
	}
	return nil
}
