package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/backtest"
)

var portfolioCmd = &cobra.Command{
	Use:   "portfolio",
	Short: "Backtest an equally weighted multi symbol portfolio",
	Long: `Portfolio splits initial cash equally across the symbols, runs each one
with its own engine and sums the per symbol portfolio values by date.

A symbol that cannot be loaded or simulated is reported and left out of
the aggregate; the others still run.

Symbols come from portfolio.symbols in the config file and from
repeated --symbol flags.

Example:
  signalbt portfolio --symbol AAPL=data/aapl.csv --symbol MSFT=data/msft.csv
  signalbt portfolio -c portfolio.yaml --workers 8`,
	RunE: runPortfolio,
}

var (
	pfSymbols map[string]string
	pfWorkers int
)

func init() {
	rootCmd.AddCommand(portfolioCmd)

	portfolioCmd.Flags().StringToStringVar(&pfSymbols, "symbol", nil, "SYMBOL=path/to.csv, repeatable")
	portfolioCmd.Flags().IntVarP(&pfWorkers, "workers", "w", 0, "symbols simulated concurrently (0: config or one per symbol)")
	addRunFlags(portfolioCmd)
}

func runPortfolio(cmd *cobra.Command, args []string) error {
	if cfg.Portfolio.Symbols == nil {
		cfg.Portfolio.Symbols = map[string]string{}
	}
	for sym, path := range pfSymbols {
		cfg.Portfolio.Symbols[sym] = path
	}
	if cmd.Flags().Changed("workers") {
		cfg.Backtest.Workers = pfWorkers
	}
	if err := applyRunFlags(cmd); err != nil {
		return err
	}
	if len(cfg.Portfolio.Symbols) == 0 {
		return errors.New("no symbols: use --symbol or portfolio.symbols")
	}

	policy, err := tradePolicy()
	if err != nil {
		return err
	}

	names := cfg.SymbolNames()
	inputs := make([]backtest.Input, 0, len(names))
	for _, sym := range names {
		inputs = append(inputs, backtest.FromCSV(sym, cfg.Portfolio.Symbols[sym]))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := backtest.RunPortfolio(ctx, backtest.Portfolio{
		Policy:      policy,
		InitialCash: cfg.Account.InitialCash,
		Workers:     cfg.Backtest.Workers,
		Logger:      log,
	}, inputs)
	if err != nil {
		return err
	}
	if len(res.Succeeded()) == 0 {
		backtest.PrintResult(os.Stdout, "", res)
		return errors.New("every symbol failed")
	}

	runID, err := record(res)
	if err != nil {
		return err
	}
	if runID != "" {
		log.Info("run recorded", zap.String("run_id", runID), zap.String("journal", cfg.Journal.Type))
	}

	backtest.PrintResult(os.Stdout, runID, res)
	return nil
}
