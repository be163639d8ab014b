package cmd

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/signalbt/backtest"
	"github.com/rustyeddy/signalbt/journal"
)

// Flags shared by backtest and portfolio. Each only overrides the config
// when it was set on the command line.
var (
	runPolicy      string
	runCash        float64
	runCommission  float64
	runReserve     bool
	runPosition    float64
	runStopLoss    float64
	runTakeProfit  float64
	runJournalType string
	runJournalDir  string
	runJournalDB   string
	runNoJournal   bool
)

func addRunFlags(c *cobra.Command) {
	f := c.Flags()
	f.StringVarP(&runPolicy, "policy", "p", "risk", "trade policy (risk, execution)")
	f.Float64VarP(&runCash, "cash", "b", 100_000, "initial cash")
	f.Float64Var(&runCommission, "commission", 0.001, "execution: commission rate per leg")
	f.BoolVar(&runReserve, "reserve-commission", false, "execution: size entries net of commission")
	f.Float64Var(&runPosition, "position", 0.10, "risk: position size as a fraction of initial cash")
	f.Float64Var(&runStopLoss, "stop-loss", 0.05, "risk: stop loss fraction below entry")
	f.Float64Var(&runTakeProfit, "take-profit", 0.10, "risk: take profit fraction above entry")
	f.StringVar(&runJournalType, "journal", "", "journal type (csv, sqlite)")
	f.StringVar(&runJournalDir, "out", "", "csv journal directory")
	f.StringVarP(&runJournalDB, "db", "d", "", "sqlite journal path")
	f.BoolVar(&runNoJournal, "no-journal", false, "do not record the run")
}

func applyRunFlags(c *cobra.Command) error {
	f := c.Flags()
	if f.Changed("policy") {
		cfg.Backtest.Policy = strings.ToLower(runPolicy)
	}
	if f.Changed("cash") {
		cfg.Account.InitialCash = runCash
	}
	if f.Changed("commission") {
		cfg.Execution.Commission = runCommission
	}
	if f.Changed("reserve-commission") {
		cfg.Execution.ReserveCommission = runReserve
	}
	if f.Changed("position") {
		cfg.Risk.MaxPositionPct = runPosition
	}
	if f.Changed("stop-loss") {
		cfg.Risk.StopLossPct = runStopLoss
	}
	if f.Changed("take-profit") {
		cfg.Risk.TakeProfitPct = runTakeProfit
	}
	if f.Changed("journal") {
		cfg.Journal.Type = runJournalType
	}
	if f.Changed("out") {
		cfg.Journal.Dir = runJournalDir
		if cfg.Journal.Type == "" {
			cfg.Journal.Type = "csv"
		}
	}
	if f.Changed("db") {
		cfg.Journal.DBPath = runJournalDB
		if cfg.Journal.Type == "" {
			cfg.Journal.Type = "sqlite"
		}
	}
	if runNoJournal {
		cfg.Journal.Type = ""
	}
	return cfg.Validate()
}

func tradePolicy() (backtest.TradePolicy, error) {
	return backtest.PolicyByName(cfg.Backtest.Policy, cfg.RiskPolicy(),
		cfg.Execution.Commission, cfg.Execution.ReserveCommission, log)
}

// openJournal returns nil when journaling is off.
func openJournal() (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "csv":
		return journal.NewCSV(cfg.Journal.Dir)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	}
	return nil, nil
}

func record(res *backtest.PortfolioResult) (string, error) {
	j, err := openJournal()
	if err != nil {
		return "", fmt.Errorf("open journal: %w", err)
	}
	if j == nil {
		return "", nil
	}
	defer j.Close()

	run, err := backtest.Record(j, res, "", time.Now())
	if err != nil {
		return "", err
	}
	return run.RunID, nil
}

// symbolFromPath turns data/aapl.csv into AAPL.
func symbolFromPath(path string) string {
	base := filepath.Base(path)
	return strings.ToUpper(strings.TrimSuffix(base, filepath.Ext(base)))
}
