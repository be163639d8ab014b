package cmd

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/rustyeddy/signalbt/journal"
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Query recorded runs",
	Long: `Query and display backtest runs recorded in a SQLite journal.

Subcommands:
  runs            - List recent runs
  trades <run-id> - Print the trade ledger of a run as CSV
  equity <run-id> - Print the portfolio series of a run as CSV
  org <run-id>    - Export a run as an Org heading

Examples:
  signalbt journal runs --limit 10
  signalbt journal equity 01J0000000000000000000000
  signalbt journal org 01J0000000000000000000000 > run.org`,
}

var journalRunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent runs",
	Args:  cobra.NoArgs,
	RunE:  runJournalRuns,
}

var journalTradesCmd = &cobra.Command{
	Use:   "trades <run-id>",
	Short: "Print the trade ledger of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalTrades,
}

var journalEquityCmd = &cobra.Command{
	Use:   "equity <run-id>",
	Short: "Print the portfolio value series of a run",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalEquity,
}

var journalOrgCmd = &cobra.Command{
	Use:   "org <run-id>",
	Short: "Export a run as Org mode",
	Args:  cobra.ExactArgs(1),
	RunE:  runJournalOrg,
}

var (
	journalDBPath string
	journalLimit  int
)

func init() {
	rootCmd.AddCommand(journalCmd)
	journalCmd.AddCommand(journalRunsCmd)
	journalCmd.AddCommand(journalTradesCmd)
	journalCmd.AddCommand(journalEquityCmd)
	journalCmd.AddCommand(journalOrgCmd)

	journalCmd.PersistentFlags().StringVarP(&journalDBPath, "db", "d", "", "path to SQLite journal DB (default journal.db_path or ./signalbt.sqlite)")
	journalRunsCmd.Flags().IntVarP(&journalLimit, "limit", "n", 20, "maximum runs to list (0 for all)")
}

func openSQLite() (*journal.SQLite, error) {
	path := journalDBPath
	if path == "" {
		path = cfg.Journal.DBPath
	}
	if path == "" {
		path = "./signalbt.sqlite"
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	j, err := journal.NewSQLite(path)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	return j, nil
}

func runJournalRuns(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	runs, err := j.ListRuns(context.Background(), journalLimit)
	if err != nil {
		return fmt.Errorf("query runs: %w", err)
	}

	fmt.Printf("%-26s  %-16s  %-9s  %14s  %9s  %8s  %s\n",
		"RUN ID", "CREATED", "POLICY", "FINAL VALUE", "RETURN", "SHARPE", "SYMBOLS")
	for _, r := range runs {
		fmt.Printf("%-26s  %-16s  %-9s  %14.2f  %8.2f%%  %8.4f  %s\n",
			r.RunID,
			r.Created.Local().Format("2006-01-02 15:04"),
			r.Policy,
			r.FinalValue,
			r.ReturnPct,
			r.Sharpe,
			strings.Join(r.Symbols, ","),
		)
	}
	return nil
}

func runJournalTrades(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	if _, err := j.GetRun(ctx, args[0]); err != nil {
		return err
	}
	trades, err := j.ListTrades(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	w := csv.NewWriter(os.Stdout)
	w.Write([]string{"timestamp", "symbol", "side", "shares", "price", "amount", "trade_id"})
	for _, t := range trades {
		w.Write([]string{
			t.Time.Format(time.RFC3339),
			t.Symbol,
			string(t.Side),
			strconv.FormatFloat(t.Shares, 'f', -1, 64),
			strconv.FormatFloat(t.Price, 'f', -1, 64),
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.TradeID,
		})
	}
	w.Flush()
	return w.Error()
}

func runJournalEquity(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	if _, err := j.GetRun(ctx, args[0]); err != nil {
		return err
	}
	points, err := j.ListPortfolio(ctx, args[0])
	if err != nil {
		return fmt.Errorf("query portfolio: %w", err)
	}

	w := csv.NewWriter(os.Stdout)
	w.Write([]string{"date", "total_portfolio_value"})
	for _, p := range points {
		w.Write([]string{p.Time.Format("2006-01-02"), strconv.FormatFloat(p.TotalValue, 'f', 2, 64)})
	}
	w.Flush()
	return w.Error()
}

func runJournalOrg(cmd *cobra.Command, args []string) error {
	j, err := openSQLite()
	if err != nil {
		return err
	}
	defer j.Close()

	ctx := context.Background()
	run, err := j.GetRun(ctx, args[0])
	if err != nil {
		return err
	}
	trades, err := j.ListTrades(ctx, run.RunID)
	if err != nil {
		return fmt.Errorf("query trades: %w", err)
	}

	out, err := journal.FormatRunOrg(run, trades)
	if err != nil {
		return fmt.Errorf("format org: %w", err)
	}
	fmt.Print(out)
	return nil
}
