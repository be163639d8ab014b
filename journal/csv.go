package journal

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rustyeddy/signalbt/market"
)

// File names written into a CSV journal directory.
const (
	RunsFile      = "runs.csv"
	StatesFile    = "states.csv"
	TradesFile    = "trades.csv"
	PortfolioFile = "portfolio.csv"
)

var (
	runsHeader      = []string{"run_id", "created", "policy", "symbols", "failed", "start", "end", "initial_cash", "final_value", "total_pnl", "return_pct", "sharpe", "max_drawdown", "trades"}
	statesHeader    = []string{"run_id", "date", "symbol", "close", "signal", "position_size", "cash", "portfolio_value", "pnl", "exit_reason"}
	tradesHeader    = []string{"run_id", "trade_id", "timestamp", "symbol", "side", "shares", "price", "amount"}
	portfolioHeader = []string{"run_id", "date", "total_portfolio_value"}
)

type csvFile struct {
	f *os.File
	w *csv.Writer
}

// CSV appends runs to four files in one directory. Headers are written only
// when a file is created, so consecutive runs share the files.
type CSV struct {
	runs, states, trades, portfolio *csvFile
}

func NewCSV(dir string) (*CSV, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	j := &CSV{}
	for _, f := range []struct {
		dst    **csvFile
		name   string
		header []string
	}{
		{&j.runs, RunsFile, runsHeader},
		{&j.states, StatesFile, statesHeader},
		{&j.trades, TradesFile, tradesHeader},
		{&j.portfolio, PortfolioFile, portfolioHeader},
	} {
		cf, err := openCSV(filepath.Join(dir, f.name), f.header)
		if err != nil {
			j.Close()
			return nil, err
		}
		*f.dst = cf
	}
	return j, nil
}

func openCSV(path string, header []string) (*csvFile, error) {
	_, statErr := os.Stat(path)
	fresh := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}
	cf := &csvFile{f: f, w: csv.NewWriter(f)}
	if fresh {
		if err := cf.write(header); err != nil {
			f.Close()
			return nil, err
		}
	}
	return cf, nil
}

func (c *csvFile) write(rows ...[]string) error {
	if err := c.w.WriteAll(rows); err != nil {
		return fmt.Errorf("write %s: %w", c.f.Name(), err)
	}
	return nil
}

func (c *csvFile) close() error {
	if c == nil {
		return nil
	}
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		c.f.Close()
		return err
	}
	return c.f.Close()
}

func (j *CSV) RecordRun(r Run) error {
	return j.runs.write([]string{
		r.RunID,
		r.Created.Format(time.RFC3339),
		r.Policy,
		strings.Join(r.Symbols, ","),
		strings.Join(r.Failed, ","),
		date(r.Start),
		date(r.End),
		f(r.InitialCash),
		f(r.FinalValue),
		f(r.TotalPnL),
		f(r.ReturnPct),
		f(r.Sharpe),
		f(r.MaxDrawdown),
		strconv.Itoa(r.Trades),
	})
}

func (j *CSV) RecordStates(runID string, states []market.AccountState) error {
	rows := make([][]string, 0, len(states))
	for _, s := range states {
		rows = append(rows, []string{
			runID,
			date(s.Time),
			s.Symbol,
			f(s.Close),
			strconv.Itoa(int(s.Signal)),
			f(s.PositionSize),
			f(s.Cash),
			f(s.PortfolioValue),
			f(s.PnL),
			s.ExitReason,
		})
	}
	return j.states.write(rows...)
}

func (j *CSV) RecordTrades(runID string, trades []market.TradeRecord) error {
	rows := make([][]string, 0, len(trades))
	for _, t := range trades {
		rows = append(rows, []string{
			runID,
			t.TradeID,
			t.Time.Format(time.RFC3339),
			t.Symbol,
			string(t.Side),
			f(t.Shares),
			f(t.Price),
			f(t.Amount),
		})
	}
	return j.trades.write(rows...)
}

func (j *CSV) RecordPortfolio(runID string, points []market.PortfolioPoint) error {
	rows := make([][]string, 0, len(points))
	for _, p := range points {
		rows = append(rows, []string{runID, date(p.Time), f(p.TotalValue)})
	}
	return j.portfolio.write(rows...)
}

func (j *CSV) Close() error {
	var first error
	for _, c := range []*csvFile{j.runs, j.states, j.trades, j.portfolio} {
		if err := c.close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 6, 64)
}

// date writes daily bars as plain dates and anything intraday as RFC3339.
func date(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format(time.RFC3339)
}
