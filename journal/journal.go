// Package journal persists backtest runs: the run summary, every per-step
// account state, the simulator trade ledger and the aggregated portfolio.
package journal

import (
	"time"

	"github.com/rustyeddy/signalbt/market"
)

// Run mirrors the runs table.
type Run struct {
	RunID   string
	Created time.Time
	Policy  string

	Symbols []string
	Failed  []string // symbols whose series could not be simulated

	Start time.Time
	End   time.Time

	InitialCash float64
	FinalValue  float64
	TotalPnL    float64
	ReturnPct   float64
	Sharpe      float64
	MaxDrawdown float64
	Trades      int
}

// Journal is written once per run, after the simulation completes.
type Journal interface {
	RecordRun(Run) error
	RecordStates(runID string, states []market.AccountState) error
	RecordTrades(runID string, trades []market.TradeRecord) error
	RecordPortfolio(runID string, points []market.PortfolioPoint) error
	Close() error
}
