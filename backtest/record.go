package backtest

import (
	"fmt"
	"time"

	"github.com/rustyeddy/signalbt/journal"
	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/pkg/id"
)

// JournalRun builds the runs row for r. An empty runID gets a new ULID.
func (r *PortfolioResult) JournalRun(runID string, created time.Time) journal.Run {
	if runID == "" {
		runID = id.At(created)
	}
	symbols := make([]string, 0, len(r.Symbols))
	for _, s := range r.Symbols {
		symbols = append(symbols, s.Symbol)
	}
	return journal.Run{
		RunID:       runID,
		Created:     created,
		Policy:      r.Policy,
		Symbols:     symbols,
		Failed:      r.Failed(),
		Start:       r.Start,
		End:         r.End,
		InitialCash: r.InitialCash,
		FinalValue:  r.Summary.FinalValue,
		TotalPnL:    r.TotalPnL,
		ReturnPct:   r.ReturnPct(),
		Sharpe:      r.Summary.SharpeRatio,
		MaxDrawdown: r.Summary.MaxDrawdown,
		Trades:      r.Trades,
	}
}

// Record writes the run summary, every symbol's states and trades, and the
// aggregated series to j.
func Record(j journal.Journal, r *PortfolioResult, runID string, created time.Time) (journal.Run, error) {
	run := r.JournalRun(runID, created)
	if err := j.RecordRun(run); err != nil {
		return run, fmt.Errorf("record run: %w", err)
	}

	var (
		states []market.AccountState
		trades []market.TradeRecord
	)
	for _, s := range r.Symbols {
		if !s.OK() {
			continue
		}
		states = append(states, s.States...)
		trades = append(trades, s.Trades...)
	}
	if err := j.RecordStates(run.RunID, states); err != nil {
		return run, fmt.Errorf("record states: %w", err)
	}
	if err := j.RecordTrades(run.RunID, trades); err != nil {
		return run, fmt.Errorf("record trades: %w", err)
	}
	if err := j.RecordPortfolio(run.RunID, r.Points); err != nil {
		return run, fmt.Errorf("record portfolio: %w", err)
	}
	return run, nil
}
