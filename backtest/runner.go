package backtest

import (
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/metrics"
)

// SymbolResult is the outcome of one symbol. Err is set instead of the
// other fields when the symbol could not be loaded or simulated.
type SymbolResult struct {
	Symbol      string
	InitialCash float64

	Outcome
	Summary  metrics.Summary
	TotalPnL float64

	Err error
}

// OK reports whether the symbol was simulated.
func (r SymbolResult) OK() bool { return r.Err == nil }

// Runner simulates a single series with one policy.
type Runner struct {
	Policy      TradePolicy
	InitialCash float64
	Logger      *zap.Logger
}

func (r *Runner) Run(s market.Series) (SymbolResult, error) {
	if r.Policy == nil {
		return SymbolResult{}, errors.New("backtest: policy is required")
	}
	if !(r.InitialCash > 0) {
		return SymbolResult{}, fmt.Errorf("backtest: initial cash %v must be positive", r.InitialCash)
	}
	log := r.Logger
	if log == nil {
		log = zap.NewNop()
	}

	out, err := r.Policy.Run(s, r.InitialCash)
	if err != nil {
		return SymbolResult{}, fmt.Errorf("backtest %s: %w", s.Symbol, err)
	}

	res := SymbolResult{
		Symbol:      s.Symbol,
		InitialCash: r.InitialCash,
		Outcome:     out,
		Summary:     metrics.FromStates(out.States),
		TotalPnL:    metrics.TotalPnL(out.States),
	}
	log.Debug("symbol simulated",
		zap.String("symbol", s.Symbol),
		zap.String("policy", r.Policy.Name()),
		zap.Int("rows", s.Len()),
		zap.Time("start", s.Start()),
		zap.Time("end", s.End()),
		zap.Int("trades", len(out.Trades)),
		zap.Int("skipped", out.Skipped),
		zap.Float64("final_value", res.Summary.FinalValue),
	)
	return res, nil
}
