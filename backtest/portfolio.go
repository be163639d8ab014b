package backtest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/metrics"
)

// Input names a symbol and how to load its series. Loading runs on the
// worker goroutine so a bad file only fails its own symbol.
type Input struct {
	Symbol string
	Load   func() (market.Series, error)
}

// FromSeries wraps an in-memory series.
func FromSeries(s market.Series) Input {
	return Input{Symbol: s.Symbol, Load: func() (market.Series, error) { return s, nil }}
}

// FromCSV loads a signal CSV when the symbol is run.
func FromCSV(symbol, path string) Input {
	return Input{Symbol: symbol, Load: func() (market.Series, error) {
		return market.LoadSeriesCSV(path, symbol)
	}}
}

// Portfolio configures a multi symbol run.
type Portfolio struct {
	Policy      TradePolicy
	InitialCash float64 // split equally across every input, once
	Workers     int     // concurrent symbols; <= 0 means one per input
	Logger      *zap.Logger
}

// PortfolioResult holds per-symbol results in input order and the
// aggregated series of the symbols that succeeded.
type PortfolioResult struct {
	Policy      string
	InitialCash float64

	Symbols []SymbolResult
	Points  []market.PortfolioPoint
	Summary metrics.Summary

	TotalPnL    float64
	Trades      int
	Skipped     int
	Commissions float64

	Start time.Time
	End   time.Time
}

// Failed lists the symbols that could not be simulated.
func (r *PortfolioResult) Failed() []string {
	var out []string
	for _, s := range r.Symbols {
		if !s.OK() {
			out = append(out, s.Symbol)
		}
	}
	return out
}

// Succeeded lists the symbols that were simulated.
func (r *PortfolioResult) Succeeded() []string {
	var out []string
	for _, s := range r.Symbols {
		if s.OK() {
			out = append(out, s.Symbol)
		}
	}
	return out
}

// ReturnPct of the aggregated series against the full starting balance.
func (r *PortfolioResult) ReturnPct() float64 {
	return metrics.ReturnPct(r.InitialCash, r.Summary.FinalValue)
}

// RunPortfolio simulates every input with its own engine, in parallel up to
// p.Workers. A symbol that fails is recorded in its SymbolResult and the
// others carry on. The context is checked before each symbol starts.
func RunPortfolio(ctx context.Context, p Portfolio, inputs []Input) (*PortfolioResult, error) {
	if p.Policy == nil {
		return nil, errors.New("backtest: policy is required")
	}
	if len(inputs) == 0 {
		return nil, errors.New("backtest: no symbols")
	}
	if !(p.InitialCash > 0) {
		return nil, fmt.Errorf("backtest: initial cash %v must be positive", p.InitialCash)
	}
	seen := make(map[string]bool, len(inputs))
	for _, in := range inputs {
		if in.Symbol == "" || in.Load == nil {
			return nil, errors.New("backtest: input needs a symbol and a loader")
		}
		if seen[in.Symbol] {
			return nil, fmt.Errorf("backtest: duplicate symbol %q", in.Symbol)
		}
		seen[in.Symbol] = true
	}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	workers := p.Workers
	if workers <= 0 {
		workers = len(inputs)
	}

	perSymbol := p.InitialCash / float64(len(inputs))
	runner := &Runner{Policy: p.Policy, InitialCash: perSymbol, Logger: log}
	results := make([]SymbolResult, len(inputs))

	var g errgroup.Group
	g.SetLimit(workers)
	for i, in := range inputs {
		i, in := i, in
		g.Go(func() error {
			results[i] = runSymbol(ctx, runner, in)
			if err := results[i].Err; err != nil {
				log.Warn("symbol failed", zap.String("symbol", in.Symbol), zap.Error(err))
			}
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	res := &PortfolioResult{
		Policy:      p.Policy.Name(),
		InitialCash: p.InitialCash,
		Symbols:     results,
	}
	var states [][]market.AccountState
	for _, r := range results {
		if !r.OK() {
			continue
		}
		states = append(states, r.States)
		res.TotalPnL += r.TotalPnL
		res.Trades += len(r.Trades)
		res.Skipped += r.Skipped
		res.Commissions += r.Commissions
		if n := len(r.States); n > 0 {
			if first := r.States[0].Time; res.Start.IsZero() || first.Before(res.Start) {
				res.Start = first
			}
			if last := r.States[n-1].Time; last.After(res.End) {
				res.End = last
			}
		}
	}
	res.Points = Aggregate(states...)
	res.Summary = metrics.FromPortfolio(res.Points)

	log.Info("portfolio complete",
		zap.String("policy", res.Policy),
		zap.Int("symbols", len(inputs)),
		zap.Int("failed", len(res.Failed())),
		zap.Float64("final_value", res.Summary.FinalValue),
		zap.Float64("sharpe", res.Summary.SharpeRatio),
	)
	return res, nil
}

func runSymbol(ctx context.Context, r *Runner, in Input) SymbolResult {
	res := SymbolResult{Symbol: in.Symbol, InitialCash: r.InitialCash}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}
	s, err := in.Load()
	if err != nil {
		res.Err = err
		return res
	}
	if s.Symbol == "" {
		s.Symbol = in.Symbol
	}
	out, err := r.Run(s)
	if err != nil {
		res.Err = err
		return res
	}
	out.Symbol = in.Symbol
	return out
}
