package risk

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/market"
)

// State is the position carried from one step to the next. The zero value
// is FLAT before the first step.
type State struct {
	Size       float64
	EntryPrice float64 // meaningful only while Size > 0

	// Steps processed so far; the index of the next row.
	Steps int
}

// Long reports whether a position is open.
func (s State) Long() bool { return s.Size > 0 }

// Engine applies a Policy to one symbol's rows.
//
// Cash is never debited on entry nor credited on exit: every position is a
// fixed notional fraction of the initial cash and Cash stays at its initial
// value for the whole run. Realized PnL is reported per step but never
// compounds into the portfolio value.
type Engine struct {
	policy      Policy
	initialCash float64
	log         *zap.Logger
}

type Option func(*Engine)

// WithLogger logs forced exits at debug level.
func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

func NewEngine(p Policy, initialCash float64, opts ...Option) (*Engine, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	if !(initialCash > 0) {
		return nil, fmt.Errorf("risk: initial cash %v must be positive", initialCash)
	}
	e := &Engine{policy: p, initialCash: initialCash, log: zap.NewNop()}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Step applies one row to st and returns the next state with the snapshot
// for this row.
//
// Within a step the signal is handled first (entry when flat, exit when
// long), then the stop-loss check, then the take-profit check. Both checks
// compare against the entry price. Once a position closes the remaining
// checks see a flat state and do nothing.
func (e *Engine) Step(st State, symbol string, row market.Row) (State, market.AccountState, error) {
	price := row.Close
	if err := market.CheckPrice(symbol, st.Steps, price); err != nil {
		return st, market.AccountState{}, err
	}

	var pnl float64
	var reason string

	switch {
	case row.Signal == market.EnterLong && !st.Long():
		st.Size = PositionSize(e.policy.PositionFraction, e.initialCash, price)
		st.EntryPrice = price
	case row.Signal == market.Exit && st.Long():
		pnl, st = closeAt(st, price), flat(st)
		reason = market.ReasonSignal
	}

	if st.Long() && price <= StopPrice(st.EntryPrice, e.policy.StopLossFraction) {
		pnl, st = closeAt(st, price), flat(st)
		reason = market.ReasonStopLoss
		e.log.Debug("stop loss", zap.String("symbol", symbol), zap.Time("time", row.Time), zap.Float64("pnl", pnl))
	}

	if st.Long() && price >= TakeProfitPrice(st.EntryPrice, e.policy.TakeProfitFraction) {
		pnl, st = closeAt(st, price), flat(st)
		reason = market.ReasonTakeProfit
		e.log.Debug("take profit", zap.String("symbol", symbol), zap.Time("time", row.Time), zap.Float64("pnl", pnl))
	}

	st.Steps++

	cash := e.initialCash
	return st, market.AccountState{
		Time:           row.Time,
		Symbol:         symbol,
		Close:          price,
		Signal:         row.Signal,
		PositionSize:   st.Size,
		Cash:           cash,
		PnL:            pnl,
		PortfolioValue: cash + st.Size*price,
		ExitReason:     reason,
	}, nil
}

// Run folds Step over the whole series. The series is validated first so an
// error never comes with partial output.
func (e *Engine) Run(s market.Series) ([]market.AccountState, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]market.AccountState, 0, len(s.Rows))
	var st State
	for _, row := range s.Rows {
		var snap market.AccountState
		var err error
		if st, snap, err = e.Step(st, s.Symbol, row); err != nil {
			return nil, err
		}
		out = append(out, snap)
	}
	return out, nil
}

func closeAt(st State, price float64) float64 {
	return RealizedPnL(st.Size, st.EntryPrice, price)
}

func flat(st State) State {
	return State{Steps: st.Steps}
}
