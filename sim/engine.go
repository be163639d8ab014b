package sim

import (
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/pkg/id"
)

// Engine executes signals as market fills against a real cash balance.
// Every entry commits all available cash; every exit sells the whole
// holding. One Engine belongs to one run and is not safe for concurrent use.
type Engine struct {
	cash       float64
	commission float64
	reserve    bool

	holdings map[string]holding
	last     map[string]float64
	trades   Ledger
	skipped  int

	log   *zap.Logger
	newID func(time.Time) string
}

type Option func(*Engine)

func WithLogger(l *zap.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.log = l
		}
	}
}

// WithCommissionReserve sizes entries net of commission, cash/(price*(1+c)),
// so the full-allocation buy fits the balance when the commission is
// non-zero. Off by default: entries are sized cash/price and a buy whose
// cost with commission exceeds cash is skipped.
func WithCommissionReserve(on bool) Option {
	return func(e *Engine) { e.reserve = on }
}

// WithIDs replaces the trade id generator.
func WithIDs(f func(time.Time) string) Option {
	return func(e *Engine) {
		if f != nil {
			e.newID = f
		}
	}
}

func NewEngine(initialCash, commission float64, opts ...Option) (*Engine, error) {
	if !(initialCash > 0) {
		return nil, fmt.Errorf("sim: initial cash %v must be positive", initialCash)
	}
	if !(commission >= 0 && commission < 1) {
		return nil, fmt.Errorf("sim: commission %v must be in [0,1)", commission)
	}

	e := &Engine{
		cash:       initialCash,
		commission: commission,
		holdings:   make(map[string]holding),
		last:       make(map[string]float64),
		log:        zap.NewNop(),
		newID:      id.At,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

func (e *Engine) Cash() float64       { return e.cash }
func (e *Engine) Commission() float64 { return e.commission }

// Skipped counts entry signals that could not be filled for lack of cash.
func (e *Engine) Skipped() int { return e.skipped }

// Holding returns the shares held of symbol.
func (e *Engine) Holding(symbol string) float64 { return e.holdings[symbol].Shares }

// Trades returns a copy of the ledger.
func (e *Engine) Trades() Ledger {
	out := make(Ledger, len(e.trades))
	copy(out, e.trades)
	return out
}

// Value is cash plus every holding marked at the last price seen for its
// symbol.
func (e *Engine) Value() float64 {
	// sum in a fixed order so multi-symbol values are reproducible
	syms := make([]string, 0, len(e.holdings))
	for s := range e.holdings {
		syms = append(syms, s)
	}
	sort.Strings(syms)

	v := e.cash
	for _, s := range syms {
		v += e.holdings[s].Shares * e.last[s]
	}
	return v
}

// Apply executes the signal on row for symbol and returns the account after
// the fill.
func (e *Engine) Apply(symbol string, row market.Row) (market.AccountState, error) {
	price := row.Close
	if err := market.CheckPrice(symbol, -1, price); err != nil {
		return market.AccountState{}, err
	}
	e.last[symbol] = price

	var pnl float64
	var reason string

	switch row.Signal {
	case market.EnterLong:
		e.buy(symbol, row.Time, price)
	case market.Exit:
		if e.holdings[symbol].open() {
			pnl = e.sell(symbol, row.Time, price)
			reason = market.ReasonSignal
		}
	}

	return market.AccountState{
		Time:           row.Time,
		Symbol:         symbol,
		Close:          price,
		Signal:         row.Signal,
		PositionSize:   e.holdings[symbol].Shares,
		Cash:           e.cash,
		PnL:            pnl,
		PortfolioValue: e.Value(),
		ExitReason:     reason,
	}, nil
}

// Run applies every row of s in order. The series is validated first so an
// error never comes with partial output.
func (e *Engine) Run(s market.Series) ([]market.AccountState, error) {
	if err := s.Validate(); err != nil {
		return nil, err
	}

	out := make([]market.AccountState, 0, len(s.Rows))
	for i, row := range s.Rows {
		st, err := e.Apply(s.Symbol, row)
		if err != nil {
			return nil, fmt.Errorf("sim: row %d: %w", i, err)
		}
		out = append(out, st)
	}
	return out, nil
}

func (e *Engine) buy(symbol string, t time.Time, price float64) {
	unit := price
	if e.reserve {
		unit = price * (1 + e.commission)
	}
	shares := e.cash / unit
	// cost may round a ulp past cash; that buy is skipped, and one that
	// rounds under leaves a residue that recombines with the proceeds
	cost := shares * price * (1 + e.commission)

	if shares <= 0 || cost > e.cash {
		e.skipped++
		e.log.Warn("insufficient capital, entry skipped",
			zap.String("symbol", symbol),
			zap.Time("time", t),
			zap.Float64("cash", e.cash),
			zap.Float64("cost", cost),
		)
		return
	}

	e.cash -= cost
	h := e.holdings[symbol]
	h.Shares += shares
	h.Cost += cost
	e.holdings[symbol] = h

	e.trades = append(e.trades, market.TradeRecord{
		TradeID: e.newID(t),
		Time:    t,
		Symbol:  symbol,
		Side:    market.Buy,
		Shares:  shares,
		Price:   price,
		Amount:  cost,
	})
}

func (e *Engine) sell(symbol string, t time.Time, price float64) float64 {
	h := e.holdings[symbol]
	proceeds := h.Shares * price * (1 - e.commission)

	e.cash += proceeds
	e.holdings[symbol] = holding{}

	e.trades = append(e.trades, market.TradeRecord{
		TradeID: e.newID(t),
		Time:    t,
		Symbol:  symbol,
		Side:    market.Sell,
		Shares:  h.Shares,
		Price:   price,
		Amount:  proceeds,
	})
	return proceeds - h.Cost
}
