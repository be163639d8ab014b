package backtest

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/risk"
	"github.com/rustyeddy/signalbt/sim"
)

// Policy names accepted by PolicyByName.
const (
	PolicyRisk      = "risk"
	PolicyExecution = "execution"
)

// Outcome of one symbol simulated by a TradePolicy.
type Outcome struct {
	States  []market.AccountState
	Trades  []market.TradeRecord // empty for the risk policy
	Skipped int                  // entries refused for insufficient capital

	Commissions float64
}

// TradePolicy simulates a single series against a starting balance. Every
// call to Run uses a fresh engine, so one value may serve several symbols
// from different goroutines.
type TradePolicy interface {
	Name() string
	Run(s market.Series, initialCash float64) (Outcome, error)
}

// RiskPolicy sizes positions by a fraction of initial cash and exits on
// signal, stop loss or take profit. Cash is never debited.
type RiskPolicy struct {
	Policy risk.Policy
	Logger *zap.Logger
}

func (RiskPolicy) Name() string { return PolicyRisk }

func (p RiskPolicy) Run(s market.Series, initialCash float64) (Outcome, error) {
	e, err := risk.NewEngine(p.Policy, initialCash, risk.WithLogger(p.Logger))
	if err != nil {
		return Outcome{}, err
	}
	states, err := e.Run(s)
	if err != nil {
		return Outcome{}, err
	}
	return Outcome{States: states}, nil
}

// ExecutionPolicy commits the whole cash balance on every entry and pays a
// flat commission on both legs.
type ExecutionPolicy struct {
	Commission        float64
	ReserveCommission bool
	Logger            *zap.Logger
}

func (ExecutionPolicy) Name() string { return PolicyExecution }

func (p ExecutionPolicy) Run(s market.Series, initialCash float64) (Outcome, error) {
	e, err := sim.NewEngine(initialCash, p.Commission,
		sim.WithLogger(p.Logger),
		sim.WithCommissionReserve(p.ReserveCommission),
	)
	if err != nil {
		return Outcome{}, err
	}
	states, err := e.Run(s)
	if err != nil {
		return Outcome{}, err
	}
	trades := e.Trades()
	return Outcome{
		States:      states,
		Trades:      trades,
		Skipped:     e.Skipped(),
		Commissions: trades.Commissions(e.Commission()),
	}, nil
}

// PolicyByName returns the policy registered under name with the given
// parameters. Matching ignores case.
func PolicyByName(name string, rp risk.Policy, commission float64, reserve bool, log *zap.Logger) (TradePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PolicyRisk, "":
		return RiskPolicy{Policy: rp, Logger: log}, nil
	case PolicyExecution:
		return ExecutionPolicy{Commission: commission, ReserveCommission: reserve, Logger: log}, nil
	}
	return nil, fmt.Errorf("backtest: unknown policy %q (want %s or %s)", name, PolicyRisk, PolicyExecution)
}
