// Package metrics derives summary performance numbers from a value series.
package metrics

import (
	"math"

	"github.com/rustyeddy/signalbt/market"
)

// TradingDays annualizes the per-step Sharpe ratio of daily bars.
const TradingDays = 252

// Summary of one value series.
type Summary struct {
	FinalValue  float64
	Returns     []float64
	SharpeRatio float64

	// MaxDrawdown is in currency, not percent: the largest fall from the
	// running peak at or before each step.
	MaxDrawdown float64
}

// Compute reads values in time order. Empty and single point series are
// valid and yield zero Sharpe and zero drawdown.
func Compute(values []float64) Summary {
	if len(values) == 0 {
		return Summary{}
	}
	r := Returns(values)
	return Summary{
		FinalValue:  values[len(values)-1],
		Returns:     r,
		SharpeRatio: Sharpe(r),
		MaxDrawdown: MaxDrawdown(values),
	}
}

// FromStates summarizes a single symbol run.
func FromStates(states []market.AccountState) Summary {
	return Compute(market.Values(states))
}

// FromPortfolio summarizes an aggregated portfolio.
func FromPortfolio(points []market.PortfolioPoint) Summary {
	return Compute(market.PortfolioValues(points))
}

// Returns is the step over step percentage change, with the first step
// dropped because it has no prior value.
func Returns(values []float64) []float64 {
	if len(values) < 2 {
		return nil
	}
	out := make([]float64, len(values)-1)
	for i := 1; i < len(values); i++ {
		out[i-1] = (values[i] - values[i-1]) / values[i-1]
	}
	return out
}

// Sharpe is mean over sample standard deviation scaled by sqrt(252). It is 0
// with fewer than two observations, and 0 when returns never vary.
func Sharpe(returns []float64) float64 {
	n := len(returns)
	if n < 2 {
		return 0
	}

	var sum float64
	for _, r := range returns {
		sum += r
	}
	mean := sum / float64(n)

	var ss float64
	for _, r := range returns {
		d := r - mean
		ss += d * d
	}
	sd := math.Sqrt(ss / float64(n-1))
	if sd == 0 || math.IsNaN(sd) {
		return 0
	}
	return mean / sd * math.Sqrt(TradingDays)
}

// MaxDrawdown is max(peak - value) with peak the running maximum. Never
// negative.
func MaxDrawdown(values []float64) float64 {
	var dd float64
	peak := math.Inf(-1)
	for _, v := range values {
		if v > peak {
			peak = v
		}
		if d := peak - v; d > dd {
			dd = d
		}
	}
	return dd
}

// TotalPnL sums realized PnL over a run.
func TotalPnL(states []market.AccountState) float64 {
	var pnl float64
	for _, s := range states {
		pnl += s.PnL
	}
	return pnl
}

// ReturnPct is the total return from first to final value in percent.
func ReturnPct(initial, final float64) float64 {
	if initial == 0 {
		return 0
	}
	return (final/initial - 1) * 100
}
