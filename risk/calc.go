package risk

import "math"

// PositionSize is the notional-fraction size: a constant share of the
// starting capital, independent of current equity.
func PositionSize(fraction, initialCash, price float64) float64 {
	return fraction * initialCash / price
}

// StopPrice is the level at or below which a long is force closed.
func StopPrice(entry, stopLossFraction float64) float64 {
	return entry * (1 - stopLossFraction)
}

// TakeProfitPrice is the level at or above which a long is force closed.
func TakeProfitPrice(entry, takeProfitFraction float64) float64 {
	return entry * (1 + takeProfitFraction)
}

// RealizedPnL of closing size shares bought at entry.
func RealizedPnL(size, entry, price float64) float64 {
	return size * (price - entry)
}

// RR is reward over risk for the policy's exit levels. Zero when the stop
// distance is zero.
func RR(entry, stop, takeProfit float64) float64 {
	risk := math.Abs(entry - stop)
	reward := math.Abs(takeProfit - entry)
	if risk == 0 {
		return 0
	}
	return reward / risk
}

// RR of the policy, independent of the entry price.
func (p Policy) RR() float64 {
	return RR(1, StopPrice(1, p.StopLossFraction), TakeProfitPrice(1, p.TakeProfitFraction))
}
