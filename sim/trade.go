package sim

import "github.com/rustyeddy/signalbt/market"

// holding is the open quantity of one symbol with the cash it cost,
// commission included, so a SELL can report realized PnL.
type holding struct {
	Shares float64
	Cost   float64
}

func (h holding) open() bool { return h.Shares > 0 }

// Ledger is the append-only list of fills for one engine.
type Ledger []market.TradeRecord

// Count returns the number of fills on side.
func (l Ledger) Count(side market.Side) int {
	n := 0
	for _, t := range l {
		if t.Side == side {
			n++
		}
	}
	return n
}

// Commissions is the total commission paid across the ledger given the rate
// the engine ran with.
func (l Ledger) Commissions(rate float64) float64 {
	var c float64
	for _, t := range l {
		c += t.Shares * t.Price * rate
	}
	return c
}
