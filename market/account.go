package market

import "time"

// Exit reasons reported on the step a position closes.
const (
	ReasonSignal     = "SIGNAL"
	ReasonStopLoss   = "STOP_LOSS"
	ReasonTakeProfit = "TAKE_PROFIT"
)

// AccountState is the per-step snapshot produced by both trade policies.
// PortfolioValue is always Cash + PositionSize*Close for the step it
// describes.
type AccountState struct {
	Time           time.Time
	Symbol         string
	Close          float64
	Signal         Action
	PositionSize   float64
	Cash           float64
	PnL            float64
	PortfolioValue float64
	ExitReason     string
}

// Side of an executed trade.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// TradeRecord is one executed fill in the simulator ledger. Amount is the
// cash moved: the cost of a BUY including commission, or the proceeds of a
// SELL net of commission.
type TradeRecord struct {
	TradeID string
	Time    time.Time
	Symbol  string
	Side    Side
	Shares  float64
	Price   float64
	Amount  float64
}

// PortfolioPoint is the summed value of every symbol present at Time.
type PortfolioPoint struct {
	Time       time.Time
	TotalValue float64
}

// Values extracts the PortfolioValue column.
func Values(states []AccountState) []float64 {
	out := make([]float64, len(states))
	for i, s := range states {
		out[i] = s.PortfolioValue
	}
	return out
}

// PortfolioValues extracts the TotalValue column.
func PortfolioValues(points []PortfolioPoint) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p.TotalValue
	}
	return out
}
