package sim

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/signalbt/market"
)

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func row(day int, price float64, sig market.Action) market.Row {
	return market.Row{Bar: market.Bar{Time: t0.AddDate(0, 0, day), Close: price}, Signal: sig}
}

func seqIDs() func(time.Time) string {
	n := 0
	return func(time.Time) string {
		n++
		return fmt.Sprintf("T%d", n)
	}
}

func newEngine(t *testing.T, cash, commission float64, opts ...Option) *Engine {
	t.Helper()
	e, err := NewEngine(cash, commission, append([]Option{WithIDs(seqIDs())}, opts...)...)
	require.NoError(t, err)
	return e
}

func TestNewEngineValidation(t *testing.T) {
	t.Parallel()

	_, err := NewEngine(0, 0)
	assert.ErrorContains(t, err, "initial cash")
	_, err = NewEngine(100, -0.1)
	assert.ErrorContains(t, err, "commission")
	_, err = NewEngine(100, 1)
	assert.ErrorContains(t, err, "commission")
	_, err = NewEngine(100, 0.999)
	assert.NoError(t, err)
}

func TestHoldKeepsCash(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 100_000, 0.001)
	out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 10, market.Hold),
		row(1, 20, market.Hold),
		row(2, 5, market.Exit),
	}})
	require.NoError(t, err)

	for _, s := range out {
		assert.Equal(t, 100_000.0, s.PortfolioValue)
		assert.Equal(t, 100_000.0, s.Cash)
		assert.Zero(t, s.PositionSize)
		assert.Zero(t, s.PnL)
	}
	assert.Empty(t, e.Trades())
}

func TestBuySellNoCommission(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 100_000, 0)
	out, err := e.Run(market.Series{Symbol: "AAPL", Rows: []market.Row{
		row(0, 50, market.EnterLong),
		row(1, 55, market.Hold),
		row(2, 60, market.Exit),
	}})
	require.NoError(t, err)
	require.Len(t, out, 3)

	assert.Equal(t, 2000.0, out[0].PositionSize)
	assert.Equal(t, 0.0, out[0].Cash)
	assert.Equal(t, 100_000.0, out[0].PortfolioValue)

	assert.Equal(t, 110_000.0, out[1].PortfolioValue)

	assert.Zero(t, out[2].PositionSize)
	assert.Equal(t, 120_000.0, out[2].Cash)
	assert.Equal(t, 120_000.0, out[2].PortfolioValue)
	assert.Equal(t, 20_000.0, out[2].PnL)
	assert.Equal(t, market.ReasonSignal, out[2].ExitReason)

	trades := e.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, market.TradeRecord{
		TradeID: "T1", Time: t0, Symbol: "AAPL", Side: market.Buy,
		Shares: 2000, Price: 50, Amount: 100_000,
	}, trades[0])
	assert.Equal(t, market.TradeRecord{
		TradeID: "T2", Time: t0.AddDate(0, 0, 2), Symbol: "AAPL", Side: market.Sell,
		Shares: 2000, Price: 60, Amount: 120_000,
	}, trades[1])
	assert.Equal(t, 1, trades.Count(market.Buy))
	assert.Equal(t, 1, trades.Count(market.Sell))
}

func TestOpenCloseSamePriceIsExactlyZero(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 100_000, 0)
	out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 50, market.EnterLong),
		row(1, 50, market.Exit),
	}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, out[1].PnL)
	assert.Equal(t, 100_000.0, out[1].PortfolioValue)
}

// Full allocation plus commission always costs more than the balance, so
// without the reserve option every entry is skipped.
func TestCommissionSkipsFullAllocation(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 100_000, 0.001)
	out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 50, market.EnterLong),
		row(1, 60, market.Exit),
	}})
	require.NoError(t, err)

	assert.Equal(t, 1, e.Skipped())
	assert.Empty(t, e.Trades())
	for _, s := range out {
		assert.Equal(t, 100_000.0, s.PortfolioValue)
		assert.Zero(t, s.PositionSize)
	}
}

func TestCommissionReserve(t *testing.T) {
	t.Parallel()

	const c = 0.25
	e := newEngine(t, 1000, c, WithCommissionReserve(true))
	out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 8, market.EnterLong),
		row(1, 16, market.Exit),
	}})
	require.NoError(t, err)

	// 1000 / (8*1.25) = 100 shares costing exactly 1000
	assert.Equal(t, 100.0, out[0].PositionSize)
	assert.Equal(t, 0.0, out[0].Cash)
	assert.Equal(t, 800.0, out[0].PortfolioValue)

	// proceeds 100*16*0.75 = 1200; PnL against the 1000 paid
	assert.Equal(t, 1200.0, out[1].Cash)
	assert.Equal(t, 200.0, out[1].PnL)

	trades := e.Trades()
	require.Len(t, trades, 2)
	assert.Equal(t, 1000.0, trades[0].Amount)
	assert.Equal(t, 1200.0, trades[1].Amount)
	assert.InDelta(t, 100*8*c+100*16*c, trades.Commissions(c), 1e-9)
}

func TestSecondEntryWithNoCashIsSkipped(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1000, 0)
	_, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 10, market.EnterLong),
		row(1, 10, market.EnterLong),
	}})
	require.NoError(t, err)

	assert.Len(t, e.Trades(), 1)
	assert.Equal(t, 1, e.Skipped())
	assert.Equal(t, 100.0, e.Holding("A"))
}

func TestValueMarksEverySymbol(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1000, 0)

	_, err := e.Apply("A", row(0, 10, market.EnterLong))
	require.NoError(t, err)
	// A holds 100 shares, cash is gone; B cannot be bought
	st, err := e.Apply("B", row(0, 5, market.EnterLong))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, st.PortfolioValue)
	assert.Zero(t, st.PositionSize)

	st, err = e.Apply("A", row(1, 12, market.Hold))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, st.PortfolioValue)
	assert.Equal(t, 1200.0, e.Value())
}

func TestTradesReturnsCopy(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1000, 0)
	_, err := e.Apply("A", row(0, 10, market.EnterLong))
	require.NoError(t, err)

	trades := e.Trades()
	trades[0].Shares = -1
	assert.Equal(t, 100.0, e.Trades()[0].Shares)
}

func TestInvalidPrice(t *testing.T) {
	t.Parallel()

	e := newEngine(t, 1000, 0)
	_, err := e.Apply("A", row(0, 0, market.EnterLong))
	require.Error(t, err)
	assert.True(t, errors.Is(err, market.ErrInvalidInput))

	out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
		row(0, 10, market.EnterLong),
		row(1, -2, market.Exit),
	}})
	require.Error(t, err)
	assert.Nil(t, out)
	assert.Empty(t, e.Trades(), "validation must run before any fill")
}

func TestFullAllocationRoundTripIsExact(t *testing.T) {
	t.Parallel()

	tests := []struct {
		cash  float64
		price float64
	}{
		{100_000, 1.03},
		{100_000, 30},
		{100_000, 49},
		{100_000, 98.7},
		{100_000, 123.45},
		{100_000, 299.99},
		{1, 49},
		{1, 0.3},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(fmt.Sprintf("%v@%v", tt.cash, tt.price), func(t *testing.T) {
			t.Parallel()

			e := newEngine(t, tt.cash, 0)
			out, err := e.Run(market.Series{Symbol: "A", Rows: []market.Row{
				row(0, tt.price, market.EnterLong),
				row(1, tt.price, market.Hold),
				row(2, tt.price, market.Exit),
			}})
			require.NoError(t, err)

			// either filled and closed, or skipped because the cost rounded
			// past the balance
			assert.Equal(t, 2, len(e.Trades())+2*e.Skipped())
			for _, s := range out {
				assert.Equal(t, tt.cash, s.PortfolioValue)
				assert.Equal(t, 0.0, s.PnL)
			}
			assert.Equal(t, tt.cash, e.Cash())
			assert.Zero(t, e.Holding("A"))
		})
	}
}
