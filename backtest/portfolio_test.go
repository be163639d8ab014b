package backtest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/signalbt/market"
	"github.com/rustyeddy/signalbt/risk"
)

func holdSeries(symbol string, prices ...float64) market.Series {
	signals := make([]market.Action, len(prices))
	return series(symbol, prices, signals)
}

func riskPortfolio(workers int) Portfolio {
	return Portfolio{Policy: RiskPolicy{Policy: risk.DefaultPolicy()}, InitialCash: 100_000, Workers: workers}
}

func TestRunPortfolioSplitsCashEqually(t *testing.T) {
	t.Parallel()

	res, err := RunPortfolio(context.Background(), riskPortfolio(2), []Input{
		FromSeries(holdSeries("A", 10, 11, 12)),
		FromSeries(holdSeries("B", 5, 4, 3)),
	})
	require.NoError(t, err)

	require.Len(t, res.Symbols, 2)
	for _, s := range res.Symbols {
		require.NoError(t, s.Err)
		assert.Equal(t, 50_000.0, s.InitialCash)
	}
	require.Len(t, res.Points, 3)
	for _, p := range res.Points {
		assert.Equal(t, 100_000.0, p.TotalValue)
	}
	assert.Equal(t, 100_000.0, res.Summary.FinalValue)
	assert.Zero(t, res.ReturnPct())
	assert.Equal(t, day(0), res.Start)
	assert.Equal(t, day(2), res.End)
	assert.Empty(t, res.Failed())
}

func TestRunPortfolioIsolatesFailures(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	bad := holdSeries("BAD", 10, 0, 12)

	res, err := RunPortfolio(context.Background(), riskPortfolio(1), []Input{
		FromSeries(regression()),
		{Symbol: "MISSING", Load: func() (market.Series, error) { return market.Series{}, boom }},
		FromSeries(bad),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"MISSING", "BAD"}, res.Failed())
	assert.Equal(t, []string{"AAPL"}, res.Succeeded())
	assert.True(t, errors.Is(res.Symbols[1].Err, boom))
	assert.True(t, errors.Is(res.Symbols[2].Err, market.ErrInvalidInput))
	assert.Nil(t, res.Symbols[2].States)

	// The good symbol still gets a third of the cash.
	good := res.Symbols[0]
	assert.InDelta(t, 100_000.0/3, good.InitialCash, 1e-9)
	require.Len(t, res.Points, 5)
	assert.Equal(t, good.States[4].PortfolioValue, res.Summary.FinalValue)
	assert.Equal(t, good.TotalPnL, res.TotalPnL)
}

func TestRunPortfolioWorkersDoNotChangeResult(t *testing.T) {
	t.Parallel()

	var inputs []Input
	for i := 0; i < 6; i++ {
		inputs = append(inputs, FromSeries(series(fmt.Sprintf("S%d", i),
			[]float64{10, 11 + float64(i), 9, 12},
			[]market.Action{market.EnterLong, market.Hold, market.Exit, market.Hold},
		)))
	}

	serial, err := RunPortfolio(context.Background(), riskPortfolio(1), inputs)
	require.NoError(t, err)
	parallel, err := RunPortfolio(context.Background(), riskPortfolio(0), inputs)
	require.NoError(t, err)

	assert.Equal(t, serial.Points, parallel.Points)
	assert.Equal(t, serial.Summary, parallel.Summary)
	for i := range serial.Symbols {
		assert.Equal(t, serial.Symbols[i].Symbol, parallel.Symbols[i].Symbol)
	}
}

func TestRunPortfolioValidation(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	in := []Input{FromSeries(holdSeries("A", 1))}

	_, err := RunPortfolio(ctx, Portfolio{InitialCash: 1}, in)
	assert.ErrorContains(t, err, "policy is required")

	_, err = RunPortfolio(ctx, riskPortfolio(1), nil)
	assert.ErrorContains(t, err, "no symbols")

	p := riskPortfolio(1)
	p.InitialCash = 0
	_, err = RunPortfolio(ctx, p, in)
	assert.ErrorContains(t, err, "initial cash")

	_, err = RunPortfolio(ctx, riskPortfolio(1), append(in, in[0]))
	assert.ErrorContains(t, err, "duplicate symbol")
}

func TestRunPortfolioCancelled(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := RunPortfolio(ctx, riskPortfolio(1), []Input{FromSeries(holdSeries("A", 1))})
	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFromCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "aapl.csv")
	require.NoError(t, os.WriteFile(path, []byte("Date,Close,Signal\n2024-01-02,10,1\n2024-01-03,12,-1\n"), 0644))

	res, err := RunPortfolio(context.Background(), Portfolio{Policy: ExecutionPolicy{}, InitialCash: 1000}, []Input{
		FromCSV("AAPL", path),
		FromCSV("NOPE", filepath.Join(t.TempDir(), "missing.csv")),
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"NOPE"}, res.Failed())
	require.True(t, res.Symbols[0].OK())
	assert.Equal(t, 600.0, res.Summary.FinalValue)
	assert.Equal(t, 2, res.Trades)
	assert.Equal(t, "AAPL", res.Symbols[0].States[0].Symbol)
}
