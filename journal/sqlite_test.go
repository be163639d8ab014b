package journal

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/signalbt/market"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newTestSQLite(t *testing.T) (*SQLite, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.db")
	j, err := NewSQLite(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	return j, path
}

func sampleRun(id string, created time.Time) Run {
	return Run{
		RunID:       id,
		Created:     created,
		Policy:      "risk",
		Symbols:     []string{"AAPL", "MSFT"},
		Failed:      []string{"MSFT"},
		Start:       day0,
		End:         day0.AddDate(0, 0, 2),
		InitialCash: 100_000,
		FinalValue:  102_000,
		TotalPnL:    2000,
		ReturnPct:   2,
		Sharpe:      1.5,
		MaxDrawdown: 300,
		Trades:      2,
	}
}

func TestSQLiteSchemaCreated(t *testing.T) {
	t.Parallel()

	j, path := newTestSQLite(t)
	require.NoError(t, j.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	rows, err := db.Query(`SELECT name FROM sqlite_master WHERE type='table'`)
	require.NoError(t, err)
	defer rows.Close()

	found := map[string]bool{}
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		found[name] = true
	}
	require.NoError(t, rows.Err())

	for _, table := range []string{"runs", "states", "trades", "portfolio"} {
		assert.True(t, found[table], table)
	}
}

func TestSQLiteRunRoundTrip(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	want := sampleRun("R1", day0.Add(36*time.Hour))
	require.NoError(t, j.RecordRun(want))

	got, err := j.GetRun(ctx, "R1")
	require.NoError(t, err)
	assert.Equal(t, want.RunID, got.RunID)
	assert.Equal(t, want.Symbols, got.Symbols)
	assert.Equal(t, want.Failed, got.Failed)
	assert.True(t, want.Created.Equal(got.Created))
	assert.True(t, want.Start.Equal(got.Start))
	assert.True(t, want.End.Equal(got.End))
	assert.Equal(t, want.FinalValue, got.FinalValue)
	assert.Equal(t, want.Sharpe, got.Sharpe)
	assert.Equal(t, want.Trades, got.Trades)

	require.Error(t, j.RecordRun(want), "duplicate run id")
}

func TestSQLiteGetRunNotFound(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	_, err := j.GetRun(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.Contains(t, err.Error(), `"missing"`)
}

func TestSQLiteListRunsNewestFirst(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	for i, id := range []string{"A", "B", "C"} {
		r := sampleRun(id, day0.Add(time.Duration(i)*time.Hour))
		r.Failed = nil
		require.NoError(t, j.RecordRun(r))
	}

	runs, err := j.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "C", runs[0].RunID)
	assert.Equal(t, "A", runs[2].RunID)
	assert.Nil(t, runs[0].Failed)

	runs, err = j.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSQLiteStatesTradesPortfolio(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	ctx := context.Background()

	states := []market.AccountState{
		{Time: day0, Symbol: "AAPL", Close: 50, Signal: market.EnterLong, PositionSize: 200, Cash: 100_000, PortfolioValue: 110_000},
		{Time: day0.AddDate(0, 0, 1), Symbol: "AAPL", Close: 60, Signal: market.Exit, Cash: 100_000, PortfolioValue: 100_000, PnL: 2000, ExitReason: market.ReasonSignal},
	}
	trades := []market.TradeRecord{
		{TradeID: "T1", Time: day0, Symbol: "AAPL", Side: market.Buy, Shares: 2000, Price: 50, Amount: 100_000},
		{TradeID: "T2", Time: day0.AddDate(0, 0, 1), Symbol: "AAPL", Side: market.Sell, Shares: 2000, Price: 60, Amount: 120_000},
	}
	points := []market.PortfolioPoint{
		{Time: day0, TotalValue: 110_000},
		{Time: day0.AddDate(0, 0, 1), TotalValue: 100_000},
	}

	require.NoError(t, j.RecordStates("R1", states))
	require.NoError(t, j.RecordTrades("R1", trades))
	require.NoError(t, j.RecordPortfolio("R1", points))
	require.NoError(t, j.RecordStates("R1", nil))

	gotStates, err := j.ListStates(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, gotStates, 2)
	assert.Equal(t, market.EnterLong, gotStates[0].Signal)
	assert.Equal(t, 200.0, gotStates[0].PositionSize)
	assert.Equal(t, market.ReasonSignal, gotStates[1].ExitReason)
	assert.Equal(t, 2000.0, gotStates[1].PnL)
	assert.True(t, states[1].Time.Equal(gotStates[1].Time))

	gotTrades, err := j.ListTrades(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, gotTrades, 2)
	assert.Equal(t, "T1", gotTrades[0].TradeID)
	assert.Equal(t, market.Sell, gotTrades[1].Side)
	assert.Equal(t, 120_000.0, gotTrades[1].Amount)

	gotPoints, err := j.ListPortfolio(ctx, "R1")
	require.NoError(t, err)
	require.Len(t, gotPoints, 2)
	assert.Equal(t, 100_000.0, gotPoints[1].TotalValue)

	other, err := j.ListTrades(ctx, "R2")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestSQLiteTradeBatchIsAtomic(t *testing.T) {
	t.Parallel()

	j, _ := newTestSQLite(t)
	dup := []market.TradeRecord{
		{TradeID: "T1", Time: day0, Symbol: "A", Side: market.Buy},
		{TradeID: "T1", Time: day0, Symbol: "A", Side: market.Sell},
	}
	err := j.RecordTrades("R1", dup)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "row 1")

	got, err := j.ListTrades(context.Background(), "R1")
	require.NoError(t, err)
	assert.Empty(t, got)
}
