package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/signalbt/journal"
	"github.com/rustyeddy/signalbt/market"
)

var day0 = time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	j, err := journal.NewSQLite(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = j.Close() })

	for i, id := range []string{"R1", "R2"} {
		require.NoError(t, j.RecordRun(journal.Run{
			RunID:       id,
			Created:     day0.Add(time.Duration(i) * time.Hour),
			Policy:      "execution",
			Symbols:     []string{"AAPL", "MSFT"},
			InitialCash: 100_000,
			FinalValue:  120_000,
			Trades:      2,
		}))
	}
	require.NoError(t, j.RecordStates("R1", []market.AccountState{
		{Time: day0, Symbol: "AAPL", Close: 50, Signal: market.EnterLong, PositionSize: 1000, PortfolioValue: 50_000},
		{Time: day0, Symbol: "MSFT", Close: 10, PortfolioValue: 50_000, Cash: 50_000},
	}))
	require.NoError(t, j.RecordTrades("R1", []market.TradeRecord{
		{TradeID: "T1", Time: day0, Symbol: "AAPL", Side: market.Buy, Shares: 1000, Price: 50, Amount: 50_000},
	}))
	require.NoError(t, j.RecordPortfolio("R1", []market.PortfolioPoint{
		{Time: day0, TotalValue: 100_000},
		{Time: day0.AddDate(0, 0, 1), TotalValue: 120_000},
	}))

	return NewServer(j, ":0", nil)
}

func get(t *testing.T, s *Server, path string) (int, map[string]any) {
	t.Helper()

	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)

	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body), w.Body.String())
	return w.Code, body
}

func TestHealth(t *testing.T) {
	t.Parallel()

	code, body := get(t, newTestServer(t), "/health")
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])
}

func TestListRuns(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	code, body := get(t, s, "/api/runs")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.0, body["count"])
	data := body["data"].([]any)
	assert.Equal(t, "R2", data[0].(map[string]any)["run_id"])

	code, body = get(t, s, "/api/runs?limit=1")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	code, _ = get(t, s, "/api/runs?limit=zero")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetRun(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	code, body := get(t, s, "/api/runs/R1")
	require.Equal(t, http.StatusOK, code)
	run := body["data"].(map[string]any)
	assert.Equal(t, "execution", run["policy"])
	assert.Equal(t, 120_000.0, run["final_value"])
	assert.Equal(t, []any{"AAPL", "MSFT"}, run["symbols"])

	code, body = get(t, s, "/api/runs/nope")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "nope", body["run_id"])
}

func TestRunSeries(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)

	code, body := get(t, s, "/api/runs/R1/equity")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 2.0, body["count"])
	points := body["data"].([]any)
	assert.Equal(t, 120_000.0, points[1].(map[string]any)["total_portfolio_value"])

	code, body = get(t, s, "/api/runs/R1/trades")
	require.Equal(t, http.StatusOK, code)
	trades := body["data"].([]any)
	require.Len(t, trades, 1)
	assert.Equal(t, "BUY", trades[0].(map[string]any)["side"])

	code, body = get(t, s, "/api/runs/R1/states?symbol=MSFT")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 1.0, body["count"])

	code, body = get(t, s, "/api/runs/R2/trades")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 0.0, body["count"])

	code, _ = get(t, s, "/api/runs/missing/equity")
	assert.Equal(t, http.StatusNotFound, code)
}

type brokenStore struct{ RunStore }

func (brokenStore) ListRuns(context.Context, int) ([]journal.Run, error) {
	return nil, errors.New("database is locked")
}

func TestStoreErrorIs500(t *testing.T) {
	t.Parallel()

	code, body := get(t, NewServer(brokenStore{}, ":0", nil), "/api/runs")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "database is locked", body["error"])
}

func TestShutdownBeforeStart(t *testing.T) {
	t.Parallel()

	s := newTestServer(t)
	assert.NoError(t, s.Shutdown(context.Background()))
}
