package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/rustyeddy/signalbt/market"
)

// ErrNotFound is returned when a run id is not in the journal.
var ErrNotFound = errors.New("not found")

const runColumns = `run_id, created, policy, symbols, failed, start_time, end_time,
	initial_cash, final_value, total_pnl, return_pct, sharpe, max_drawdown, trades`

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (Run, error) {
	var (
		r               Run
		symbols, failed string
	)
	err := s.Scan(
		&r.RunID,
		&r.Created,
		&r.Policy,
		&symbols,
		&failed,
		&r.Start,
		&r.End,
		&r.InitialCash,
		&r.FinalValue,
		&r.TotalPnL,
		&r.ReturnPct,
		&r.Sharpe,
		&r.MaxDrawdown,
		&r.Trades,
	)
	r.Symbols = split(symbols)
	r.Failed = split(failed)
	return r, err
}

func split(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// GetRun returns a single run summary by ID.
func (j *SQLite) GetRun(ctx context.Context, runID string) (Run, error) {
	row := j.db.QueryRowContext(ctx, `SELECT `+runColumns+` FROM runs WHERE run_id = ?`, runID)
	r, err := scanRun(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Run{}, fmt.Errorf("run %q %w", runID, ErrNotFound)
		}
		return Run{}, err
	}
	return r, nil
}

// ListRuns returns the newest runs first. limit <= 0 returns all of them.
func (j *SQLite) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	q := `SELECT ` + runColumns + ` FROM runs ORDER BY created DESC, run_id DESC`
	var args []any
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListStates returns the account states of a run in the order recorded.
func (j *SQLite) ListStates(ctx context.Context, runID string) ([]market.AccountState, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, symbol, close, signal, position_size, cash, portfolio_value, pnl, exit_reason
		FROM states
		WHERE run_id = ?
		ORDER BY seq ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.AccountState
	for rows.Next() {
		var (
			s   market.AccountState
			sig int
		)
		if err := rows.Scan(
			&s.Time,
			&s.Symbol,
			&s.Close,
			&sig,
			&s.PositionSize,
			&s.Cash,
			&s.PortfolioValue,
			&s.PnL,
			&s.ExitReason,
		); err != nil {
			return nil, err
		}
		s.Signal = market.Action(sig)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListTrades returns the ledger of a run by time.
func (j *SQLite) ListTrades(ctx context.Context, runID string) ([]market.TradeRecord, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT trade_id, time, symbol, side, shares, price, amount
		FROM trades
		WHERE run_id = ?
		ORDER BY time ASC, rowid ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.TradeRecord
	for rows.Next() {
		var (
			t    market.TradeRecord
			side string
		)
		if err := rows.Scan(
			&t.TradeID,
			&t.Time,
			&t.Symbol,
			&side,
			&t.Shares,
			&t.Price,
			&t.Amount,
		); err != nil {
			return nil, err
		}
		t.Side = market.Side(side)
		out = append(out, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListPortfolio returns the equity curve of a run.
func (j *SQLite) ListPortfolio(ctx context.Context, runID string) ([]market.PortfolioPoint, error) {
	rows, err := j.db.QueryContext(ctx, `
		SELECT time, total_value
		FROM portfolio
		WHERE run_id = ?
		ORDER BY time ASC`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []market.PortfolioPoint
	for rows.Next() {
		var p market.PortfolioPoint
		if err := rows.Scan(&p.Time, &p.TotalValue); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
