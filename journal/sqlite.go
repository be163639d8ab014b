package journal

import (
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/rustyeddy/signalbt/market"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordRun(r Run) error {
	_, err := j.db.Exec(`
		INSERT INTO runs
		(run_id, created, policy, symbols, failed, start_time, end_time,
		 initial_cash, final_value, total_pnl, return_pct, sharpe, max_drawdown, trades)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.RunID, r.Created.UTC(), r.Policy,
		strings.Join(r.Symbols, ","), strings.Join(r.Failed, ","),
		r.Start.UTC(), r.End.UTC(),
		r.InitialCash, r.FinalValue, r.TotalPnL, r.ReturnPct, r.Sharpe, r.MaxDrawdown, r.Trades,
	)
	return err
}

func (j *SQLite) RecordStates(runID string, states []market.AccountState) error {
	return j.batch(`
		INSERT INTO states
		(run_id, seq, time, symbol, close, signal, position_size, cash, portfolio_value, pnl, exit_reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		len(states), func(i int) []any {
			s := states[i]
			return []any{runID, i, s.Time.UTC(), s.Symbol, s.Close, int(s.Signal),
				s.PositionSize, s.Cash, s.PortfolioValue, s.PnL, s.ExitReason}
		})
}

func (j *SQLite) RecordTrades(runID string, trades []market.TradeRecord) error {
	return j.batch(`
		INSERT INTO trades
		(run_id, trade_id, time, symbol, side, shares, price, amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(trades), func(i int) []any {
			t := trades[i]
			return []any{runID, t.TradeID, t.Time.UTC(), t.Symbol, string(t.Side), t.Shares, t.Price, t.Amount}
		})
}

func (j *SQLite) RecordPortfolio(runID string, points []market.PortfolioPoint) error {
	return j.batch(`
		INSERT INTO portfolio (run_id, time, total_value) VALUES (?, ?, ?)`,
		len(points), func(i int) []any {
			return []any{runID, points[i].Time.UTC(), points[i].TotalValue}
		})
}

// batch runs one prepared insert n times inside a single transaction.
func (j *SQLite) batch(query string, n int, args func(i int) []any) error {
	if n == 0 {
		return nil
	}
	tx, err := j.db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(query)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.Exec(args(i)...); err != nil {
			tx.Rollback()
			return fmt.Errorf("row %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
