package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	policy TEXT NOT NULL,
	symbols TEXT NOT NULL,
	failed TEXT NOT NULL,
	start_time DATETIME,
	end_time DATETIME,
	initial_cash REAL NOT NULL,
	final_value REAL NOT NULL,
	total_pnl REAL NOT NULL,
	return_pct REAL NOT NULL,
	sharpe REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	trades INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS states (
	run_id TEXT NOT NULL,
	seq INTEGER NOT NULL,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	close REAL NOT NULL,
	signal INTEGER NOT NULL,
	position_size REAL NOT NULL,
	cash REAL NOT NULL,
	portfolio_value REAL NOT NULL,
	pnl REAL NOT NULL,
	exit_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	side TEXT NOT NULL,
	shares REAL NOT NULL,
	price REAL NOT NULL,
	amount REAL NOT NULL,
	PRIMARY KEY (run_id, trade_id)
);

CREATE TABLE IF NOT EXISTS portfolio (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	total_value REAL NOT NULL,
	PRIMARY KEY (run_id, time)
);

CREATE INDEX IF NOT EXISTS idx_states_run ON states(run_id, seq);
CREATE INDEX IF NOT EXISTS idx_trades_run_time ON trades(run_id, time);
CREATE INDEX IF NOT EXISTS idx_runs_created ON runs(created);
`
