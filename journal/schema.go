package journal

const Schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id TEXT PRIMARY KEY,
	created DATETIME NOT NULL,
	symbol TEXT NOT NULL,
	timeframe TEXT NOT NULL,
	start_date DATETIME NOT NULL,
	end_date DATETIME NOT NULL,
	initial_balance REAL NOT NULL,
	final_balance REAL NOT NULL,
	fitness REAL NOT NULL,
	score REAL NOT NULL,
	trades INTEGER NOT NULL,
	win_rate REAL NOT NULL,
	profit_factor REAL NOT NULL,
	max_drawdown REAL NOT NULL,
	dead INTEGER NOT NULL,
	death_reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS trades (
	trade_id TEXT PRIMARY KEY,
	run_id TEXT,
	side TEXT NOT NULL,
	entry_date DATETIME NOT NULL,
	exit_date DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	size REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_percent REAL NOT NULL,
	pnl_net_percent REAL NOT NULL,
	fees REAL NOT NULL,
	duration INTEGER NOT NULL,
	reason TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS balance_history (
	run_id TEXT,
	time DATETIME NOT NULL,
	balance REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_exit ON trades(exit_date);
CREATE INDEX IF NOT EXISTS idx_balance_time ON balance_history(time);
`
