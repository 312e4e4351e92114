package journal

const Schema = `
CREATE TABLE IF NOT EXISTS trades (
	run_id TEXT NOT NULL,
	trade_id TEXT PRIMARY KEY,
	entry_time DATETIME NOT NULL,
	exit_time DATETIME NOT NULL,
	entry_price REAL NOT NULL,
	exit_price REAL NOT NULL,
	size REAL NOT NULL,
	leverage REAL NOT NULL,
	pnl REAL NOT NULL,
	pnl_asset REAL NOT NULL,
	fees REAL NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_run ON trades(run_id);

CREATE TABLE IF NOT EXISTS snapshots (
	run_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	price REAL NOT NULL,
	collateral REAL NOT NULL,
	portfolio_value REAL NOT NULL,
	active_positions INTEGER NOT NULL,
	total_trades INTEGER NOT NULL,
	liquidated INTEGER NOT NULL,
	volatility REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_snapshots_run_time ON snapshots(run_id, time);

CREATE TABLE IF NOT EXISTS sweep_results (
	run_id TEXT NOT NULL,
	leverage REAL NOT NULL,
	grid_size INTEGER NOT NULL,
	grid_ratio REAL NOT NULL,
	max_position_size REAL NOT NULL,
	final_holdings REAL NOT NULL,
	change_pct REAL NOT NULL,
	total_trades INTEGER NOT NULL,
	liquidations INTEGER NOT NULL,
	liquidated INTEGER NOT NULL,
	sharpe REAL NOT NULL,
	max_drawdown_pct REAL NOT NULL,
	fees_paid REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_sweep_run ON sweep_results(run_id);
`
