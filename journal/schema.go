// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS cycles (
	cycle_id TEXT PRIMARY KEY,
	instrument TEXT NOT NULL,
	time DATETIME NOT NULL,
	bar_time DATETIME NOT NULL,
	kind TEXT NOT NULL,
	reason TEXT NOT NULL,
	signal TEXT NOT NULL,
	strength REAL NOT NULL,
	bid REAL NOT NULL,
	ask REAL NOT NULL,
	fast REAL NOT NULL,
	slow REAL NOT NULL,
	atr REAL NOT NULL,
	units INTEGER NOT NULL,
	entry REAL NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	error TEXT NOT NULL,
	advanced INTEGER NOT NULL,
	duration_ms INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_cycles_time ON cycles(time);

CREATE TABLE IF NOT EXISTS orders (
	cycle_id TEXT NOT NULL,
	time DATETIME NOT NULL,
	instrument TEXT NOT NULL,
	side TEXT NOT NULL,
	units INTEGER NOT NULL,
	stop_loss REAL NOT NULL,
	take_profit REAL NOT NULL,
	status TEXT NOT NULL,
	price REAL NOT NULL,
	order_id TEXT NOT NULL,
	trade_id TEXT NOT NULL,
	client_tag TEXT NOT NULL,
	reason TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);
`
