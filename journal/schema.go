// journal/schema.go
package journal

const Schema = `
CREATE TABLE IF NOT EXISTS orders (
	order_id TEXT PRIMARY KEY,
	time DATETIME NOT NULL,
	ticker TEXT NOT NULL,
	side TEXT NOT NULL,
	quantity REAL NOT NULL,
	stop_price REAL NOT NULL,
	audit_tag TEXT NOT NULL,
	status TEXT NOT NULL,
	reason TEXT NOT NULL,
	filled_quantity REAL NOT NULL,
	filled_price REAL NOT NULL
);

CREATE TABLE IF NOT EXISTS nav_snapshots (
	time DATETIME NOT NULL,
	label TEXT NOT NULL,
	value REAL NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_orders_time ON orders(time);
CREATE INDEX IF NOT EXISTS idx_nav_time ON nav_snapshots(time);
`
