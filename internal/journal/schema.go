package journal

const schema = `
CREATE TABLE IF NOT EXISTS trades (
	id TEXT PRIMARY KEY,
	type TEXT NOT NULL,
	symbol TEXT NOT NULL,
	price REAL NOT NULL,
	stop_loss REAL NOT NULL,
	volume REAL NOT NULL,
	result TEXT NOT NULL,
	direction TEXT NOT NULL,
	date DATETIME NOT NULL,
	risk_percent REAL NOT NULL,
	risk_reward_ratio REAL NOT NULL,
	strategy_id TEXT REFERENCES strategies(id) ON DELETE SET NULL,
	comment TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tags (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL UNIQUE
);

CREATE TABLE IF NOT EXISTS trade_tags (
	trade_id TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
	PRIMARY KEY (trade_id, tag_id)
);

CREATE TABLE IF NOT EXISTS trade_images (
	trade_id TEXT NOT NULL REFERENCES trades(id) ON DELETE CASCADE,
	kind TEXT NOT NULL,
	content_type TEXT NOT NULL,
	name TEXT NOT NULL,
	data BLOB NOT NULL,
	PRIMARY KEY (trade_id, kind)
);

CREATE TABLE IF NOT EXISTS strategies (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_trades_date ON trades(date);
CREATE INDEX IF NOT EXISTS idx_trades_symbol ON trades(symbol);
`
