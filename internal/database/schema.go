package database

// Schema creates the tables backing the price store and the computed
// equiweighted index series. Dates are stored as ISO text (YYYY-MM-DD).
const Schema = `
CREATE TABLE IF NOT EXISTS stocks (
    symbol TEXT PRIMARY KEY,
    company_name TEXT,
    sector TEXT,
    industry TEXT,
    market_cap REAL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    updated_at TEXT NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_stocks_sector ON stocks(sector);
CREATE INDEX IF NOT EXISTS idx_stocks_industry ON stocks(industry);

CREATE TABLE IF NOT EXISTS stock_prices (
    time TEXT NOT NULL,
    symbol TEXT NOT NULL,
    close_price REAL NOT NULL,
    created_at TEXT NOT NULL DEFAULT (datetime('now')),
    PRIMARY KEY (time, symbol)
);

CREATE INDEX IF NOT EXISTS idx_stock_prices_symbol_time ON stock_prices(symbol, time DESC);
CREATE INDEX IF NOT EXISTS idx_stock_prices_time ON stock_prices(time DESC);

CREATE TABLE IF NOT EXISTS category_indices (
    index_name TEXT PRIMARY KEY,
    index_type TEXT NOT NULL,
    sector TEXT,
    industry TEXT,
    constituent_count INTEGER NOT NULL,
    base_date TEXT NOT NULL,
    generated_at TEXT NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_category_indices_type ON category_indices(index_type);

CREATE TABLE IF NOT EXISTS index_points (
    time TEXT NOT NULL,
    index_name TEXT NOT NULL,
    index_value REAL NOT NULL,
    PRIMARY KEY (time, index_name)
);

CREATE INDEX IF NOT EXISTS idx_index_points_name ON index_points(index_name);
`
