package database

import (
	_ "github.com/mattn/go-sqlite3"
)

// SQLite is the default single-file session store. WAL keeps the hourly
// expired-session sweep from blocking logins.
var SQLite = Dialect{
	Name: "sqlite3",
	Dir:  "sqlite",
	Setup: []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	},
	Ledger: `CREATE TABLE IF NOT EXISTS migrations (
		filename TEXT PRIMARY KEY,
		executed_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`,
	dsn: func(c DialectConfig) string { return c.Path },
}
