package database

import (
	_ "github.com/lib/pq"
)

// Postgres numbers parameters for lib/pq
var Postgres = Dialect{
	Name:     "postgres",
	Dir:      "postgres",
	Numbered: true,
	Ledger: `CREATE TABLE IF NOT EXISTS migrations (
		filename TEXT PRIMARY KEY,
		executed_at TIMESTAMPTZ DEFAULT now()
	)`,
}
