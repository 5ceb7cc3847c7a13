package database

import (
	"strings"

	_ "github.com/go-sql-driver/mysql"
)

// MySQL stores sessions through go-sql-driver/mysql
var MySQL = Dialect{
	Name: "mysql",
	Dir:  "mysql",
	Ledger: `CREATE TABLE IF NOT EXISTS migrations (
		filename VARCHAR(255) PRIMARY KEY,
		executed_at DATETIME(6) DEFAULT CURRENT_TIMESTAMP(6)
	)`,
	dsn: mysqlDSN,
}

// mysqlDSN turns on parseTime so sessions.expires_at scans into time.Time.
// An explicit parseTime in the URL wins.
func mysqlDSN(c DialectConfig) string {
	if strings.Contains(c.URL, "parseTime=") {
		return c.URL
	}
	sep := "?"
	if strings.Contains(c.URL, "?") {
		sep = "&"
	}
	return c.URL + sep + "parseTime=true&loc=UTC"
}
