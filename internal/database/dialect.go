package database

import (
	"context"
	"database/sql"
	"strconv"
	"strings"
	"time"
)

// Dialect is what differs between the session store backends: the driver,
// how parameters are spelled, and the statements run on a fresh pool.
type Dialect struct {
	// Name is the database/sql driver.
	Name string

	// Dir holds the dialect's migrations under migrations/.
	Dir string

	// Numbered drivers want $1, $2 where the session queries write ?.
	Numbered bool

	// Setup runs once after the pool is opened.
	Setup []string

	// Ledger creates the table of applied migration filenames.
	Ledger string

	dsn func(DialectConfig) string
}

// DialectConfig says where the session store lives
type DialectConfig struct {
	Path string // SQLite file
	URL  string // PostgreSQL or MySQL connection string
}

// Session lookups are short point queries; a small pool is plenty.
const (
	maxOpenConns    = 10
	maxIdleConns    = 2
	connMaxLifetime = 30 * time.Minute
	connMaxIdleTime = 5 * time.Minute
)

// DSN returns the data source name handed to sql.Open
func (d Dialect) DSN(c DialectConfig) string {
	if d.dsn != nil {
		return d.dsn(c)
	}
	return c.URL
}

// RewriteQuery numbers the ? parameters for drivers that need it. Question
// marks inside quoted literals are left alone.
func (d Dialect) RewriteQuery(query string) string {
	if !d.Numbered || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	var quote rune
	for _, c := range query {
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '\'' || c == '"':
			quote = c
		case c == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(c)
	}
	return b.String()
}

func (d Dialect) configure(ctx context.Context, db *sql.DB) error {
	db.SetMaxOpenConns(maxOpenConns)
	db.SetMaxIdleConns(maxIdleConns)
	db.SetConnMaxLifetime(connMaxLifetime)
	db.SetConnMaxIdleTime(connMaxIdleTime)

	for _, stmt := range d.Setup {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}
