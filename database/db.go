package database

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Dialect names the SQL driver a handle talks to.
type Dialect string

const (
	SQLite   Dialect = "sqlite3"
	Postgres Dialect = "postgres"
)

// sqliteParams keeps one writer at a time and takes the write lock at BEGIN,
// so two allocation transactions never interleave their reads.
const sqliteParams = "_journal=WAL&_busy_timeout=10000&_txlock=immediate&_foreign_keys=on"

// Querier is satisfied by *sql.DB, *sql.Tx and *DB.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// DB is an explicitly constructed storage handle. There is no package level
// instance; callers pass it to the components that need it.
type DB struct {
	*sql.DB
	Dialect Dialect
}

// Open connects with the given driver and DSN and verifies the connection.
func Open(ctx context.Context, driver, dsn string) (*DB, error) {
	d := Dialect(driver)
	switch d {
	case SQLite:
		dsn = withSQLiteParams(dsn)
	case Postgres:
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	conn, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", driver, err)
	}

	if d == SQLite {
		conn.SetMaxOpenConns(5)
		conn.SetMaxIdleConns(5)
	} else {
		conn.SetMaxOpenConns(25)
		conn.SetMaxIdleConns(5)
	}
	conn.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping %s (%s): %w", driver, MaskPassword(dsn), err)
	}

	return &DB{DB: conn, Dialect: d}, nil
}

// OpenMemory returns a private in-memory SQLite database. A single
// connection is used so every statement sees the same database.
func OpenMemory() (*DB, error) {
	conn, err := sql.Open(string(SQLite), ":memory:?_foreign_keys=on")
	if err != nil {
		return nil, err
	}
	conn.SetMaxOpenConns(1)
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, err
	}
	return &DB{DB: conn, Dialect: SQLite}, nil
}

func withSQLiteParams(dsn string) string {
	if strings.Contains(dsn, "_txlock") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + sqliteParams
}

// Rebind rewrites ? placeholders into the dialect's form.
func (d Dialect) Rebind(query string) string {
	if d != Postgres || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	inQuote := false
	for i := 0; i < len(query); i++ {
		c := query[i]
		switch {
		case c == '\'':
			inQuote = !inQuote
			b.WriteByte(c)
		case c == '?' && !inQuote:
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// ForUpdate is the row locking suffix for a SELECT inside a transaction.
// SQLite already holds the database write lock from BEGIN IMMEDIATE.
func (d Dialect) ForUpdate() string {
	if d == Postgres {
		return " FOR UPDATE"
	}
	return ""
}

// Expand fills the {{serial}} and {{now}} markers in DDL for the dialect.
func (d Dialect) Expand(ddl string) string {
	serial := "INTEGER PRIMARY KEY AUTOINCREMENT"
	now := "CURRENT_TIMESTAMP"
	if d == Postgres {
		serial = "BIGSERIAL PRIMARY KEY"
	}
	return strings.NewReplacer("{{serial}}", serial, "{{now}}", now).Replace(ddl)
}
