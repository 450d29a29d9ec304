package common

import (
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"
)

// OpenSQLite opens (or creates) a SQLite database in WAL mode with a single
// writer connection.
func OpenSQLite(path string) (*sql.DB, error) {
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_pragma=busy_timeout(5000)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	// SQLite only allows one writer at a time. Limit pool to 1 connection
	// so callers queue at the Go level instead of hitting SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if path != ":memory:" {
		if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
			db.Close()
			return nil, fmt.Errorf("set WAL mode: %w", err)
		}
	}
	return db, nil
}

// SQLitePath strips the sqlite:// scheme from a store or index URL.
func SQLitePath(rawURL string) string {
	p := strings.TrimPrefix(rawURL, "sqlite://")
	if p == "" {
		return ":memory:"
	}
	return p
}
