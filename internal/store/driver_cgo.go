//go:build cgo

package store

import _ "github.com/mattn/go-sqlite3"

const driverName = "sqlite3"

// dsn appends the connection options the store relies on: WAL so
// concurrent windows don't block each other, and a busy timeout so
// overlapping writes queue instead of failing.
func dsn(path string) string {
	return path + "?_busy_timeout=5000&_journal_mode=WAL"
}
