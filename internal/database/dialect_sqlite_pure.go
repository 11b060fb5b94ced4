package database

import (
	_ "modernc.org/sqlite"
)

// PureSQLiteDialect talks to SQLite through the pure-Go modernc driver, so
// builds with CGO_ENABLED=0 keep a local database. Queries are identical to
// SQLiteDialect; only the driver and DSN differ.
type PureSQLiteDialect struct {
	SQLiteDialect
}

// NewPureSQLiteDialect creates a new cgo-free SQLite dialect
func NewPureSQLiteDialect() *PureSQLiteDialect {
	return &PureSQLiteDialect{}
}

func (d *PureSQLiteDialect) DriverName() string {
	return "sqlite"
}

// DSN applies the pragmas per connection. modernc runs _pragma parameters on
// every new pooled connection, which PRAGMA statements via Exec would not.
func (d *PureSQLiteDialect) DSN(config DialectConfig) string {
	return "file:" + config.Path + "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_time_format=sqlite"
}
