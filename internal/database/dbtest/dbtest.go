// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"goalbingo/internal/database"
	"goalbingo/migrations"
)

// New returns a migrated SQLite database in a temp dir, closed when the test ends.
// It uses the pure-Go driver so tests run without cgo.
func New(t testing.TB) *database.DB {
	t.Helper()

	db, err := database.Open(database.NewPureSQLiteDialect(), database.DialectConfig{
		Path: filepath.Join(t.TempDir(), "test.db"),
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.RunMigrations(migrations.FS); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	return db
}
