// Package dbtest opens a migrated SQLite database for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"github.com/execcoach/coach/internal/db"
	"github.com/jmoiron/sqlx"
)

// Pragmas match the production default DSN.
const params = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_txlock=immediate"

// New creates a migrated SQLite database in a temp directory. It is closed when
// the test ends.
func New(t testing.TB) *sqlx.DB {
	t.Helper()
	return NewShared(t, 1)[0]
}

// NewShared opens handles separate connection pools on one migrated database
// file, the way the server and the MCP process share a store.
func NewShared(t testing.TB, handles int) []*sqlx.DB {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "coach.db") + params

	pools := make([]*sqlx.DB, 0, handles)
	for i := range handles {
		database, err := db.Init("sqlite", dsn)
		if err != nil {
			t.Fatalf("failed to open test database: %v", err)
		}
		t.Cleanup(func() { _ = database.Close() })

		if i == 0 {
			if err := db.RunMigrations(database.DB, "sqlite"); err != nil {
				t.Fatalf("failed to migrate test database: %v", err)
			}
		}
		pools = append(pools, database)
	}
	return pools
}
