package testutil

import (
	"testing"

	"driveway/internal/database"
)

// NewTestDatabase creates an in-memory SQLite database with the full schema
// applied, registered for cleanup with the test.
func NewTestDatabase(t *testing.T) *database.SQLiteDatabase {
	t.Helper()

	conn, err := database.OpenConnection(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	if _, err := conn.Exec(database.Schema); err != nil {
		conn.Close()
		t.Fatalf("applying schema: %v", err)
	}

	db := database.NewSQLiteDatabaseFromDB(conn)
	t.Cleanup(func() { db.Close() })
	return db
}
