package dbtest

import (
	"testing"

	"github.com/krishkalaria12/snap-social/database"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// OpenInMemory opens a migrated in-memory SQLite database closed on test cleanup.
func OpenInMemory(t testing.TB) *gorm.DB {
	t.Helper()

	db, err := database.Connect(database.Options{Driver: "sqlite", DSN: "file::memory:?_foreign_keys=on", LogLevel: logger.Silent})
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { _ = database.Close(db) })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test db: %v", err)
	}
	return db
}
