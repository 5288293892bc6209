package testutil

import (
	"testing"

	"github.com/autoteile-schmidt/service-portal-api/config"
	"github.com/autoteile-schmidt/service-portal-api/models"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// NewTestDB opens a migrated in-memory SQLite database. A single connection
// is kept open so every query sees the same database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), config.GormConfig(nil))
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get test database handle: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := db.AutoMigrate(models.All()...); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}
