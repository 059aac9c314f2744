package persistence

import (
	"testing"

	"github.com/solarerp/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory SQLite database with the production models and
// their unique indexes. One connection keeps every query on the same memory database.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), GormConfig(nil))
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.MaterialModel{},
		&models.StockMovementModel{},
		&models.QuoteModel{},
		&models.ProjectModel{},
		&models.ConstructionSiteModel{},
		&models.TaskModel{},
		&models.SaleModel{},
		&models.ReceivableModel{},
		&models.KitModel{},
		&models.KitLineItemModel{},
	))
	return db
}
