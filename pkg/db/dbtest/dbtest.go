// Package dbtest opens throwaway sqlite databases carrying the full schema.
package dbtest

import (
	"strings"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/loomworks-backend/pkg/db/models"
)

// AllModels lists every persisted model in dependency order.
func AllModels() []any {
	return []any{
		&models.Supplier{},
		&models.Material{},
		&models.Artisan{},
		&models.WorkOrder{},
		&models.WorkOrderStage{},
		&models.WorkOrderMedia{},
		&models.WorkOrderArtisan{},
		&models.StockMovement{},
		&models.PurchaseOrder{},
		&models.PurchaseOrderItem{},
		&models.OutboxEvent{},
		&models.OutboxDLQ{},
	}
}

// Open returns an in-memory database private to t with every model migrated.
func Open(t testing.TB) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	conn, err := gorm.Open(sqlite.Open("file:"+name+"?mode=memory&cache=shared"), &gorm.Config{
		SkipDefaultTransaction: true,
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := conn.AutoMigrate(AllModels()...); err != nil {
		t.Fatalf("migrate sqlite: %v", err)
	}
	sqlDB, err := conn.DB()
	if err != nil {
		t.Fatalf("sql handle: %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })
	return conn
}
