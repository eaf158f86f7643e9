package services

import (
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/utils"
)

func TestMain(m *testing.M) {
	utils.InitLogger()
	os.Exit(m.Run())
}

// setupTestDB -> SQLite in-memory + migrasi model yang dipakai services.
// Nama DB unik per test supaya shared cache tidak bocor antar test.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open in-memory sqlite: %v", err)
	}
	err = db.AutoMigrate(
		&models.Table{},
		&models.TableSession{},
		&models.MenuCategory{},
		&models.Menu{},
		&models.MenuSize{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	return db
}

func seedTable(t *testing.T, db *gorm.DB, number string) models.Table {
	t.Helper()
	table := models.Table{TableNumber: number, Capacity: 4, Status: models.TableAvailable}
	if err := db.Create(&table).Error; err != nil {
		t.Fatalf("failed to seed table: %v", err)
	}
	return table
}

func seedMenu(t *testing.T, db *gorm.DB, name string, price float64) models.Menu {
	t.Helper()
	category := models.MenuCategory{Name: "Food-" + name}
	if err := db.Create(&category).Error; err != nil {
		t.Fatalf("failed to seed category: %v", err)
	}
	menu := models.Menu{CategoryID: category.ID, Name: name, Price: price, Stock: 100}
	if err := db.Create(&menu).Error; err != nil {
		t.Fatalf("failed to seed menu: %v", err)
	}
	return menu
}
