package config

import (
	"fmt"
	"os"

	"gorm.io/driver/mysql"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// InitDB membuka koneksi database sesuai env.
// DB_DRIVER=mysql (default) memakai DB_USER/DB_PASS/DB_HOST/DB_PORT/DB_NAME,
// DB_DRIVER=sqlite memakai DB_PATH (default qr_table_order.db).
func InitDB() (*gorm.DB, error) {
	driver := os.Getenv("DB_DRIVER")

	switch driver {
	case "sqlite":
		path := os.Getenv("DB_PATH")
		if path == "" {
			path = "qr_table_order.db"
		}
		return gorm.Open(sqlite.Open(path), &gorm.Config{})
	case "", "mysql":
		user := getenvDefault("DB_USER", "root")
		pass := os.Getenv("DB_PASS")
		host := getenvDefault("DB_HOST", "127.0.0.1")
		port := getenvDefault("DB_PORT", "3306")
		name := getenvDefault("DB_NAME", "qr_table_order")

		dsn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			user, pass, host, port, name)
		return gorm.Open(mysql.Open(dsn), &gorm.Config{})
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER: %s", driver)
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
