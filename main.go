package main

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"

	"github.com/yeremiapane/qr-table-order/config"
	"github.com/yeremiapane/qr-table-order/models"
	"github.com/yeremiapane/qr-table-order/router"
	"github.com/yeremiapane/qr-table-order/services"
	"github.com/yeremiapane/qr-table-order/utils"
)

func main() {
	// Load .env sebelum apapun
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()

	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	clock := clockwork.NewRealClock()
	sessionCfg := services.SessionConfigFromEnv()

	// Sweep expiry periodik; kebenaran tidak bergantung padanya karena
	// expiry juga dicek lazy di setiap validasi dan pembacaan
	sweeper := services.NewSessionSweeper(services.NewSessionStore(db), clock)
	if v, err := strconv.Atoi(os.Getenv("SWEEP_INTERVAL_SECONDS")); err == nil && v > 0 {
		sweeper.Interval = time.Duration(v) * time.Second
	}
	sweeper.Start()
	defer sweeper.Stop()

	r := router.SetupRouter(db, clock, sessionCfg)

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}
	utils.InfoLogger.Printf("Listening on port %s", port)
	if err := r.Run(":" + port); err != nil {
		utils.ErrorLogger.Fatal(err)
	}
}

func autoMigrate(db *gorm.DB) {
	err := db.AutoMigrate(
		&models.User{},
		&models.Table{},
		&models.TableSession{},
		&models.MenuCategory{},
		&models.Menu{},
		&models.MenuSize{},
		&models.Order{},
		&models.OrderItem{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")
}
