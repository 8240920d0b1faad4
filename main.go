package main

import (
	"log"
	"os"

	"github.com/cuetime/poolhall-app/config"
	"github.com/cuetime/poolhall-app/middlewares"
	"github.com/cuetime/poolhall-app/models"
	"github.com/cuetime/poolhall-app/router"
	"github.com/cuetime/poolhall-app/services"
	"github.com/cuetime/poolhall-app/utils"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

func init() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: .env file not found or error loading: %v", err)
	}

	utils.InitLogger()
}

func main() {
	db, err := config.InitDB()
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to connect to database: %v", err)
	}

	utils.InitDB(db)

	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	autoMigrate(db)

	cloverService := services.NewCloverService(db)
	queueService := services.NewPaymentQueueService(db, cloverService)

	// Sweep the payment queue in the background so failed charges retry
	// without operator involvement.
	scheduler := cron.New()
	if _, err := scheduler.AddFunc("@every 1m", func() {
		processed, failed := queueService.ProcessQueue()
		if processed > 0 || failed > 0 {
			utils.InfoLogger.Printf("Payment queue sweep: %d processed, %d failed", processed, failed)
		}
	}); err != nil {
		utils.ErrorLogger.Fatalf("Failed to schedule payment queue sweep: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	rateLimiter := middlewares.NewRateLimiter(50, 1)

	r := router.SetupRouter(db, cloverService, queueService)
	r.Use(rateLimiter.RateLimit())

	r.SetTrustedProxies([]string{"127.0.0.1", "localhost"})

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
		&models.Player{},
		&models.Session{},
		&models.SessionPlayer{},
		&models.Settings{},
		&models.Payment{},
		&models.PaymentQueue{},
		&models.WaitlistEntry{},
		&models.CloverToken{},
	)
	if err != nil {
		utils.ErrorLogger.Fatalf("Failed to AutoMigrate: %v", err)
	}
	utils.InfoLogger.Println("AutoMigrate completed.")

	// Make sure the pricing defaults exist before the first session starts.
	if err := seedSettings(db); err != nil {
		utils.ErrorLogger.Fatalf("Failed to seed settings: %v", err)
	}
}

func seedSettings(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.Settings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	return db.Create(models.DefaultSettings()).Error
}
