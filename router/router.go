package router

import (
	"github.com/cuetime/poolhall-app/controllers"
	"github.com/cuetime/poolhall-app/middlewares"
	"github.com/cuetime/poolhall-app/services"
	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func SetupRouter(db *gorm.DB, clover *services.CloverService, queue *services.PaymentQueueService) *gin.Engine {
	r := gin.Default()

	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares())
	r.Use(middlewares.LoggerMiddleware())

	userCtrl := controllers.NewUserController(db)
	tableCtrl := controllers.NewTableController(db)
	sessionCtrl := controllers.NewSessionController(db)
	playerCtrl := controllers.NewPlayerController(db)
	settingsCtrl := controllers.NewSettingsController(db)
	waitlistCtrl := controllers.NewWaitlistController(db)
	paymentCtrl := controllers.NewPaymentController(db, clover)
	queueCtrl := controllers.NewQueueController(db, queue)
	cloverCtrl := controllers.NewCloverController(db, clover)
	reportCtrl := controllers.NewReportController(db)

	// ----------------------------------------------------------------
	//                      PUBLIC ROUTES
	// ----------------------------------------------------------------
	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})

	public := r.Group("/")
	public.Use(middlewares.NewStrictRateLimiter())
	{
		public.POST("/register", userCtrl.Register)
		public.POST("/login", userCtrl.Login)
	}

	// Clover OAuth and webhooks are called by Clover, not by staff.
	r.GET("/clover/oauth/start", cloverCtrl.StartOAuth)
	r.GET("/clover/oauth/callback", cloverCtrl.OAuthCallback)
	r.POST("/clover/webhook", cloverCtrl.HandleWebhook)

	// ----------------------------------------------------------------
	//                      AUTHENTICATED ROUTES
	// ----------------------------------------------------------------
	auth := r.Group("/admin")
	auth.Use(middlewares.AuthMiddleware())

	auth.GET("/profile", userCtrl.GetProfile)
	auth.GET("/users", userCtrl.GetAllUsers)

	// TABLES
	auth.GET("/tables", tableCtrl.GetAllTables)
	auth.POST("/tables", tableCtrl.CreateTable)
	auth.GET("/tables/by-status", tableCtrl.FindTablesByStatus)
	auth.GET("/tables/:table_id", tableCtrl.GetTableByID)
	auth.PATCH("/tables/:table_id", tableCtrl.UpdateTable)
	auth.DELETE("/tables/:table_id", tableCtrl.DeleteTable)

	// SESSIONS
	auth.GET("/sessions", sessionCtrl.GetAllSessions)
	auth.POST("/sessions", sessionCtrl.StartSession)
	auth.GET("/sessions/:session_id", sessionCtrl.GetSessionByID)
	auth.PATCH("/sessions/:session_id", sessionCtrl.UpdateSession)
	auth.DELETE("/sessions/:session_id", sessionCtrl.DeleteSession)
	auth.GET("/sessions/:session_id/players", sessionCtrl.GetSessionPlayers)
	auth.POST("/sessions/:session_id/players", sessionCtrl.AddSessionPlayer)
	auth.DELETE("/sessions/:session_id/players", sessionCtrl.RemoveSessionPlayer)

	// PLAYERS
	auth.GET("/players", playerCtrl.GetAllPlayers)
	auth.POST("/players", playerCtrl.CreatePlayer)
	auth.GET("/players/:player_id", playerCtrl.GetPlayerByID)
	auth.PATCH("/players/:player_id", playerCtrl.UpdatePlayer)
	auth.DELETE("/players/:player_id", playerCtrl.DeletePlayer)

	// WAITLIST
	auth.GET("/waitlist", waitlistCtrl.GetWaitlist)
	auth.POST("/waitlist", waitlistCtrl.AddToWaitlist)
	auth.PATCH("/waitlist/:entry_id", waitlistCtrl.UpdateWaitlistEntry)
	auth.DELETE("/waitlist/:entry_id", waitlistCtrl.DeleteWaitlistEntry)

	// SETTINGS
	auth.GET("/settings", settingsCtrl.GetSettings)
	auth.PATCH("/settings", settingsCtrl.UpdateSettings)

	// PAYMENTS (with audit logging)
	paymentGroup := auth.Group("/payments")
	paymentGroup.Use(middlewares.PaymentLoggerMiddleware())
	{
		paymentGroup.GET("", paymentCtrl.GetPayments)
		paymentGroup.POST("", paymentCtrl.CreatePayment)
		paymentGroup.GET("/:payment_id", paymentCtrl.GetPaymentByID)
		paymentGroup.POST("/:payment_id/refund", paymentCtrl.RefundPayment)
		paymentGroup.POST("/:payment_id/receipt", paymentCtrl.SendReceipt)
	}

	// PAYMENT QUEUE
	auth.GET("/payment-queue", queueCtrl.GetQueueStatus)
	auth.POST("/payment-queue", queueCtrl.EnqueuePayment)
	auth.POST("/payment-queue/process", queueCtrl.ProcessQueue)
	auth.POST("/payment-queue/retry-exhausted", queueCtrl.RetryExhausted)

	// CLOVER connection management
	auth.GET("/clover/status", cloverCtrl.GetStatus)
	auth.DELETE("/clover/connection", cloverCtrl.Disconnect)

	// DASHBOARD AND REPORTS
	auth.GET("/dashboard/stats", tableCtrl.GetDashboardStats)
	auth.GET("/reports/revenue", reportCtrl.GetRevenueReport)
	auth.GET("/reports/activity", reportCtrl.GetActivityReport)

	// WebSocket endpoint for live floor updates
	wsGroup := r.Group("/ws")
	wsGroup.Use(middlewares.WebSocketAuthMiddleware())
	{
		wsGroup.GET("/floor", controllers.LiveHandler)
	}

	return r
}
