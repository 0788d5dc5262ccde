package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/jonboulle/clockwork"

	"teamvest/internal/auth"
	"teamvest/internal/config"
	"teamvest/internal/database"
	"teamvest/internal/handlers"
	"teamvest/internal/jobs"
	"teamvest/internal/plans"
	"teamvest/internal/services"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize JWT
	auth.InitJWT(cfg.App.JWTSecret)

	// Connect to database
	if err := database.Connect(cfg.GetDSN()); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	// Run migrations and seed the reward tiers
	if err := database.AutoMigrate(); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}
	if err := database.SeedRewardTiers(database.GetDB()); err != nil {
		log.Fatalf("Failed to seed reward tiers: %v", err)
	}

	db := database.GetDB()
	clock := clockwork.NewRealClock()

	// Initialize services
	ledgerService := services.NewLedgerService()
	chainService := services.NewChainService(db)
	otpService := services.NewOtpService(db, clock)
	authService := services.NewAuthService(db)
	userService := services.NewUserService(db, chainService)
	depositService := services.NewDepositService(db, ledgerService, chainService, otpService, clock, cfg.Plan.LockDays, plans.MaxPayoutDepth)
	walletService := services.NewWalletService(db, ledgerService, otpService, cfg.Plan.WithdrawFeePercent)
	distributionService := services.NewDistributionService(db, ledgerService, chainService, clock, cfg.Plan.MonthlyRate, cfg.Plan.CycleDays, plans.MaxPayoutDepth)
	rankService := services.NewRankService(db, ledgerService, chainService, clock)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	userHandler := handlers.NewUserHandler(userService, rankService)
	walletHandler := handlers.NewWalletHandler(walletService, otpService)
	depositHandler := handlers.NewDepositHandler(depositService, otpService)
	adminHandler := handlers.NewAdminHandler(db, depositService, walletService, distributionService, rankService)

	// Start the scheduled cycle jobs
	cycleJobs := jobs.NewCycleJobs(distributionService, rankService)
	if err := cycleJobs.Start(); err != nil {
		log.Fatalf("Failed to start cycle jobs: %v", err)
	}
	defer cycleJobs.Stop()

	// Set up Gin router
	router := gin.Default()

	// CORS middleware
	allowedOrigins := []string{
		"http://localhost:3000",
		"http://localhost:5173",
	}
	if frontendURL := os.Getenv("FRONTEND_URL"); frontendURL != "" {
		allowedOrigins = append(allowedOrigins, frontendURL)
	}

	router.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "ok",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	// Authentication routes (public)
	authRoutes := router.Group("/auth")
	{
		authRoutes.POST("/register", authHandler.Register)
		authRoutes.POST("/login", authHandler.Login)
	}

	// Authenticated /auth/me route
	authProtected := router.Group("/auth")
	authProtected.Use(auth.AuthMiddleware())
	{
		authProtected.GET("/me", authHandler.GetMe)
	}

	// API routes (protected)
	api := router.Group("/api")
	api.Use(auth.AuthMiddleware())
	{
		// User endpoints
		userRoutes := api.Group("/user")
		{
			userRoutes.GET("/profile", userHandler.GetProfile)
			userRoutes.GET("/team", userHandler.GetTeam)
			userRoutes.GET("/upline", userHandler.GetUpline)
			userRoutes.GET("/rank", userHandler.GetRank)
		}

		// Wallet endpoints
		walletRoutes := api.Group("/wallet")
		{
			walletRoutes.GET("", walletHandler.GetWallet)
			walletRoutes.GET("/transactions", walletHandler.GetTransactions)
			walletRoutes.POST("/transfer", walletHandler.Transfer)
			walletRoutes.POST("/withdrawals/otp", walletHandler.RequestWithdrawalOtp)
			walletRoutes.POST("/withdrawals", walletHandler.RequestWithdrawal)
		}

		// Deposit endpoints
		depositRoutes := api.Group("/deposits")
		{
			depositRoutes.POST("/otp", depositHandler.RequestDepositOtp)
			depositRoutes.POST("", depositHandler.RequestDeposit)
			depositRoutes.GET("", depositHandler.GetDeposits)
		}
	}

	// Admin routes (protected + admin only)
	admin := router.Group("/api/admin")
	admin.Use(auth.AuthMiddleware())
	admin.Use(adminHandler.AdminMiddleware())
	{
		admin.GET("/deposits/pending", adminHandler.GetPendingDeposits)
		admin.POST("/deposits/:id/approve", adminHandler.ApproveDeposit)
		admin.POST("/deposits/:id/reject", adminHandler.RejectDeposit)

		admin.GET("/withdrawals/pending", adminHandler.GetPendingWithdrawals)
		admin.POST("/withdrawals/:id/settle", adminHandler.SettleWithdrawal)

		admin.POST("/runs/distribution", adminHandler.RunDistribution)
		admin.POST("/runs/monthly", adminHandler.RunMonthlyEvaluation)
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		log.Printf("Server starting on port %s", cfg.Server.Port)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")

	// Graceful shutdown with 5 second timeout
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("Server exited")
}
