package main

import (
	"context"                       // context package is needed for Redis operations
	"log"                           // log package is needed for logging
	"rentflow/internal/api"         // Custom package for API handlers
	"rentflow/internal/config"      // Custom package for configuration
	"rentflow/internal/domain"      // Domain models
	"rentflow/internal/lease"       // Lease collector and coordinator
	"rentflow/internal/middleware"  // Custom package for middleware
	"rentflow/internal/settlement"  // Settlement ledger client
	"time"                          // Time durations

	"github.com/gin-gonic/gin"     // Gin web framework
	"github.com/redis/go-redis/v9" // Redis client
	"github.com/sirupsen/logrus"   // Logrus for structured logging
	"gorm.io/driver/mysql"         // MySQL driver for GORM
	"gorm.io/gorm"                 // GORM ORM library
)

// Main function to set up and run the server
func main() {
	cfg := config.LoadConfig() // Load configuration

	// Setup logger
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	// Setup Data Source Name (DSN) and connect to the database
	dsn := cfg.DBUser + ":" + cfg.DBPassword + "@tcp(" + cfg.DBHost + ":" + cfg.DBPort + ")/" + cfg.DBName + "?parseTime=true"
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{})
	if err != nil {
		logrus.Fatalf("failed to connect to DB: %v", err) // Fatal error if DB connection fails
	}

	// Setup Redis client
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr, // Redis server address
		Password: cfg.RedisPass, // Redis password
		DB:       cfg.RedisDB,   // Redis database number
	})

	// Test Redis connection
	_, err = redisClient.Ping(context.Background()).Result()
	if err != nil {
		logrus.Fatalf("failed to connect to Redis: %v", err)
	}

	// Activation coordinator: the only writer of lease status past signing
	coordinator := &lease.Coordinator{DB: db}

	// Settlement service, optional: without a ledger URL the fully-signed
	// hook only attempts activation
	var settlements *settlement.Service
	if cfg.LedgerURL != "" {
		settlements = settlement.NewService(
			db,
			settlement.NewClient(cfg.LedgerURL),
			time.Duration(cfg.LedgerPollSeconds)*time.Second,
			cfg.LedgerPollAttempts,
		)
	}

	// Signature collector; on fully_signed it attempts activation in case
	// payment landed first, then records the commitment on the ledger. The
	// hook already runs off the request goroutine. Activation goes first:
	// it depends only on signatures and payment completion and must never
	// wait on ledger confirmation.
	collector := &lease.Collector{
		DB: db,
		OnFullySigned: func(l domain.Lease) {
			if err := coordinator.TryActivate(l.ID); err != nil {
				logrus.WithField("lease_id", l.ID).Errorf("activation attempt failed: %v", err)
			}
			if settlements != nil {
				settlements.SubmitAndPoll(l)
			}
		},
	}

	// Set Mode to Release if in production
	if cfg.IsProd {
		gin.SetMode(gin.ReleaseMode)
	}

	// Setup Gin
	r := gin.Default() // Gin router instance

	// Set trusted proxies for Gin
	if err := r.SetTrustedProxies([]string{"127.0.0.1"}); err != nil {
		logrus.Fatalf("failed to set trusted proxies: %v", err)
	}

	// Auth routes
	r.POST("/user", api.RegisterHandler(db))            // Registration endpoint
	r.GET("/user", api.LoginHandler(db, cfg.JWTSecret)) // Login endpoint

	authed := middleware.JWTAuthMiddleware(cfg.JWTSecret)

	// Lease routes (protected by JWT)
	leaseGroup := r.Group("/leases")
	leaseGroup.Use(authed)
	leaseGroup.POST("", middleware.ManagerOnlyMiddleware(db), api.CreateLeaseHandler(db)) // Draft from approved application
	leaseGroup.GET("/:id", api.GetLeaseHandler(db, redisClient))                          // Lease with settlement annotation
	leaseGroup.POST("/:id/sign", api.SignLeaseHandler(collector, redisClient))            // Per-party signature submission
	leaseGroup.GET("/:id/verify", api.VerifyLeaseHandler(db))                             // Signature verification report
	leaseGroup.POST("/:id/payments-complete", api.PaymentsCompleteHandler(coordinator, redisClient)) // Payment collaborator signal
	leaseGroup.POST("/:id/expire", api.ExpireLeaseHandler(coordinator, redisClient))      // End-of-term signal
	leaseGroup.POST("/:id/terminate", middleware.AdminOnlyMiddleware(db), api.TerminateLeaseHandler(coordinator, redisClient)) // Administrative termination

	// Wallet routes (protected by JWT)
	walletGroup := r.Group("/wallets")
	walletGroup.Use(authed)
	walletGroup.POST("", api.AddWalletHandler(db))                  // Bind wallet endpoint
	walletGroup.GET("", api.ListWalletsHandler(db))                 // List wallets endpoint
	walletGroup.PUT("/:id/primary", api.SetPrimaryWalletHandler(db)) // Primary swap endpoint
	walletGroup.DELETE("/:id", api.RemoveWalletHandler(db))         // Remove wallet endpoint

	// Chat routes (protected by JWT)
	threadGroup := r.Group("/threads")
	threadGroup.Use(authed)
	threadGroup.GET("/:id/messages", api.GetThreadMessagesHandler(db, redisClient)) // Thread read endpoint
	threadGroup.POST("/:id/messages", api.PostMessageHandler(db, redisClient))      // Thread post endpoint

	// Admin routes (protected, admin only)
	adminGroup := r.Group("/admin")
	adminGroup.Use(authed, middleware.AdminOnlyMiddleware(db))
	adminGroup.GET("/users", api.ListUsersHandler(db, redisClient))          // List users endpoint
	adminGroup.GET("/leases", api.ListLeasesHandler(db, redisClient))        // List leases endpoint
	adminGroup.GET("/leases/:id/settlements", api.ListSettlementsHandler(db)) // Settlement records for a lease

	log.Println("Server running on " + cfg.AppPort) // Log server start
	r.Run(":" + cfg.AppPort)                        // Start the server on port cfg.AppPort
}
