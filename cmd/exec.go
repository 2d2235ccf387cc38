package cmd

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"entrypass/config"
	"entrypass/internal/handlers"
	"entrypass/internal/services"
	"entrypass/internal/store"
	_ "entrypass/migrations"
	"entrypass/monitoring"
	"entrypass/security"
	"entrypass/utils"

	"github.com/pocketbase/pocketbase"
	"github.com/pocketbase/pocketbase/core"
	"github.com/pocketbase/pocketbase/plugins/migratecmd"
	pubnub "github.com/pubnub/go/v7"
)

func Start() error {
	app := pocketbase.New()

	// Load configuration
	cfg := config.LoadConfig()

	// Initialize Redis
	redisClient := utils.NewRedisClient(cfg.RedisURL, cfg.RedisPassword, cfg.RedisDB)
	defer redisClient.Close()

	// Initialize PubNub for ops notifications
	var notifier *services.GateNotifier
	if cfg.PubNubPublishKey != "" {
		pnCfg := pubnub.NewConfigWithUserId(pubnub.UserId(cfg.PubNubUserID))
		pnCfg.PublishKey = cfg.PubNubPublishKey
		pnCfg.SubscribeKey = cfg.PubNubSubscribeKey
		pnCfg.SecretKey = cfg.PubNubSecretKey

		notifier = services.NewGateNotifier(pubnub.NewPubNub(pnCfg), cfg.GateEventChannel)
	}

	// The store backing the validator; any backend with the same
	// conditional-write guarantee can substitute here.
	ticketStore := store.NewRecordStore(app)

	// Initialize services
	signer := services.NewSigner(cfg.SigningKey)
	issuerService := services.NewIssuerService(ticketStore, signer, cfg.IssueMaxAttempts)
	validatorService := services.NewValidatorService(ticketStore, signer, notifier)
	gateService := services.NewGateService(redisClient, validatorService, cfg.ScanDebounceWindow)

	// Initialize handlers
	ticketHandler := handlers.NewTicketHandler(issuerService, ticketStore)
	scanHandler := handlers.NewScanHandler(gateService)
	adminHandler := handlers.NewAdminHandler(app, validatorService, cfg.OperatorTokenHash)

	rateLimiter := security.NewRateLimiter(redisClient)

	// Enable migrations
	migratecmd.MustRegister(app, app.RootCmd, migratecmd.Config{
		Automigrate: true,
	})

	// Metrics server
	if cfg.EnableMetrics {
		monitoring.StartMetricsServer(cfg.MetricsPort)
	}

	// Setup graceful shutdown
	go handleShutdown()

	app.OnServe().BindFunc(func(e *core.ServeEvent) error {
		// Issuance endpoints (booking collaborator)
		e.Router.POST("/api/v1/tickets", ticketHandler.Issue)
		e.Router.GET("/api/v1/tickets/{ticketId}", ticketHandler.Get)

		// Scan intake (scanner collaborator)
		e.Router.POST("/api/v1/scan", scanHandler.Submit).
			BindFunc(rateLimiter.ScanRateLimit(cfg.GateScanRateLimit))

		// Admin endpoints
		e.Router.POST("/api/v1/admin/revoke", adminHandler.Revoke)
		e.Router.GET("/api/v1/admin/dashboard", adminHandler.Dashboard)

		// Health check
		e.Router.GET("/health", func(e *core.RequestEvent) error {
			if err := utils.RedisHealthCheck(redisClient); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			if err := utils.DBHealthCheck(app.DB()); err != nil {
				return e.JSON(http.StatusServiceUnavailable, map[string]string{
					"status": "unhealthy",
					"error":  err.Error(),
				})
			}
			return e.JSON(http.StatusOK, map[string]string{"status": "healthy"})
		})

		log.Println("Server routes registered")

		return e.Next()
	})

	// Start server
	return app.Start()
}

// handleShutdown handles graceful shutdown
func handleShutdown() {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	fmt.Println()
	log.Println("Shutdown signal received, cleaning up...")
}
