package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/mbodj/retam/internal/config"
	"github.com/mbodj/retam/internal/database"
	"github.com/mbodj/retam/internal/geocode"
	"github.com/mbodj/retam/internal/handlers"
	"github.com/mbodj/retam/internal/logger"
	"github.com/mbodj/retam/internal/middleware"
	"github.com/mbodj/retam/internal/notify"
	"github.com/mbodj/retam/internal/receipts"
	"github.com/mbodj/retam/internal/repository"
	"github.com/mbodj/retam/internal/services"
	"github.com/mbodj/retam/internal/sharelink"
)

const (
	shutdownTimeout = 30 * time.Second
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.New(cfg.Server.Env)
	log.Info("Starting RETAM API", map[string]interface{}{
		"version":     "0.1.0",
		"environment": cfg.Server.Env,
		"port":        cfg.Server.Port,
	})

	ctx := context.Background()
	db, err := database.NewPostgresPool(ctx, cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", err, map[string]interface{}{
			"host": cfg.Database.Host,
			"port": cfg.Database.Port,
			"name": cfg.Database.Name,
		})
	}
	defer db.Close()

	log.Info("Database connection established", map[string]interface{}{
		"host":     cfg.Database.Host,
		"port":     cfg.Database.Port,
		"database": cfg.Database.Name,
		"pool_min": cfg.Database.PoolMin,
		"pool_max": cfg.Database.PoolMax,
	})

	renderer, err := receipts.NewRenderer(cfg.Receipts.Dir, log)
	if err != nil {
		log.Fatal("Failed to prepare receipts directory", err, map[string]interface{}{
			"dir": cfg.Receipts.Dir,
		})
	}

	signer := sharelink.New(cfg.Share.Secret, cfg.Share.TTL)
	geocoder := geocode.NewClient(cfg.Geocoder.BaseURL, cfg.Geocoder.Timeout, log)

	var notifier services.LateNotifier
	if cfg.SMTP.Enabled {
		notifier = notify.NewMailer(cfg.SMTP, log)
		log.Info("Late payment notices enabled", map[string]interface{}{
			"smtp_host": cfg.SMTP.Host,
		})
	}

	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()

	// Middleware order: RequestID -> Logger -> Recovery -> CORS
	router.Use(middleware.RequestID())
	router.Use(middleware.Logger(log))
	router.Use(middleware.Recovery(log))
	router.Use(middleware.CORS(cfg.CORS.Origins))

	healthHandler := handlers.NewHealthHandler(db, cfg.Server.Env)
	router.GET("/health", healthHandler.Health)
	router.GET("/health/ready", healthHandler.Ready)
	router.GET("/api/v1/info", healthHandler.Info)

	// Repositories
	zoneRepo := repository.NewZoneRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	taxpayerRepo := repository.NewTaxpayerRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	statsRepo := repository.NewStatsRepository(db)

	// Services
	zoneService := services.NewZoneService(zoneRepo, log)
	locationService := services.NewLocationService(locationRepo, zoneService, log)
	taxpayerService := services.NewTaxpayerService(taxpayerRepo, historyRepo, log)
	paymentService := services.NewPaymentService(db, paymentRepo, taxpayerRepo, historyRepo, renderer, notifier, log)
	statsService := services.NewStatsService(statsRepo, log)

	// Handlers
	zoneHandler := handlers.NewZoneHandler(zoneService)
	locationHandler := handlers.NewLocationHandler(locationService)
	taxpayerHandler := handlers.NewTaxpayerHandler(taxpayerService)
	paymentHandler := handlers.NewPaymentHandler(paymentService, signer, cfg.Receipts.BaseURL)
	sharedHandler := handlers.NewSharedHandler(signer, paymentService, renderer)
	statsHandler := handlers.NewStatsHandler(statsService)
	geocodeHandler := handlers.NewGeocodeHandler(geocoder)

	v1 := router.Group("/api/v1")
	{
		zones := v1.Group("/zones")
		{
			zones.GET("", zoneHandler.List)
			zones.GET("/geojson", zoneHandler.GeoJSON)
			zones.GET("/distribution", zoneHandler.Distribution)
			zones.GET("/:id", zoneHandler.Get)
			zones.POST("", zoneHandler.Create)
			zones.PUT("/:id", zoneHandler.Update)
			zones.PATCH("/:id/active", zoneHandler.SetActive)
			zones.DELETE("/:id", zoneHandler.Delete)
		}

		taxpayers := v1.Group("/taxpayers")
		{
			taxpayers.GET("", taxpayerHandler.List)
			taxpayers.GET("/:id", taxpayerHandler.Get)
			taxpayers.POST("", taxpayerHandler.Create)
			taxpayers.PUT("/:id", taxpayerHandler.Update)
			taxpayers.DELETE("/:id", taxpayerHandler.Delete)
			taxpayers.GET("/:id/history", taxpayerHandler.History)
			taxpayers.GET("/:id/payments", paymentHandler.ListByTaxpayer)
			taxpayers.GET("/:id/location", locationHandler.Get)
			taxpayers.PUT("/:id/location", locationHandler.Put)
			taxpayers.DELETE("/:id/location", locationHandler.Delete)
		}

		locations := v1.Group("/locations")
		{
			locations.GET("/nearby", locationHandler.Nearby)
			locations.GET("/geojson", locationHandler.GeoJSON)
		}

		payments := v1.Group("/payments")
		{
			payments.POST("", paymentHandler.Create)
			payments.GET("/:id", paymentHandler.Get)
			payments.POST("/:id/share-link", paymentHandler.ShareLink)
		}

		shared := v1.Group("/shared")
		{
			shared.GET("/receipt", sharedHandler.Receipt)
			shared.GET("/receipt/html", sharedHandler.ReceiptHTML)
		}

		stats := v1.Group("/stats")
		{
			stats.GET("/monthly", statsHandler.Monthly)
			stats.GET("/overview", statsHandler.Overview)
		}

		v1.GET("/geocode", geocodeHandler.Search)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Info("Server listening", map[string]interface{}{
			"port": cfg.Server.Port,
			"addr": srv.Addr,
		})
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server failed to start", err, nil)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...", nil)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", err, map[string]interface{}{
			"timeout": shutdownTimeout.String(),
		})
	}

	log.Info("Server exited", nil)
}
