package main

import (
	"context"
	"database/sql"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/redis/go-redis/v9"

	"dispatch/internal/app"
	"dispatch/internal/broadcast"
	"dispatch/internal/config"
	"dispatch/internal/geocode"
	"dispatch/internal/handler"
	internalRedis "dispatch/internal/redis"
	"dispatch/internal/repository/postgres"
	"dispatch/internal/service"
	"dispatch/internal/websocket"
)

func main() {
	cfg := config.Load()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database driver can be instrumented.
	var nrApp *newrelic.Application
	var err error
	if cfg.NewRelic.Enabled && cfg.NewRelic.LicenseKey != "" {
		nrApp, err = newrelic.NewApplication(
			newrelic.ConfigAppName(cfg.NewRelic.AppName),
			newrelic.ConfigLicense(cfg.NewRelic.LicenseKey),
			newrelic.ConfigDistributedTracerEnabled(true),
		)
		if err != nil {
			log.Printf("failed to initialize New Relic: %v", err)
		} else {
			log.Printf("New Relic enabled: app=%s", cfg.NewRelic.AppName)
		}
	}

	if cfg.Database.MigrationsDir != "" {
		if err := app.RunMigrations(cfg.Database); err != nil {
			log.Fatalf("failed to run migrations: %v", err)
		}
		log.Println("Migrations up to date")
	}

	db, err := app.NewDatabase(ctx, cfg.Database, nrApp)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer db.Close()
	log.Println("Connected to PostgreSQL")

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.Fatalf("failed to connect to redis: %v", err)
		}
		defer redisClient.Close()
		log.Println("Connected to Redis")
	} else {
		log.Println("Redis disabled: broadcast is process-local")
	}

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	server := wireServer(runCtx, db, redisClient, nrApp, cfg)

	go func() {
		log.Printf("Starting server on port %s", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")
	stop()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}

// wireServer wires all dependencies and returns the HTTP server.
func wireServer(runCtx context.Context, db *sql.DB, redisClient *redis.Client, nrApp *newrelic.Application, cfg *config.Config) *http.Server {
	driverRepo := postgres.NewDriverRepository(db)
	orderRepo := postgres.NewOrderRepository(db)
	txManager := postgres.NewTxManager(db)

	hub := websocket.NewHub()
	go hub.Run(runCtx)

	// With Redis, events make a round trip through the shared pub/sub
	// channel so every instance's hub sees them. Without it, the hub is
	// the publisher and fan-out stays process-local.
	var publisher broadcast.Publisher = hub
	var locationStore internalRedis.LocationStoreInterface
	if redisClient != nil {
		publisher = broadcast.NewRedisPublisher(redisClient, cfg.Broadcast.Channel)
		go hub.SubscribePubSub(runCtx, redisClient, cfg.Broadcast.Channel)
		locationStore = internalRedis.NewLocationStore(redisClient)
	}

	dispatchService := service.NewDispatchService(driverRepo, orderRepo, txManager, locationStore, publisher)

	var geocoder geocode.Geocoder
	if cfg.Geocoder.Enabled {
		geocoder = geocode.NewNominatimClient(
			cfg.Geocoder.BaseURL,
			cfg.Geocoder.UserAgent,
			cfg.Geocoder.Timeout,
			cfg.Geocoder.MinInterval,
		)
	}

	driverHandler := handler.NewDriverHandler(dispatchService, driverRepo)
	orderHandler := handler.NewOrderHandler(dispatchService, orderRepo, geocoder)

	router := app.NewRouter(app.RouterDeps{
		DriverHandler: driverHandler,
		OrderHandler:  orderHandler,
		Hub:           hub,
		RedisClient:   redisClient,
		NewRelicApp:   nrApp,
		JWTSecret:     cfg.Auth.JWTSecret,
	})

	return &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
