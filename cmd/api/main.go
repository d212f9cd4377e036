package main

import (
	"context"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"community-portal/internal/config"
	"community-portal/internal/database"
	"community-portal/internal/logger"
	"community-portal/internal/messaging"
	"community-portal/internal/portal"
	"community-portal/internal/server"
	"community-portal/internal/shipping"
	"community-portal/internal/telemetry"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

func gracefulShutdown(apiServer *server.Server, shutdowns []func(context.Context) error, logger *zap.Logger, done chan bool) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	logger.Info("Shutting down gracefully, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := apiServer.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	for _, shutdown := range shutdowns {
		if err := shutdown(ctx); err != nil {
			logger.Error("Failed to flush telemetry", zap.Error(err))
		}
	}

	if err := apiServer.Close(); err != nil {
		logger.Error("Error closing server resources", zap.Error(err))
	}

	logger.Info("Server exiting")
	done <- true
}

func main() {
	cfg := config.Load()

	log, err := logger.New(cfg.Server.Env, cfg.Log.Level, cfg.Telemetry.ServiceName)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting community portal API",
		zap.String("env", cfg.Server.Env),
		zap.String("port", cfg.Server.Port),
	)

	if cfg.Session.Secret == "" {
		log.Fatal("SESSION_SECRET must be set")
	}

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.Telemetry.OTLPEndpoint,
		cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	metricsHandler, shutdownMeter, err := telemetry.InitMeterProvider(cfg.Telemetry.ServiceName, cfg.Telemetry.ServiceVersion)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	metrics, err := telemetry.NewMetrics()
	if err != nil {
		log.Fatal("Failed to create metrics", zap.Error(err))
	}

	dbService, err := database.New(cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	log.Info("Database health check", zap.Any("health", dbService.Health(ctx)))

	if err := database.RunMigrations(dbService.DB(), log); err != nil {
		log.Fatal("Failed to run migrations", zap.Error(err))
	}
	if version, err := database.MigrationVersion(dbService.DB()); err != nil {
		log.Warn("Failed to read migration version", zap.Error(err))
	} else {
		log.Info("Database migrations completed successfully", zap.Int64("version", version))
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err), zap.String("addr", cfg.Redis.Addr()))
	}

	rates, err := shipping.Load(cfg.Shipping.RatesFile)
	if err != nil {
		log.Fatal("Failed to load shipping rates", zap.Error(err))
	}

	members := portal.NewClient(portal.Config{
		BaseURL:       cfg.Portal.BaseURL,
		APIToken:      cfg.Portal.APIToken,
		Timeout:       cfg.Portal.Timeout,
		RatePerSecond: cfg.Portal.RatePerSecond,
		Burst:         cfg.Portal.Burst,
	}, nil)

	publisher := messaging.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.OrdersTopic)
	if len(cfg.Kafka.Brokers) == 0 {
		log.Info("Kafka brokers not configured, order events are dropped")
	}

	srv, err := server.NewServer(cfg, log, server.Dependencies{
		DB:             dbService,
		Redis:          redisClient,
		Publisher:      publisher,
		Members:        members,
		Shipping:       rates,
		Metrics:        metrics,
		MetricsHandler: metricsHandler,
	})
	if err != nil {
		log.Fatal("Failed to build server", zap.Error(err))
	}

	done := make(chan bool, 1)
	go gracefulShutdown(srv, []func(context.Context) error{shutdownTracer, shutdownMeter}, log, done)

	log.Info("Server listening", zap.String("addr", srv.Addr))

	err = srv.ListenAndServe()
	if err != nil && err != http.ErrServerClosed {
		log.Fatal("HTTP server error", zap.Error(err))
	}

	<-done
	log.Info("Graceful shutdown complete")
}
