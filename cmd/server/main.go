package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/irfndi/finsight-ml-go/internal/api"
	"github.com/irfndi/finsight-ml-go/internal/api/handlers"
	"github.com/irfndi/finsight-ml-go/internal/cache"
	"github.com/irfndi/finsight-ml-go/internal/config"
	"github.com/irfndi/finsight-ml-go/internal/database"
	"github.com/irfndi/finsight-ml-go/internal/logging"
	"github.com/irfndi/finsight-ml-go/internal/middleware"
	"github.com/irfndi/finsight-ml-go/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
)

const shutdownTimeout = 30 * time.Second

func main() {
	if err := run(); err != nil {
		log.Fatalf("Server failed: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	logger := logging.NewStandardLogger(cfg.LogLevel, cfg.Environment)
	engineLogger := logging.NewLogrusLogger(cfg.LogLevel, cfg.Environment)

	ctx := context.Background()
	provider, err := telemetry.Init(ctx, telemetryConfig(cfg))
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := provider.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Telemetry shutdown failed")
		}
	}()

	redisClient, resultCache := connectResultCache(ctx, cfg, engineLogger)
	defer redisClient.Close()

	srv := newServer(cfg, newRouter(cfg, redisClient, resultCache, logger, engineLogger))

	errCh := make(chan error, 1)
	go func() {
		logger.LogStartup(cfg.Telemetry.ServiceName, telemetry.ServiceVersion, cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-errCh:
		return fmt.Errorf("failed to start server: %w", err)
	case sig := <-quit:
		logger.LogShutdown(cfg.Telemetry.ServiceName, sig.String())
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	logger.Logger().Info("Server exited")
	return nil
}

func telemetryConfig(cfg *config.Config) telemetry.TelemetryConfig {
	return telemetry.TelemetryConfig{
		Enabled:        cfg.Telemetry.Enabled,
		Exporter:       cfg.Telemetry.Exporter,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: telemetry.ServiceVersion,
		Environment:    cfg.Environment,
	}
}

// connectResultCache returns a nil client and cache when Redis is disabled or
// unreachable at startup. The engines do not need Redis, so the service
// starts without caching rather than failing.
func connectResultCache(ctx context.Context, cfg *config.Config, logger *logrus.Logger) (*database.RedisClient, *cache.ResultCache) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}

	client, err := database.NewRedisConnection(ctx, cfg.Redis, logger)
	if err != nil {
		logger.WithError(err).WithField("addr", cfg.Redis.Addr()).
			Warn("Redis unavailable, result cache disabled")
		return nil, nil
	}

	breaker := cache.NewCircuitBreaker("redis-result-cache", cache.BreakerConfig{}, logger)
	return client, cache.NewResultCache(client.Client, cfg.Redis.ResultTTL, breaker, logger)
}

func newRouter(cfg *config.Config, redisClient *database.RedisClient, resultCache *cache.ResultCache, logger *logging.StandardLogger, engineLogger *logrus.Logger) *gin.Engine {
	if cfg.IsDevelopment() {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware(cfg.Telemetry.ServiceName))
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.CORS(cfg.Server.AllowedOrigins))

	// A nil *RedisClient must not become a non-nil interface value.
	var redisHealth handlers.RedisHealthChecker
	if redisClient != nil {
		redisHealth = redisClient
	}

	engineHandler := handlers.NewEngineHandler(cfg.EngineConfig(), resultCache, time.Now, engineLogger)
	healthHandler := handlers.NewHealthHandler(cfg.Telemetry.ServiceName, telemetry.ServiceVersion, redisHealth, resultCache, time.Now)
	api.SetupRoutes(router, engineHandler, healthHandler)
	return router
}

func newServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      handler,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
}
