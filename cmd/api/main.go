package main

import (
	"context"
	"crypto/tls"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/primestageprime/wellappoint-ui-sub000/internal/api/router"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/booking"
	appconfig "github.com/primestageprime/wellappoint-ui-sub000/internal/config"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/http/handlers"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/observability/metrics"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/session"
	"github.com/primestageprime/wellappoint-ui-sub000/internal/wellappoint"
	"github.com/primestageprime/wellappoint-ui-sub000/pkg/logging"
)

func main() {
	_ = godotenv.Load()

	// Load configuration
	cfg := appconfig.Load()

	// Initialize logger
	logger := logging.New(cfg.LogLevel)
	logger.Info("starting wellappoint booking server",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	bookingMetrics := metrics.NewBookingMetrics(prometheus.DefaultRegisterer)

	// Session store: Redis in deployed environments, memory for local runs.
	var store booking.StateStore
	if cfg.UseMemorySessions {
		logger.Warn("using in-memory session store; state is lost on restart")
		store = session.NewMemoryStore()
	} else {
		opts := &redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		}
		if cfg.RedisTLS {
			opts.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
		}
		redisClient := redis.NewClient(opts)
		pingCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := redisClient.Ping(pingCtx).Err(); err != nil {
			cancel()
			logger.Error("failed to connect to redis", "addr", cfg.RedisAddr, "error", err)
			os.Exit(1)
		}
		cancel()
		store = session.NewRedisStore(redisClient, cfg.SessionTTL)
	}

	client := wellappoint.NewClient(cfg.WellAppointBaseURL, cfg.UpstreamTimeout, logger, bookingMetrics)
	manager := booking.NewManager(booking.ManagerConfig{
		Client:           client,
		Store:            store,
		ProviderUsername: cfg.ProviderUsername,
		SlotFetchTimeout: cfg.SlotFetchTimeout,
		SubmitTimeout:    cfg.SubmitTimeout,
		Logger:           logger,
		Metrics:          bookingMetrics,
	})

	// Setup router
	r := router.New(&router.Config{
		Logger:             logger,
		BookingHandler:     handlers.NewBookingHandler(manager, logger),
		AuthJWTSecret:      cfg.AuthJWTSecret,
		MetricsHandler:     promhttp.Handler(),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server stopped")
}
