// @title AstroTracker Backend API
// @version 1.0
// @description AstroTracker Backend API: authentication and a cached proxy for NASA's Astronomy Picture of the Day
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"

	_ "ASTROTRACKER_BACK-END/docs" // This is required for swagger
	"ASTROTRACKER_BACK-END/internal/cache"
	"ASTROTRACKER_BACK-END/internal/config"
	"ASTROTRACKER_BACK-END/internal/database"
	"ASTROTRACKER_BACK-END/internal/handlers"
	"ASTROTRACKER_BACK-END/internal/logging"
	"ASTROTRACKER_BACK-END/internal/middleware"
	"ASTROTRACKER_BACK-END/internal/nasa"
	"ASTROTRACKER_BACK-END/internal/repository"
	"ASTROTRACKER_BACK-END/internal/routes"
	"ASTROTRACKER_BACK-END/internal/services"
	"ASTROTRACKER_BACK-END/internal/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited with error", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Database ---
	pool, err := database.NewPool(ctx, cfg)
	if err != nil {
		return fmt.Errorf("database: %w", err)
	}
	defer pool.Close()

	if cfg.Database.RunMigrations {
		if err := database.Migrate(ctx, pool); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
		logger.Info("database migrations applied")
	}

	// --- Cache ---
	store, closeCache, err := newCache(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeCache()

	// --- Services ---
	httpClient := &http.Client{Timeout: cfg.NASA.Timeout}
	users := repository.NewPostgresUserRepository(pool)
	apods := repository.NewPostgresApodRepository(pool)

	authService := services.NewAuthService(users, utils.NewEmailService(&cfg.Email, logger), cfg, logger)
	apodService := services.NewApodService(
		apods,
		nasa.NewClient(cfg.NASA, httpClient, logger),
		nasa.NewCalendarScraper(cfg.NASA.ArchiveURL, httpClient, logger),
		store,
		cfg.Cache,
		logger,
	)

	// --- HTTP Handlers ---
	mux := http.NewServeMux()
	routes.SetupRoutes(mux, routes.Handlers{
		Auth:           handlers.NewAuthHandler(authService, logger),
		ForgotPassword: handlers.NewForgotPasswordHandler(authService, logger),
		Apod:           handlers.NewApodHandler(apodService, logger),
		Health:         handlers.NewHealthHandler(pool, store, logger),
	}, &cfg.JWT, users)

	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	handler := middleware.Recovery(logger)(
		middleware.Logging(middleware.DefaultLoggingConfig(logger))(
			c.Handler(mux),
		),
	)

	// --- HTTP Server + Graceful Shutdown ---
	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("HTTP server listening", "port", cfg.Server.Port, "environment", cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}
	logger.Info("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// newCache builds the configured cache backend and its cleanup function
func newCache(ctx context.Context, cfg *config.Config, logger *slog.Logger) (cache.Cache, func(), error) {
	if cfg.Cache.Backend != "redis" {
		mem := cache.NewMemory(cfg.Cache.CleanupInterval)
		logger.Info("using in-memory cache")
		return mem, mem.Close, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	store := cache.NewRedis(cache.RedisConfig{Client: client, KeyPrefix: cfg.Redis.KeyPrefix})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := store.Ping(pingCtx); err != nil {
		_ = client.Close()
		return nil, nil, fmt.Errorf("redis: %w", err)
	}
	logger.Info("using redis cache", "addr", cfg.Redis.Addr)
	return store, func() { _ = client.Close() }, nil
}
