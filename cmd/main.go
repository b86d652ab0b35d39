// @title Bookworm Backend API
// @version 1.0
// @description Bookworm Backend API for sharing book recommendations
// @termsOfService http://swagger.io/terms/

// @contact.name API Support
// @contact.url http://www.swagger.io/support
// @contact.email support@swagger.io

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:3000
// @BasePath /
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT token.

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

	"github.com/rs/cors"

	_ "BOOKWORM_BACK-END/docs" // This is required for swagger
	"BOOKWORM_BACK-END/internal/cache"
	"BOOKWORM_BACK-END/internal/config"
	"BOOKWORM_BACK-END/internal/handlers"
	"BOOKWORM_BACK-END/internal/jobs"
	"BOOKWORM_BACK-END/internal/logging"
	"BOOKWORM_BACK-END/internal/middleware"
	"BOOKWORM_BACK-END/internal/repository"
	"BOOKWORM_BACK-END/internal/routes"
	"BOOKWORM_BACK-END/internal/services"
	"BOOKWORM_BACK-END/internal/storage"
	"BOOKWORM_BACK-END/internal/utils"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(os.Stdout, cfg.Log.Format, cfg.Log.Level)
	if err := run(cfg, logger); err != nil {
		logger.Error(context.Background(), "server exited", "error", err)
		os.Exit(1)
	}
}

// run returns once the server has stopped and every resource is closed.
func run(cfg *config.Config, logger logging.Logger) error {
	ctx := context.Background()

	// --- Storage ---

	store, err := openStore(ctx, cfg.Database, logger)
	if err != nil {
		return fmt.Errorf("open %s store: %w", cfg.Database.Driver, err)
	}
	defer store.Close()

	images, err := storage.NewS3ImageStore(ctx, cfg.Storage, cfg.ImagePublicURL())
	if err != nil {
		return fmt.Errorf("image store: %w", err)
	}

	// the list cache is optional; without Redis every page read hits the store
	var (
		pageCache   services.PageCache
		cachePinger handlers.Pinger
	)
	if cfg.IsCacheConfigured() {
		rdb, err := cache.NewRedisClient(ctx, cfg.Cache.RedisURL)
		if err != nil {
			logger.Warn(ctx, "redis unavailable, book list cache disabled", "error", err)
		} else {
			defer rdb.Close()
			c := cache.NewBookPageCache(rdb, cfg.Cache.TTL)
			pageCache, cachePinger = c, c
		}
	}

	// --- Services ---

	clock := utils.NewRealClock()
	tokens := middleware.NewTokenService(cfg.JWT, clock)
	users := services.NewUserService(store.Users(), tokens, clock, logger)
	books := services.NewBookService(store.Books(), images, pageCache, clock, logger)
	gate := middleware.NewAuthenticator(tokens, users, logger)

	// --- HTTP Handlers ---

	mux := routes.SetupRoutes(
		gate,
		handlers.NewAuthHandler(users, logger),
		handlers.NewBookHandler(books, logger),
		handlers.NewHealthHandler(store, cachePinger),
	)

	// Setup CORS
	c := cors.New(cors.Options{
		AllowedOrigins:   cfg.CORS.AllowedOrigins,
		AllowedMethods:   cfg.CORS.AllowedMethods,
		AllowedHeaders:   cfg.CORS.AllowedHeaders,
		AllowCredentials: cfg.CORS.AllowCredentials,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      c.Handler(mux),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// --- Keep-alive ---

	var keepAlive *jobs.KeepAlive
	if cfg.IsKeepAliveConfigured() {
		keepAlive, err = jobs.NewKeepAlive(cfg.KeepAlive, logger)
		if err != nil {
			return fmt.Errorf("keep-alive: %w", err)
		}
		keepAlive.Start()
	}

	// --- HTTP Server + Graceful Shutdown ---

	if keepAlive != nil {
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
			defer cancel()
			keepAlive.Stop(stopCtx)
		}()
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(quit)

	logger.Info(ctx, "HTTP server listening", "port", cfg.Server.Port, "store", cfg.Database.Driver)
	return serve(ctx, srv, quit, cfg.Server.ShutdownTimeout, logger)
}

// serve runs srv until quit fires or ListenAndServe fails, then shuts it down.
// A listen failure is returned after the shutdown.
func serve(ctx context.Context, srv *http.Server, quit <-chan os.Signal, shutdownTimeout time.Duration, logger logging.Logger) error {
	serverErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	var listenErr error
	select {
	case <-quit:
		logger.Info(ctx, "shutting down server")
	case listenErr = <-serverErr:
		logger.Error(ctx, "ListenAndServe", "error", listenErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "server shutdown", "error", err)
	}
	logger.Info(ctx, "server stopped")
	return listenErr
}

func openStore(ctx context.Context, cfg config.DatabaseConfig, logger logging.Logger) (repository.Store, error) {
	if cfg.Driver == config.StoreDriverMemory {
		logger.Warn(ctx, "using in-memory store, data is lost on restart")
		return repository.NewMemoryStore(), nil
	}
	return repository.NewPostgresStore(ctx, cfg)
}
