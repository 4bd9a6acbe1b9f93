package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/medtrack/medtrack/internal/config"
	"github.com/medtrack/medtrack/internal/domain/account"
	"github.com/medtrack/medtrack/internal/domain/analytics"
	"github.com/medtrack/medtrack/internal/domain/caretaker"
	"github.com/medtrack/medtrack/internal/domain/medication"
	"github.com/medtrack/medtrack/internal/platform/auth"
	"github.com/medtrack/medtrack/internal/platform/blobstore"
	"github.com/medtrack/medtrack/internal/platform/db"
	"github.com/medtrack/medtrack/internal/platform/middleware"
	"github.com/medtrack/medtrack/internal/platform/realtime"
)

const version = "0.1.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "medtrack-server",
		Short: "Medication adherence tracking API server",
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer()
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			ctx := context.Background()
			database, err := db.Open(ctx, cfg.DatabasePath)
			if err != nil {
				return err
			}
			defer database.Close()

			if err := db.Migrate(ctx, database); err != nil {
				return fmt.Errorf("migration failed: %w", err)
			}
			fmt.Println("Schema is up to date.")
			return nil
		},
	}
}

func runServer() error {
	// Logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()
	if os.Getenv("ENV") == "development" {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stdout}).With().Timestamp().Logger()
	}

	// Config
	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal().Err(err).Msg("invalid config")
	}

	// Database
	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabasePath)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to open database")
	}
	defer database.Close()

	if err := db.Migrate(ctx, database); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}
	logger.Info().Str("path", cfg.DatabasePath).Msg("database ready")

	// Photo storage
	photos, err := blobstore.NewDiskStore(cfg.UploadDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to prepare upload directory")
	}

	// Tokens
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL())

	// Echo server
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = httpErrorHandler(cfg, logger)

	// Global middleware
	e.Use(middleware.Recovery(logger))
	e.Use(middleware.RequestID())
	e.Use(middleware.Logger(logger))
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.CORSOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete},
		AllowHeaders: []string{"Authorization", "Content-Type", "X-Request-Id"},
	}))

	rateLimit := middleware.RateLimit(middleware.RateLimitConfig{
		Requests: cfg.RateLimitRequests,
		Window:   time.Duration(cfg.RateLimitWindowSeconds) * time.Second,
	})

	// API groups
	api := e.Group("/api")
	api.Use(rateLimit)
	authed := api.Group("", auth.Middleware(tokens))

	// Realtime hub
	hub := realtime.NewHub()
	wsHandler := realtime.NewHandler(hub, tokens, logger)
	wsHandler.RegisterRoutes(e.Group("", rateLimit))

	// Repositories
	userRepo := account.NewUserRepoSQLite(database)
	medRepo := medication.NewRepoSQLite(database)
	linkRepo := caretaker.NewRepoSQLite(database)
	statsRepo := analytics.NewRepoSQLite(database)

	notifier := realtime.NewNotifier(hub, linkRepo, logger)

	// Account domain
	accountHandler := account.NewHandler(account.NewService(userRepo, tokens))
	accountHandler.RegisterRoutes(api, authed)

	// Medication domain
	medHandler := medication.NewHandler(medication.NewService(medRepo, notifier), photos)
	medHandler.RegisterRoutes(authed)

	// Caretaker domain
	caretakerGroup := authed.Group("/caretaker", auth.RequireRole("caretaker"))
	caretakerHandler := caretaker.NewHandler(caretaker.NewService(linkRepo, medRepo, notifier))
	caretakerHandler.RegisterRoutes(caretakerGroup)

	// Analytics domain
	analyticsHandler := analytics.NewHandler(analytics.NewService(statsRepo))
	analyticsHandler.RegisterRoutes(authed)

	// Uploads
	blobstore.NewHandler(photos).RegisterRoutes(authed)
	e.Static("/uploads", photos.Dir())

	// Health check
	e.GET("/health", db.HealthHandler(database, version))

	// Graceful shutdown
	go func() {
		addr := ":" + cfg.Port
		logger.Info().Str("addr", addr).Msg("starting server")
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info().Msg("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Fatal().Err(err).Msg("server shutdown failed")
	}
	logger.Info().Msg("server stopped")
	return nil
}

// httpErrorHandler renders every error as a JSON {"error": ...} envelope.
// Unknown routes include the requested path and method; internal errors keep
// their detail out of production responses.
func httpErrorHandler(cfg *config.Config, logger zerolog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		message := "Something went wrong!"
		if httpErr, ok := err.(*echo.HTTPError); ok {
			code = httpErr.Code
			if msg, ok := httpErr.Message.(string); ok {
				message = msg
			}
		}

		if code == http.StatusNotFound && message == http.StatusText(http.StatusNotFound) {
			message = fmt.Sprintf("Route %s %s not found", c.Request().Method, c.Request().URL.Path)
		}
		if code == http.StatusInternalServerError {
			logger.Error().Err(err).Str("path", c.Request().URL.Path).Msg("request failed")
			if cfg.IsProduction() {
				message = "Something went wrong!"
			}
		}

		if c.Request().Method == http.MethodHead {
			_ = c.NoContent(code)
			return
		}
		_ = c.JSON(code, map[string]string{"error": message})
	}
}
