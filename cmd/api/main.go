package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/MicahParks/keyfunc/v2"
	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/joho/godotenv"
	"github.com/krishna100204/EventApp/internal/config"
	"github.com/krishna100204/EventApp/internal/connect"
	"github.com/krishna100204/EventApp/internal/container"
	"github.com/krishna100204/EventApp/internal/helpers"
	"github.com/krishna100204/EventApp/internal/routes"
)

func main() {
	// Load environment variables
	_ = godotenv.Load(".env.local", ".env")

	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := setupLogger(cfg)
	slog.SetDefault(logger)
	logger.Info("Starting EventApp API server", "environment", cfg.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mongoClient, err := connect.MongoDBConnect(ctx, cfg.MongoDBURI, cfg.MongoDBPassword)
	if err != nil {
		logger.Error("Failed to connect to MongoDB", "error", err)
		os.Exit(1)
	}
	logger.Info("Connected to MongoDB successfully", "database", cfg.MongoDBDatabase)

	var cld *cloudinary.Cloudinary
	if cfg.CloudinaryEnabled() {
		cld, err = connect.CloudinaryCredentials(cfg.CloudinaryName, cfg.CloudinaryKey, cfg.CloudinarySecret)
		if err != nil {
			logger.Error("Failed to connect to Cloudinary", "error", err)
			os.Exit(1)
		}
		logger.Info("Cloudinary configured")
	} else {
		logger.Warn("Cloudinary credentials missing, event images are disabled")
	}

	var jwks *keyfunc.JWKS
	if cfg.JWKSURL != "" {
		jwks, err = helpers.LoadJWKS(ctx, cfg.JWKSURL, logger)
		if err != nil {
			logger.Error("Failed to load JWKS", "url", cfg.JWKSURL, "error", err)
			os.Exit(1)
		}
	}
	tokens := helpers.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL, jwks)

	appContainer := container.NewContainer(cfg, logger, mongoClient, cld, tokens)

	indexCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	if err := appContainer.Repo.EnsureIndexes(indexCtx); err != nil {
		logger.Error("Failed to create indexes", "error", err)
		cancel()
		os.Exit(1)
	}
	cancel()

	appContainer.AuthLimiter.StartCleanup(ctx, time.Minute)

	router := routes.SetupRoutes(appContainer)

	// WriteTimeout stays unset: websocket connections are long-lived and
	// manage their own deadlines.
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("Server starting", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	// Hijacked websocket connections are not tracked by Shutdown.
	appContainer.Registry.Close()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	tokens.Close()
	if err := connect.MongoDBDisconnect(mongoClient); err != nil {
		logger.Error("Error disconnecting from MongoDB", "error", err)
	}

	logger.Info("Server exited")
}

func setupLogger(cfg *config.Config) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(cfg.LogLevel) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	}

	return slog.New(handler)
}
