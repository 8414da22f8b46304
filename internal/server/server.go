// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package server wires configuration, database, services and the HTTP
// surface together and runs the API.
package server

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

	"codeberg.org/oliverandrich/chatroom-api/internal/config"
	"codeberg.org/oliverandrich/chatroom-api/internal/database"
	"codeberg.org/oliverandrich/chatroom-api/internal/handlers"
	"codeberg.org/oliverandrich/chatroom-api/internal/i18n"
	"codeberg.org/oliverandrich/chatroom-api/internal/metrics"
	appmiddleware "codeberg.org/oliverandrich/chatroom-api/internal/middleware"
	"codeberg.org/oliverandrich/chatroom-api/internal/repository"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/account"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/email"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/media"
	"codeberg.org/oliverandrich/chatroom-api/internal/services/token"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/urfave/cli/v3"
)

// Run starts the server with the given CLI command.
func Run(ctx context.Context, cmd *cli.Command) error {
	cfg := config.NewFromCLI(cmd)
	setupLogger(cfg.Log.Level, cfg.Log.Format)

	slog.Info("starting server",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"base_url", cfg.Server.BaseURL,
	)

	// Database
	db, err := database.Open(cfg.Database.DSN)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			slog.Error("failed to close database", "error", closeErr)
		}
	}()

	// Migrations
	if migrateErr := database.Migrate(db.DB); migrateErr != nil {
		return fmt.Errorf("failed to migrate database: %w", migrateErr)
	}

	// i18n
	if initErr := i18n.Init(); initErr != nil {
		return fmt.Errorf("failed to init i18n: %w", initErr)
	}

	// Repository and services
	repo := repository.New(db)
	mailer := newMailer(cfg)
	mediaSvc := media.NewService(cfg.Media.Dir, cfg.Server.BaseURL)
	tokens := token.NewService(repo)
	accounts := account.NewService(repo, tokens, mailer, mediaSvc)

	// Metrics
	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	// Echo
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	setupMiddleware(e, cfg, collector)
	setupRoutes(e, cfg, registry, repo, tokens, accounts, mediaSvc)

	return startWithGracefulShutdown(e, cfg)
}

// newMailer picks the SMTP mailer when configured and falls back to
// logging dispatches otherwise.
func newMailer(cfg *config.Config) email.Mailer {
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP not configured, emails will be logged only")
		return email.LogMailer{}
	}
	mailer, err := email.NewService(&cfg.SMTP)
	if err != nil {
		slog.Warn("SMTP misconfigured, emails will be logged only", "error", err)
		return email.LogMailer{}
	}
	return mailer
}

func setupRoutes(
	e *echo.Echo,
	cfg *config.Config,
	registry *prometheus.Registry,
	repo *repository.Repository,
	tokens *token.Service,
	accounts *account.Service,
	mediaSvc *media.Service,
) {
	h := handlers.New()
	authHandlers := handlers.NewAuth(accounts, cfg.Server.BaseURL)
	profileHandlers := handlers.NewProfile(accounts, cfg.Server.BaseURL)
	roomHandlers := handlers.NewRooms(repo)
	mediaHandlers := handlers.NewMedia(mediaSvc)

	// Service endpoints
	e.GET("/health", h.Health)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler(registry)))

	// Uploaded media
	e.Static("/storage", cfg.Media.Dir)

	// Public account lifecycle
	authGroup := e.Group("/auth")
	authGroup.POST("/login", authHandlers.Login)
	authGroup.POST("/signup", authHandlers.Signup)
	authGroup.POST("/activate/account", authHandlers.Activate)
	authGroup.POST("/forgot/password", authHandlers.ForgotPassword)
	authGroup.POST("/reset/password", authHandlers.ResetPassword)

	// Everything below requires a valid access token
	api := e.Group("", appmiddleware.TokenAuth(tokens))
	api.GET("/profile/me", profileHandlers.Me)
	api.PUT("/profile/update", profileHandlers.Update)
	api.PUT("/profile/change/password", profileHandlers.ChangePassword)
	api.POST("/media/upload", mediaHandlers.Upload)
	api.GET("/rooms", roomHandlers.List)
	api.POST("/rooms", roomHandlers.Create)
	api.GET("/rooms/:id", roomHandlers.Show)
	api.PUT("/rooms/:id", roomHandlers.Update)
	api.DELETE("/rooms/:id", roomHandlers.Delete)
}

func startWithGracefulShutdown(e *echo.Echo, cfg *config.Config) error {
	errChan := make(chan error, 1)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	go func() {
		slog.Info("Server running", "url", cfg.Server.BaseURL)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	// Wait for interrupt signal or error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
		slog.Info("shutting down server")
	case err := <-errChan:
		slog.Error("server error", "error", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("failed to shutdown server", "error", err)
	}

	slog.Info("server stopped")
	return nil
}
