package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/tendant/chi-demo/app"
	"github.com/tendant/chi-demo/middleware"
	"github.com/tendant/portal-content/pkg/listings"
	"github.com/tendant/portal-content/pkg/portal"
	"github.com/tendant/portal-content/pkg/portal/api"
	"github.com/tendant/portal-content/pkg/portal/config"
	"github.com/tendant/portal-content/pkg/portal/registry"
)

// Env is the process-level configuration. Provider settings are read by
// config.WithEnv with the PORTAL_ prefix.
type Env struct {
	ConfigFile        string        `env:"CONFIG_FILE"`
	LogLevel          string        `env:"LOG_LEVEL" env-default:"info"`
	AdminAPIKeySHA256 string        `env:"ADMIN_API_KEY_SHA256"`
	RequestTimeout    time.Duration `env:"REQUEST_TIMEOUT" env-default:"60s"`
	ShutdownTimeout   time.Duration `env:"SHUTDOWN_TIMEOUT" env-default:"10s"`
	MaxUploadMB       int64         `env:"MAX_UPLOAD_MB" env-default:"32"`
}

const envPrefix = "PORTAL_"

func main() {
	// A missing .env file is fine
	_ = godotenv.Load()

	var env Env
	if err := cleanenv.ReadEnv(&env); err != nil {
		slog.Error("Failed to read configuration", "err", err)
		os.Exit(1)
	}

	logger := newLogger(env.LogLevel)
	slog.SetDefault(logger)

	opts := []config.Option{}
	if env.ConfigFile != "" {
		opts = append(opts, config.WithFile(env.ConfigFile))
	}
	opts = append(opts, config.WithEnv(envPrefix))
	cfg, err := config.Load(opts...)
	if err != nil {
		logger.Error("Invalid configuration", "err", err)
		os.Exit(1)
	}

	handler, closeFn, err := newServer(env, cfg, logger)
	if err != nil {
		logger.Error("Failed to build server", "err", err)
		os.Exit(1)
	}
	defer closeFn()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Portal content server starting",
			"port", cfg.Port,
			"env", cfg.Environment,
			"provider", cfg.Provider.Kind,
			"listings", cfg.Listings.Kind)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "err", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), env.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", "err", err)
	}
	logger.Info("Server exiting")
}

// newServer builds the router over both provider registries. The returned
// function closes cached provider instances.
func newServer(env Env, cfg *config.Config, logger *slog.Logger) (http.Handler, func() error, error) {
	content := registry.New(cfg.Provider, config.PortalFactories(logger), registry.WithLogger(logger))
	listingReg := registry.New(cfg.Listings, config.ListingFactories(logger), registry.WithLogger(logger))
	closeFn := func() error {
		return errors.Join(content.Close(), listingReg.Close())
	}

	// Build eagerly so a bad store URL or base URL fails at startup
	if _, err := content.Active(); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("content provider: %w", err)
	}
	if _, err := listingReg.Active(); err != nil {
		_ = closeFn()
		return nil, nil, fmt.Errorf("listings provider: %w", err)
	}

	handlerOpts := []api.Option{
		api.WithLogger(logger),
		api.WithMaxUpload(env.MaxUploadMB << 20),
	}
	if env.AdminAPIKeySHA256 != "" {
		apiKeyMiddleware, err := middleware.ApiKeyMiddleware(middleware.ApiKeyConfig{
			APIKeys: map[string]string{"admin": env.AdminAPIKeySHA256},
		})
		if err != nil {
			_ = closeFn()
			return nil, nil, fmt.Errorf("admin api key middleware: %w", err)
		}
		handlerOpts = append(handlerOpts, api.WithAdminMiddleware(apiKeyMiddleware))
	} else {
		logger.Warn("ADMIN_API_KEY_SHA256 not set, admin endpoints are unauthenticated")
	}
	handler := api.NewHandler(
		api.ProviderSource[portal.Provider](content),
		api.ProviderSource[listings.Provider](listingReg),
		handlerOpts...,
	)

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.Timeout(env.RequestTimeout))

	app.RoutesHealthz(r)
	app.RoutesHealthzReady(r)
	r.Mount("/api/v1", handler.Routes())

	return r, closeFn, nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn", "warning":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
}
