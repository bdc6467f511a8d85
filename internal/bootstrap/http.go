package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/botstack/publisher/config"
	httpx "github.com/botstack/publisher/internal/http"
)

// HTTPServerConfig contains configuration for starting the HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	Logger   *slog.Logger
}

// StartHTTPServer builds the router and starts the HTTP server in a
// goroutine. The router installs its own logging and recovery middleware.
func StartHTTPServer(cfg *HTTPServerConfig) *http.Server {
	handler := httpx.NewRouter(httpx.RouterServices{
		Publish:  cfg.Services.Publish,
		Verifier: cfg.Services.Verifier,
		Logger:   cfg.Logger,
	})

	server := &http.Server{
		Addr:         cfg.Config.HTTP.Addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		cfg.Logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			cfg.Logger.Error("http server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for shutting down the HTTP server.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server, waiting for
// in-flight requests to complete.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	cfg.Logger.Info("stopping http server")
	if err := cfg.Server.Shutdown(cfg.Context); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	cfg.Logger.Info("http server stopped")
	return nil
}
