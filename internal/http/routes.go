package httpx

import (
	"log/slog"
	"net/http"

	"github.com/botstack/publisher/internal/core"
	"github.com/botstack/publisher/internal/service"
)

// RouterServices holds everything the HTTP router needs.
type RouterServices struct {
	Publish *service.PublishService

	// Verifier guards the API; nil disables authentication.
	Verifier core.TokenVerifier

	Logger *slog.Logger
}

// NewRouter creates and configures the publisher HTTP router.
func NewRouter(services RouterServices) http.Handler {
	logger := services.Logger
	if logger == nil {
		logger = slog.Default()
	}

	mux := http.NewServeMux()

	handlers := &PublishHandlers{Svc: services.Publish, Logger: logger}
	auth := RequireBearer(services.Verifier)

	mux.Handle("POST /api/bots/{botID}/profiles/{profile}/publish", auth(http.HandlerFunc(handlers.Publish)))
	mux.Handle("GET /api/bots/{botID}/profiles/{profile}/status", auth(http.HandlerFunc(handlers.GetStatus)))
	mux.Handle("GET /api/bots/{botID}/profiles/{profile}/history", auth(http.HandlerFunc(handlers.GetHistory)))

	mux.Handle("GET /healthz", http.HandlerFunc(healthHandler))
	mux.Handle("HEAD /healthz", http.HandlerFunc(healthHandler))

	return Logging(logger)(Recover(logger)(mux))
}
