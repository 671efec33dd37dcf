package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/davidbz/modelbench/internal/config"
	"github.com/davidbz/modelbench/internal/http/middleware"
	"github.com/davidbz/modelbench/internal/observability"
)

// Server represents the HTTP server.
type Server struct {
	config      *config.ServerConfig
	handler     *Handler
	middlewares middleware.Middleware
	srv         *http.Server
}

// NewServer creates a new HTTP server.
func NewServer(
	cfg *config.ServerConfig,
	handler *Handler,
	middlewares middleware.Middleware,
) *Server {
	s := &Server{
		config:      cfg,
		handler:     handler,
		middlewares: middlewares,
	}

	s.srv = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           middlewares(s.Routes()),
		ReadHeaderTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		ReadTimeout:       time.Duration(cfg.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.WriteTimeout) * time.Second,
	}

	return s
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Routes registers every endpoint on a new mux.
func (s *Server) Routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/sessions", s.handler.HandleCreateSession)
	mux.HandleFunc("GET /v1/sessions/{id}", s.handler.HandleGetSession)
	mux.HandleFunc("DELETE /v1/sessions/{id}", s.handler.HandleDeleteSession)
	mux.HandleFunc("PUT /v1/sessions/{id}/key", s.handler.HandleVerifyKey)
	mux.HandleFunc("POST /v1/sessions/{id}/rounds", s.handler.HandleRound)
	mux.HandleFunc("POST /v1/sessions/{id}/reset", s.handler.HandleReset)
	mux.HandleFunc("GET /v1/sessions/{id}/billing", s.handler.HandleBilling)
	mux.HandleFunc("POST /v1/documents/pdf", s.handler.HandleDocumentPDF)
	mux.HandleFunc("POST /v1/documents/ocr", s.handler.HandleDocumentOCR)
	mux.HandleFunc("POST /v1/emails", s.handler.HandleDraftEmail)
	mux.HandleFunc("GET /health", s.handler.HandleHealth)

	return mux
}

// Start starts the HTTP server. It returns nil after a graceful shutdown.
func (s *Server) Start() error {
	ctx := context.Background()
	observability.FromContext(ctx).Info("starting HTTP server", observability.Int("port", s.config.Port))

	if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server failed: %w", err)
	}
	return nil
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	observability.FromContext(ctx).Info("shutting down HTTP server")

	if err := s.srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}

	return nil
}
