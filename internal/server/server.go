package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/hongminglow/messagely/internal/auth"
	"github.com/hongminglow/messagely/internal/config"
	"github.com/hongminglow/messagely/internal/http/handlers"
	"github.com/hongminglow/messagely/internal/messaging"
	"github.com/hongminglow/messagely/internal/middleware"
	"github.com/hongminglow/messagely/internal/storage"
)

// Server wraps an http.Server with configured routes.
type Server struct {
	inner *http.Server
}

// New wires up services, middleware and routes, and returns a ready server.
func New(cfg config.Config, store storage.Store, logger *slog.Logger) *Server {
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)
	authSvc := auth.NewService(store, tokens, cfg.BcryptCost, logger)
	msgSvc := messaging.NewService(store, store, logger)
	protect := middleware.RequireIdentity(tokens, logger)

	mux := http.NewServeMux()
	handlers.NewHealthHandler(time.Now()).Register(mux)
	handlers.NewAuthHandler(authSvc, logger).Register(mux)
	handlers.NewUsersHandler(authSvc, msgSvc, logger).Register(mux, protect)
	handlers.NewMessagesHandler(msgSvc, logger).Register(mux, protect)

	handler := middleware.CORS(cfg.CORSOrigins, middleware.Logging(logger, mux))

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddress(),
		Handler:           handler,
		ErrorLog:          slog.NewLogLogger(logger.Handler(), slog.LevelError),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	return &Server{inner: httpServer}
}

// Handler exposes the fully wrapped handler chain.
func (s *Server) Handler() http.Handler {
	return s.inner.Handler
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	return s.inner.ListenAndServe()
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.inner.Shutdown(ctx)
}
