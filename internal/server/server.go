package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

type Server struct {
	server *http.Server
	logger zerolog.Logger
	// appRouter holds the routes; chi forbids Use after routes are registered on the same mux
	appRouter chi.Router
	// rootRouter carries the middleware chain and mounts appRouter
	rootRouter      *chi.Mux
	mounted         bool
	shutdownTimeout time.Duration
}

type ServerConfig struct {
	Address         string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

func NewServer(cfg ServerConfig, router chi.Router, logger zerolog.Logger) *Server {
	s := &Server{
		logger:          logger,
		appRouter:       router,
		rootRouter:      chi.NewRouter(),
		shutdownTimeout: cfg.ShutdownTimeout,
	}

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      s.rootRouter,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return s
}

// Handler exposes the full middleware chain, mainly for httptest.
func (s *Server) Handler() http.Handler {
	return s.rootRouter
}

// Start blocks until the server stops. A graceful shutdown is not reported as an error.
func (s *Server) Start() error {
	s.logger.Info().Str("address", s.server.Addr).Msg("Starting server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info().Msg("Shutting down server")
	if s.shutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
		defer cancel()
	}
	return s.server.Shutdown(ctx)
}

// SetupMiddleware installs the chain and mounts the routes. Nil middleware are skipped.
func (s *Server) SetupMiddleware(
	corsMiddleware func(http.Handler) http.Handler,
	loggerMiddleware func(http.Handler) http.Handler,
	recoveryMiddleware func(http.Handler) http.Handler,
	requestTimeout time.Duration,
) {
	s.rootRouter.Use(middleware.RequestID)
	s.rootRouter.Use(middleware.RealIP)
	s.rootRouter.Use(middleware.StripSlashes)
	s.rootRouter.Use(middleware.CleanPath)

	if corsMiddleware != nil {
		s.rootRouter.Use(corsMiddleware)
	}

	if loggerMiddleware != nil {
		s.rootRouter.Use(loggerMiddleware)
	}

	if recoveryMiddleware != nil {
		s.rootRouter.Use(recoveryMiddleware)
	}

	if requestTimeout > 0 {
		s.rootRouter.Use(middleware.Timeout(requestTimeout))
	}

	if !s.mounted {
		s.rootRouter.Mount("/", s.appRouter)
		s.mounted = true
	}
}
