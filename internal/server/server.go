package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/readhabit/readhabit-web/internal/auth"
	"github.com/readhabit/readhabit-web/internal/cache"
	"github.com/readhabit/readhabit-web/internal/config"
	"github.com/readhabit/readhabit-web/internal/handlers"
	"github.com/readhabit/readhabit-web/internal/session"
)

// Dependencies are the collaborators the routes are built from.
type Dependencies struct {
	CodeFlow auth.CodeFlow
	OTPFlow  auth.OTPFlow
	Claims   auth.ClaimsDecoder
	Backend  handlers.ReadingAPI
	Cache    cache.Cache
}

type Server struct {
	cfg        config.Config
	deps       Dependencies
	store      *session.Store
	replay     *auth.ReplayGuard
	logger     *slog.Logger
	httpServer *http.Server
}

func New(cfg config.Config, deps Dependencies, logger *slog.Logger) (*Server, error) {
	if deps.CodeFlow == nil || deps.OTPFlow == nil || deps.Claims == nil || deps.Backend == nil || deps.Cache == nil {
		return nil, fmt.Errorf("missing server dependency")
	}

	return &Server{
		cfg:    cfg,
		deps:   deps,
		store:  session.NewStore(cfg.Server),
		replay: auth.NewReplayGuard(deps.Cache),
		logger: logger,
	}, nil
}

func (s *Server) Start() error {
	router, err := s.setupRoutes()
	if err != nil {
		return fmt.Errorf("failed to setup routes: %w", err)
	}

	s.httpServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Server.Host, s.cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting server",
			"host", s.cfg.Server.Host,
			"port", s.cfg.Server.Port,
			"base_url", s.cfg.Server.BaseURL,
			"secure_cookies", s.cfg.Server.SecureCookies(),
		)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return err
	case sig := <-sigChan:
		s.logger.Info("received shutdown signal", "signal", sig)
		return s.Shutdown()
	}
}

func (s *Server) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	s.logger.Info("shutting down server")

	if s.httpServer != nil {
		if err := s.httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			return err
		}
	}

	if err := s.deps.Cache.Close(); err != nil {
		s.logger.Error("error closing cache", "error", err)
	}

	s.logger.Info("server shutdown complete")
	return nil
}
