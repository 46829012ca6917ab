// Package web serves the car list over HTTP.
package web

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	log "github.com/sirupsen/logrus"
	"github.com/ukydev/carrental-web/internal/handlers"
	"github.com/ukydev/carrental-web/internal/middleware"
)

const shutdownTimeout = 5 * time.Second

// Server represents the web server
type Server struct {
	httpServer *http.Server
	addr       string
	cars       *handlers.CarListHandler
	sessions   *handlers.SessionHandler
	auth       *middleware.AuthMiddleware
	limiter    *middleware.RateLimitMiddleware
}

// New creates a new web server listening on addr
func New(addr string, cars *handlers.CarListHandler, sessions *handlers.SessionHandler, auth *middleware.AuthMiddleware) *Server {
	return &Server{
		addr:     addr,
		cars:     cars,
		sessions: sessions,
		auth:     auth,
		limiter:  middleware.NewRateLimitMiddleware(),
	}
}

// Handler returns the routed handler with the request middleware applied.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.setupRoutes(mux)
	return middleware.RequestLogger(s.auth.Identify(mux))
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("failed to start server: %w", err)
	}

	log.WithField("addr", listener.Addr().String()).Info("Web server starting")

	errCh := make(chan error, 1)
	go func() {
		if err := s.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	return s.Shutdown(context.WithoutCancel(ctx))
}

// Shutdown gracefully shuts down the web server
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, shutdownTimeout)
	defer cancel()

	log.Info("Shutting down web server...")
	return s.httpServer.Shutdown(shutdownCtx)
}
