package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/boomchecker/moderation-gateway/internal/logging"
)

// ShutdownTimeout bounds graceful shutdown of in-flight requests
const ShutdownTimeout = 10 * time.Second

// Server runs the HTTP listener and the janitor until its context ends
type Server struct {
	app        *App
	httpServer *http.Server
	log        zerolog.Logger
}

// New creates a server for app listening on addr
func New(app *App, addr string) *Server {
	return &Server{
		app: app,
		httpServer: &http.Server{
			Addr:              addr,
			Handler:           app.Router(),
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       60 * time.Second,
			WriteTimeout:      120 * time.Second,
			IdleTimeout:       120 * time.Second,
		},
		log: logging.WithComponent(app.Log, "server"),
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.httpServer.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	g, gctx := errgroup.WithContext(ctx)

	s.app.Cleanup.Start()

	g.Go(func() error {
		s.log.Info().Str("address", ln.Addr().String()).Msg("HTTP server starting")
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		s.log.Info().Msg("HTTP server shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()

		s.app.Cleanup.Stop()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("http shutdown: %w", err)
		}
		return nil
	})

	return g.Wait()
}
