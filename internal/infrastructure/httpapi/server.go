// Package httpapi exposes the assist actions over a small JSON HTTP API.
package httpapi

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"
)

// Server hosts the assist router.
type Server struct {
	addr   string
	server *http.Server
	logger *slog.Logger
}

// NewServer creates a server for addr. writeTimeout must cover the slowest
// completion the service allows.
func NewServer(addr string, h *Handler, allowedOrigins []string, writeTimeout time.Duration, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		addr:   addr,
		logger: logger,
		server: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(h, allowedOrigins),
			ReadHeaderTimeout: 15 * time.Second,
			ReadTimeout:       15 * time.Second,
			WriteTimeout:      writeTimeout,
		},
	}
}

// Serve blocks until ctx is done, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("assist api listening", "addr", s.addr)
		errCh <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.logger.Info("assist api shutting down")
		return s.server.Shutdown(shutdownCtx)
	}
}
