package publish

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// Server serves the static directory: data.json and the artwork cache
type Server struct {
	srv    *http.Server
	logger zerolog.Logger
}

// NewServer creates a server for dir listening on addr
func NewServer(addr, dir string, logger zerolog.Logger) *Server {
	s := &Server{
		logger: logger.With().Str("component", "server").Logger(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.handler(dir),
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

// handler serves dir with caching disabled for the status document
func (s *Server) handler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/"+DocumentName {
			w.Header().Set("Cache-Control", "no-cache")
		}
		s.logger.Debug().Str("path", r.URL.Path).Msg("Request")
		files.ServeHTTP(w, r)
	})
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.srv.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.srv.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve serves on ln until ctx is cancelled
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.logger.Info().Str("addr", ln.Addr().String()).Msg("Serving status")

	errCh := make(chan error, 1)
	go func() {
		errCh <- s.srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	s.logger.Info().Msg("Server stopped")
	return nil
}
