// Package observability serves the status and metrics HTTP endpoints.
package observability

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
)

// Server runs the status HTTP server.
type Server struct {
	server *http.Server
	addr   string
}

// NewServer creates a new HTTP server for handler.
func NewServer(addr string, handler http.Handler) *Server {
	return &Server{
		addr: addr,
		server: &http.Server{
			Addr:         addr,
			Handler:      handler,
			ReadTimeout:  5 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
}

// Run serves until Shutdown is called. A clean shutdown returns nil.
func (s *Server) Run() error {
	log.Info().Str("addr", s.addr).Msg("Starting status HTTP server")
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error().Err(err).Msg("Status HTTP server error")
		return err
	}
	return nil
}

// Start runs the server in a goroutine.
func (s *Server) Start() {
	go func() { _ = s.Run() }()
}

// Shutdown gracefully shuts down the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down status HTTP server")
	return s.server.Shutdown(ctx)
}
