// Package api provides the REST HTTP server exposing content, checkpoint,
// health, and metrics endpoints.
package api

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/gmarchetti/inkwell/internal/logger"
	"github.com/gmarchetti/inkwell/pkg/contents"
)

// Server is the API HTTP server. It is created stopped; Start blocks until
// the context is cancelled and then shuts down gracefully.
type Server struct {
	server       *http.Server
	config       APIConfig
	shutdownOnce sync.Once
}

// NewServer creates a new API HTTP server over the given content manager.
//
// Defaults are applied here so the server works correctly even when created
// directly, such as in tests.
func NewServer(config APIConfig, manager contents.Manager) *Server {
	config.applyDefaults()

	router := NewRouter(manager, config.RequestTimeout)

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", config.Host, config.Port),
		Handler:      router,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
		IdleTimeout:  config.IdleTimeout,
	}

	return &Server{
		server: server,
		config: config,
	}
}

// Start starts the server and blocks until the context is cancelled or the
// listener fails.
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		logger.Info("API server listening", "addr", s.server.Addr)

		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			select {
			case errChan <- err:
			default:
				// Context was cancelled, error is not needed
			}
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("API server shutdown signal received")
		// Fresh context: the cancelled one would abort shutdown immediately.
		shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
		defer cancel()
		return s.Stop(shutdownCtx)
	case err := <-errChan:
		return fmt.Errorf("API server failed: %w", err)
	}
}

// Stop initiates graceful shutdown. Safe to call multiple times and
// concurrently with Start.
func (s *Server) Stop(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		logger.Info("shutting down API server")
		err = s.server.Shutdown(ctx)
		if err != nil {
			logger.Error("API server shutdown error", "error", err)
		} else {
			logger.Info("API server stopped")
		}
	})
	return err
}
