// Package api provides the HTTP REST API server.
package api

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/good-yellow-bee/marketwatch/internal/alerting"
	"github.com/good-yellow-bee/marketwatch/internal/api/health"
)

// Config contains HTTP API server configuration.
type Config struct {
	Address string
	Verbose bool
}

// SetDefaults applies default values for missing configuration.
func (c *Config) SetDefaults() {
	if c.Address == "" {
		c.Address = ":8085"
	}
}

// Server is the HTTP API server.
type Server struct {
	config        *Config
	store         *alerting.Store
	server        *http.Server
	healthHandler *health.Handler
}

// New creates a new API server backed by the alert store.
func New(cfg *Config, store *alerting.Store) (*Server, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	if store == nil {
		return nil, fmt.Errorf("alert store is required")
	}

	cfg.SetDefaults()

	s := &Server{
		config:        cfg,
		store:         store,
		healthHandler: health.NewHandler(),
	}

	router := s.setupRouter()

	s.server = &http.Server{
		Addr:         cfg.Address,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s, nil
}

// RegisterDBChecker adds a SQLite readiness check.
func (s *Server) RegisterDBChecker(db *sql.DB) {
	s.healthHandler.RegisterChecker(health.NewSQLiteChecker(db))
}

// Run starts the HTTP server and blocks until context is canceled.
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)

	go func() {
		log.Printf("HTTP API listening on %s", s.config.Address)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		log.Printf("shutting down HTTP API server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.server.Shutdown(shutdownCtx)
	case err := <-errChan:
		return err
	}
}

// Address returns the configured listen address.
func (s *Server) Address() string {
	return s.config.Address
}
