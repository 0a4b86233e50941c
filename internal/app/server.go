// Package app wires the HTTP server and routes.
package app

import (
	"log"
	"net/http"
	"time"

	"github.com/careerforge/careerforge/internal/config"
)

// Server wraps the HTTP server with its configuration
type Server struct {
	httpServer *http.Server
	config     *config.Config
}

// NewServer creates a new configured HTTP server instance
func NewServer(cfg *config.Config, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:    cfg.ServerPort,
		Handler: handler,
		// Generous timeouts: streaming generations can run minutes.
		ReadTimeout:  300 * time.Second,
		WriteTimeout: 300 * time.Second,
	}

	return &Server{
		httpServer: srv,
		config:     cfg,
	}
}

// Start begins listening and serving HTTP requests
func (s *Server) Start() error {
	log.Printf("CareerForge AI service starting on http://localhost%s", s.config.ServerPort)

	if err := s.httpServer.ListenAndServe(); err != nil {
		return err
	}
	return nil
}
