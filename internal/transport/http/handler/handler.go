// Package handler implements the HTTP surface of the governed AI
// service: the generation endpoints callers use and the operational
// endpoints behind admin auth.
package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/careerforge/careerforge/internal/service"
)

// Repo composes all HTTP handlers over the governed service.
type Repo struct {
	Service   *service.Governed
	Logger    *slog.Logger
	startTime time.Time
}

// NewRepo creates a new instance of the composed handler repository.
func NewRepo(svc *service.Governed, logger *slog.Logger) *Repo {
	return &Repo{
		Service:   svc,
		Logger:    logger,
		startTime: time.Now(),
	}
}

// writeJSON writes a JSON response with a status code.
func writeJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeJSONError writes a JSON error response.
func writeJSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, map[string]any{
		"error": map[string]any{
			"message": message,
			"code":    status,
		},
	}, status)
}
