package handler

import (
	"net/http"
	"time"

	"github.com/careerforge/careerforge/internal/version"
)

// RootStatus returns JSON status and version information at /
func (h *Repo) RootStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"name":    "careerforge-ai",
		"version": version.Version,
		"status":  "running",
		"api":     "/v1",
		"admin":   "/api/admin",
	}, http.StatusOK)
}

// HealthCheck returns the application health status.
func (h *Repo) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":         "active",
		"app":            "careerforge-ai",
		"uptime_seconds": int(time.Since(h.startTime).Seconds()),
	}, http.StatusOK)
}
