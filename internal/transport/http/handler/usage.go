package handler

import (
	"net/http"
)

// GetUserUsage handles GET /v1/users/{id}/usage.
func (h *Repo) GetUserUsage(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, "user id is required", http.StatusBadRequest)
		return
	}

	stats, err := h.Service.GetUserUsageStats(userID)
	if err != nil {
		writeJSONError(w, "Failed to get usage stats: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats, http.StatusOK)
}

// CanRequest handles GET /v1/users/{id}/can-request.
func (h *Repo) CanRequest(w http.ResponseWriter, r *http.Request) {
	userID := r.PathValue("id")
	if userID == "" {
		writeJSONError(w, "user id is required", http.StatusBadRequest)
		return
	}

	allowed, reason := h.Service.CanMakeRequest(userID)
	writeJSON(w, map[string]any{
		"allowed": allowed,
		"reason":  reason,
	}, http.StatusOK)
}
