package handler

import (
	"net/http"
	"strconv"
	"time"
)

// GetDailyUsage handles GET /api/admin/usage/daily. Defaults to today.
func (h *Repo) GetDailyUsage(w http.ResponseWriter, r *http.Request) {
	date := r.URL.Query().Get("date")
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}
	if _, err := time.Parse("2006-01-02", date); err != nil {
		writeJSONError(w, "date must be YYYY-MM-DD", http.StatusBadRequest)
		return
	}

	totals, err := h.Service.DailyUsage(date)
	if err != nil {
		writeJSONError(w, "Failed to get daily usage: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"date":   date,
		"totals": totals,
	}, http.StatusOK)
}

// GetCacheSavings handles GET /api/admin/savings?days=N.
func (h *Repo) GetCacheSavings(w http.ResponseWriter, r *http.Request) {
	days := queryInt(r, "days", 30)

	savings, err := h.Service.CacheSavings(days)
	if err != nil {
		writeJSONError(w, "Failed to compute savings: "+err.Error(), http.StatusInternalServerError)
		return
	}

	writeJSON(w, map[string]any{
		"days":        days,
		"savings_usd": savings,
	}, http.StatusOK)
}

// GetCacheStats handles GET /api/admin/cache.
func (h *Repo) GetCacheStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Service.CacheStats(), http.StatusOK)
}

// SweepCache handles POST /api/admin/cache/sweep?older_than_seconds=N.
func (h *Repo) SweepCache(w http.ResponseWriter, r *http.Request) {
	olderThan := time.Duration(queryInt(r, "older_than_seconds", 0)) * time.Second

	removed := h.Service.SweepCache(olderThan)
	writeJSON(w, map[string]any{
		"removed": removed,
	}, http.StatusOK)
}

// GetBudgetStatus handles GET /api/admin/budget.
func (h *Repo) GetBudgetStatus(w http.ResponseWriter, r *http.Request) {
	spent, budget, lastAlerted := h.Service.BudgetStatus()

	pct := 0.0
	if budget > 0 {
		pct = spent / budget * 100
	}

	writeJSON(w, map[string]any{
		"spent_usd":        spent,
		"budget_usd":       budget,
		"spent_pct":        pct,
		"last_alerted_pct": lastAlerted,
	}, http.StatusOK)
}

// queryInt parses an integer query parameter with a default.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return def
	}
	return n
}
