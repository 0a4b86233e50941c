package app

import (
	"log/slog"
	"net/http"

	"github.com/careerforge/careerforge/internal/transport/http/handler"
	"github.com/careerforge/careerforge/internal/transport/http/middleware"
	"github.com/careerforge/careerforge/internal/transport/http/middleware/ratelimit"
)

// RouterOptions configures the HTTP router behavior.
type RouterOptions struct {
	Logger      *slog.Logger
	Limiter     *ratelimit.Limiter
	AdminVerify middleware.VerifyFunc
}

// NewRouter creates and configures the HTTP router with all application
// routes. Returns an http.Handler with middleware applied.
func NewRouter(repo *handler.Repo, opts *RouterOptions) http.Handler {
	mux := http.NewServeMux()

	// Public routes (no auth)
	mux.HandleFunc("GET /api/health", repo.HealthCheck)

	// Generation routes (rate limited per caller)
	limited := ratelimit.Middleware(opts.Limiter)
	mux.Handle("POST /v1/generate", limited(http.HandlerFunc(repo.GenerateText)))
	mux.Handle("POST /v1/generate/stream", limited(http.HandlerFunc(repo.StreamText)))
	mux.Handle("POST /v1/embeddings", limited(http.HandlerFunc(repo.GenerateEmbedding)))

	// Usage routes
	mux.HandleFunc("GET /v1/users/{id}/usage", repo.GetUserUsage)
	mux.HandleFunc("GET /v1/users/{id}/can-request", repo.CanRequest)

	// Admin API routes (require admin auth)
	registerAdminRoutes(mux, repo, opts)

	// Root returns JSON status
	mux.HandleFunc("GET /", repo.RootStatus)

	// Apply middleware chain (order: outer to inner)
	var h http.Handler = mux

	if opts.Logger != nil {
		h = middleware.RequestLogger(opts.Logger)(h)
	}

	h = middleware.RequestID(h)
	h = middleware.CORS(h)

	return h
}

// registerAdminRoutes adds all admin API routes to the router.
func registerAdminRoutes(mux *http.ServeMux, repo *handler.Repo, opts *RouterOptions) {
	adminAuth := middleware.AdminAuth(opts.AdminVerify)

	withAuth := func(h http.HandlerFunc) http.Handler {
		return adminAuth(h)
	}

	mux.Handle("GET /api/admin/usage/daily", withAuth(repo.GetDailyUsage))
	mux.Handle("GET /api/admin/savings", withAuth(repo.GetCacheSavings))
	mux.Handle("GET /api/admin/cache", withAuth(repo.GetCacheStats))
	mux.Handle("POST /api/admin/cache/sweep", withAuth(repo.SweepCache))
	mux.Handle("GET /api/admin/budget", withAuth(repo.GetBudgetStatus))
}
