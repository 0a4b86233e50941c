package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/careerforge/careerforge/internal/budget"
	"github.com/careerforge/careerforge/internal/cache"
	"github.com/careerforge/careerforge/internal/executor"
	"github.com/careerforge/careerforge/internal/ledger"
	"github.com/careerforge/careerforge/internal/pricing"
	"github.com/careerforge/careerforge/internal/provider"
	"github.com/careerforge/careerforge/internal/quota"
	"github.com/careerforge/careerforge/internal/service"
	"github.com/careerforge/careerforge/internal/storage"
	"github.com/careerforge/careerforge/internal/tokenizer"
	"github.com/careerforge/careerforge/internal/types"
)

// stubClient answers every call with a fixed result.
type stubClient struct {
	name string
}

func (s *stubClient) Name() string         { return s.name }
func (s *stubClient) DefaultModel() string { return "stub-model" }

func (s *stubClient) GenerateText(ctx context.Context, req types.TextRequest) (*types.TextResult, error) {
	return &types.TextResult{
		Content: "generated text",
		Usage:   types.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
		Model:   req.Model,
	}, nil
}

func (s *stubClient) StreamText(ctx context.Context, req types.TextRequest, onChunk types.ChunkFunc) (*types.TextResult, error) {
	for _, chunk := range []string{"generated ", "text"} {
		if err := onChunk(chunk); err != nil {
			return nil, err
		}
	}
	return &types.TextResult{
		Content: "generated text",
		Usage:   types.TokenUsage{InputTokens: 10, OutputTokens: 20, TotalTokens: 30},
		Model:   req.Model,
	}, nil
}

func (s *stubClient) GenerateEmbedding(ctx context.Context, text, model string) (*types.EmbeddingResult, error) {
	return &types.EmbeddingResult{
		Vector: []float64{0.1, 0.2},
		Usage:  types.TokenUsage{InputTokens: 4, TotalTokens: 4},
		Model:  model,
	}, nil
}

func newTestRepo(t *testing.T) (*Repo, *quota.Guard) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	store := storage.NewMemoryStore()
	c, err := cache.New(time.Hour, true, logger)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(c.Close)

	catalog := pricing.NewCatalog(logger)
	ldg := ledger.New(catalog, store, logger)
	guard := quota.New(store, 1.00, 500_000, logger)
	monitor := budget.New(store, 50.0, true, nil, logger)
	router := provider.NewRouter("claude-3-5-sonnet-20241022", "gpt-4o-mini", "text-embedding-3-small")

	clients := map[string]provider.Client{
		provider.VendorAnthropic: &stubClient{name: provider.VendorAnthropic},
		provider.VendorOpenAI:    &stubClient{name: provider.VendorOpenAI},
	}

	exec := executor.New(clients, router, c, guard, ldg, monitor,
		tokenizer.New(), executor.Options{MaxRetries: 0, RequestTimeout: 5 * time.Second}, logger)

	svc := service.New(exec, guard, ldg, c, monitor, logger)
	return NewRepo(svc, logger), guard
}

func TestGenerateText(t *testing.T) {
	repo, _ := newTestRepo(t)

	body := `{"prompt": "write a cover letter", "user_id": "user-1", "feature": "cover_letter", "tier": "premium"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	repo.GenerateText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp types.Response
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if resp.Content != "generated text" {
		t.Errorf("content = %q", resp.Content)
	}
	if resp.Model != "claude-3-5-sonnet-20241022" {
		t.Errorf("model = %q, want premium cover letter routing", resp.Model)
	}
	if resp.RequestID == "" {
		t.Error("missing request id")
	}
}

func TestGenerateTextBadRequests(t *testing.T) {
	repo, _ := newTestRepo(t)

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"prompt": `},
		{"missing prompt", `{"user_id": "user-1"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			repo.GenerateText(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", rec.Code)
			}
		})
	}
}

func TestGenerateTextQuotaDenied(t *testing.T) {
	repo, guard := newTestRepo(t)
	guard.Update("user-1", types.TokenUsage{TotalTokens: 100}, 1.00)

	body := `{"prompt": "hello", "user_id": "user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(body))
	rec := httptest.NewRecorder()
	repo.GenerateText(rec, req)

	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}

	var apiErr types.APIError
	if err := json.NewDecoder(rec.Body).Decode(&apiErr); err != nil {
		t.Fatal(err)
	}
	if apiErr.Error.Type != string(types.KindQuotaExceeded) {
		t.Errorf("error type = %q", apiErr.Error.Type)
	}
	if apiErr.Error.Remaining == nil {
		t.Error("quota denial must report remaining allowance")
	}
	// The message shown to users must not be a raw internal error.
	if strings.Contains(apiErr.Error.Message, "quota_exceeded") {
		t.Errorf("message leaks internals: %q", apiErr.Error.Message)
	}
}

func TestStreamText(t *testing.T) {
	repo, _ := newTestRepo(t)

	body := `{"prompt": "write a cover letter"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/generate/stream", strings.NewReader(body))
	rec := httptest.NewRecorder()
	repo.StreamText(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("content type = %q", ct)
	}

	out := rec.Body.String()
	if !strings.Contains(out, `data: {"content":"generated "}`) {
		t.Errorf("missing chunk event in output:\n%s", out)
	}
	if !strings.Contains(out, `"done":true`) {
		t.Errorf("missing final event in output:\n%s", out)
	}
	if !strings.Contains(out, "data: [DONE]") {
		t.Errorf("missing terminator in output:\n%s", out)
	}
}

func TestGenerateEmbedding(t *testing.T) {
	repo, _ := newTestRepo(t)

	body := `{"text": "golang engineer", "user_id": "user-1"}`
	req := httptest.NewRequest(http.MethodPost, "/v1/embeddings", strings.NewReader(body))
	rec := httptest.NewRecorder()
	repo.GenerateEmbedding(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var resp types.EmbeddingResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Vector) != 2 {
		t.Errorf("vector len = %d, want 2", len(resp.Vector))
	}
	if resp.Model != "text-embedding-3-small" {
		t.Errorf("model = %q", resp.Model)
	}
}

func TestGetUserUsage(t *testing.T) {
	repo, _ := newTestRepo(t)

	// Generate once so the user has usage.
	genBody := `{"prompt": "hello", "user_id": "user-1"}`
	genReq := httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(genBody))
	repo.GenerateText(httptest.NewRecorder(), genReq)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/{id}/usage", repo.GetUserUsage)

	req := httptest.NewRequest(http.MethodGet, "/v1/users/user-1/usage", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body: %s", rec.Code, rec.Body.String())
	}

	var stats service.UserUsageStats
	if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
		t.Fatal(err)
	}
	if stats.Today.Requests != 1 {
		t.Errorf("today requests = %d, want 1", stats.Today.Requests)
	}
	if stats.RemainingTokens != 500_000-30 {
		t.Errorf("remaining tokens = %d", stats.RemainingTokens)
	}
}

func TestCanRequest(t *testing.T) {
	repo, guard := newTestRepo(t)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /v1/users/{id}/can-request", repo.CanRequest)

	check := func(userID string) (bool, string) {
		req := httptest.NewRequest(http.MethodGet, "/v1/users/"+userID+"/can-request", nil)
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Allowed bool   `json:"allowed"`
			Reason  string `json:"reason"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		return body.Allowed, body.Reason
	}

	if allowed, _ := check("fresh-user"); !allowed {
		t.Error("fresh user must be allowed")
	}

	guard.Update("spent-user", types.TokenUsage{TotalTokens: 100}, 1.00)
	allowed, reason := check("spent-user")
	if allowed {
		t.Error("spent user must be denied")
	}
	if reason == "" {
		t.Error("denial must carry a reason")
	}
}

func TestHealthCheck(t *testing.T) {
	repo, _ := newTestRepo(t)

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	repo.HealthCheck(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["status"] != "active" {
		t.Errorf("status field = %v", body["status"])
	}
}

func TestAdminEndpoints(t *testing.T) {
	repo, _ := newTestRepo(t)

	// Some traffic so aggregates are non-trivial.
	genBody := `{"prompt": "hello", "user_id": "user-1"}`
	repo.GenerateText(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(genBody)))
	repo.GenerateText(httptest.NewRecorder(),
		httptest.NewRequest(http.MethodPost, "/v1/generate", strings.NewReader(genBody)))

	t.Run("daily usage", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/usage/daily", nil)
		rec := httptest.NewRecorder()
		repo.GetDailyUsage(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			Totals storage.UsageTotals `json:"totals"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		// One vendor call and one cache hit.
		if body.Totals.Requests != 2 {
			t.Errorf("requests = %d, want 2", body.Totals.Requests)
		}
		if body.Totals.CachedRequests != 1 {
			t.Errorf("cached = %d, want 1", body.Totals.CachedRequests)
		}
	})

	t.Run("rejects bad date", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/usage/daily?date=yesterday", nil)
		rec := httptest.NewRecorder()
		repo.GetDailyUsage(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("status = %d, want 400", rec.Code)
		}
	})

	t.Run("savings", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/savings?days=7", nil)
		rec := httptest.NewRecorder()
		repo.GetCacheSavings(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			SavingsUSD float64 `json:"savings_usd"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.SavingsUSD <= 0 {
			t.Errorf("savings = %v, want > 0 after a cache hit", body.SavingsUSD)
		}
	})

	t.Run("cache stats", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/cache", nil)
		rec := httptest.NewRecorder()
		repo.GetCacheStats(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var stats cache.Stats
		if err := json.NewDecoder(rec.Body).Decode(&stats); err != nil {
			t.Fatal(err)
		}
		if stats.Hits != 1 {
			t.Errorf("hits = %d, want 1", stats.Hits)
		}
	})

	t.Run("budget status", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/admin/budget", nil)
		rec := httptest.NewRecorder()
		repo.GetBudgetStatus(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d", rec.Code)
		}
		var body struct {
			BudgetUSD float64 `json:"budget_usd"`
			SpentUSD  float64 `json:"spent_usd"`
		}
		if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
			t.Fatal(err)
		}
		if body.BudgetUSD != 50.0 {
			t.Errorf("budget = %v, want 50", body.BudgetUSD)
		}
		if body.SpentUSD <= 0 {
			t.Errorf("spent = %v, want > 0", body.SpentUSD)
		}
	})

	t.Run("cache sweep", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/cache/sweep", nil)
		rec := httptest.NewRecorder()
		repo.SweepCache(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("status = %d", rec.Code)
		}
	})
}
