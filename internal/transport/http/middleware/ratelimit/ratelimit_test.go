package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestAllowWithinBurst(t *testing.T) {
	l := New(5)

	for i := 0; i < 5; i++ {
		if !l.Allow("user-1") {
			t.Fatalf("request %d denied within burst", i+1)
		}
	}
	if l.Allow("user-1") {
		t.Error("request past the burst must be denied")
	}
}

func TestLimitsArePerCaller(t *testing.T) {
	l := New(1)

	if !l.Allow("user-1") {
		t.Fatal("first caller denied")
	}
	if !l.Allow("user-2") {
		t.Error("second caller must have an independent bucket")
	}
}

func TestZeroLimitDisables(t *testing.T) {
	l := New(0)

	for i := 0; i < 100; i++ {
		if !l.Allow("user-1") {
			t.Fatal("limiting disabled, request denied")
		}
	}
}

func TestMiddleware(t *testing.T) {
	l := New(1)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
	req.Header.Set("X-User-ID", "user-1")

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After header")
	}
}

func TestCallerKeyFallsBackToIP(t *testing.T) {
	l := New(1)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Two different remote addresses, no user header: separate buckets.
	req1 := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
	req1.RemoteAddr = "10.0.0.1:1234"
	req2 := httptest.NewRequest(http.MethodPost, "/v1/generate", nil)
	req2.RemoteAddr = "10.0.0.2:1234"

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req1)
	if rec.Code != http.StatusOK {
		t.Fatalf("first IP status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req2)
	if rec.Code != http.StatusOK {
		t.Errorf("second IP status = %d, want independent bucket", rec.Code)
	}
}
