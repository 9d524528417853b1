package server

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Paranganicu/bma-opticas/config"
)

func TestTokenCost(t *testing.T) {
	testCases := []struct {
		name     string
		method   string
		path     string
		expected int64
	}{
		{"Health", "GET", "/health", 1},
		{"Metrics", "GET", "/metrics", 1},
		{"Submit sale", "POST", "/ventas", 5},
		{"Receipt PDF", "GET", "/pacientes/12345678-5/receta", 25},
		{"Reports", "GET", "/reportes", 10},
		{"Default", "GET", "/pacientes", 5},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.path, nil)
			if got := tokenCost(req); got != tc.expected {
				t.Errorf("tokenCost(%s %s) = %d, expected %d", tc.method, tc.path, got, tc.expected)
			}
		})
	}
}

func TestRequestSizeMiddleware(t *testing.T) {
	cfg := &config.Config{MaxRequestBody: 10}

	handler := RequestSizeMiddleware(cfg)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		if _, err := r.Body.Read(buf); err != nil {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("POST", "/ventas", strings.NewReader(strings.Repeat("x", 100)))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusRequestEntityTooLarge {
		t.Errorf("oversized body should be cut off, got %d", w.Code)
	}
}

func TestRateLimitMiddleware_AllowsAndCounts(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.RemoteAddr = "203.0.113.10:1234"
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("first request should pass, got %d", w.Code)
	}
	if w.Header().Get("X-RateLimit-Remaining") == "" {
		t.Error("responses should expose the remaining token count")
	}
}

func TestRateLimitMiddleware_Exhaustion(t *testing.T) {
	handler := RateLimitMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	// Receipt downloads cost 25 tokens against a burst of 300, so the
	// thirteenth request in a tight loop must be refused.
	var last int
	for i := 0; i < 13; i++ {
		req := httptest.NewRequest("GET", "/pacientes/12345678-5/receta", nil)
		req.RemoteAddr = "203.0.113.99:1234"
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, req)
		last = w.Code
	}

	if last != http.StatusTooManyRequests {
		t.Errorf("expected 429 after exhausting the bucket, got %d", last)
	}
}
