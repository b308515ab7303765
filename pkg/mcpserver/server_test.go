package mcpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

type stubBackend struct {
	ingestCalls int
	statusCalls int
}

func (s *stubBackend) Ingest(ctx context.Context, datasetType, datasetID, payload string, dimHint int) (map[string]any, error) {
	s.ingestCalls++
	return map[string]any{"outcome": "system1_reflex", "dataset_type": datasetType}, nil
}

func (s *stubBackend) Status(ctx context.Context) (map[string]any, error) {
	s.statusCalls++
	return map[string]any{"energy_percent": 0.5}, nil
}

func (s *stubBackend) Sleep(ctx context.Context, reason string) (map[string]any, error) {
	return map[string]any{"sleep_cycles": 1, "reason": reason}, nil
}

func (s *stubBackend) HFSWrite(ctx context.Context, intent, content string, dim int) (map[string]any, error) {
	return map[string]any{"id": "abc123"}, nil
}

func (s *stubBackend) HFSSearch(ctx context.Context, query string, dim, limit int) (map[string]any, error) {
	return map[string]any{"results": []any{}}, nil
}

func TestNewHandlerRejectsNilBackend(t *testing.T) {
	if _, err := NewHandler(Config{}, nil); err == nil {
		t.Fatalf("expected error for nil backend")
	}
}

func TestNewHandlerBuildsServableHandler(t *testing.T) {
	backend := &stubBackend{}
	h, err := NewHandler(Config{Stateless: true}, backend)
	if err != nil {
		t.Fatalf("NewHandler: %v", err)
	}
	if h == nil {
		t.Fatalf("expected non-nil handler")
	}
}

func TestAPIKeyMiddlewareRejectsMissingKey(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := apiKeyMiddleware("secret", inner)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestAPIKeyMiddlewareAllowsMatchingBearerToken(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	h := apiKeyMiddleware("secret", inner)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.Header.Set("Authorization", "Bearer secret")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}

func TestRateLimiterAllowsBurstThenThrottles(t *testing.T) {
	rl := newRateLimiter(1, 2)
	if !rl.allow("client-a") {
		t.Fatalf("first request should be allowed")
	}
	if !rl.allow("client-a") {
		t.Fatalf("second request within burst should be allowed")
	}
	if rl.allow("client-a") {
		t.Fatalf("third immediate request should be throttled")
	}
}

func TestRateLimiterTracksClientsIndependently(t *testing.T) {
	rl := newRateLimiter(1, 1)
	if !rl.allow("client-a") {
		t.Fatalf("client-a first request should be allowed")
	}
	if !rl.allow("client-b") {
		t.Fatalf("client-b should have its own independent budget")
	}
}

func TestClientAddrPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:443"

	if got := clientAddr(req); got != "203.0.113.5" {
		t.Fatalf("clientAddr = %q, want 203.0.113.5", got)
	}
}
