package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agentboard/dashboard-service/internal/logging"
	"github.com/agentboard/dashboard-service/internal/service/dashboard"
	"github.com/agentboard/dashboard-service/internal/upstream"
)

// Mock implementations

var mockSessions = map[string]any{
	"sessions": []any{
		map[string]any{
			"id": "sess-001", "agent": "code-review-bot", "model": "gpt-4o", "team": "platform",
			"status": "completed", "total_tokens": 15420.0, "cost": 0.0231, "duration_ms": 4500.0,
		},
		map[string]any{
			"id": "sess-002", "agent": "deploy-agent", "model": "gpt-4o", "team": "infra",
			"status": "running", "total_tokens": 8200.0, "cost": 0.0164, "duration_ms": 2100.0,
		},
		map[string]any{
			"id": "sess-003", "agent": "test-writer", "model": "gpt-4o", "team": "platform",
			"status": "failed", "total_tokens": 3100.0, "cost": 0.0047, "duration_ms": 1200.0,
		},
	},
	"total": 3.0,
}

var mockCostByTeam = map[string]any{
	"teams": []any{
		map[string]any{"team": "platform", "total_cost": 124.56, "session_count": 340.0},
		map[string]any{"team": "infra", "total_cost": 89.23, "session_count": 210.0},
		map[string]any{"team": "ml", "total_cost": 67.89, "session_count": 150.0},
	},
}

var mockBillingSummary = map[string]any{"total_cost": 281.68, "period": "2026-02"}

var mockTeams = map[string]any{
	"teams": []any{
		map[string]any{"id": "team-1", "name": "platform", "budget": 500.0},
		map[string]any{"id": "team-2", "name": "infra", "budget": 300.0},
		map[string]any{"id": "team-3", "name": "ml", "budget": 400.0},
	},
}

// mockFetcher answers like the gateway and billing services would
type mockFetcher struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (m *mockFetcher) Fetch(ctx context.Context, rawURL string) (any, error) {
	m.mu.Lock()
	m.urls = append(m.urls, rawURL)
	m.mu.Unlock()

	if m.err != nil {
		return nil, m.err
	}

	switch {
	case strings.Contains(rawURL, "/api/v1/sessions") && !strings.Contains(rawURL, "sess-"):
		return mockSessions, nil
	case strings.Contains(rawURL, "/api/v1/analytics/cost-by-team"):
		return mockCostByTeam, nil
	case strings.Contains(rawURL, "/api/v1/analytics/token-usage/daily"):
		return []any{map[string]any{"date": "2026-02-12", "input_tokens": 100.0, "output_tokens": 40.0}}, nil
	case strings.Contains(rawURL, "/api/v1/billing/summary"):
		return mockBillingSummary, nil
	case strings.Contains(rawURL, "/api/v1/teams"):
		return mockTeams, nil
	case strings.Contains(rawURL, "/api/v1/sessions/sess-001"):
		return mockSessions["sessions"].([]any)[0], nil
	case strings.Contains(rawURL, "/api/v1/usage/"), strings.Contains(rawURL, "/api/v1/contracts/"),
		strings.Contains(rawURL, "/api/v1/invoices"):
		return []any{}, nil
	}
	return nil, &upstream.HTTPError{URL: rawURL, StatusCode: http.StatusNotFound, Body: `{"detail":"Not found"}`}
}

func (m *mockFetcher) lastURL() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.urls) == 0 {
		return ""
	}
	return m.urls[len(m.urls)-1]
}

func setupTestServer(fetcher dashboard.Fetcher, opts ...Option) *Server {
	svc := dashboard.New(fetcher, "http://api-core:8001", "http://billing-service:8002")
	return New(svc, append([]Option{WithStaticDir("")}, opts...)...)
}

func get(server *Server, path string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// Tests

func TestHealth(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/health")

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "dashboard-service", body["service"])
}

func TestReady(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/ready")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	server.SetReady(true)
	w = get(server, "/ready")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, server.IsReady())
}

func TestDashboard(t *testing.T) {
	fetcher := &mockFetcher{}
	server := setupTestServer(fetcher)

	w := get(server, "/api/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 3.0, stats["total_sessions"])
	assert.Equal(t, 1.0, stats["active_sessions"])
	assert.Equal(t, 1.0, stats["completed"])
	assert.Equal(t, 1.0, stats["failed"])
	assert.Equal(t, 33.3, stats["success_rate"])
	assert.Equal(t, 281.68, stats["total_cost"])

	assert.Len(t, body["cost_by_team"], 3)
	assert.Len(t, body["recent_sessions"], 3)
}

func TestDashboard_UpstreamFailure(t *testing.T) {
	fetcher := &mockFetcher{err: &upstream.UnreachableError{URL: "http://api-core:8001", Err: errors.New("connection refused")}}
	server := setupTestServer(fetcher)

	w := get(server, "/api/dashboard")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	stats := body["stats"].(map[string]any)
	assert.Equal(t, 0.0, stats["total_sessions"])
	assert.Equal(t, 0.0, stats["active_sessions"])
	assert.Equal(t, 0.0, stats["success_rate"])
	assert.Equal(t, []any{}, body["cost_by_team"])
	assert.Equal(t, []any{}, body["recent_sessions"])
}

func TestListSessions(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/sessions")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, 3.0, body["total"])
	assert.Len(t, body["sessions"], 3)
}

func TestListSessions_UpstreamUnreachable(t *testing.T) {
	fetcher := &mockFetcher{err: &upstream.UnreachableError{URL: "http://api-core:8001/api/v1/sessions", Err: errors.New("connection refused")}}
	server := setupTestServer(fetcher)

	w := get(server, "/api/sessions")

	assert.Equal(t, http.StatusBadGateway, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "Upstream unreachable: http://api-core:8001/api/v1/sessions", body["error"])
	assert.NotEmpty(t, body["request_id"])
}

func TestSessionDetail(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/sessions/sess-001")
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeBody(t, w)
	assert.Equal(t, "sess-001", body["id"])
	assert.Equal(t, "code-review-bot", body["agent"])
}

func TestSessionDetail_NotFound(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/sessions/sess-999")

	assert.Equal(t, http.StatusNotFound, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, `Upstream error: {"detail":"Not found"}`, body["error"])
}

func TestTeams(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/teams")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, decodeBody(t, w)["teams"], 3)
}

func TestCostByTeam(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/analytics/cost-by-team")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, decodeBody(t, w)["teams"], 3)
}

func TestTokenUsage(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/analytics/token-usage")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Len(t, decodeBody(t, w)["usage"], 1)
}

func TestBillingSummary(t *testing.T) {
	fetcher := &mockFetcher{}
	server := setupTestServer(fetcher)

	w := get(server, "/api/billing/summary")
	require.Equal(t, http.StatusOK, w.Code)

	assert.Equal(t, 281.68, decodeBody(t, w)["total_cost"])
	assert.Equal(t, "http://billing-service:8002/api/v1/billing/summary", fetcher.lastURL())
}

func TestPassthroughQueries(t *testing.T) {
	tests := []struct {
		path     string
		expected string
	}{
		{"/api/billing/invoices", "http://billing-service:8002/api/v1/invoices"},
		{"/api/usage/top-routes", "http://api-core:8001/api/v1/usage/top-routes?since_days=7"},
		{"/api/usage/top-routes?since_days=30", "http://api-core:8001/api/v1/usage/top-routes?since_days=30"},
		{"/api/usage/top-callers?route=/api/v1/teams", "http://api-core:8001/api/v1/usage/top-callers?route=%2Fapi%2Fv1%2Fteams&since_days=7"},
		{"/api/contracts/current", "http://api-core:8001/api/v1/contracts/current"},
		{"/api/contracts/changes", "http://api-core:8001/api/v1/contracts/changes?limit=20"},
		{"/api/contracts/changes?limit=1", "http://api-core:8001/api/v1/contracts/changes?limit=1"},
		{"/api/contracts/changes/12", "http://api-core:8001/api/v1/contracts/changes/12"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			fetcher := &mockFetcher{}
			server := setupTestServer(fetcher)

			w := get(server, tt.path)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.expected, fetcher.lastURL())
		})
	}
}

func TestInvalidQueries(t *testing.T) {
	tests := []struct {
		path    string
		message string
	}{
		{"/api/usage/top-routes?since_days=0", "since_days must be at least 1"},
		{"/api/usage/top-callers?since_days=1000", "since_days must be at most 365"},
		{"/api/contracts/changes?limit=0", "limit must be at least 1"},
		{"/api/contracts/changes/abc", "change id must be an integer"},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			fetcher := &mockFetcher{}
			server := setupTestServer(fetcher)

			w := get(server, tt.path)

			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.message, decodeBody(t, w)["error"])
			assert.Empty(t, fetcher.lastURL(), "no upstream call on invalid input")
		})
	}
}

func TestWriteUpstreamError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		status  int
		message string
	}{
		{"unreachable", &upstream.UnreachableError{URL: "http://billing-service:8002/api/v1/invoices"}, http.StatusBadGateway, "Upstream unreachable: http://billing-service:8002/api/v1/invoices"},
		{"http error", &upstream.HTTPError{StatusCode: http.StatusServiceUnavailable, Body: "maintenance"}, http.StatusServiceUnavailable, "Upstream error: maintenance"},
		{"unknown", &upstream.UnknownError{URL: "http://x", Err: errors.New("bad json")}, http.StatusInternalServerError, "upstream http://x: bad json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := setupTestServer(&mockFetcher{err: tt.err})

			w := get(server, "/api/billing/invoices")

			assert.Equal(t, tt.status, w.Code)
			assert.Equal(t, tt.message, decodeBody(t, w)["error"])
		})
	}
}

func TestRequestID(t *testing.T) {
	var seen string
	fetcher := fetcherFunc(func(ctx context.Context, rawURL string) (any, error) {
		seen = logging.RequestID(ctx)
		return map[string]any{}, nil
	})
	server := setupTestServer(fetcher)

	req := httptest.NewRequest(http.MethodGet, "/api/billing/summary", nil)
	req.Header.Set("X-Request-ID", "req-abc.123")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, "req-abc.123", w.Header().Get("X-Request-ID"))
	assert.Equal(t, "req-abc.123", seen)

	// invalid IDs are replaced
	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "bad id with spaces")
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.NotEqual(t, "bad id with spaces", w.Header().Get("X-Request-ID"))
	assert.Len(t, w.Header().Get("X-Request-ID"), 36)
}

func TestCORS(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.Contains(t, w.Header().Values("Vary"), "Origin")
}

func TestCORS_WildcardPreflightEchoesOrigin(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	req := httptest.NewRequest(http.MethodOptions, "/api/dashboard", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	assert.NotEqual(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORS_RestrictedOrigins(t *testing.T) {
	server := setupTestServer(&mockFetcher{}, WithCORSOrigins([]string{"https://dash.example.com"}))

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://dash.example.com")
	w := httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, "https://dash.example.com", w.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	w = httptest.NewRecorder()
	server.Router().ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRecovery(t *testing.T) {
	fetcher := fetcherFunc(func(ctx context.Context, rawURL string) (any, error) {
		panic("boom")
	})
	server := setupTestServer(fetcher)

	w := get(server, "/api/billing/summary")

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, "internal server error", decodeBody(t, w)["error"])
}

func TestUnknownAPIRoute(t *testing.T) {
	server := setupTestServer(&mockFetcher{})

	w := get(server, "/api/nope")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "not found", decodeBody(t, w)["error"])
}

func TestStaticFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "index.html"), []byte("<html>dashboard</html>"), 0o600))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "assets", "app.js"), []byte("console.log('hi')"), 0o600))

	server := setupTestServer(&mockFetcher{}, WithStaticDir(dir))

	w := get(server, "/")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard")

	w = get(server, "/assets/app.js")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "console.log")

	// client-side routes fall back to the index document
	w = get(server, "/sessions/sess-001")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "dashboard")

	// traversal never leaves the static directory
	w = get(server, "/../../etc/passwd")
	assert.NotContains(t, w.Body.String(), "root:")

	// API paths never fall back to the frontend
	w = get(server, "/api/unknown")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	server := setupTestServer(&mockFetcher{})
	get(server, "/health")

	w := get(server, "/metrics")

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

type fetcherFunc func(ctx context.Context, rawURL string) (any, error)

func (f fetcherFunc) Fetch(ctx context.Context, rawURL string) (any, error) {
	return f(ctx, rawURL)
}
