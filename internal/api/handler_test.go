package api

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/eugenenazirov/envcast/envconfig"
	"github.com/eugenenazirov/envcast/internal/storage"
)

type controllableClock struct {
	mu  sync.RWMutex
	now time.Time
}

func newControllableClock(initial time.Time) *controllableClock {
	return &controllableClock{now: initial}
}

func (c *controllableClock) Now() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.now
}

func (c *controllableClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func staticResolver(values map[string]any) Resolver {
	return func() (map[string]any, error) {
		return values, nil
	}
}

// switchableResolver returns values until err is set.
type switchableResolver struct {
	mu     sync.Mutex
	values map[string]any
	err    error
}

func (s *switchableResolver) resolve() (map[string]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	return s.values, nil
}

func (s *switchableResolver) set(values map[string]any, err error) {
	s.mu.Lock()
	s.values = values
	s.err = err
	s.mu.Unlock()
}

func setupTestRouter(t *testing.T, resolver Resolver) (http.Handler, *Handler, *controllableClock) {
	t.Helper()

	store := storage.NewMemoryStorage()
	clock := newControllableClock(time.Date(2024, 11, 1, 12, 0, 0, 0, time.UTC))
	handler := NewHandler(resolver, store, WithClock(clock.Now))
	logger := zaptest.NewLogger(t)
	router := NewRouter(handler, logger, WithLogging(false))

	return router, handler, clock
}

func TestRequestIDHelpers(t *testing.T) {
	ctx := contextWithRequestID(context.Background(), "abc")
	if got := requestIDFromContext(ctx); got != "abc" {
		t.Fatalf("expected abc, got %s", got)
	}

	resp := httptest.NewRecorder()
	writeInternalError(resp, assertError("boom"))
	if resp.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500 status, got %d", resp.Code)
	}
}

type assertError string

func (a assertError) Error() string { return string(a) }

func TestHealthEndpoint(t *testing.T) {
	router, _, clock := setupTestRouter(t, staticResolver(map[string]any{}))

	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Status != "ok" {
		t.Fatalf("expected status ok, got %s", body.Status)
	}
	if !body.Timestamp.Equal(clock.Now()) {
		t.Fatalf("expected timestamp %s, got %s", clock.Now(), body.Timestamp)
	}
}

func TestGetConfigBeforeFirstResolve(t *testing.T) {
	router, _, _ := setupTestRouter(t, staticResolver(map[string]any{}))

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected status 503, got %d", rec.Code)
	}
}

func TestGetConfigReturnsSnapshot(t *testing.T) {
	router, handler, clock := setupTestRouter(t, staticResolver(map[string]any{
		"PORT":    8080,
		"DEBUG":   true,
		"TIMEOUT": 5 * time.Second,
		"NULL":    nil,
	}))
	if _, err := handler.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Config     map[string]any `json:"config"`
		ResolvedAt time.Time      `json:"resolvedAt"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Config["PORT"] != 8080.0 || body.Config["DEBUG"] != true || body.Config["TIMEOUT"] != "5s" {
		t.Fatalf("unexpected config: %v", body.Config)
	}
	if v, ok := body.Config["NULL"]; !ok || v != nil {
		t.Fatalf("expected NULL to be present and null, got %v (%v)", v, ok)
	}
	if !body.ResolvedAt.Equal(clock.Now()) {
		t.Fatalf("expected resolvedAt %s, got %s", clock.Now(), body.ResolvedAt)
	}
}

func TestGetConfigKey(t *testing.T) {
	router, handler, _ := setupTestRouter(t, staticResolver(map[string]any{"PORT": 8080}))
	if _, err := handler.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/config/PORT", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}
	var body struct {
		Key   string `json:"key"`
		Value any    `json:"value"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Key != "PORT" || body.Value != 8080.0 {
		t.Fatalf("unexpected body: %+v", body)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/config/UNKNOWN", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected status 404 for unknown key, got %d", rec.Code)
	}
}

func TestReloadUpdatesSnapshot(t *testing.T) {
	resolver := &switchableResolver{values: map[string]any{"PORT": 8080}}
	router, handler, clock := setupTestRouter(t, resolver.resolve)
	if _, err := handler.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	clock.Advance(time.Hour)
	resolver.set(map[string]any{"PORT": 9090}, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rec.Code)
	}

	var body struct {
		Config     map[string]any `json:"config"`
		ResolvedAt time.Time      `json:"resolvedAt"`
		Message    string         `json:"message"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if body.Message == "" {
		t.Fatalf("expected success message, got empty string")
	}
	if body.Config["PORT"] != 9090.0 {
		t.Fatalf("expected reloaded port, got %v", body.Config["PORT"])
	}
	if !body.ResolvedAt.Equal(clock.Now()) {
		t.Fatalf("expected resolvedAt %s, got %s", clock.Now(), body.ResolvedAt)
	}
}

func TestReloadFailureKeepsPreviousSnapshot(t *testing.T) {
	resolver := &switchableResolver{values: map[string]any{"PORT": 8080}}
	router, handler, _ := setupTestRouter(t, resolver.resolve)
	if _, err := handler.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	resolver.set(nil, fmt.Errorf("resolve: %w", &envconfig.MissingKeysError{Keys: []string{"TOKEN"}}))

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("expected status 422, got %d", rec.Code)
	}
	var errBody struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&errBody); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if errBody.Details == "" {
		t.Fatalf("expected error details")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/config/PORT", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected previous snapshot to be served, got %d", rec.Code)
	}
}

func TestReloadUnexpectedError(t *testing.T) {
	resolver := &switchableResolver{err: assertError("disk on fire")}
	router, _, _ := setupTestRouter(t, resolver.resolve)

	req := httptest.NewRequest(http.MethodPost, "/api/reload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
}

func TestReloadMethodNotAllowed(t *testing.T) {
	router, _, _ := setupTestRouter(t, staticResolver(map[string]any{}))

	req := httptest.NewRequest(http.MethodGet, "/api/reload", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rec.Code)
	}
}

func TestGetConfigRendersInfiniteFloats(t *testing.T) {
	router, handler, _ := setupTestRouter(t, staticResolver(map[string]any{"RATE": math.Inf(1)}))
	if _, err := handler.Reload(); err != nil {
		t.Fatalf("reload failed: %v", err)
	}

	for _, path := range []string{"/api/config", "/api/config/RATE"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("%s: expected status 200, got %d", path, rec.Code)
		}
		if !strings.Contains(rec.Body.String(), `"+Inf"`) {
			t.Fatalf("%s: expected +Inf in body, got %q", path, rec.Body.String())
		}
	}
}

func TestWriteJSONReportsEncodingFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, map[string]any{"RATE": math.Inf(1)})

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected status 500, got %d", rec.Code)
	}
	var body struct {
		Error   string `json:"error"`
		Details string `json:"details"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if !strings.Contains(body.Details, "unsupported value") {
		t.Fatalf("expected encoding error details, got %q", body.Details)
	}
}
