package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/glintlabs/glint/internal/cache"
	"github.com/glintlabs/glint/internal/config"
	"github.com/glintlabs/glint/internal/domain"
	"github.com/glintlabs/glint/internal/engine"
	"github.com/glintlabs/glint/internal/identity"
	"github.com/glintlabs/glint/internal/store"
	"github.com/glintlabs/glint/internal/ui"
	"github.com/go-chi/chi/v5"
)

const testAnonID = "anon_0123456789abcdef0123456789abcdef"

func TestJSON(t *testing.T) {
	w := httptest.NewRecorder()
	data := map[string]string{"foo": "bar"}

	JSON(w, http.StatusOK, data)

	resp := w.Result()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("Expected status 200, got %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "application/json" {
		t.Errorf("Expected application/json, got %q", ct)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["foo"] != "bar" {
		t.Errorf("Expected foo=bar, got %v", got["foo"])
	}
}

func TestError(t *testing.T) {
	w := httptest.NewRecorder()

	Error(w, http.StatusNotFound, "session not found")

	resp := w.Result()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected status 404, got %d", resp.StatusCode)
	}

	var got map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["error"] != "session not found" {
		t.Errorf("Unexpected error message: %v", got["error"])
	}
}

func newTestServer(t *testing.T) (*httptest.Server, store.Repository, *engine.Engine) {
	t.Helper()

	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	flusher := engine.NewFlusher(repo, 16)
	t.Cleanup(flusher.Close)

	render := func(c *ui.Context) error {
		c.GetOrInit("greeting", "hello")
		c.Text("ok")
		return nil
	}
	eng := engine.New(render, repo, cache.NewMemoizer(cache.NewMemoryStore(16, 0)), flusher)

	cfg := &config.Config{SessionTTL: time.Hour}
	r := chi.NewRouter()
	r.Use(identity.Middleware(true))
	NewSessionHandler(repo, eng, cfg).RegisterRoutes(r)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, repo, eng
}

func doRequest(t *testing.T, srv *httptest.Server, method, path, tabID string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, srv.URL+path, nil)
	if err != nil {
		t.Fatalf("Failed to build request: %v", err)
	}
	req.AddCookie(&http.Cookie{Name: identity.AnonCookieName, Value: testAnonID})
	if tabID != "" {
		req.Header.Set(identity.TabHeaderName, tabID)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("Request failed: %v", err)
	}
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestGetSession_NotFound(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp := doRequest(t, srv, http.MethodGet, "/api/session", "tab-1")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("Expected 404 for unknown session, got %d", resp.StatusCode)
	}
}

func TestGetSession_LiveRuntime(t *testing.T) {
	srv, _, eng := newTestServer(t)

	rt, err := eng.Attach(context.Background(), testAnonID, "tab-1")
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	eng.HandleEvent(context.Background(), rt, domain.Event{})

	resp := doRequest(t, srv, http.MethodGet, "/api/session", "tab-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["live"] != true {
		t.Error("Expected live session")
	}
	if got["session_id"] != domain.SessionKey(testAnonID, "tab-1") {
		t.Errorf("Unexpected session_id: %v", got["session_id"])
	}
	keys, _ := got["state_keys"].([]any)
	if len(keys) == 0 {
		t.Error("Expected state keys after a rerun")
	}
	history, _ := got["history"].([]any)
	if len(history) != 1 {
		t.Errorf("Expected one rerun record, got %v", got["history"])
	}
}

func TestGetSession_PersistedOnly(t *testing.T) {
	srv, repo, _ := newTestServer(t)

	key := domain.SessionKey(testAnonID, "tab-1")
	now := time.Now()
	err := repo.UpsertSession(context.Background(), &domain.Session{
		ID: key, UserID: testAnonID, CreatedAt: now, LastSeenAt: now, UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("UpsertSession failed: %v", err)
	}

	resp := doRequest(t, srv, http.MethodGet, "/api/session", "tab-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	var got map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if got["live"] != false {
		t.Error("Expected non-live session")
	}
}

func TestDeleteSession(t *testing.T) {
	srv, repo, eng := newTestServer(t)

	rt, err := eng.Attach(context.Background(), testAnonID, "tab-1")
	if err != nil {
		t.Fatalf("Attach failed: %v", err)
	}
	eng.HandleEvent(context.Background(), rt, domain.Event{})

	resp := doRequest(t, srv, http.MethodDelete, "/api/session", "tab-1")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("Expected 200, got %d", resp.StatusCode)
	}

	key := domain.SessionKey(testAnonID, "tab-1")
	if _, ok := eng.Lookup(key); ok {
		t.Error("Expected runtime evicted")
	}
	sess, err := repo.GetSession(context.Background(), key)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if sess != nil {
		t.Error("Expected persisted session deleted")
	}
}
