// Package api provides HTTP handlers for the glint server.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/glintlabs/glint/internal/config"
	"github.com/glintlabs/glint/internal/domain"
	"github.com/glintlabs/glint/internal/engine"
	"github.com/glintlabs/glint/internal/identity"
	"github.com/glintlabs/glint/internal/store"
	"github.com/go-chi/chi/v5"
)

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// Error writes a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	JSON(w, status, map[string]string{"error": message})
}

// SessionHandler exposes session introspection and lifecycle over HTTP.
type SessionHandler struct {
	repo store.Repository
	eng  *engine.Engine
	cfg  *config.Config
}

// NewSessionHandler creates a new session handler.
func NewSessionHandler(repo store.Repository, eng *engine.Engine, cfg *config.Config) *SessionHandler {
	return &SessionHandler{repo: repo, eng: eng, cfg: cfg}
}

// RegisterRoutes registers the session API routes.
func (h *SessionHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/session", h.GetSession)
		r.Delete("/session", h.DeleteSession)
	})
}

// GetSession returns metadata, state keys, and recent rerun history for
// the caller's session.
func (h *SessionHandler) GetSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key := domain.SessionKey(userID, identity.TabIDFromContext(r.Context()))

	if rt, ok := h.eng.Lookup(key); ok {
		sess := rt.Session()
		JSON(w, http.StatusOK, map[string]any{
			"session_id":   sess.ID,
			"user_id":      sess.UserID,
			"created_at":   sess.CreatedAt,
			"last_seen_at": sess.LastSeenAt,
			"expires_in_s": int64(sess.ExpiresIn(h.cfg.SessionTTL).Seconds()),
			"live":         true,
			"state_keys":   rt.StateKeys(),
			"history":      rt.History(),
		})
		return
	}

	sess, err := h.repo.GetSession(r.Context(), key)
	if err != nil {
		slog.Error("Failed to load session", "error", err, "session_id", key)
		Error(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if sess == nil {
		Error(w, http.StatusNotFound, "session not found")
		return
	}

	JSON(w, http.StatusOK, map[string]any{
		"session_id":   sess.ID,
		"user_id":      sess.UserID,
		"created_at":   sess.CreatedAt,
		"last_seen_at": sess.LastSeenAt,
		"expires_in_s": int64(sess.ExpiresIn(h.cfg.SessionTTL).Seconds()),
		"live":         false,
	})
}

// DeleteSession discards the caller's session state entirely. The next
// attach starts from an empty mapping.
func (h *SessionHandler) DeleteSession(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	key := domain.SessionKey(userID, identity.TabIDFromContext(r.Context()))

	h.eng.Evict(key)
	if err := h.repo.DeleteSession(r.Context(), key); err != nil {
		slog.Error("Failed to delete session", "error", err, "session_id", key)
		Error(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	slog.Info("Session deleted", "session_id", key)
	JSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
