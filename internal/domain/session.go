// Package domain contains core domain types for the glint engine.
package domain

import (
	"strings"
	"time"
)

// Session identifies one user's interaction stream. Every browser tab gets
// its own session; its key/value state survives reruns but not session expiry.
type Session struct {
	ID         string    `json:"session_id"`
	UserID     string    `json:"user_id"`
	CreatedAt  time.Time `json:"created_at"`
	LastSeenAt time.Time `json:"last_seen_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// ExpiresIn returns the time until the session is reaped for inactivity.
// Returns 0 if the session has already expired.
func (s *Session) ExpiresIn(ttl time.Duration) time.Duration {
	remaining := time.Until(s.LastSeenAt.Add(ttl))
	if remaining < 0 {
		return 0
	}
	return remaining
}

// SessionKey builds the composite engine session ID from the anonymous
// device identity and the per-tab ID.
func SessionKey(userID, tabID string) string {
	return userID + ":" + tabID
}

// SplitSessionKey is the inverse of SessionKey. The tab ID may itself
// contain colons; only the first separator is significant.
func SplitSessionKey(key string) (userID, tabID string) {
	userID, tabID, ok := strings.Cut(key, ":")
	if !ok {
		return key, ""
	}
	return userID, tabID
}
