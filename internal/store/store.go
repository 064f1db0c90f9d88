// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/glintlabs/glint/internal/domain"
)

// Repository defines the interface for persisting sessions and their
// key/value state across reruns and process restarts.
type Repository interface {
	// GetSession retrieves a session by its composite ID. Returns
	// (nil, nil) when no such session exists.
	GetSession(ctx context.Context, sessionID string) (*domain.Session, error)

	// UpsertSession creates or updates a session record.
	UpsertSession(ctx context.Context, session *domain.Session) error

	// TouchSession updates the last_seen_at timestamp for a session.
	TouchSession(ctx context.Context, sessionID string, lastSeen time.Time) error

	// LoadValues returns the persisted key/value mapping for a session.
	// Values come back as generic JSON types (numbers are float64).
	LoadValues(ctx context.Context, sessionID string) (map[string]any, error)

	// SaveValues transactionally replaces the persisted mapping for a
	// session with the given snapshot.
	SaveValues(ctx context.Context, sessionID string, values map[string]any) error

	// DeleteSession removes a session and all of its values.
	DeleteSession(ctx context.Context, sessionID string) error

	// GetExpiredSessions retrieves sessions idle longer than the TTL.
	GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]*domain.Session, error)

	// CleanupExpiredSessions bulk-deletes sessions idle longer than the
	// TTL, including their values. Returns the number of sessions removed.
	CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
