package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/glintlabs/glint/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	saveMu sync.Mutex // serializes SaveValues transactions to avoid SQLITE_BUSY
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS sessions (
		session_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		last_seen_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_last_seen ON sessions(last_seen_at);

	CREATE TABLE IF NOT EXISTS session_values (
		session_id TEXT NOT NULL,
		key TEXT NOT NULL,
		value_json TEXT NOT NULL,
		updated_at INTEGER NOT NULL,
		PRIMARY KEY (session_id, key)
	);
	CREATE INDEX IF NOT EXISTS idx_session_values_session ON session_values(session_id);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// GetSession retrieves a session by its composite ID.
func (s *SQLiteStore) GetSession(ctx context.Context, sessionID string) (*domain.Session, error) {
	query := `
		SELECT session_id, user_id, created_at, last_seen_at, updated_at
		FROM sessions WHERE session_id = ?`

	row := s.db.QueryRowContext(ctx, query, sessionID)

	var sess domain.Session
	var createdAt, lastSeen, updatedAt int64

	err := row.Scan(&sess.ID, &sess.UserID, &createdAt, &lastSeen, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan session row: %w", err)
	}

	sess.CreatedAt = time.Unix(createdAt, 0)
	sess.LastSeenAt = time.Unix(lastSeen, 0)
	sess.UpdatedAt = time.Unix(updatedAt, 0)

	return &sess, nil
}

// UpsertSession creates or updates a session record.
func (s *SQLiteStore) UpsertSession(ctx context.Context, sess *domain.Session) error {
	query := `
		INSERT INTO sessions (session_id, user_id, created_at, last_seen_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			user_id = excluded.user_id,
			last_seen_at = excluded.last_seen_at,
			updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		sess.ID, sess.UserID,
		sess.CreatedAt.Unix(), sess.LastSeenAt.Unix(), sess.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert session: %w", err)
	}
	return nil
}

// TouchSession updates the last_seen_at timestamp for a session.
func (s *SQLiteStore) TouchSession(ctx context.Context, sessionID string, lastSeen time.Time) error {
	query := `UPDATE sessions SET last_seen_at = ?, updated_at = ? WHERE session_id = ?`
	_, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), sessionID)
	if err != nil {
		return fmt.Errorf("touch session: %w", err)
	}
	return nil
}

// LoadValues returns the persisted key/value mapping for a session.
func (s *SQLiteStore) LoadValues(ctx context.Context, sessionID string) (map[string]any, error) {
	query := `SELECT key, value_json FROM session_values WHERE session_id = ?`

	rows, err := s.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("query session values: %w", err)
	}
	defer rows.Close()

	values := make(map[string]any)
	for rows.Next() {
		var key, raw string
		if err := rows.Scan(&key, &raw); err != nil {
			return nil, fmt.Errorf("scan session value row: %w", err)
		}
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			return nil, fmt.Errorf("decode session value %q: %w", key, err)
		}
		values[key] = v
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate session values: %w", err)
	}

	return values, nil
}

// SaveValues transactionally replaces the persisted mapping for a session.
func (s *SQLiteStore) SaveValues(ctx context.Context, sessionID string, values map[string]any) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save values: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // rollback after commit is a no-op

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("clear session values: %w", err)
	}

	now := time.Now().Unix()
	insert := `INSERT INTO session_values (session_id, key, value_json, updated_at) VALUES (?, ?, ?, ?)`
	for key, value := range values {
		raw, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("encode session value %q: %w", key, err)
		}
		if _, err := tx.ExecContext(ctx, insert, sessionID, key, string(raw), now); err != nil {
			return fmt.Errorf("insert session value %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit session values: %w", err)
	}
	return nil
}

// DeleteSession removes a session and all of its values.
func (s *SQLiteStore) DeleteSession(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM session_values WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session values: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// GetExpiredSessions retrieves sessions idle longer than the TTL.
func (s *SQLiteStore) GetExpiredSessions(ctx context.Context, ttl time.Duration) ([]*domain.Session, error) {
	cutoff := time.Now().Add(-ttl).Unix()
	query := `
		SELECT session_id, user_id, created_at, last_seen_at, updated_at
		FROM sessions WHERE last_seen_at < ?`

	rows, err := s.db.QueryContext(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("query expired sessions: %w", err)
	}
	defer rows.Close()

	var expired []*domain.Session
	for rows.Next() {
		var sess domain.Session
		var createdAt, lastSeen, updatedAt int64
		if err := rows.Scan(&sess.ID, &sess.UserID, &createdAt, &lastSeen, &updatedAt); err != nil {
			return nil, fmt.Errorf("scan expired session row: %w", err)
		}
		sess.CreatedAt = time.Unix(createdAt, 0)
		sess.LastSeenAt = time.Unix(lastSeen, 0)
		sess.UpdatedAt = time.Unix(updatedAt, 0)
		expired = append(expired, &sess)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expired sessions: %w", err)
	}

	return expired, nil
}

// CleanupExpiredSessions bulk-deletes sessions idle longer than the TTL.
func (s *SQLiteStore) CleanupExpiredSessions(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().Add(-ttl).Unix()

	if _, err := s.db.ExecContext(ctx, `
		DELETE FROM session_values WHERE session_id IN (
			SELECT session_id FROM sessions WHERE last_seen_at < ?
		)`, cutoff); err != nil {
		return 0, fmt.Errorf("cleanup expired session values: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE last_seen_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup expired sessions: %w", err)
	}

	deleted, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("count cleaned up sessions: %w", err)
	}
	return deleted, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
