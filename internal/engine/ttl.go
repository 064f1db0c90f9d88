package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/glintlabs/glint/internal/domain"
	"github.com/glintlabs/glint/internal/store"
)

const ttlWorkerInterval = time.Minute

// CleanupCallback is called when a session is reaped by the TTL worker,
// so the transport can close any connection still open for it.
type CleanupCallback func(userID, tabID string)

// StartTTLWorker runs a background goroutine that periodically sweeps
// for idle sessions, evicts their runtimes, and deletes persisted state.
func StartTTLWorker(ctx context.Context, repo store.Repository, eng *Engine, ttl time.Duration, onCleanup CleanupCallback) {
	ticker := time.NewTicker(ttlWorkerInterval)
	go func() {
		defer ticker.Stop()
		slog.Info("TTL worker started", "interval", ttlWorkerInterval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				reapExpiredSessions(ctx, repo, eng, ttl, onCleanup)
			case <-ctx.Done():
				slog.Info("TTL worker shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func reapExpiredSessions(ctx context.Context, repo store.Repository, eng *Engine, ttl time.Duration, onCleanup CleanupCallback) {
	expired, err := repo.GetExpiredSessions(ctx, ttl)
	if err != nil {
		slog.Error("TTL worker failed to get expired sessions", "error", err)
		return
	}

	if len(expired) == 0 {
		return
	}

	slog.Info("TTL worker found expired sessions", "count", len(expired))

	for _, sess := range expired {
		// Skip sessions that interacted since the sweep query ran.
		if rt, ok := eng.Lookup(sess.ID); ok {
			if live := rt.Session(); live.ExpiresIn(ttl) > 0 {
				continue
			}
		}

		slog.Info("TTL worker reaping session",
			"session_id", sess.ID, "last_seen_at", sess.LastSeenAt)

		eng.Evict(sess.ID)

		if onCleanup != nil {
			userID, tabID := domain.SplitSessionKey(sess.ID)
			onCleanup(userID, tabID)
		}

		if err := repo.DeleteSession(ctx, sess.ID); err != nil {
			slog.Warn("TTL worker failed to delete session state",
				"error", err, "session_id", sess.ID)
		}
	}

	slog.Info("TTL worker sweep completed", "reaped", len(expired))
}
