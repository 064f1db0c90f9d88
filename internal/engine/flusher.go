package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/glintlabs/glint/internal/shared"
	"github.com/glintlabs/glint/internal/store"
)

// Flusher persists session state asynchronously so a slow disk never
// blocks the rerun path. Jobs carry a committed snapshot; when the
// queue fills, the oldest snapshot is dropped — a newer one for the
// same session supersedes it anyway.
type Flusher struct {
	repo store.Repository
	jobs chan flushJob

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

type flushJob struct {
	sessionID string
	values    map[string]any
	lastSeen  time.Time
}

// NewFlusher starts a flusher with the given queue size.
func NewFlusher(repo store.Repository, queueSize int) *Flusher {
	if queueSize <= 0 {
		queueSize = 256
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Flusher{
		repo:   repo,
		jobs:   make(chan flushJob, queueSize),
		ctx:    ctx,
		cancel: cancel,
	}

	f.wg.Add(1)
	go f.run()
	return f
}

// Enqueue queues a committed state snapshot for persistence. The map
// must not be mutated after commit; reruns stage into a fresh copy.
func (f *Flusher) Enqueue(sessionID string, values map[string]any, lastSeen time.Time) {
	job := flushJob{sessionID: sessionID, values: values, lastSeen: lastSeen}

	select {
	case f.jobs <- job:
	case <-f.ctx.Done():
	default:
		// Queue full: drop the oldest job to make room.
		select {
		case dropped := <-f.jobs:
			slog.Warn("Flush queue full, dropped oldest snapshot",
				"session_id", dropped.sessionID, "queue_len", len(f.jobs))
		default:
		}
		select {
		case f.jobs <- job:
		case <-f.ctx.Done():
		default:
			slog.Warn("Failed to queue state snapshot", "session_id", sessionID)
		}
	}
}

func (f *Flusher) run() {
	defer f.wg.Done()

	for {
		select {
		case job := <-f.jobs:
			f.flush(job)
		case <-f.ctx.Done():
			// Drain whatever is already queued before exiting.
			for {
				select {
				case job := <-f.jobs:
					f.flush(job)
				default:
					return
				}
			}
		}
	}
}

// flush writes one snapshot, retrying SQLite concurrency conflicts with
// exponential backoff: 100ms, 200ms, 400ms.
func (f *Flusher) flush(job flushJob) {
	const maxRetries = 3
	baseDelay := 100 * time.Millisecond

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for i := 0; i < maxRetries; i++ {
		err := f.repo.SaveValues(ctx, job.sessionID, job.values)
		if err == nil {
			break
		}
		if shared.IsSQLiteConflictError(err) && i < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<i)
			slog.Debug("Session flush hit SQLITE_BUSY, retrying",
				"session_id", job.sessionID, "attempt", i+1, "delay", delay)
			time.Sleep(delay)
			continue
		}
		slog.Error("Failed to persist session state",
			"session_id", job.sessionID, "error", err)
		return
	}

	if err := f.repo.TouchSession(ctx, job.sessionID, job.lastSeen); err != nil {
		slog.Warn("Failed to update session last seen",
			"session_id", job.sessionID, "error", err)
	}
}

// Close stops the flusher after draining queued snapshots.
func (f *Flusher) Close() {
	f.cancel()
	f.wg.Wait()
}
