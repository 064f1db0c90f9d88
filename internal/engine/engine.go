// Package engine implements the script-rerun session handler: it
// re-executes an application's render function on every interaction,
// carrying per-session key/value state and a process-wide memoization
// cache across reruns.
package engine

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/glintlabs/glint/internal/cache"
	"github.com/glintlabs/glint/internal/domain"
	"github.com/glintlabs/glint/internal/store"
	"github.com/glintlabs/glint/internal/ui"
	"github.com/google/uuid"
)

const historySize = 32

// Engine drives reruns for all live sessions of one application.
type Engine struct {
	render  ui.RenderFunc
	repo    store.Repository
	memo    *cache.Memoizer
	flusher *Flusher

	mu       sync.Mutex
	runtimes map[string]*Runtime
}

// New creates an engine for the given render function.
func New(render ui.RenderFunc, repo store.Repository, memo *cache.Memoizer, flusher *Flusher) *Engine {
	return &Engine{
		render:   render,
		repo:     repo,
		memo:     memo,
		flusher:  flusher,
		runtimes: make(map[string]*Runtime),
	}
}

// Runtime is the in-memory state of one live session. Reruns of the
// same session are serialized on its mutex; distinct sessions share
// nothing but the memoization cache.
type Runtime struct {
	mu      sync.Mutex
	session domain.Session
	values  map[string]any
	history *History
}

// Session returns a copy of the session metadata.
func (rt *Runtime) Session() domain.Session {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.session
}

// StateKeys returns the sorted keys currently held in session state.
func (rt *Runtime) StateKeys() []string {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	keys := make([]string, 0, len(rt.values))
	for k := range rt.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// History returns the recent rerun records, oldest first.
func (rt *Runtime) History() []RerunRecord {
	return rt.history.Snapshot()
}

// Attach returns the live runtime for (userID, tabID), restoring or
// creating its session as needed.
func (e *Engine) Attach(ctx context.Context, userID, tabID string) (*Runtime, error) {
	key := domain.SessionKey(userID, tabID)

	e.mu.Lock()
	defer e.mu.Unlock()

	if rt, ok := e.runtimes[key]; ok {
		return rt, nil
	}

	sess, err := e.repo.GetSession(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("restore session %s: %w", key, err)
	}

	now := time.Now()
	values := make(map[string]any)
	if sess == nil {
		sess = &domain.Session{
			ID:        key,
			UserID:    userID,
			CreatedAt: now,
		}
		slog.Info("Session created", "session_id", key)
	} else {
		values, err = e.repo.LoadValues(ctx, key)
		if err != nil {
			return nil, fmt.Errorf("restore session values %s: %w", key, err)
		}
		slog.Info("Session restored", "session_id", key, "values", len(values))
	}
	sess.LastSeenAt = now
	sess.UpdatedAt = now

	if err := e.repo.UpsertSession(ctx, sess); err != nil {
		return nil, fmt.Errorf("persist session %s: %w", key, err)
	}

	rt := &Runtime{
		session: *sess,
		values:  values,
		history: NewHistory(historySize),
	}
	e.runtimes[key] = rt
	return rt, nil
}

// Lookup returns the live runtime for a session, if any.
func (e *Engine) Lookup(sessionID string) (*Runtime, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rt, ok := e.runtimes[sessionID]
	return rt, ok
}

// Evict drops a session's runtime from memory. Persisted state is left
// to the caller (the TTL worker deletes it, a later Attach restores it).
func (e *Engine) Evict(sessionID string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.runtimes, sessionID)
}

// HandleEvent performs one rerun: apply the widget event to a staged
// copy of session state, execute the render function top to bottom, and
// commit on success. A render fault discards the staged state and
// yields an error document; state from before the fault stays intact.
func (e *Engine) HandleEvent(ctx context.Context, rt *Runtime, ev domain.Event) *ui.Document {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return e.rerunLocked(ctx, rt, ev)
}

// Reset clears the session's state mapping and reruns from scratch.
func (e *Engine) Reset(ctx context.Context, rt *Runtime) *ui.Document {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	rt.values = make(map[string]any)
	slog.Info("Session state reset", "session_id", rt.session.ID)
	return e.rerunLocked(ctx, rt, domain.Event{})
}

func (e *Engine) rerunLocked(ctx context.Context, rt *Runtime, ev domain.Event) *ui.Document {
	rerunID := uuid.NewString()
	staged := maps.Clone(rt.values)
	if staged == nil {
		staged = make(map[string]any)
	}

	var clicked string
	for id, value := range ev.Batch {
		staged[ui.WidgetStateKey(id)] = value
	}
	switch {
	case ev.Click:
		clicked = ev.WidgetID
	case ev.WidgetID != "":
		staged[ui.WidgetStateKey(ev.WidgetID)] = ev.Value
	}

	doc := ui.NewDocument(rt.session.ID, rerunID)
	rc := ui.NewContext(ctx, doc, &sessionState{values: staged}, e.memo, clicked)

	start := time.Now()
	err := e.runRender(rc)
	elapsed := time.Since(start)

	record := RerunRecord{
		RerunID:  rerunID,
		WidgetID: ev.WidgetID,
		At:       start,
		Duration: elapsed,
	}

	if err != nil {
		record.Error = err.Error()
		rt.history.Record(record)
		slog.Error("Rerun aborted",
			"session_id", rt.session.ID,
			"rerun_id", rerunID,
			"widget_id", ev.WidgetID,
			"error", err)

		failed := ui.NewDocument(rt.session.ID, rerunID)
		failed.Error = err.Error()
		return failed
	}

	now := time.Now()
	rt.values = staged
	rt.session.LastSeenAt = now
	rt.session.UpdatedAt = now
	rt.history.Record(record)

	e.flusher.Enqueue(rt.session.ID, staged, now)

	slog.Debug("Rerun complete",
		"session_id", rt.session.ID,
		"rerun_id", rerunID,
		"widget_id", ev.WidgetID,
		"initial", ev.IsInitial(),
		"duration", elapsed)
	return doc
}

// runRender executes the render function, converting a panic into an
// error so a faulty rerun aborts without taking the session down.
func (e *Engine) runRender(rc *ui.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render panic: %v", r)
		}
	}()
	return e.render(rc)
}

// sessionState adapts the staged value map to the ui.State surface.
// Mutations land in the staged map and only reach the runtime when the
// rerun commits.
type sessionState struct {
	values map[string]any
}

func (s *sessionState) GetOrInit(key string, def any) any {
	if v, ok := s.values[key]; ok {
		return v
	}
	s.values[key] = def
	return def
}

func (s *sessionState) Set(key string, value any) {
	s.values[key] = value
}

func (s *sessionState) Get(key string) (any, bool) {
	v, ok := s.values[key]
	return v, ok
}
