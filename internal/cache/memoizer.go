package cache

import (
	"context"
	"log/slog"
	"sync"
)

// Memoizer coalesces and caches pure computations keyed by (function
// name, argument values). It is shared process-wide: two sessions asking
// for the same key invoke the computation at most once and observe the
// same result.
//
// The compute function must be deterministic on its arguments and free
// of side effects. Violating that silently yields stale results; it is
// a caller obligation, not a detectable error.
type Memoizer struct {
	store Store

	mu       sync.Mutex
	inflight map[string]*call
}

type call struct {
	done  chan struct{}
	value any
	err   error
}

// NewMemoizer creates a memoizer over the given backing store.
func NewMemoizer(store Store) *Memoizer {
	return &Memoizer{
		store:    store,
		inflight: make(map[string]*call),
	}
}

// Do returns the cached result for (name, args), computing and storing
// it on first use. Concurrent calls with the same key wait for the one
// in-flight computation instead of duplicating it. A compute error is
// returned to every waiter and nothing is cached.
func (m *Memoizer) Do(ctx context.Context, name string, args any, compute func() (any, error)) (any, error) {
	key, err := Key(name, args)
	if err != nil {
		return nil, err
	}

	if value, ok := m.lookup(ctx, key); ok {
		return value, nil
	}

	m.mu.Lock()
	if c, ok := m.inflight[key]; ok {
		m.mu.Unlock()
		select {
		case <-c.done:
			return c.value, c.err
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	c := &call{done: make(chan struct{})}
	m.inflight[key] = c
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inflight, key)
		m.mu.Unlock()
		close(c.done)
	}()

	// Another process may have filled a shared backend while we queued.
	if value, ok := m.lookup(ctx, key); ok {
		c.value = value
		return value, nil
	}

	c.value, c.err = compute()
	if c.err != nil {
		return nil, c.err
	}

	if err := m.store.Set(ctx, key, c.value); err != nil {
		// A write failure costs a recomputation later, nothing more.
		slog.Warn("Failed to store memoized result", "key", key, "error", err)
	}
	return c.value, nil
}

func (m *Memoizer) lookup(ctx context.Context, key string) (any, bool) {
	value, ok, err := m.store.Get(ctx, key)
	if err != nil {
		slog.Warn("Memoize cache read failed, treating as miss", "key", key, "error", err)
		return nil, false
	}
	return value, ok
}
