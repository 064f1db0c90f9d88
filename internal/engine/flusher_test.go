package engine

import (
	"context"
	"testing"
	"time"
)

func waitForValues(t *testing.T, repo *fakeRepo, sessionID, key string, want any) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		values, err := repo.LoadValues(context.Background(), sessionID)
		if err != nil {
			t.Fatalf("LoadValues failed: %v", err)
		}
		if values[key] == want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("Value %q=%v never persisted for %s", key, want, sessionID)
}

func TestFlusher_PersistsSnapshot(t *testing.T) {
	repo := newFakeRepo()
	f := NewFlusher(repo, 16)
	defer f.Close()

	now := time.Now()
	f.Enqueue("s:1", map[string]any{"counter": 3}, now)

	waitForValues(t, repo, "s:1", "counter", 3)
}

func TestFlusher_CloseDrainsQueue(t *testing.T) {
	repo := newFakeRepo()
	f := NewFlusher(repo, 16)

	f.Enqueue("s:1", map[string]any{"a": 1}, time.Now())
	f.Enqueue("s:2", map[string]any{"b": 2}, time.Now())
	f.Close()

	v1, _ := repo.LoadValues(context.Background(), "s:1")
	v2, _ := repo.LoadValues(context.Background(), "s:2")
	if v1["a"] != 1 || v2["b"] != 2 {
		t.Errorf("Expected queued snapshots flushed on close, got %v / %v", v1, v2)
	}
}

func TestFlusher_NewerSnapshotWins(t *testing.T) {
	repo := newFakeRepo()
	f := NewFlusher(repo, 16)

	f.Enqueue("s:1", map[string]any{"counter": 1}, time.Now())
	f.Enqueue("s:1", map[string]any{"counter": 2}, time.Now())
	f.Close()

	values, _ := repo.LoadValues(context.Background(), "s:1")
	if values["counter"] != 2 {
		t.Errorf("Expected latest snapshot to win, got %v", values["counter"])
	}
}
