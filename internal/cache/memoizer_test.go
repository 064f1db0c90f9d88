package cache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestMemoizer_ComputesOnce(t *testing.T) {
	m := NewMemoizer(NewMemoryStore(16, 0))
	calls := 0

	for i := 0; i < 3; i++ {
		v, err := m.Do(context.Background(), "gen", 20, func() (any, error) {
			calls++
			return "table-20", nil
		})
		if err != nil {
			t.Fatalf("Do failed: %v", err)
		}
		if v != "table-20" {
			t.Errorf("Expected table-20, got %v", v)
		}
	}

	if calls != 1 {
		t.Errorf("Expected 1 computation, got %d", calls)
	}
}

func TestMemoizer_DistinctArgsComputeSeparately(t *testing.T) {
	m := NewMemoizer(NewMemoryStore(16, 0))
	calls := 0
	compute := func() (any, error) {
		calls++
		return calls, nil
	}

	if _, err := m.Do(context.Background(), "gen", 20, compute); err != nil {
		t.Fatalf("Do(20) failed: %v", err)
	}
	if _, err := m.Do(context.Background(), "gen", 50, compute); err != nil {
		t.Fatalf("Do(50) failed: %v", err)
	}
	if _, err := m.Do(context.Background(), "other", 20, compute); err != nil {
		t.Fatalf("Do(other, 20) failed: %v", err)
	}

	if calls != 3 {
		t.Errorf("Expected 3 computations, got %d", calls)
	}
}

func TestMemoizer_ConcurrentCallsCoalesce(t *testing.T) {
	m := NewMemoizer(NewMemoryStore(16, 0))
	var calls int32

	const goroutines = 10
	results := make([]any, goroutines)
	var wg sync.WaitGroup
	wg.Add(goroutines)

	for i := 0; i < goroutines; i++ {
		go func(i int) {
			defer wg.Done()
			v, err := m.Do(context.Background(), "gen", "shared", func() (any, error) {
				atomic.AddInt32(&calls, 1)
				time.Sleep(20 * time.Millisecond)
				return "shared-result", nil
			})
			if err != nil {
				t.Errorf("Do failed: %v", err)
				return
			}
			results[i] = v
		}(i)
	}
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Errorf("Expected 1 computation across concurrent callers, got %d", got)
	}
	for i, v := range results {
		if v != "shared-result" {
			t.Errorf("Caller %d observed %v, expected shared-result", i, v)
		}
	}
}

func TestMemoizer_ErrorNotCached(t *testing.T) {
	m := NewMemoizer(NewMemoryStore(16, 0))
	calls := 0

	_, err := m.Do(context.Background(), "gen", 1, func() (any, error) {
		calls++
		return nil, errors.New("boom")
	})
	if err == nil {
		t.Fatal("Expected error from compute")
	}

	v, err := m.Do(context.Background(), "gen", 1, func() (any, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Second Do failed: %v", err)
	}
	if v != "ok" {
		t.Errorf("Expected ok, got %v", v)
	}
	if calls != 2 {
		t.Errorf("Expected failed computation to be retried, calls = %d", calls)
	}
}

func TestKey_DependsOnNameAndArgs(t *testing.T) {
	k1, err := Key("gen", map[string]any{"rows": 20})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	k2, err := Key("gen", map[string]any{"rows": 20})
	if err != nil {
		t.Fatalf("Key failed: %v", err)
	}
	if k1 != k2 {
		t.Errorf("Identical inputs produced different keys: %q vs %q", k1, k2)
	}

	k3, _ := Key("gen", map[string]any{"rows": 21})
	if k1 == k3 {
		t.Error("Different args produced the same key")
	}
	k4, _ := Key("other", map[string]any{"rows": 20})
	if k1 == k4 {
		t.Error("Different names produced the same key")
	}
}
