package cache

import (
	"container/list"
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	key      string
	value    any
	expireAt time.Time // zero means no TTL
}

// MemoryStore is a mutex-guarded in-process Store with LRU eviction and
// an optional per-entry TTL. It is the default cache backend.
type MemoryStore struct {
	mu         sync.Mutex
	entries    map[string]*list.Element
	order      *list.List // front = most recently used
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

// NewMemoryStore creates a memory-backed store holding at most maxEntries
// values. A ttl of zero disables expiry.
func NewMemoryStore(maxEntries int, ttl time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 1024
	}
	return &MemoryStore{
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

// Get returns the cached value for key, refreshing its LRU position.
func (s *MemoryStore) Get(_ context.Context, key string) (any, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		return nil, false, nil
	}

	entry := elem.Value.(*memoryEntry)
	if !entry.expireAt.IsZero() && s.now().After(entry.expireAt) {
		s.order.Remove(elem)
		delete(s.entries, key)
		return nil, false, nil
	}

	s.order.MoveToFront(elem)
	return entry.value, true, nil
}

// Set stores a value under key, evicting the least recently used entry
// when the store is full.
func (s *MemoryStore) Set(_ context.Context, key string, value any) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var expireAt time.Time
	if s.ttl > 0 {
		expireAt = s.now().Add(s.ttl)
	}

	if elem, ok := s.entries[key]; ok {
		entry := elem.Value.(*memoryEntry)
		entry.value = value
		entry.expireAt = expireAt
		s.order.MoveToFront(elem)
		return nil
	}

	s.entries[key] = s.order.PushFront(&memoryEntry{
		key:      key,
		value:    value,
		expireAt: expireAt,
	})

	for s.order.Len() > s.maxEntries {
		oldest := s.order.Back()
		if oldest == nil {
			break
		}
		s.order.Remove(oldest)
		delete(s.entries, oldest.Value.(*memoryEntry).key)
	}
	return nil
}

// Len returns the number of live entries.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.order.Len()
}

// Close is a no-op for the memory backend.
func (s *MemoryStore) Close() error {
	return nil
}
