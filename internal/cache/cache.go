// Package cache provides the process-wide memoization cache used by
// render functions to skip recomputation across reruns and sessions.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/cespare/xxhash/v2"
)

// Store is a keyed value store backing the memoizer. Implementations
// must tolerate concurrent access; read-after-write consistency per key
// is the only ordering guarantee callers rely on.
type Store interface {
	// Get returns the cached value for key. The second result reports
	// whether the key was present.
	Get(ctx context.Context, key string) (any, bool, error)

	// Set stores a value under key, replacing any existing entry.
	Set(ctx context.Context, key string, value any) error

	// Close releases backend resources.
	Close() error
}

// Key builds a cache key from a function name and its arguments.
// Arguments are canonicalized through JSON (map keys marshal sorted),
// so two calls with equal argument values produce the same key.
func Key(name string, args any) (string, error) {
	raw, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode memoize args for %q: %w", name, err)
	}
	h := xxhash.New()
	_, _ = h.WriteString(name)
	_, _ = h.Write([]byte{0})
	_, _ = h.Write(raw)
	return name + ":" + strconv.FormatUint(h.Sum64(), 16), nil
}
