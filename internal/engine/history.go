package engine

import (
	"sync"
	"time"
)

// RerunRecord describes one completed or aborted rerun.
type RerunRecord struct {
	RerunID  string        `json:"rerun_id"`
	WidgetID string        `json:"widget_id,omitempty"`
	At       time.Time     `json:"at"`
	Duration time.Duration `json:"duration_ns"`
	Error    string        `json:"error,omitempty"`
}

// History is a fixed-size ring of recent rerun records per session.
// Bounds memory for long-lived sessions that rerun on every keystroke.
type History struct {
	mu   sync.RWMutex
	recs []RerunRecord
	head int // next write position
	full bool
}

// NewHistory creates a history ring holding at most size records.
func NewHistory(size int) *History {
	if size <= 0 {
		size = historySize
	}
	return &History{recs: make([]RerunRecord, size)}
}

// Record appends a rerun record, overwriting the oldest when full.
func (h *History) Record(r RerunRecord) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.recs[h.head] = r
	h.head = (h.head + 1) % len(h.recs)
	if h.head == 0 {
		h.full = true
	}
}

// Snapshot returns the recorded reruns, oldest first.
func (h *History) Snapshot() []RerunRecord {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if !h.full {
		out := make([]RerunRecord, h.head)
		copy(out, h.recs[:h.head])
		return out
	}

	out := make([]RerunRecord, 0, len(h.recs))
	out = append(out, h.recs[h.head:]...)
	out = append(out, h.recs[:h.head]...)
	return out
}

// Len returns the number of records held.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.full {
		return len(h.recs)
	}
	return h.head
}
