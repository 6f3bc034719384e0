package logging

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

// Entry is one record kept in the History.
type Entry struct {
	Seq        uint64         `json:"seq"`
	Timestamp  time.Time      `json:"timestamp"`
	Level      string         `json:"level"`
	Module     string         `json:"module"`
	Message    string         `json:"message"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// String renders the entry as a single log line.
func (e Entry) String() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%s] [%s] %s",
		e.Timestamp.Format(time.RFC3339Nano), strings.ToUpper(e.Level), e.Module, e.Message)

	keys := make([]string, 0, len(e.Attributes))
	for k := range e.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%v", k, e.Attributes[k])
	}
	return sb.String()
}

// History keeps the most recent records in a fixed-size ring and forwards
// each new record to registered listeners.
type History struct {
	mu        sync.RWMutex
	entries   []Entry
	next      int
	count     int
	seq       uint64
	listeners []func(Entry)
}

// NewHistory creates a History holding up to size entries.
func NewHistory(size int) *History {
	if size <= 0 {
		size = 1
	}
	return &History{entries: make([]Entry, size)}
}

// Append stores e, assigning it the next sequence number.
func (h *History) Append(e Entry) Entry {
	h.mu.Lock()
	h.seq++
	e.Seq = h.seq
	h.entries[h.next] = e
	h.next = (h.next + 1) % len(h.entries)
	if h.count < len(h.entries) {
		h.count++
	}
	listeners := h.listeners
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
	return e
}

// OnAppend registers fn to be called after each Append. fn runs on the
// logging goroutine and must not log.
func (h *History) OnAppend(fn func(Entry)) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
}

// Entries returns the retained entries, oldest first.
func (h *History) Entries() []Entry {
	return h.Since(0)
}

// Since returns the retained entries with a sequence number above seq.
func (h *History) Since(seq uint64) []Entry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	start := (h.next - h.count + len(h.entries)) % len(h.entries)
	var out []Entry
	for i := 0; i < h.count; i++ {
		e := h.entries[(start+i)%len(h.entries)]
		if e.Seq > seq {
			out = append(out, e)
		}
	}
	return out
}

// Len returns the number of retained entries.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}
