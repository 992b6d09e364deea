package searcher

import (
	"sync"
	"sync/atomic"
)

// DefaultTableCap bounds the transposition table. When the cap is reached the
// table resets rather than evicting entry by entry; positions get recomputed
// and refilled quickly.
const DefaultTableCap = 1 << 20

type tableEntry struct {
	depth int32
	value float64
}

// Table memoizes subtree values by packed position key (see game.Key). An
// entry is reusable only when it was computed at the requested depth or
// deeper, and a write replaces an entry only with a deeper-or-equal result,
// so stored values refine monotonically.
//
// A Table must not be shared between searchers with different perspectives
// or evaluation weights: the stored values depend on both.
type Table struct {
	mu      sync.RWMutex
	entries map[uint64]tableEntry
	cap     int
	hits    atomic.Int64
	lookups atomic.Int64
}

func NewTable() *Table {
	return &Table{
		entries: make(map[uint64]tableEntry),
		cap:     DefaultTableCap,
	}
}

// Lookup returns the memoized value for key if it was computed at depth or
// deeper.
func (t *Table) Lookup(key uint64, depth int) (float64, bool) {
	t.lookups.Add(1)
	t.mu.RLock()
	entry, ok := t.entries[key]
	t.mu.RUnlock()
	if !ok || entry.depth < int32(depth) {
		return 0, false
	}
	t.hits.Add(1)
	return entry.value, true
}

// Store records value for key at depth, overwriting only shallower entries.
func (t *Table) Store(key uint64, depth int, value float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.entries) >= t.cap {
		t.entries = make(map[uint64]tableEntry)
	}
	if entry, ok := t.entries[key]; ok && entry.depth > int32(depth) {
		return
	}
	t.entries[key] = tableEntry{depth: int32(depth), value: value}
}

func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.entries)
}

func (t *Table) Clear() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries = make(map[uint64]tableEntry)
}

// Stats reports cumulative hit and lookup counts.
func (t *Table) Stats() (hits, lookups int64) {
	return t.hits.Load(), t.lookups.Load()
}
