// Package counter implements the concurrent counting table: a fixed-capacity
// chained hash map from string key to occurrence count, guarded by a single
// mutex. The capacity is chosen once at construction (typically the corpus
// line count) and never changes; collisions chain off each bucket with new
// entries inserted at the chain head.
package counter

import "sync"

// Entry is one counted key. Count starts at 1 on first insert and is only
// ever incremented.
type Entry struct {
	Key   string
	Count int64

	next *Entry
}

// Table is the shared counting structure. All access to the buckets goes
// through mu; the lock is held for the full lookup-then-insert sequence so
// concurrent bumps of the same key can neither lose updates nor create
// duplicate entries.
type Table struct {
	mu      sync.Mutex
	buckets []*Entry
	entries int
}

// NewTable creates a table with the given bucket capacity. A capacity below
// one is clamped to one so an empty corpus still yields a usable table.
func NewTable(capacity int) *Table {
	if capacity < 1 {
		capacity = 1
	}
	return &Table{
		buckets: make([]*Entry, capacity),
	}
}

// Hash is the bucket function: a polynomial rolling hash with base 31 over
// the raw bytes of key, reduced modulo capacity at every step. Reducing per
// step keeps the recurrence identical across integer widths, so bucket
// placement is reproducible for a fixed capacity.
func Hash(key string, capacity int) uint32 {
	if capacity < 1 {
		return 0
	}
	var h uint32
	for i := 0; i < len(key); i++ {
		h = (h*31 + uint32(key[i])) % uint32(capacity)
	}
	return h
}

// BumpOrInsert increments the count for key, creating an entry with count 1
// if the key has not been seen. The whole check-then-act runs under the
// table lock.
func (t *Table) BumpOrInsert(key string) {
	idx := Hash(key, len(t.buckets))

	t.mu.Lock()
	defer t.mu.Unlock()

	for e := t.buckets[idx]; e != nil; e = e.next {
		if e.Key == key {
			e.Count++
			return
		}
	}

	t.buckets[idx] = &Entry{
		Key:   key,
		Count: 1,
		next:  t.buckets[idx],
	}
	t.entries++
}

// Snapshot returns a copy of every entry, ordered bucket-index ascending and
// within a bucket in chain order (most recently inserted first). It must only
// be called after all mutators have finished; it takes the lock anyway so a
// stray late bump cannot tear an entry.
func (t *Table) Snapshot() []Entry {
	t.mu.Lock()
	defer t.mu.Unlock()

	out := make([]Entry, 0, t.entries)
	for _, head := range t.buckets {
		for e := head; e != nil; e = e.next {
			out = append(out, Entry{Key: e.Key, Count: e.Count})
		}
	}
	return out
}

// Len returns the number of distinct keys stored.
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.entries
}

// Capacity returns the fixed bucket count.
func (t *Table) Capacity() int {
	return len(t.buckets)
}
