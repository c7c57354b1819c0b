// Package cache implements the response cache: a durable mapping from
// question text to every answer ever produced for it. The cache is shared
// by all concurrent call pipelines and guarded by a single-writer mutex;
// the persisted document is flushed synchronously after every write.
package cache

import (
	"math/rand/v2"
	"sync"
)

// Store persists cache snapshots. Save must write a consistent snapshot;
// Load returns an empty map when no prior state exists.
type Store interface {
	Load() (map[string][]string, error)
	Save(entries map[string][]string) error
}

// Cache is the process-wide question/answer cache.
type Cache struct {
	mu      sync.Mutex
	entries map[string][]string
	store   Store
}

// New loads prior state from store and returns a ready cache.
func New(store Store) (*Cache, error) {
	entries, err := store.Load()
	if err != nil {
		return nil, err
	}
	if entries == nil {
		entries = make(map[string][]string)
	}
	return &Cache{entries: entries, store: store}, nil
}

// Normalize maps a transcribed question to its cache key. The observed
// design is exact-match (case- and whitespace-sensitive); this is the one
// place to change that.
func Normalize(question string) string {
	return question
}

// Lookup returns all recorded answers for a question, in recording order,
// or nil when the question has never been answered. The returned slice is
// a copy.
func (c *Cache) Lookup(question string) []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	answers, ok := c.entries[Normalize(question)]
	if !ok {
		return nil
	}
	out := make([]string, len(answers))
	copy(out, answers)
	return out
}

// RecordAnswer appends answer to the question's entry, creating it if
// absent, then flushes the full cache to the store. The in-memory append
// always succeeds; a flush failure is returned as a recoverable error with
// the in-memory state already updated.
func (c *Cache) RecordAnswer(question, answer string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := Normalize(question)
	c.entries[key] = append(c.entries[key], answer)

	// Snapshot under the lock so concurrent appends never produce a torn
	// document.
	snapshot := make(map[string][]string, len(c.entries))
	for q, answers := range c.entries {
		cp := make([]string, len(answers))
		copy(cp, answers)
		snapshot[q] = cp
	}

	return c.store.Save(snapshot)
}

// Len returns the number of distinct questions in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// PickAnswer selects one element uniformly at random so repeat questions
// get varied phrasing. answers must be non-empty.
func PickAnswer(answers []string) string {
	return answers[rand.IntN(len(answers))]
}
