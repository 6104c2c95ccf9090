// Package presence tracks which users are currently online. Presence is
// memory-only: it is rebuilt from live connections and never persisted.
package presence

import (
	"sort"
	"sync"

	"github.com/samber/lo"
)

// Tracker maps live connection ids to display names. Two connections may
// share a display name; the online list is deduplicated. Safe for concurrent
// use by multiple goroutines.
type Tracker struct {
	mu      sync.RWMutex
	entries map[string]string // connectionID -> display name
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{entries: make(map[string]string)}
}

// Add inserts or overwrites the entry for connectionID. Last write wins.
func (t *Tracker) Add(connectionID, displayName string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.entries[connectionID] = displayName
}

// Remove deletes the entry for connectionID. Removing an absent id is a no-op.
func (t *Tracker) Remove(connectionID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.entries, connectionID)
}

// OnlineUsernames returns the deduplicated display names of all live
// connections, sorted so repeated calls over the same state agree.
func (t *Tracker) OnlineUsernames() []string {
	t.mu.RLock()
	names := lo.Uniq(lo.Values(t.entries))
	t.mu.RUnlock()

	sort.Strings(names)
	return names
}

// IsOnline reports whether at least one live connection uses displayName.
func (t *Tracker) IsOnline(displayName string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	for _, name := range t.entries {
		if name == displayName {
			return true
		}
	}
	return false
}
