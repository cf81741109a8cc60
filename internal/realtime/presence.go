package realtime

import (
	"sync"
)

// PresenceTracker maintains the set of connected users for this instance.
// It is a per-process cache, not a source of truth: it is rebuilt from live
// connections and mirrored to Redis by the hub for REST-side lookups.
type PresenceTracker struct {
	mu     sync.RWMutex
	byUser map[string]string // userId -> socketId
	bySock map[string]string // socketId -> userId
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{
		byUser: make(map[string]string),
		bySock: make(map[string]string),
	}
}

// Add registers a connection. A newer connection for the same user replaces
// the old mapping; the user stays online throughout.
func (t *PresenceTracker) Add(userID, socketID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if old, ok := t.byUser[userID]; ok {
		delete(t.bySock, old)
	}
	t.byUser[userID] = socketID
	t.bySock[socketID] = userID
}

// Remove drops a connection by socket id and reports which user went
// offline. A stale socket id (already replaced by a reconnect) removes
// nobody.
func (t *PresenceTracker) Remove(socketID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	userID, ok := t.bySock[socketID]
	if !ok {
		return "", false
	}
	delete(t.bySock, socketID)
	if t.byUser[userID] == socketID {
		delete(t.byUser, userID)
		return userID, true
	}
	return "", false
}

// IsOnline reports whether the user has a live connection on this instance.
func (t *PresenceTracker) IsOnline(userID string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.byUser[userID]
	return ok
}

// Snapshot returns all online user ids. Sent wholesale on every connect so a
// reconnecting client replaces its set instead of merging stale entries.
func (t *PresenceTracker) Snapshot() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	users := make([]string, 0, len(t.byUser))
	for userID := range t.byUser {
		users = append(users, userID)
	}
	return users
}
