package chat

import (
	"encoding/json"
	"log"
	"strings"
	"sync"

	"kotonoha/internal/hub"
	"kotonoha/internal/model"
	"kotonoha/internal/presence"
)

// Lifecycle reacts to connect/disconnect events. It owns the side table from
// connection id to display name: the disconnect event carries only the
// connection identity, so the name is recorded at connect time and consulted
// (then discarded) at disconnect.
type Lifecycle struct {
	tracker *presence.Tracker
	hub     *hub.Hub

	mu    sync.Mutex
	names map[string]string // connectionID -> display name
}

// NewLifecycle creates a coordinator around the given tracker and fan-out.
func NewLifecycle(tracker *presence.Tracker, h *hub.Hub) *Lifecycle {
	return &Lifecycle{
		tracker: tracker,
		hub:     h,
		names:   make(map[string]string),
	}
}

// Connect registers a new connection. A blank username is not an error: the
// connection proceeds without presence and no broadcast is triggered. Returns
// whether the connection was registered as present.
func (l *Lifecycle) Connect(connectionID, username string) bool {
	username = strings.TrimSpace(username)
	if username == "" {
		// ユーザー名なしの接続は在席管理の対象外
		log.Printf("[ws] Connection %s joined without a username; skipping presence", connectionID)
		return false
	}

	l.mu.Lock()
	l.names[connectionID] = username
	l.mu.Unlock()

	l.tracker.Add(connectionID, username)
	log.Printf("[ws] ✅ %q is online (connection %s)", username, connectionID)
	l.broadcastOnlineUsers()
	return true
}

// Disconnect removes a connection. Removal is always attempted; it is a safe
// no-op for connections that never registered, and those trigger no broadcast.
func (l *Lifecycle) Disconnect(connectionID string) {
	l.mu.Lock()
	username, registered := l.names[connectionID]
	delete(l.names, connectionID)
	l.mu.Unlock()

	l.tracker.Remove(connectionID)

	if !registered {
		return
	}

	log.Printf("[ws] %q went offline (connection %s)", username, connectionID)
	l.broadcastOnlineUsers()
}

func (l *Lifecycle) broadcastOnlineUsers() {
	event := model.PresenceEvent{
		Type:        model.EventOnlineUsers,
		OnlineUsers: l.tracker.OnlineUsernames(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("[ws] ❌ Failed to encode online users event: %v", err)
		return
	}
	l.hub.Publish(hub.TopicOnlineUsers, payload)
}
