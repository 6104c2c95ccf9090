package model

import "time"

// WebSocket通知用のイベント種別
const (
	EventMessageCreated = "message_created"
	EventMessageEdited  = "message_edited"
	EventMessageDeleted = "message_deleted"
	EventOnlineUsers    = "online_users"
	EventTyping         = "typing"
	EventError          = "error"
)

// MessageEvent carries a newly created or edited message to subscribers.
type MessageEvent struct {
	Type    string      `json:"type"`
	Message ChatMessage `json:"message"`
}

// DeleteEvent is used for WebSocket delete notifications
type DeleteEvent struct {
	Type      string    `json:"type"`
	ID        int64     `json:"id"`
	DeletedAt time.Time `json:"deleted_at"`
}

// PresenceEvent carries the full deduplicated online user list.
type PresenceEvent struct {
	Type        string   `json:"type"`
	OnlineUsers []string `json:"online_users"`
}

// TypingEvent echoes a typing indicator to subscribers.
type TypingEvent struct {
	Type     string `json:"type"`
	Username string `json:"username"`
}

// ErrorEvent is returned directly to the client whose event was rejected.
type ErrorEvent struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}
