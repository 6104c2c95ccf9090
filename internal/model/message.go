package model

import "time"

// ChatMessage represents a chat message row. ID and CreatedAt are assigned by
// the store on creation; EditedAt/DeletedAt are set on first edit/delete and
// the matching flags never reset to false.
type ChatMessage struct {
	ID        int64      `json:"id"`
	Sender    string     `json:"sender"`
	Text      string     `json:"text"`
	CreatedAt time.Time  `json:"created_at"`
	EditedAt  *time.Time `json:"edited_at,omitempty"`
	DeletedAt *time.Time `json:"deleted_at,omitempty"`
	IsEdited  bool       `json:"is_edited"`
	IsDeleted bool       `json:"is_deleted"`
}
