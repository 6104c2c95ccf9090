// Package store persists chat messages. Messages are append-only rows with
// mutable edit/delete fields; deletion is a soft flag and rows are never
// physically removed.
package store

import (
	"errors"
	"time"

	"kotonoha/internal/model"
)

var (
	// ErrNotFound is returned when no message exists for the requested id.
	ErrNotFound = errors.New("message not found")
	// ErrDeleted is returned when a write targets a soft-deleted message.
	ErrDeleted = errors.New("message is deleted")
)

// MessageStore is the persistence boundary for chat messages. Implementations
// must be safe for concurrent use; each call is independently atomic. The
// delete fields are write-once: no operation can reset them, so a message
// soft-deleted concurrently with an edit stays deleted.
type MessageStore interface {
	// Create persists a new message, assigning its ID and CreatedAt.
	Create(m *model.ChatMessage) error
	// FindByID returns the message with the given id or ErrNotFound.
	FindByID(id int64) (*model.ChatMessage, error)
	// SaveEdit persists a new text for a non-deleted message, setting its
	// edit flag and timestamp. Returns ErrDeleted if the message is
	// soft-deleted; the delete fields are never touched.
	SaveEdit(id int64, text string, editedAt time.Time) error
	// MarkDeleted soft-deletes a message. Returns ErrDeleted if it was
	// already deleted; the flag never resets once set.
	MarkDeleted(id int64, deletedAt time.Time) error
	// All returns every non-deleted message, oldest first.
	All() ([]model.ChatMessage, error)
	// Recent returns up to limit non-deleted messages, newest first.
	Recent(limit int) ([]model.ChatMessage, error)
}
