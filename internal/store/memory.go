package store

import (
	"sync"
	"time"

	"kotonoha/internal/model"
)

// MemoryStore is an in-memory MessageStore. It backs unit tests and lets the
// server run without a database (messages are lost on restart).
type MemoryStore struct {
	mu       sync.RWMutex
	nextID   int64
	messages map[int64]*model.ChatMessage
	order    []int64
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		nextID:   1,
		messages: make(map[int64]*model.ChatMessage),
	}
}

// Create persists a new message with a monotonically increasing id.
func (s *MemoryStore) Create(m *model.ChatMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m.ID = s.nextID
	s.nextID++
	m.CreatedAt = time.Now()
	m.EditedAt = nil
	m.DeletedAt = nil
	m.IsEdited = false
	m.IsDeleted = false

	stored := *m
	s.messages[stored.ID] = &stored
	s.order = append(s.order, stored.ID)
	return nil
}

// FindByID returns a copy of the message with the given id or ErrNotFound.
func (s *MemoryStore) FindByID(id int64) (*model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.messages[id]
	if !ok {
		return nil, ErrNotFound
	}
	copied := *m
	return &copied, nil
}

// SaveEdit persists a new text for a non-deleted message.
func (s *MemoryStore) SaveEdit(id int64, text string, editedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if stored.IsDeleted {
		return ErrDeleted
	}
	at := editedAt
	stored.Text = text
	stored.IsEdited = true
	stored.EditedAt = &at
	return nil
}

// MarkDeleted soft-deletes a message. 一度立てたフラグは戻せない。
func (s *MemoryStore) MarkDeleted(id int64, deletedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.messages[id]
	if !ok {
		return ErrNotFound
	}
	if stored.IsDeleted {
		return ErrDeleted
	}
	at := deletedAt
	stored.IsDeleted = true
	stored.DeletedAt = &at
	return nil
}

// All returns every non-deleted message in insertion order.
func (s *MemoryStore) All() ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgList := []model.ChatMessage{}
	for _, id := range s.order {
		m := s.messages[id]
		if m.IsDeleted {
			continue
		}
		msgList = append(msgList, *m)
	}
	return msgList, nil
}

// Recent returns up to limit non-deleted messages, newest first.
func (s *MemoryStore) Recent(limit int) ([]model.ChatMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	msgList := []model.ChatMessage{}
	for i := len(s.order) - 1; i >= 0 && len(msgList) < limit; i-- {
		m := s.messages[s.order[i]]
		if m.IsDeleted {
			continue
		}
		msgList = append(msgList, *m)
	}
	return msgList, nil
}
