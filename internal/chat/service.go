// Package chat implements the message channel and the connection lifecycle
// for a single shared room.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"kotonoha/internal/config"
	"kotonoha/internal/hub"
	"kotonoha/internal/model"
	"kotonoha/internal/store"
)

// Service accepts inbound chat events from any connection, persists messages,
// and fans them out to all subscribers of the shared topics. Validation and
// ownership failures are returned to the caller; broadcast never fails the
// caller.
type Service struct {
	store          store.MessageStore
	hub            *hub.Hub
	broadcastEdits bool
	recentLimit    int
}

// NewService wires the message channel to its store and fan-out.
func NewService(st store.MessageStore, h *hub.Hub, cfg config.Config) *Service {
	limit := cfg.RecentMessageLimit
	if limit <= 0 {
		limit = 50
	}
	return &Service{
		store:          st,
		hub:            h,
		broadcastEdits: cfg.BroadcastEdits,
		recentLimit:    limit,
	}
}

// Send validates, persists, and broadcasts a new chat message. Senders are
// untrusted clients, so bounds are re-checked here even when the transport
// already validated them.
func (s *Service) Send(sender, text string) (*model.ChatMessage, error) {
	sender = strings.TrimSpace(sender)
	text = strings.TrimSpace(text)
	if err := validateMessage(sender, text); err != nil {
		return nil, err
	}

	msg := &model.ChatMessage{Sender: sender, Text: text}
	if err := s.store.Create(msg); err != nil {
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	log.Printf("[chat] ✅ Message %d from %q persisted", msg.ID, msg.Sender)
	s.publish(hub.TopicMessages, model.MessageEvent{Type: model.EventMessageCreated, Message: *msg})

	return msg, nil
}

// Edit replaces the text of an existing message. Only the original sender may
// edit, and a deleted message can never be edited. Outcomes are checked in
// order: missing message, wrong sender, deleted, then invalid text. The
// updated record goes back to the requester; it is re-broadcast only when
// BROADCAST_EDITS is on.
func (s *Service) Edit(id int64, newText, requester string) (*model.ChatMessage, error) {
	msg, err := s.store.FindByID(id)
	if err != nil {
		return nil, err
	}
	if msg.Sender != strings.TrimSpace(requester) {
		return nil, ErrForbidden
	}
	if msg.IsDeleted {
		return nil, ErrMessageDeleted
	}

	newText = strings.TrimSpace(newText)
	if err := validateText(newText); err != nil {
		return nil, err
	}

	now := time.Now()
	// is_deleted はストア側でガードされる。編集と削除が競合しても
	// 削除済みメッセージが復活することはない。
	if err := s.store.SaveEdit(id, newText, now); err != nil {
		if errors.Is(err, store.ErrDeleted) {
			return nil, ErrMessageDeleted
		}
		if errors.Is(err, store.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update message: %w", err)
	}

	msg.Text = newText
	msg.IsEdited = true
	msg.EditedAt = &now

	log.Printf("[chat] ✅ Message %d edited by %q", msg.ID, msg.Sender)
	if s.broadcastEdits {
		s.publish(hub.TopicMessages, model.MessageEvent{Type: model.EventMessageEdited, Message: *msg})
	}

	return msg, nil
}

// Delete soft-deletes a message. The row is kept with its deleted_at
// timestamp and the deletion is announced on the messages topic.
func (s *Service) Delete(id int64, requester string) error {
	msg, err := s.store.FindByID(id)
	if err != nil {
		return err
	}
	if msg.Sender != strings.TrimSpace(requester) {
		return ErrForbidden
	}
	if msg.IsDeleted {
		return ErrMessageDeleted
	}

	now := time.Now()
	if err := s.store.MarkDeleted(id, now); err != nil {
		if errors.Is(err, store.ErrDeleted) {
			return ErrMessageDeleted
		}
		if errors.Is(err, store.ErrNotFound) {
			return err
		}
		return fmt.Errorf("failed to delete message: %w", err)
	}

	log.Printf("[chat] 📢 Broadcasting delete event for message %d", id)
	s.publish(hub.TopicMessages, model.DeleteEvent{Type: model.EventMessageDeleted, ID: id, DeletedAt: now})

	return nil
}

// Typing echoes a typing indicator to the typing topic. Nothing is persisted
// and a blank name is dropped.
func (s *Service) Typing(username string) {
	username = strings.TrimSpace(username)
	if username == "" {
		return
	}
	s.publish(hub.TopicTyping, model.TypingEvent{Type: model.EventTyping, Username: username})
}

// All returns every non-deleted message, oldest first.
func (s *Service) All() ([]model.ChatMessage, error) {
	return s.store.All()
}

// Recent returns up to limit non-deleted messages, newest first. Out-of-range
// limits fall back to the configured default.
func (s *Service) Recent(limit int) ([]model.ChatMessage, error) {
	if limit <= 0 || limit > s.recentLimit {
		limit = s.recentLimit
	}
	return s.store.Recent(limit)
}

// publish encodes an event and hands it to the fan-out. Encoding failures are
// logged and absorbed: broadcast problems are never fatal to the caller.
func (s *Service) publish(topic string, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[chat] ❌ Failed to encode event for topic %q: %v", topic, err)
		return
	}
	s.hub.Publish(topic, payload)
}
