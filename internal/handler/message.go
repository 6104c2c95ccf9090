package handler

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"kotonoha/internal/chat"
	"kotonoha/internal/store"
)

// CreateMessage handles POST /api/messages
func (h *Handler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	log.Printf("[POST /api/messages] Request received from %s", r.RemoteAddr)

	// リクエストボディサイズを1MBに制限
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var payload struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[POST /api/messages] ❌ Bad Request: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
		return
	}

	msg, err := h.Chat.Send(payload.Sender, payload.Text)
	if err != nil {
		var ve *chat.ValidationError
		if errors.As(err, &ve) {
			log.Printf("[POST /api/messages] ❌ Bad Request: %v", ve)
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": ve.Error()})
			return
		}
		log.Printf("[POST /api/messages] ❌ Failed to create message: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to create message"})
		return
	}

	log.Printf("[POST /api/messages] ✅ Created message: ID=%d, Sender=%q", msg.ID, msg.Sender)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(msg)
}

// GetMessages handles GET /api/messages
func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/messages] Request received from %s", r.RemoteAddr)

	msgList, err := h.Chat.All()
	if err != nil {
		log.Printf("[GET /api/messages] ❌ Store error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to load messages"})
		return
	}

	log.Printf("[GET /api/messages] ✅ Returned %d messages", len(msgList))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgList)
}

// GetRecentMessages handles GET /api/messages/recent?limit=N
func (h *Handler) GetRecentMessages(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/messages/recent] Request received from %s", r.RemoteAddr)

	// limit指定なし・不正値はサービス側のデフォルトに任せる
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	msgList, err := h.Chat.Recent(limit)
	if err != nil {
		log.Printf("[GET /api/messages/recent] ❌ Store error: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Failed to load messages"})
		return
	}

	log.Printf("[GET /api/messages/recent] ✅ Returned %d messages", len(msgList))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msgList)
}

// EditMessage handles PUT /api/messages/{id}
func (h *Handler) EditMessage(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	log.Printf("[PUT /api/messages/%s] Request received from %s", idStr, r.RemoteAddr)

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid message id"})
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)

	var payload struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		log.Printf("[PUT /api/messages/%s] ❌ Bad Request: %v", idStr, err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid request body"})
		return
	}

	msg, err := h.Chat.Edit(id, payload.Text, payload.Sender)
	if err != nil {
		h.writeChatError(w, "PUT /api/messages/"+idStr, err)
		return
	}

	log.Printf("[PUT /api/messages/%s] ✅ Edited successfully", idStr)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(msg)
}

// DeleteMessage handles DELETE /api/messages/{id}. The requester's display
// name comes from the sender query parameter; as with edit, name equality is
// the only proof of authorship.
func (h *Handler) DeleteMessage(w http.ResponseWriter, r *http.Request) {
	idStr := mux.Vars(r)["id"]
	log.Printf("[DELETE /api/messages/%s] Request received from %s", idStr, r.RemoteAddr)

	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": "Invalid message id"})
		return
	}

	if err := h.Chat.Delete(id, r.URL.Query().Get("sender")); err != nil {
		h.writeChatError(w, "DELETE /api/messages/"+idStr, err)
		return
	}

	log.Printf("[DELETE /api/messages/%s] ✅ Deleted successfully", idStr)

	w.WriteHeader(http.StatusNoContent)
}

// GetOnlineUsers handles GET /api/online-users
func (h *Handler) GetOnlineUsers(w http.ResponseWriter, r *http.Request) {
	log.Printf("[GET /api/online-users] Request received from %s", r.RemoteAddr)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.Presence.OnlineUsernames())
}

// writeChatError maps the typed chat outcomes to HTTP statuses.
func (h *Handler) writeChatError(w http.ResponseWriter, route string, err error) {
	w.Header().Set("Content-Type", "application/json")

	var ve *chat.ValidationError
	switch {
	case errors.As(err, &ve):
		log.Printf("[%s] ❌ Bad Request: %v", route, ve)
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]string{"error": ve.Error()})
	case errors.Is(err, store.ErrNotFound):
		log.Printf("[%s] ❌ Not Found", route)
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": "Message not found"})
	case errors.Is(err, chat.ErrForbidden):
		log.Printf("[%s] ❌ Forbidden", route)
		w.WriteHeader(http.StatusForbidden)
		json.NewEncoder(w).Encode(map[string]string{"error": "Only the original sender can modify this message"})
	case errors.Is(err, chat.ErrMessageDeleted):
		log.Printf("[%s] ❌ Conflict: message already deleted", route)
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": "Cannot modify a deleted message"})
	default:
		log.Printf("[%s] ❌ Internal error: %v", route, err)
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"error": "Internal server error"})
	}
}
