package handler

import (
	"github.com/gorilla/mux"

	"kotonoha/internal/chat"
	"kotonoha/internal/config"
	"kotonoha/internal/hub"
	"kotonoha/internal/presence"
)

// Handler holds application dependencies
type Handler struct {
	Chat      *chat.Service
	Lifecycle *chat.Lifecycle
	Presence  *presence.Tracker
	Hub       *hub.Hub
	Config    config.Config
}

// New creates a new Handler with the given dependencies
func New(svc *chat.Service, lc *chat.Lifecycle, tracker *presence.Tracker, h *hub.Hub, cfg config.Config) *Handler {
	return &Handler{
		Chat:      svc,
		Lifecycle: lc,
		Presence:  tracker,
		Hub:       h,
		Config:    cfg,
	}
}

// SetupRouter configures and returns the HTTP router
func (h *Handler) SetupRouter() *mux.Router {
	r := mux.NewRouter()

	// REST API
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/messages", h.GetMessages).Methods("GET")
	api.HandleFunc("/messages", h.CreateMessage).Methods("POST")
	api.HandleFunc("/messages/recent", h.GetRecentMessages).Methods("GET")
	api.HandleFunc("/messages/{id:[0-9]+}", h.EditMessage).Methods("PUT")
	api.HandleFunc("/messages/{id:[0-9]+}", h.DeleteMessage).Methods("DELETE")
	api.HandleFunc("/online-users", h.GetOnlineUsers).Methods("GET")

	// WebSocket
	r.HandleFunc("/ws", h.HandleWebSocket).Methods("GET")

	return r
}
