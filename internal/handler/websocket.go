package handler

import (
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"kotonoha/internal/hub"
)

// createUpgrader creates a WebSocket upgrader with the given allowed origins
func createUpgrader(allowedOrigins []string) websocket.Upgrader {
	allowedMap := make(map[string]bool)
	for _, origin := range allowedOrigins {
		allowedMap[origin] = true
	}

	return websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return allowedMap[origin]
		},
	}
}

// HandleWebSocket handles GET /ws?username=NAME
//
// The username travels in the handshake because the disconnect path only
// knows the connection identity. A missing or blank username is not fatal:
// the connection is accepted but registers no presence.
func (h *Handler) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := createUpgrader(h.Config.AllowedOrigins)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
		return
	}

	connectionID := uuid.NewString()
	username := r.URL.Query().Get("username")

	// 単一ルームなので全トピックを購読する。presence登録より先に購読する
	// ことで、自分の接続による在席リスト配信も受け取れる
	sub := h.Hub.Subscribe(hub.TopicMessages, hub.TopicOnlineUsers, hub.TopicTyping)

	h.Lifecycle.Connect(connectionID, username)

	client := newClient(conn, connectionID, h)
	go client.writePump(sub)
	client.readPump()

	// readPumpが抜けたら購読解除と在席削除を行う
	h.Hub.Unsubscribe(sub)
	h.Lifecycle.Disconnect(connectionID)
}
