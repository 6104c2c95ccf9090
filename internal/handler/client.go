package handler

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"github.com/gorilla/websocket"

	"kotonoha/internal/chat"
	"kotonoha/internal/hub"
	"kotonoha/internal/model"
)

const (
	writeWait       = 10 * time.Second
	pongWait        = 60 * time.Second
	pingPeriod      = 54 * time.Second
	maxInboundBytes = 4096
)

// client pairs one WebSocket connection with its pumps. Each inbound event is
// handled on the connection's read goroutine, independently of every other
// connection. All writes go through writePump so the connection is never
// written concurrently.
type client struct {
	conn    *websocket.Conn
	id      string
	handler *Handler
	direct  chan []byte // replies addressed only to this client
}

// inboundEvent is the single entry point format for client events. The Type
// field selects the variant: "chat" uses Sender/Text, "typing" uses Username.
type inboundEvent struct {
	Type     string `json:"type"`
	Sender   string `json:"sender,omitempty"`
	Text     string `json:"text,omitempty"`
	Username string `json:"username,omitempty"`
}

func newClient(conn *websocket.Conn, id string, h *Handler) *client {
	return &client{
		conn:    conn,
		id:      id,
		handler: h,
		direct:  make(chan []byte, 8),
	}
}

// readPump reads events from the connection until it errors or closes.
func (c *client) readPump() {
	defer c.conn.Close()

	c.conn.SetReadLimit(maxInboundBytes)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		log.Printf("[ws] Error setting read deadline for %s: %v", c.id, err)
	}
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("[ws] Unexpected close from %s: %v", c.id, err)
			} else {
				log.Printf("[ws] Client %s disconnected: %v", c.id, err)
			}
			return
		}
		c.dispatch(raw)
	}
}

// dispatch routes one inbound event by its type.
func (c *client) dispatch(raw []byte) {
	var evt inboundEvent
	if err := json.Unmarshal(raw, &evt); err != nil {
		log.Printf("[ws] Invalid event from %s: %v", c.id, err)
		return
	}

	switch evt.Type {
	case "chat":
		if _, err := c.handler.Chat.Send(evt.Sender, evt.Text); err != nil {
			var ve *chat.ValidationError
			if errors.As(err, &ve) {
				// 検証エラーは送信元クライアントだけに返す
				c.reply(model.ErrorEvent{Type: model.EventError, Error: ve.Error()})
				return
			}
			log.Printf("[ws] ❌ Failed to handle chat event from %s: %v", c.id, err)
		}
	case "typing":
		c.handler.Chat.Typing(evt.Username)
	default:
		log.Printf("[ws] Unknown event type %q from %s", evt.Type, c.id)
	}
}

// reply queues a payload addressed only to this client. Dropped when the
// direct buffer is full.
func (c *client) reply(v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("[ws] ❌ Failed to encode reply for %s: %v", c.id, err)
		return
	}
	select {
	case c.direct <- payload:
	default:
		log.Printf("[ws] ⚠️  Dropped reply to %s: buffer full", c.id)
	}
}

// writePump forwards subscribed broadcasts and direct replies to the
// connection, and keeps it alive with pings. It exits when the subscriber
// channel is closed or a write fails.
func (c *client) writePump(sub *hub.Subscriber) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case payload, ok := <-sub.C:
			if !ok {
				c.conn.SetWriteDeadline(time.Now().Add(writeWait))
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if !c.write(payload) {
				return
			}
		case payload := <-c.direct:
			if !c.write(payload) {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (c *client) write(payload []byte) bool {
	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
		log.Printf("[ws] Write error to %s: %v", c.id, err)
		return false
	}
	return true
}
