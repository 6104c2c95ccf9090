// Package hub provides best-effort in-process fan-out of payloads to topic
// subscribers. It makes no guarantees regarding delivery, durability, or
// retries; per subscriber, publishes on one topic arrive in publish order.
package hub

import (
	"log"
	"sync"
)

// Topic names shared by publishers and the WebSocket transport.
const (
	TopicMessages    = "messages"
	TopicOnlineUsers = "onlineUsers"
	TopicTyping      = "typing"
)

// subscriberBuffer bounds how far a slow subscriber may lag before publishes
// to it are dropped.
const subscriberBuffer = 100

// Subscriber receives payloads for every topic it was subscribed to on C.
// C is closed by Unsubscribe.
type Subscriber struct {
	C chan []byte
}

// Hub is a topic-keyed broadcast fan-out. Safe for concurrent use.
type Hub struct {
	mu   sync.RWMutex
	subs map[string]map[*Subscriber]bool
}

// New creates an empty hub.
func New() *Hub {
	return &Hub{subs: make(map[string]map[*Subscriber]bool)}
}

// Subscribe registers a new subscriber on the given topics and returns it.
func (h *Hub) Subscribe(topics ...string) *Subscriber {
	sub := &Subscriber{C: make(chan []byte, subscriberBuffer)}

	h.mu.Lock()
	defer h.mu.Unlock()
	for _, topic := range topics {
		set := h.subs[topic]
		if set == nil {
			set = make(map[*Subscriber]bool)
			h.subs[topic] = set
		}
		set[sub] = true
	}
	return sub
}

// Unsubscribe removes the subscriber from every topic and closes its channel.
// Unsubscribing twice is a no-op.
func (h *Hub) Unsubscribe(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	found := false
	for topic, set := range h.subs {
		if set[sub] {
			found = true
			delete(set, sub)
			if len(set) == 0 {
				delete(h.subs, topic)
			}
		}
	}
	if found {
		close(sub.C)
	}
}

// Publish delivers payload to every subscriber currently on topic. Delivery is
// a non-blocking attempt per subscriber; when a subscriber's buffer is full
// the payload is dropped for that subscriber only, so one stalled subscriber
// never blocks the publisher or its peers.
func (h *Hub) Publish(topic string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for sub := range h.subs[topic] {
		select {
		case sub.C <- payload:
		default:
			log.Printf("[hub] ⚠️  Dropped payload on topic %q: subscriber buffer full", topic)
		}
	}
}

// SubscriberCount returns how many subscribers are currently on topic.
func (h *Hub) SubscriberCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[topic])
}
