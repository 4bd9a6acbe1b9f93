// Package realtime pushes medication events to connected WebSocket clients.
// It implements a hub-and-spoke pattern where each authenticated client is
// subscribed to its per-user topic and receives events published there.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"
)

// Event represents a real-time notification sent to WebSocket clients.
type Event struct {
	Type      string          `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// NewEvent builds an Event of the given type carrying the marshaled payload.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal event payload: %w", err)
	}
	return Event{Type: eventType, Timestamp: time.Now().UTC(), Data: data}, nil
}

// UserTopic returns the topic a user's clients are subscribed to.
func UserTopic(userID int64) string {
	return fmt.Sprintf("user_%d", userID)
}

// Publisher defines the interface for publishing events to a topic's
// subscribers.
type Publisher interface {
	Publish(ctx context.Context, topic string, event Event) error
}

// Client represents a single WebSocket connection. A client carries no topics
// until it authenticates.
type Client struct {
	ID     string
	Topics []string
	Send   chan []byte
}

// Hub is the central connection manager that tracks clients and their topic
// subscriptions. All operations are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{} // topic -> set of clients
	all     map[*Client]struct{}
}

// NewHub creates a new Hub ready to manage WebSocket clients.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		all:     make(map[*Client]struct{}),
	}
}

// Register adds a client to the hub and subscribes it to its initial topics.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.all[client] = struct{}{}

	for _, topic := range client.Topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
}

// Unregister removes a client from the hub, all topic subscriptions, and
// closes the client's Send channel.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.all[client]; !ok {
		return
	}

	for _, topic := range client.Topics {
		if subscribers, ok := h.clients[topic]; ok {
			delete(subscribers, client)
			if len(subscribers) == 0 {
				delete(h.clients, topic)
			}
		}
	}

	delete(h.all, client)
	close(client.Send)
}

// Subscribe adds topics to an already-registered client.
func (h *Hub) Subscribe(client *Client, topics ...string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, topic := range topics {
		if h.clients[topic] == nil {
			h.clients[topic] = make(map[*Client]struct{})
		}
		h.clients[topic][client] = struct{}{}
	}
	client.Topics = append(client.Topics, topics...)
}

// Broadcast sends an event to all clients subscribed to the given topic.
// Clients whose send buffer is full are skipped.
func (h *Hub) Broadcast(topic string, event Event) {
	data, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	subscribers, ok := h.clients[topic]
	if !ok {
		return
	}

	for client := range subscribers {
		select {
		case client.Send <- data:
		default:
		}
	}
}

// Publish implements the Publisher interface by broadcasting the event to the
// topic's subscribers.
func (h *Hub) Publish(_ context.Context, topic string, event Event) error {
	h.Broadcast(topic, event)
	return nil
}

// ClientCount returns the total number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.all)
}

// TopicCount returns the number of clients subscribed to a specific topic.
func (h *Hub) TopicCount(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[topic])
}
