package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/savoryhq/savory-backend/pkg/logger"
)

// ActivityEvent is one entry of the live activity feed
type ActivityEvent struct {
	Type      string      `json:"type"` // store_created, review_posted
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// Hub fans activity events out to every connected feed subscriber
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		broadcast:  make(chan []byte, 1024),
	}
}

// Run owns the client set; call it once from a goroutine
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			logger.Info("Feed subscriber connected", map[string]interface{}{
				"user_id": client.UserID,
			})

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mu.Unlock()
			logger.Info("Feed subscriber disconnected", map[string]interface{}{
				"user_id": client.UserID,
			})

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					// Send buffer full, drop the slow client
					go h.Unregister(client)
					logger.Warn("Feed subscriber send buffer full, disconnecting", map[string]interface{}{
						"user_id": client.UserID,
					})
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues an activity event for every subscriber. Events are
// dropped when the broadcast buffer is full; the feed is best effort.
func (h *Hub) Publish(event string, payload interface{}) {
	data, err := json.Marshal(ActivityEvent{
		Type:      event,
		Payload:   payload,
		Timestamp: time.Now(),
	})
	if err != nil {
		logger.Error("Failed to marshal activity event", err, nil)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		logger.Warn("Feed broadcast channel full, event dropped", map[string]interface{}{
			"event": event,
		})
	}
}

// Register adds a subscriber
func (h *Hub) Register(client *Client) {
	h.register <- client
}

// Unregister removes a subscriber
func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// SubscriberCount reports the number of connected subscribers
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
