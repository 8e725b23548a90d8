package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/broadcast"
)

// Hub maintains active dispatch websocket connections and fans events
// out to all of them. There is a single shared channel: every connected
// client receives every event.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}

	register   chan *Client
	unregister chan *Client
	events     chan []byte
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		events:     make(chan []byte, 256),
	}
}

// Run starts the hub's main loop. It returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			h.mu.Unlock()
			log.Printf("websocket: client connected, %d total", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()

		case data := <-h.events:
			h.fanOut(data)
		}
	}
}

// Publish fans the event out to all connected clients. It never blocks
// on a slow client and never surfaces a failure.
func (h *Hub) Publish(ctx context.Context, ev broadcast.Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		log.Printf("websocket: marshal %s event failed: %v", ev.Type, err)
		return
	}
	select {
	case h.events <- data:
	default:
		log.Printf("websocket: event queue full, dropping %s event", ev.Type)
	}
}

var _ broadcast.Publisher = (*Hub)(nil)

// SubscribePubSub relays raw event payloads from a Redis pub/sub channel
// into the hub until ctx is cancelled. With every instance subscribed to
// the same channel, events published by any instance reach the clients
// of all of them.
func (h *Hub) SubscribePubSub(ctx context.Context, client *redis.Client, channel string) {
	pubsub := client.Subscribe(ctx, channel)
	defer pubsub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-pubsub.Channel():
			if !ok {
				return
			}
			h.fanOut([]byte(msg.Payload))
		}
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// fanOut delivers data to every client, dropping clients whose send
// buffer is full.
func (h *Hub) fanOut(data []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.send <- data:
		default:
			delete(h.clients, client)
			close(client.send)
			log.Printf("websocket: client buffer full, disconnecting")
		}
	}
}
