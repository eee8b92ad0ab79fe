package websocket

import (
	"log"
	"sync"
)

// Hub tracks the live viewer connections currently open, for lifecycle
// logging and shutdown accounting. Sessions pull their own data; the
// hub never routes messages between clients.
type Hub struct {
	// Registered clients map: connection ID -> Client
	clients map[string]*Client

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("👁  Viewer connected: %s (reader %s)", client.ID, client.ReaderID)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("👋 Viewer disconnected: %s (reader %s)", client.ID, client.ReaderID)
			}
			h.mu.Unlock()
		}
	}
}

// Count returns the number of connected viewers
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
