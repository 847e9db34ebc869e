package ws

import (
	"context"
	"log/slog"
	"sync"
)

// Hub maintains the set of active clients and routes their messages.
// All callbacks run on the hub goroutine.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Incoming   chan *ClientMessage
	done       chan struct{}
	mu         sync.RWMutex

	// OnConnect is called after a client is registered.
	OnConnect func(client *Client)
	// OnMessage is called for each incoming client message.
	OnMessage func(cm *ClientMessage)
	// OnDisconnect is called before a client's send channel is closed.
	OnDisconnect func(client *Client)
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Incoming:   make(chan *ClientMessage, 256),
		done:       make(chan struct{}),
	}
}

// Done is closed once Run has returned.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Run starts the hub's main loop and returns when ctx is cancelled, after
// disconnecting every client.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.disconnectAll()
			return

		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.mu.Unlock()
			slog.Info("client connected", "client", client.ID)
			if h.OnConnect != nil {
				h.OnConnect(client)
			}

		case client := <-h.Unregister:
			h.disconnect(client)

		case cm := <-h.Incoming:
			if h.OnMessage != nil {
				h.OnMessage(cm)
			}
		}
	}
}

func (h *Hub) disconnect(client *Client) {
	h.mu.Lock()
	_, ok := h.Clients[client]
	delete(h.Clients, client)
	h.mu.Unlock()
	if !ok {
		return
	}

	if h.OnDisconnect != nil {
		h.OnDisconnect(client)
	}
	client.Close()
	slog.Info("client disconnected", "client", client.ID)
}

func (h *Hub) disconnectAll() {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.Clients))
	for c := range h.Clients {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		h.disconnect(c)
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.Clients)
}
