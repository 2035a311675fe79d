package ws

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Hub fans events out to websocket clients. Clients subscribe to one
// session; subscribers of the empty session receive every event.
type Hub struct {
	clients    map[*Client]bool
	sessions   map[string]map[*Client]bool
	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		sessions:   make(map[string]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// disconnects every client.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			h.stopOnce.Do(func() { close(h.done) })
			return nil
		case client := <-h.register:
			h.addClient(client)
		case client := <-h.unregister:
			h.removeClient(client)
		case event := <-h.broadcast:
			h.deliver(event)
		}
	}
}

// join hands a client to Run. It reports false once the hub has stopped.
func (h *Hub) join(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// leave hands a client back to Run; after shutdown there is nothing to do.
func (h *Hub) leave(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

func (h *Hub) addClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = true

	if h.sessions[client.sessionID] == nil {
		h.sessions[client.sessionID] = make(map[*Client]bool)
	}
	h.sessions[client.sessionID][client] = true
}

func (h *Hub) removeClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.dropLocked(client)
}

// dropLocked must be called with mu held for writing.
func (h *Hub) dropLocked(client *Client) {
	if _, ok := h.clients[client]; !ok {
		return
	}

	delete(h.clients, client)
	delete(h.sessions[client.sessionID], client)

	if len(h.sessions[client.sessionID]) == 0 {
		delete(h.sessions, client.sessionID)
	}

	close(client.send)
}

func (h *Hub) deliver(event Event) {
	message, err := json.Marshal(event)
	if err != nil {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	targets := make([]*Client, 0)
	for client := range h.sessions[""] {
		targets = append(targets, client)
	}
	if event.SessionID != "" {
		for client := range h.sessions[event.SessionID] {
			targets = append(targets, client)
		}
	}

	for _, client := range targets {
		select {
		case client.send <- message:
		default:
			// slow consumer
			h.dropLocked(client)
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		h.dropLocked(client)
	}
}

// Broadcast queues an event without blocking; it is dropped when the queue
// is full.
func (h *Hub) Broadcast(sessionID string, eventType EventType, data interface{}) {
	event := Event{
		SessionID: sessionID,
		Type:      eventType,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
	}
}

// ConnectedClients counts subscribers of sessionID; the empty session
// counts every client.
func (h *Hub) ConnectedClients(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if sessionID == "" {
		return len(h.clients)
	}
	return len(h.sessions[sessionID])
}
