package websocket

import (
	"context"
	"sync/atomic"

	"github.com/rs/zerolog/log"
)

type envelope struct {
	userID  int64
	client  *Client
	message []byte
}

// Hub maintains the set of active clients per user and routes messages to
// them. All client bookkeeping happens on the Run goroutine.
type Hub struct {
	// Registered clients, grouped by owning user.
	users map[int64]map[*Client]bool

	register   chan *Client
	unregister chan *Client
	closeUser  chan int64
	publish    chan envelope
	done       chan struct{}

	connections atomic.Int64
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		users:      make(map[int64]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		closeUser:  make(chan int64),
		publish:    make(chan envelope),
		done:       make(chan struct{}),
	}
}

// Run starts the Hub's message processing loop. It returns when ctx is
// cancelled, closing every client's Send channel on the way out.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		for _, clients := range h.users {
			for client := range clients {
				close(client.Send)
			}
		}
		h.connections.Store(0)
		h.users = make(map[int64]map[*Client]bool)
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case client := <-h.register:
			if h.users[client.UserID] == nil {
				h.users[client.UserID] = make(map[*Client]bool)
			}
			h.users[client.UserID][client] = true
			h.connections.Add(1)
			log.Info().Int64("user_id", client.UserID).Int("user_clients", len(h.users[client.UserID])).Msg("Client connected")
		case client := <-h.unregister:
			if h.remove(client) {
				log.Info().Int64("user_id", client.UserID).Msg("Client disconnected")
			}
		case userID := <-h.closeUser:
			closed := 0
			for client := range h.users[userID] {
				if h.remove(client) {
					closed++
				}
			}
			if closed > 0 {
				log.Info().Int64("user_id", userID).Int("clients", closed).Msg("Closed feeds of user")
			}
		case env := <-h.publish:
			if env.client != nil {
				if h.users[env.client.UserID][env.client] {
					h.deliver(env.client, env.message)
				}
				continue
			}
			for client := range h.users[env.userID] {
				h.deliver(client, env.message)
			}
		}
	}
}

// Register adds client to the hub. It reports false if the hub has stopped.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

// Unregister removes client and closes its Send channel. Unregistering a
// client twice is a no-op.
func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// CloseUser disconnects every connection of userID. Their Send channels are
// closed, which makes WritePump send a close frame.
func (h *Hub) CloseUser(userID int64) {
	select {
	case h.closeUser <- userID:
	case <-h.done:
	}
}

// Publish sends an event to every connection of userID. It never reaches
// another user's connections.
func (h *Hub) Publish(userID int64, action string, payload interface{}) {
	message := NewMessage(action, payload)
	if message == nil {
		return
	}
	select {
	case h.publish <- envelope{userID: userID, message: message}:
	case <-h.done:
	}
}

// Connections returns the number of registered clients across all users.
func (h *Hub) Connections() int64 {
	return h.connections.Load()
}

func (h *Hub) direct(client *Client, message []byte) {
	select {
	case h.publish <- envelope{client: client, message: message}:
	case <-h.done:
	}
}

// deliver drops clients that can not keep up.
func (h *Hub) deliver(client *Client, message []byte) {
	select {
	case client.Send <- message:
	default:
		log.Warn().Int64("user_id", client.UserID).Msg("Dropping slow websocket client")
		h.remove(client)
	}
}

func (h *Hub) remove(client *Client) bool {
	clients, ok := h.users[client.UserID]
	if !ok || !clients[client] {
		return false
	}
	delete(clients, client)
	if len(clients) == 0 {
		delete(h.users, client.UserID)
	}
	close(client.Send)
	h.connections.Add(-1)
	return true
}
