package ws

import "github.com/mmuslimabdulj/gelly-pet/internal/domain"

// Register adds a client to the hub. After the hub stops the client's
// queue is closed instead so its WritePump exits.
func (h *Hub) Register(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
		c.closeSend()
	}
}

// Unregister removes a client from the hub
func (h *Hub) Unregister(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Publish queues a persisted state for delivery to viewers
func (h *Hub) Publish(state domain.PetState) {
	select {
	case h.publish <- state.Clone():
	case <-h.done:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// UserConnectionCount returns how many connections a user has open
func (h *Hub) UserConnectionCount(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.byUser[userID])
}
