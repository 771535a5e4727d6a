package hub

import (
	"sync"

	"github.com/rs/zerolog"
)

// Hub is the registry of open WebSocket clients.
type Hub struct {
	clients map[string]*Client
	mu      sync.RWMutex
	logger  zerolog.Logger
}

// New creates a new Hub instance.
func New(logger zerolog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		logger:  logger.With().Str("component", "hub").Logger(),
	}
}

// Register adds a client to the registry.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID] = c
	h.mu.Unlock()

	h.logger.Info().Str("client_id", c.ID).Msg("client registered")
}

// Unregister removes a client. It reports whether the client was present;
// removing an unknown client is a no-op.
func (h *Hub) Unregister(c *Client) bool {
	h.mu.Lock()
	if cur, ok := h.clients[c.ID]; !ok || cur != c {
		h.mu.Unlock()
		return false
	}
	delete(h.clients, c.ID)
	h.mu.Unlock()

	h.logger.Info().Str("client_id", c.ID).Msg("client unregistered")
	return true
}

// All returns a snapshot of the registered clients.
func (h *Hub) All() []*Client {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		out = append(out, c)
	}
	return out
}

// CloseAll closes every registered connection. The connection loops
// unregister themselves as they exit.
func (h *Hub) CloseAll() {
	for _, c := range h.All() {
		_ = c.Close()
	}
}
