package live

import (
	"sync"

	"github.com/rs/zerolog"

	"arzweb/internal/pkg/logx"
)

// Hub tracks the live connections of every session.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
	closed  bool

	logger zerolog.Logger
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
		logger:  logx.Component("LiveHub"),
	}
}

// Register adds c. It reports false once the hub is shut down.
func (h *Hub) Register(c *Client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return false
	}

	set, ok := h.clients[c.sessionID]
	if !ok {
		set = make(map[*Client]struct{})
		h.clients[c.sessionID] = set
	}
	set[c] = struct{}{}

	h.logger.Debug().Str("session_id", c.sessionID).Int("connections", len(set)).Msg("Live client registered.")
	return true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	set, ok := h.clients[c.sessionID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.sessionID)
	}
}

// Kick closes every connection of a session, used on sign-out.
func (h *Hub) Kick(sessionID, reason string) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients[sessionID]))
	for c := range h.clients[sessionID] {
		clients = append(clients, c)
	}
	h.mu.RUnlock()

	for _, c := range clients {
		c.Kick(reason)
	}
	if len(clients) > 0 {
		h.logger.Info().Str("session_id", sessionID).Int("connections", len(clients)).Msg("Live clients kicked.")
	}
}

// Len returns the number of open connections.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()

	n := 0
	for _, set := range h.clients {
		n += len(set)
	}
	return n
}

// Shutdown closes all connections and refuses new ones.
func (h *Hub) Shutdown() {
	h.logger.Info().Msg("Shutting down live hub...")

	h.mu.Lock()
	h.closed = true
	var clients []*Client
	for _, set := range h.clients {
		for c := range set {
			clients = append(clients, c)
		}
	}
	h.mu.Unlock()

	for _, c := range clients {
		c.Close()
	}

	h.logger.Info().Int("closed", len(clients)).Msg("Live hub shutdown complete.")
}
