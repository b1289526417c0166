package game

import (
	"sync"

	"github.com/rs/zerolog/log"
)

// Hub indexes live connections by id and delivers frames to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.id] = c
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Str("module", "game.hub").Str("conn", c.id).Int("clients", n).Msg("client registered")
}

// Unregister drops c only if it is still the client registered under its id.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if h.clients[c.id] == c {
		delete(h.clients, c.id)
	}
	n := len(h.clients)
	h.mu.Unlock()
	log.Debug().Str("module", "game.hub").Str("conn", c.id).Int("clients", n).Msg("client unregistered")
}

func (h *Hub) SendTo(connIDs []string, frame []byte, volatile bool) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(connIDs))
	for _, id := range connIDs {
		if c, ok := h.clients[id]; ok {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(frame, volatile)
	}
}

func (h *Hub) SendAll(frame []byte) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.trySend(frame, false)
	}
}

func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// CloseAll closes every client's outbound queue, which ends its pumps.
func (h *Hub) CloseAll() {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.Close()
	}
}
