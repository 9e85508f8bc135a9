package ws

import (
	"encoding/json"
	"sync"

	"ptc_mining/internal/domain"
	"ptc_mining/internal/logger"
)

// Hub fans persisted notifications out to every live connection a user has.
// A user can be connected from several devices at once; each gets the push.
type Hub struct {
	mu      sync.RWMutex
	clients map[int64]map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[int64]map[*Client]bool),
	}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.clients[c.UserID] == nil {
		h.clients[c.UserID] = make(map[*Client]bool)
	}
	h.clients[c.UserID][c] = true
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.clients[c.UserID]; ok {
		delete(conns, c)
		if len(conns) == 0 {
			delete(h.clients, c.UserID)
		}
	}
}

type pushEnvelope struct {
	Type         string              `json:"type"`
	Notification domain.Notification `json:"notification"`
}

// Push delivers a notification to the user's live connections. Best-effort:
// a connection with a full send buffer is skipped, it will catch up from
// the notifications endpoint.
func (h *Hub) Push(userID int64, n domain.Notification) {
	msg, err := json.Marshal(pushEnvelope{Type: "notification", Notification: n})
	if err != nil {
		logger.Error("failed to marshal notification push", "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients[userID] {
		select {
		case c.Send <- msg:
		default:
			logger.Warn("dropping push, client send buffer full",
				"user_id", userID, "client_id", c.ID)
		}
	}
}

// Connected returns the number of live connections for a user.
func (h *Hub) Connected(userID int64) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}
