package ws

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"
)

// Client represents a single WebSocket connection of one user.
type Client struct {
	Email  string
	Send   chan []byte
	Hub    *Hub
	mu     sync.Mutex
	closed bool
}

func (c *Client) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	if c.Hub != nil {
		c.Hub.unregister(c)
	}
	close(c.Send)
}

// Event is the envelope pushed to clients.
type Event struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// Hub maintains the set of active clients, indexed by email.
type Hub struct {
	mu      sync.RWMutex
	byEmail map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{byEmail: make(map[string]map[*Client]struct{})}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c.Hub = h
	if h.byEmail[c.Email] == nil {
		h.byEmail[c.Email] = make(map[*Client]struct{})
	}
	h.byEmail[c.Email][c] = struct{}{}
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if m := h.byEmail[c.Email]; m != nil {
		delete(m, c)
		if len(m) == 0 {
			delete(h.byEmail, c.Email)
		}
	}
}

// NotifyUser sends an event to every connection of email. Slow clients drop the event.
func (h *Hub) NotifyUser(email, event string, data interface{}) {
	payload, err := json.Marshal(Event{Type: event, Data: data})
	if err != nil {
		log.Warnf("[ws] marshal %s: %v", event, err)
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.byEmail[email] {
		select {
		case c.Send <- payload:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.byEmail {
		n += len(m)
	}
	return n
}
