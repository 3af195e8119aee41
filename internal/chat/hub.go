package chat

import "sync"

// Hub owns the outbound queues of all connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) Attach(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c.Id] = c
}

// Detach forgets the client and closes its outbound queue.
func (h *Hub) Detach(id string) (*Client, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	c, ok := h.clients[id]
	if !ok {
		return nil, false
	}
	delete(h.clients, id)
	close(c.Send)
	return c, true
}

func (h *Hub) Get(id string) (*Client, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	c, ok := h.clients[id]
	return c, ok
}

func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// SendTo queues data for each listed connection. A full queue drops the
// frame for that connection only.
func (h *Hub) SendTo(ids []string, data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, id := range ids {
		if c, ok := h.clients[id]; ok {
			select {
			case c.Send <- data:
			default:
			}
		}
	}
}

func (h *Hub) SendAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, c := range h.clients {
		select {
		case c.Send <- data:
		default:
		}
	}
}

// CloseAll detaches every client.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for id, c := range h.clients {
		close(c.Send)
		delete(h.clients, id)
	}
}
