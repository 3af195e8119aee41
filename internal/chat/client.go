package chat

import (
	"encoding/json"
	"sync/atomic"

	"github.com/gofiber/contrib/websocket"
)

type Client struct {
	Id   string
	Conn ConnLike
	Send chan []byte

	kicked atomic.Bool
}

type ConnLike interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(int, []byte) error
	Close() error
}

func NewClient(id string, conn ConnLike, buffer int) *Client {
	return &Client{Id: id, Conn: conn, Send: make(chan []byte, buffer)}
}

// Kicked reports whether an elevated user removed this connection. Input
// from a kicked client is ignored.
func (c *Client) Kicked() bool {
	return c.kicked.Load()
}

// ReadPump decodes frames and hands them to the manager until the
// connection fails, then unregisters the client.
func (c *Client) ReadPump(m *ChatManager) {
	for {
		_, data, err := c.Conn.ReadMessage()
		if err != nil {
			m.Unregister(c)
			return
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			m.notify(c.Id, invalid("undecodable frame").notice())
			continue
		}
		m.Submit(c, env)
	}
}

// WritePump drains the outbound queue until the hub closes it.
func (c *Client) WritePump() {
	for data := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, data); err != nil {
			// keep draining so senders never see a stuck queue
			continue
		}
	}
	_ = c.Conn.Close()
}
