package chat

import (
	"encoding/json"
	"io"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/pelusa-v/pelusa-chat/internal/store"
)

// idleConn never delivers input.
type idleConn struct{}

func (idleConn) ReadMessage() (int, []byte, error) { return 0, nil, io.EOF }
func (idleConn) WriteMessage(int, []byte) error    { return nil }
func (idleConn) Close() error                      { return nil }

// scriptedConn replays frames, then blocks until release is closed.
type scriptedConn struct {
	mu      sync.Mutex
	frames  [][]byte
	release chan struct{}
	written [][]byte
	closed  bool
}

func (s *scriptedConn) ReadMessage() (int, []byte, error) {
	s.mu.Lock()
	if len(s.frames) > 0 {
		f := s.frames[0]
		s.frames = s.frames[1:]
		s.mu.Unlock()
		return 1, f, nil
	}
	s.mu.Unlock()
	<-s.release
	return 0, nil, io.EOF
}

func (s *scriptedConn) WriteMessage(_ int, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.written = append(s.written, data)
	return nil
}

func (s *scriptedConn) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

type harness struct {
	t        *testing.T
	m        *ChatManager
	history  *store.History
	rooms    *store.Rooms
	profiles *store.Profiles
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	db, err := store.Open(":memory:")
	require.NoError(t, err)

	h := &harness{
		t:        t,
		history:  store.NewHistory(db),
		rooms:    store.NewRooms(db),
		profiles: store.NewProfiles(db),
	}
	h.m = NewManager(Options{
		History:   h.history,
		Directory: h.rooms,
		Profiles:  h.profiles,
		Logger:    zerolog.Nop(),
	})
	t.Cleanup(func() {
		h.m.Stop()
		_ = store.Close(db)
	})
	return h
}

// connect registers a client and discards its connected frame.
func (h *harness) connect(id string) *Client {
	c := NewClient(id, idleConn{}, 256)
	h.m.register(c)
	drain(c)
	return c
}

// login connects and joins the server under name.
func (h *harness) login(id, name, role string) *Client {
	c := h.connect(id)
	h.send(c, EventJoinServer, Identity{Username: name, Email: name + "@example.com", Role: role})
	return c
}

func (h *harness) send(c *Client, event Event, payload any) {
	h.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(h.t, err)
	h.m.handle(c, Envelope{Event: event, Data: data})
}

func (h *harness) sync() {
	h.t.Helper()
	require.NoError(h.t, h.m.SyncHistory(h.m.ctx))
}

// drain returns every frame queued for c without blocking.
func drain(c *Client) []Envelope {
	var out []Envelope
	for {
		select {
		case data, ok := <-c.Send:
			if !ok {
				return out
			}
			var env Envelope
			if err := json.Unmarshal(data, &env); err == nil {
				out = append(out, env)
			}
		default:
			return out
		}
	}
}

func only(frames []Envelope, event Event) []Envelope {
	var out []Envelope
	for _, f := range frames {
		if f.Event == event {
			out = append(out, f)
		}
	}
	return out
}

func decode[T any](t *testing.T, env Envelope) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(env.Data, &v))
	return v
}

func notices(t *testing.T, frames []Envelope) []SystemMessage {
	t.Helper()
	var out []SystemMessage
	for _, f := range only(frames, EventSystemMessage) {
		out = append(out, decode[SystemMessage](t, f))
	}
	return out
}
