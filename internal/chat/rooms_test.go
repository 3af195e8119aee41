package chat

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
)

func TestRooms_Membership(t *testing.T) {
	r := NewRooms(NewHub(), zerolog.Nop())

	assert.True(t, r.Attach("c1", "Global"))
	assert.False(t, r.Attach("c1", "Global"))
	r.Attach("c2", "Global")
	r.Attach("c1", "PM: a & b")

	assert.Equal(t, []string{"c1", "c2"}, r.Members("Global"))
	assert.True(t, r.IsMember("c1", "PM: a & b"))

	assert.True(t, r.Detach("c2", "Global"))
	assert.False(t, r.Detach("c2", "Global"))
	assert.Equal(t, []string{"c1"}, r.Members("Global"))

	assert.Equal(t, []string{"Global", "PM: a & b"}, r.DetachAll("c1"))
	assert.Empty(t, r.Members("Global"))
	assert.Empty(t, r.DetachAll("c1"))
}

func TestRooms_BroadcastReachesOnlyMembers(t *testing.T) {
	hub := NewHub()
	r := NewRooms(hub, zerolog.Nop())
	in := NewClient("in", idleConn{}, 4)
	out := NewClient("out", idleConn{}, 4)
	hub.Attach(in)
	hub.Attach(out)
	r.Attach("in", "Global")

	r.Broadcast("Global", EventMessageDeleted, "m1")

	assert.Len(t, drain(in), 1)
	assert.Empty(t, drain(out))
}

func TestHub_FullQueueDropsFrame(t *testing.T) {
	hub := NewHub()
	c := NewClient("c", idleConn{}, 1)
	hub.Attach(c)

	hub.SendTo([]string{"c"}, []byte(`{"event":"kicked"}`))
	hub.SendTo([]string{"c"}, []byte(`{"event":"kicked"}`))

	assert.Len(t, drain(c), 1)
}

func TestHub_DetachClosesQueue(t *testing.T) {
	hub := NewHub()
	c := NewClient("c", idleConn{}, 1)
	hub.Attach(c)

	_, ok := hub.Detach("c")
	assert.True(t, ok)
	_, open := <-c.Send
	assert.False(t, open)

	_, ok = hub.Detach("c")
	assert.False(t, ok)
	hub.SendAll([]byte("x"))
}
