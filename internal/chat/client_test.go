package chat

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ReadPumpFeedsManager(t *testing.T) {
	h := newHarness(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.m.Start(ctx)

	conn := &scriptedConn{
		frames: [][]byte{
			[]byte(`not json`),
			[]byte(`{"event":"join_server","data":{"username":"alice"}}`),
		},
		release: make(chan struct{}),
	}
	c := NewClient("c1", conn, 16)
	h.m.Register(c)
	require.Eventually(t, func() bool { return h.m.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	pumpDone := make(chan struct{})
	go func() {
		c.ReadPump(h.m)
		close(pumpDone)
	}()

	require.Eventually(t, func() bool { return len(h.m.ActiveUsers()) == 1 }, time.Second, 5*time.Millisecond)

	frames := drain(c)
	assert.Len(t, only(frames, EventConnected), 1)
	assert.Len(t, notices(t, frames), 1)

	close(conn.release)
	<-pumpDone
	require.Eventually(t, func() bool {
		return h.m.ConnectionCount() == 0 && len(h.m.ActiveUsers()) == 0
	}, time.Second, 5*time.Millisecond)
}

func TestClient_WritePumpDrainsAndCloses(t *testing.T) {
	conn := &scriptedConn{release: make(chan struct{})}
	c := NewClient("c1", conn, 4)

	c.Send <- []byte("one")
	c.Send <- []byte("two")
	close(c.Send)
	c.WritePump()

	assert.Equal(t, [][]byte{[]byte("one"), []byte("two")}, conn.written)
	assert.True(t, conn.closed)
}
