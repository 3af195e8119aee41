package chat

import (
	"context"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pelusa-v/pelusa-chat/internal/store"
)

type recordingStore struct {
	mu  sync.Mutex
	ops []string
}

func (r *recordingStore) record(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recordingStore) Insert(_ context.Context, msg *store.Message) error {
	r.record("insert " + msg.MessageID)
	return nil
}

func (r *recordingStore) Find(_ context.Context, id string) (*store.Message, error) {
	r.record("find " + id)
	return nil, store.ErrNotFound
}

func (r *recordingStore) Delete(_ context.Context, id string) error {
	r.record("delete " + id)
	return nil
}

func TestHistoryWriter_AppliesInSubmissionOrder(t *testing.T) {
	rec := &recordingStore{}
	w := newHistoryWriter(rec, 4, zerolog.Nop())
	defer w.Close()

	w.insert(&store.Message{MessageID: "m1"})
	w.enqueue(func(ctx context.Context) { _ = rec.Delete(ctx, "m1") })
	w.insert(&store.Message{MessageID: "m2"})
	require.NoError(t, w.Sync(context.Background()))

	assert.Equal(t, []string{"insert m1", "delete m1", "insert m2"}, rec.ops)
}

func TestHistoryWriter_CloseDrainsQueue(t *testing.T) {
	rec := &recordingStore{}
	w := newHistoryWriter(rec, 16, zerolog.Nop())

	for _, id := range []string{"a", "b", "c"} {
		w.insert(&store.Message{MessageID: id})
	}
	w.Close()

	assert.Len(t, rec.ops, 3)
	assert.False(t, w.enqueue(func(context.Context) {}))
	assert.NoError(t, w.Sync(context.Background()))
	w.Close()
}

func TestHistoryWriter_SyncHonoursContext(t *testing.T) {
	w := newHistoryWriter(&recordingStore{}, 4, zerolog.Nop())
	defer w.Close()

	block := make(chan struct{})
	w.enqueue(func(context.Context) { <-block })
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, w.Sync(ctx), context.Canceled)
}
