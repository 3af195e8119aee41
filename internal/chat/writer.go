package chat

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/pelusa-v/pelusa-chat/internal/metrics"
	"github.com/pelusa-v/pelusa-chat/internal/store"
)

// HistoryStore is the persistent message log.
type HistoryStore interface {
	Insert(ctx context.Context, msg *store.Message) error
	Find(ctx context.Context, id string) (*store.Message, error)
	Delete(ctx context.Context, id string) error
}

// historyWriter applies history operations one at a time in submission
// order, so a delete always observes the insert queued before it. Callers
// never wait for an operation to finish.
type historyWriter struct {
	store  HistoryStore
	jobs   chan func(context.Context)
	done   chan struct{}
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

func newHistoryWriter(s HistoryStore, queue int, logger zerolog.Logger) *historyWriter {
	w := &historyWriter{
		store:  s,
		jobs:   make(chan func(context.Context), queue),
		done:   make(chan struct{}),
		logger: logger,
	}
	go w.run()
	return w
}

func (w *historyWriter) run() {
	defer close(w.done)
	ctx := context.Background()
	for job := range w.jobs {
		job(ctx)
	}
}

// enqueue blocks only while the queue is full.
func (w *historyWriter) enqueue(job func(context.Context)) bool {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.closed {
		return false
	}
	w.jobs <- job
	return true
}

// insert persists msg. Failures are logged and counted, never reported.
func (w *historyWriter) insert(msg *store.Message) {
	w.enqueue(func(ctx context.Context) {
		start := time.Now()
		err := w.store.Insert(ctx, msg)
		metrics.StoreLatency.Observe(time.Since(start).Seconds())
		if err != nil {
			metrics.PersistenceFailures.WithLabelValues("insert").Inc()
			w.logger.Error().Err(err).
				Str("message_id", msg.MessageID).
				Str("room", msg.Room).
				Msg("failed to persist message")
		}
	})
}

// Sync waits until every operation queued before it has been applied.
func (w *historyWriter) Sync(ctx context.Context) error {
	reached := make(chan struct{})
	if !w.enqueue(func(context.Context) { close(reached) }) {
		return nil
	}
	select {
	case <-reached:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close stops accepting work and waits for the queue to drain.
func (w *historyWriter) Close() {
	w.mu.Lock()
	if !w.closed {
		w.closed = true
		close(w.jobs)
	}
	w.mu.Unlock()
	<-w.done
}
