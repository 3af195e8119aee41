package chat

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"github.com/pelusa-v/pelusa-chat/internal/metrics"
)

// ProfileLookup fetches the authoritative avatar of an account.
type ProfileLookup interface {
	Avatar(ctx context.Context, email string) (string, error)
}

type Options struct {
	History        HistoryStore
	Directory      RoomDirectory
	Profiles       ProfileLookup
	Logger         zerolog.Logger
	MaxMessageSize int
	WriterQueue    int
}

type inbound struct {
	client *Client
	env    Envelope
}

// ChatManager runs the session protocol. All client events pass through a
// single loop; the presence registry and room membership are additionally
// lock-guarded because profile enrichment and history deletes complete on
// other goroutines.
type ChatManager struct {
	hub       *Hub
	presence  *Presence
	rooms     *Rooms
	moderator *Moderator
	writer    *historyWriter
	profiles  ProfileLookup
	logger    zerolog.Logger

	maxMessageSize int

	// message channels
	registerChan   chan *Client
	unregisterChan chan *Client
	inboundChan    chan inbound
	done           chan struct{}
	stopOnce       sync.Once

	ctx      context.Context
	cancel   context.CancelFunc
	enrichMu sync.Mutex // orders enrichG.Add against Stop
	enrichG  sync.WaitGroup
}

func NewManager(opts Options) *ChatManager {
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = 4096
	}
	if opts.WriterQueue <= 0 {
		opts.WriterQueue = 256
	}
	logger := opts.Logger.With().Str("component", "chat").Logger()

	ctx, cancel := context.WithCancel(context.Background())
	hub := NewHub()
	m := &ChatManager{
		hub:            hub,
		rooms:          NewRooms(hub, logger),
		moderator:      NewModerator(opts.Directory),
		writer:         newHistoryWriter(opts.History, opts.WriterQueue, logger),
		profiles:       opts.Profiles,
		logger:         logger,
		maxMessageSize: opts.MaxMessageSize,
		registerChan:   make(chan *Client),
		unregisterChan: make(chan *Client),
		inboundChan:    make(chan inbound, 64),
		done:           make(chan struct{}),
		ctx:            ctx,
		cancel:         cancel,
	}
	m.presence = NewPresence(m.publishPresence)
	return m
}

// Start runs the event loop until ctx is cancelled or Stop is called.
func (m *ChatManager) Start(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			m.Stop()
			return
		case <-m.done:
			return
		case client := <-m.registerChan:
			m.register(client)
		case client := <-m.unregisterChan:
			m.unregister(client)
		case in := <-m.inboundChan:
			m.handle(in.client, in.env)
		}
	}
}

// Stop ends the loop, closes every connection and flushes pending history
// writes.
func (m *ChatManager) Stop() {
	m.stopOnce.Do(func() {
		close(m.done)
		m.enrichMu.Lock()
		m.cancel()
		m.enrichMu.Unlock()
		m.enrichG.Wait()
		m.hub.CloseAll()
		m.writer.Close()
		m.logger.Info().Msg("chat manager stopped")
	})
}

// Register hands a new connection to the loop.
func (m *ChatManager) Register(c *Client) {
	select {
	case m.registerChan <- c:
	case <-m.done:
	}
}

// Unregister hands a closed connection to the loop.
func (m *ChatManager) Unregister(c *Client) {
	select {
	case m.unregisterChan <- c:
	case <-m.done:
	}
}

// Submit queues a client event for the loop.
func (m *ChatManager) Submit(c *Client, env Envelope) {
	select {
	case m.inboundChan <- inbound{client: c, env: env}:
	case <-m.done:
	}
}

// ActiveUsers returns the current presence list.
func (m *ChatManager) ActiveUsers() []SessionView {
	return m.presence.Snapshot()
}

func (m *ChatManager) ConnectionCount() int {
	return m.hub.Len()
}

// SyncHistory waits for queued history operations to be applied.
func (m *ChatManager) SyncHistory(ctx context.Context) error {
	return m.writer.Sync(ctx)
}

func (m *ChatManager) register(c *Client) {
	m.hub.Attach(c)
	metrics.ActiveConnections.Inc()
	m.notifyEvent(c.Id, EventConnected, Connected{ConnectionID: c.Id})
	m.logger.Debug().Str("conn_id", c.Id).Msg("connection established")
}

// unregister tears down a connection: its session leaves presence and, if
// it was in a room, that room hears about the departure.
func (m *ChatManager) unregister(c *Client) {
	if _, ok := m.hub.Detach(c.Id); !ok {
		return
	}
	metrics.ActiveConnections.Dec()

	m.rooms.DetachAll(c.Id)
	s, ok := m.presence.Remove(c.Id)
	if !ok {
		return
	}
	if s.Room != "" {
		m.rooms.Notice(s.Room, s.Username+" UPLINK TERMINATED.", NoticeError)
	}
	m.logger.Info().Str("conn_id", c.Id).Str("user", s.Username).Msg("user disconnected")
}

// handle dispatches one client event through the handler table.
func (m *ChatManager) handle(c *Client, env Envelope) {
	if c.Kicked() {
		return
	}
	h, ok := handlers[env.Event]
	if !ok {
		m.notify(c.Id, invalid("unknown event %q", env.Event).notice())
		return
	}
	metrics.EventsHandled.WithLabelValues(string(env.Event)).Inc()

	err := h(m, c, env.Data)
	if err == nil {
		return
	}
	var f *Failure
	if errors.As(err, &f) {
		m.notify(c.Id, f.notice())
		return
	}
	m.logger.Error().Err(err).Str("conn_id", c.Id).Str("event", string(env.Event)).Msg("event failed")
}

// session returns the requester's session or a NotRegistered failure.
func (m *ChatManager) session(c *Client) (Session, error) {
	s, ok := m.presence.Lookup(c.Id)
	if !ok {
		return Session{}, &Failure{Kind: NotRegistered}
	}
	return s, nil
}

func (m *ChatManager) publishPresence(views []SessionView) {
	metrics.LiveSessions.Set(float64(len(views)))
	data, err := encode(EventActiveUsers, views)
	if err != nil {
		m.logger.Error().Err(err).Msg("failed to encode presence")
		return
	}
	m.hub.SendAll(data)
}

func (m *ChatManager) notify(connID string, msg SystemMessage) {
	m.notifyEvent(connID, EventSystemMessage, msg)
}

func (m *ChatManager) notifyEvent(connID string, event Event, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		m.logger.Error().Err(err).Str("event", string(event)).Msg("failed to encode event")
		return
	}
	m.hub.SendTo([]string{connID}, data)
}
