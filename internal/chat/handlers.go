package chat

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/pelusa-v/pelusa-chat/internal/metrics"
	"github.com/pelusa-v/pelusa-chat/internal/store"
)

type handlerFunc func(m *ChatManager, c *Client, data json.RawMessage) error

// typed adapts a handler taking a decoded payload to the handler table.
func typed[T any](fn func(*ChatManager, *Client, T) error) handlerFunc {
	return func(m *ChatManager, c *Client, data json.RawMessage) error {
		var payload T
		if err := json.Unmarshal(data, &payload); err != nil {
			return invalid("bad payload: %v", err)
		}
		return fn(m, c, payload)
	}
}

var handlers = map[Event]handlerFunc{
	EventJoinServer:          typed((*ChatManager).joinServer),
	EventJoinRoom:            typed((*ChatManager).joinRoom),
	EventLeaveRoom:           typed((*ChatManager).leaveRoom),
	EventSendMessage:         typed((*ChatManager).sendMessage),
	EventDeleteMessage:       typed((*ChatManager).deleteMessage),
	EventInitiatePrivateChat: typed((*ChatManager).initiatePrivateChat),
	EventKickUser:            typed((*ChatManager).kickUser),
}

// joinServer registers the session synchronously, so a join_room right
// behind it always finds it, then refreshes the avatar in the background.
func (m *ChatManager) joinServer(c *Client, id Identity) error {
	id.Username = strings.TrimSpace(id.Username)
	if id.Username == "" {
		return invalid("username is required")
	}
	if ReservedName(id.Username) {
		return invalid("username %q is reserved", id.Username)
	}

	m.presence.Register(c.Id, id)
	m.logger.Info().Str("conn_id", c.Id).Str("user", id.Username).Msg("user connected")

	if m.profiles != nil && id.Email != "" {
		m.startEnrich(c.Id, id.Email)
	}
	return nil
}

// startEnrich launches the avatar lookup unless the manager is stopping.
func (m *ChatManager) startEnrich(connID, email string) {
	m.enrichMu.Lock()
	defer m.enrichMu.Unlock()

	if m.ctx.Err() != nil {
		return
	}
	m.enrichG.Add(1)
	go m.enrich(connID, email)
}

// enrich may finish after the connection is gone; Presence.Enrich ignores
// sessions that no longer exist.
func (m *ChatManager) enrich(connID, email string) {
	defer m.enrichG.Done()

	avatar, err := m.profiles.Avatar(m.ctx, email)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) && !errors.Is(err, context.Canceled) {
			m.logger.Warn().Err(err).Str("conn_id", connID).Msg("avatar sync failed")
		}
		return
	}
	if avatar == "" {
		return
	}
	if m.presence.Enrich(connID, avatar) {
		m.logger.Debug().Str("conn_id", connID).Msg("avatar synced")
	}
}

func (m *ChatManager) joinRoom(c *Client, room string) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	room = strings.TrimSpace(room)
	if room == "" {
		return invalid("room is required")
	}

	ok, err := m.moderator.CanJoin(m.ctx, s, room)
	if err != nil {
		m.logger.Error().Err(err).Str("room", room).Msg("access check failed")
	}
	if !ok {
		metrics.AccessDenied.Inc()
		return &Failure{Kind: AccessDenied, Room: room}
	}

	m.rooms.Join(c.Id, room, s.Username)
	if !IsPrivateRoom(room) {
		m.presence.SetRoom(c.Id, room)
	}
	return nil
}

func (m *ChatManager) leaveRoom(c *Client, room string) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	m.rooms.Leave(c.Id, room, s.Username)
	m.presence.ClearRoom(c.Id, room)
	return nil
}

// sendMessage stamps, persists and fans out a message. Persistence is queued
// and delivery does not wait for it. The author is always the sender's
// session name.
func (m *ChatManager) sendMessage(c *Client, req SendMessageRequest) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	room := strings.TrimSpace(req.Room)
	switch {
	case room == "":
		return invalid("room is required")
	case strings.TrimSpace(req.Text) == "":
		return invalid("text is required")
	case len(req.Text) > m.maxMessageSize:
		return invalid("text exceeds %d bytes", m.maxMessageSize)
	}

	kind := "room"
	if IsPrivateRoom(room) {
		kind = "private"
		if !IsParticipant(room, s.Username) {
			return &Failure{Kind: NotMember, Room: room}
		}
		m.rooms.Attach(c.Id, room)
		m.reattachCounterpart(room, s.Username)
	} else if !m.rooms.IsMember(c.Id, room) {
		return &Failure{Kind: NotMember, Room: room}
	}

	ts := req.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	msg := Message{
		ID:        ulid.Make().String(),
		Room:      room,
		Author:    s.Username,
		Text:      req.Text,
		Avatar:    s.Avatar,
		Timestamp: ts,
	}

	m.writer.insert(&store.Message{
		MessageID: msg.ID,
		Room:      msg.Room,
		Author:    msg.Author,
		Text:      msg.Text,
		Avatar:    msg.Avatar,
		Timestamp: msg.Timestamp,
	})
	m.rooms.Broadcast(room, EventReceiveMessage, msg)
	metrics.MessagesSent.WithLabelValues(kind).Inc()
	return nil
}

// reattachCounterpart joins the other participant's live connections to a
// private channel they dropped out of, for example after a reload.
func (m *ChatManager) reattachCounterpart(room, sender string) {
	other, ok := counterpart(room, sender)
	if !ok {
		return
	}
	for _, t := range m.presence.LookupByName(other) {
		if m.rooms.Attach(t.ConnID, room) {
			m.logger.Debug().Str("conn_id", t.ConnID).Str("room", room).Msg("private channel re-attached")
		}
	}
}

// deleteMessage is queued behind pending inserts so a message deleted right
// after it was sent is really gone. The deletion notice goes out even if the
// store fails.
func (m *ChatManager) deleteMessage(c *Client, req DeleteMessageRequest) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	if req.MessageID == "" {
		return invalid("messageId is required")
	}

	m.writer.enqueue(func(ctx context.Context) {
		room := req.Room
		rec, err := m.writer.store.Find(ctx, req.MessageID)
		switch {
		case err == nil:
			room = rec.Room
			if !m.moderator.CanDelete(s, rec.Author) {
				m.notify(c.Id, (&Failure{Kind: Forbidden, Room: room}).notice())
				return
			}
		case errors.Is(err, store.ErrNotFound):
			// nothing stored; only a moderator may still clear it from views
			if !s.Elevated() {
				return
			}
		default:
			metrics.PersistenceFailures.WithLabelValues("find").Inc()
			m.logger.Error().Err(err).Str("message_id", req.MessageID).Msg("failed to look up message")
			if !s.Elevated() {
				return
			}
		}

		if rec != nil {
			if err := m.writer.store.Delete(ctx, req.MessageID); err != nil {
				metrics.PersistenceFailures.WithLabelValues("delete").Inc()
				m.logger.Error().Err(err).Str("message_id", req.MessageID).Msg("failed to delete message")
			}
		}
		if room != "" {
			m.rooms.Broadcast(room, EventMessageDeleted, req.MessageID)
		}
	})
	return nil
}

// initiatePrivateChat joins both ends to their private channel and tells
// each connection which room to switch to. Every live connection of the
// target name takes part.
func (m *ChatManager) initiatePrivateChat(c *Client, req PrivateChatRequest) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	target := strings.TrimSpace(req.target())
	if target == "" {
		return invalid("targetName is required")
	}

	targets := m.presence.LookupByName(target)
	if len(targets) == 0 {
		return &Failure{Kind: TargetUnavailable, Detail: target}
	}

	room := PrivateRoomName(s.Username, target)
	conns := []string{c.Id}
	for _, t := range targets {
		if t.ConnID != c.Id {
			conns = append(conns, t.ConnID)
		}
	}

	started := PrivateChatStarted{RoomName: room, Initiator: s.Username}
	for _, id := range conns {
		m.rooms.Attach(id, room)
		m.notifyEvent(id, EventPrivateChatStarted, started)
	}
	return nil
}

// kickUser removes the target session. Its room hears a departure notice
// after the target left it, and the target gets one kicked event and is
// ignored from then on. The connection is dropped from the hub, so nothing
// else reaches it.
func (m *ChatManager) kickUser(c *Client, targetID string) error {
	s, err := m.session(c)
	if err != nil {
		return err
	}
	if !m.moderator.CanKick(s) {
		return &Failure{Kind: Forbidden}
	}

	target, ok := m.presence.Lookup(targetID)
	if !ok {
		return nil
	}

	m.rooms.DetachAll(targetID)
	if target.Room != "" {
		m.rooms.Notice(target.Room, target.Username+" HAS BEEN DISCHARGED BY COMMAND.", NoticeError)
	}
	if tc, ok := m.hub.Get(targetID); ok {
		tc.kicked.Store(true)
	}
	m.notifyEvent(targetID, EventKicked, nil)
	// the write pump sends the kicked frame, then closes the connection
	if _, ok := m.hub.Detach(targetID); ok {
		metrics.ActiveConnections.Dec()
	}
	m.presence.Remove(targetID)

	metrics.Kicks.Inc()
	m.logger.Info().Str("conn_id", targetID).Str("user", target.Username).Str("by", s.Username).Msg("user kicked")
	return nil
}
