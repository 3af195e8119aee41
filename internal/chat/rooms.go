package chat

import (
	"sort"
	"sync"

	"github.com/rs/zerolog"
)

// Rooms is the broadcast engine: it tracks which connections are joined to
// which rooms and fans events out to them. Membership is independent of a
// session's current room, so one connection can sit in a public room and
// any number of private channels.
type Rooms struct {
	mu        sync.RWMutex
	roomConns map[string]map[string]bool // room -> set(conn)
	connRooms map[string]map[string]bool // conn -> set(room)

	hub    *Hub
	logger zerolog.Logger
}

func NewRooms(hub *Hub, logger zerolog.Logger) *Rooms {
	return &Rooms{
		roomConns: map[string]map[string]bool{},
		connRooms: map[string]map[string]bool{},
		hub:       hub,
		logger:    logger,
	}
}

// Attach adds connID to room without announcing it. It returns false if the
// connection was already a member.
func (r *Rooms) Attach(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.roomConns[room][connID] {
		return false
	}
	if _, ok := r.roomConns[room]; !ok {
		r.roomConns[room] = map[string]bool{}
	}
	r.roomConns[room][connID] = true

	if _, ok := r.connRooms[connID]; !ok {
		r.connRooms[connID] = map[string]bool{}
	}
	r.connRooms[connID][room] = true
	return true
}

// Detach removes connID from room. It returns false if it was not a member.
func (r *Rooms) Detach(connID, room string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.detachLocked(connID, room)
}

// DetachAll removes connID from every room and returns those rooms.
func (r *Rooms) DetachAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	rooms := make([]string, 0, len(r.connRooms[connID]))
	for room := range r.connRooms[connID] {
		rooms = append(rooms, room)
	}
	for _, room := range rooms {
		r.detachLocked(connID, room)
	}
	sort.Strings(rooms)
	return rooms
}

func (r *Rooms) detachLocked(connID, room string) bool {
	members, ok := r.roomConns[room]
	if !ok || !members[connID] {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.roomConns, room)
	}
	if s, ok := r.connRooms[connID]; ok {
		delete(s, room)
		if len(s) == 0 {
			delete(r.connRooms, connID)
		}
	}
	return true
}

// Join adds connID to room and announces it to every member, the joiner
// included.
func (r *Rooms) Join(connID, room, name string) {
	r.Attach(connID, room)
	r.Notice(room, name+" HAS ESTABLISHED UPLINK.", NoticeSuccess)
}

// Leave removes connID from room and tells the remaining members. Leaving a
// room the connection is not in is a no-op.
func (r *Rooms) Leave(connID, room, name string) bool {
	if !r.Detach(connID, room) {
		return false
	}
	r.Notice(room, name+" UPLINK TERMINATED.", NoticeError)
	return true
}

// Notice broadcasts a system message to room.
func (r *Rooms) Notice(room, text, kind string) {
	r.Broadcast(room, EventSystemMessage, SystemMessage{Text: text, Type: kind, Room: room})
}

// Broadcast delivers an event to every connection joined to room.
func (r *Rooms) Broadcast(room string, event Event, payload any) {
	data, err := encode(event, payload)
	if err != nil {
		r.logger.Error().Err(err).Str("event", string(event)).Msg("failed to encode event")
		return
	}
	r.hub.SendTo(r.Members(room), data)
}

func (r *Rooms) IsMember(connID, room string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.roomConns[room][connID]
}

// Members lists the connections joined to room.
func (r *Rooms) Members(room string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.roomConns[room]
	out := make([]string, 0, len(members))
	for connID := range members {
		out = append(out, connID)
	}
	sort.Strings(out)
	return out
}
