package chat

import (
	"sort"
	"sync"
)

// Presence is the registry of live sessions keyed by connection id. Every
// change to the set is published as a full snapshot; publishing happens
// while the registry lock is held so snapshots are observed in mutation order.
type Presence struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	publish  func([]SessionView)
}

// NewPresence creates an empty registry. publish receives the full session
// list after every register, enrich and remove.
func NewPresence(publish func([]SessionView)) *Presence {
	if publish == nil {
		publish = func([]SessionView) {}
	}
	return &Presence{
		sessions: make(map[string]*Session),
		publish:  publish,
	}
}

// Register inserts or overwrites the session for connID. A re-registration
// on the same connection keeps its current room.
func (p *Presence) Register(connID string, id Identity) Session {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := &Session{
		ConnID:    connID,
		Username:  id.Username,
		Email:     id.Email,
		Role:      id.Role,
		Privilege: privilegeOf(id.Role),
		Avatar:    id.Avatar,
	}
	if prev, ok := p.sessions[connID]; ok {
		s.Room = prev.Room
	}
	p.sessions[connID] = s
	p.publish(p.snapshotLocked())
	return *s
}

// Enrich sets the avatar of a session that may have gone away in the
// meantime. It returns false, and publishes nothing, if the session is gone.
func (p *Presence) Enrich(connID, avatar string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[connID]
	if !ok {
		return false
	}
	s.Avatar = avatar
	p.publish(p.snapshotLocked())
	return true
}

// Remove deletes the session for connID and returns it.
func (p *Presence) Remove(connID string) (Session, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[connID]
	if !ok {
		return Session{}, false
	}
	delete(p.sessions, connID)
	p.publish(p.snapshotLocked())
	return *s, true
}

// SetRoom records the current room of a session without publishing.
func (p *Presence) SetRoom(connID, room string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.sessions[connID]
	if !ok {
		return false
	}
	s.Room = room
	return true
}

// ClearRoom unsets the current room if it is still room.
func (p *Presence) ClearRoom(connID, room string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if s, ok := p.sessions[connID]; ok && s.Room == room {
		s.Room = ""
	}
}

func (p *Presence) Lookup(connID string) (Session, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	s, ok := p.sessions[connID]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// LookupByName returns every live session using the display name, ordered
// by connection id. More than one means the user is connected several times.
func (p *Presence) LookupByName(name string) []Session {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var out []Session
	for _, s := range p.sessions {
		if s.Username == name {
			out = append(out, *s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ConnID < out[j].ConnID })
	return out
}

// Snapshot returns the current session list ordered by display name.
func (p *Presence) Snapshot() []SessionView {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.snapshotLocked()
}

func (p *Presence) Len() int {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return len(p.sessions)
}

func (p *Presence) snapshotLocked() []SessionView {
	out := make([]SessionView, 0, len(p.sessions))
	for _, s := range p.sessions {
		out = append(out, s.view())
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Username != out[j].Username {
			return out[i].Username < out[j].Username
		}
		return out[i].ID < out[j].ID
	})
	return out
}
