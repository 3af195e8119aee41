package chat

import (
	"context"
	"errors"

	"github.com/pelusa-v/pelusa-chat/internal/store"
)

// RoomDirectory resolves directory rooms by name.
type RoomDirectory interface {
	FindByName(ctx context.Context, name string) (*store.Room, error)
}

// Moderator decides room access and who may moderate.
type Moderator struct {
	dir RoomDirectory
}

func NewModerator(dir RoomDirectory) *Moderator {
	return &Moderator{dir: dir}
}

// CanJoin reports whether s may join room. Rooms missing from the directory
// are open and a directory failure refuses the join. A private channel
// admits only its two participants and is never looked up in the directory.
func (m *Moderator) CanJoin(ctx context.Context, s Session, room string) (bool, error) {
	if IsPrivateRoom(room) {
		return IsParticipant(room, s.Username), nil
	}
	if m.dir == nil {
		return true, nil
	}

	r, err := m.dir.FindByName(ctx, room)
	if errors.Is(err, store.ErrNotFound) {
		return true, nil
	}
	if err != nil {
		return false, err
	}
	return Admits(r.Type, s), nil
}

// Admits is the access rule for a directory room.
func Admits(class store.AccessClass, s Session) bool {
	return class != store.AccessRestricted || s.Elevated()
}

// CanKick reports whether s may remove other sessions.
func (m *Moderator) CanKick(s Session) bool {
	return s.Elevated()
}

// CanDelete reports whether s may delete a message written by author.
func (m *Moderator) CanDelete(s Session, author string) bool {
	return s.Elevated() || (author != "" && author == s.Username)
}
