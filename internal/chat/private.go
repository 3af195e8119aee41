package chat

import (
	"sort"
	"strings"
)

const (
	privatePrefix    = "PM: "
	privateSeparator = " & "
)

// PrivateRoomName derives the channel name two users share. Both sides get
// the same name whoever initiates.
func PrivateRoomName(a, b string) string {
	names := []string{a, b}
	sort.Strings(names)
	return privatePrefix + strings.Join(names, privateSeparator)
}

// IsPrivateRoom reports whether room is a synthesized private channel.
func IsPrivateRoom(room string) bool {
	return strings.HasPrefix(room, privatePrefix)
}

// ReservedName reports whether name cannot be used as a display name
// because it would make a private channel name ambiguous.
func ReservedName(name string) bool {
	return IsPrivateRoom(name) || strings.Contains(name, privateSeparator)
}

// Participants splits a private channel name into its two display names.
// Names with more than one separator are ambiguous and have no participants.
func Participants(room string) (string, string, bool) {
	if !IsPrivateRoom(room) {
		return "", "", false
	}
	rest := strings.TrimPrefix(room, privatePrefix)
	if strings.Count(rest, privateSeparator) != 1 {
		return "", "", false
	}
	a, b, _ := strings.Cut(rest, privateSeparator)
	return a, b, true
}

// IsParticipant reports whether name is one of the two ends of room.
func IsParticipant(room, name string) bool {
	a, b, ok := Participants(room)
	return ok && (a == name || b == name)
}

// counterpart returns the other end of room as seen by name.
func counterpart(room, name string) (string, bool) {
	a, b, ok := Participants(room)
	switch {
	case !ok:
		return "", false
	case a == name:
		return b, true
	case b == name:
		return a, true
	}
	return "", false
}
