package store

import (
	"strings"
	"time"
)

// AccessClass decides who may join a directory room.
type AccessClass string

const (
	AccessOpen       AccessClass = "open"
	AccessRestricted AccessClass = "restricted"
)

// ParseAccessClass maps a room type name onto an access class. The older
// type names public, private and admin-only are still accepted.
func ParseAccessClass(s string) (AccessClass, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "open", "public", "private":
		return AccessOpen, true
	case "restricted", "admin-only":
		return AccessRestricted, true
	}
	return "", false
}

// Message is a persisted chat message. ID is assigned by the database;
// MessageID is the identifier generated when the message was sent and is
// the one clients see.
type Message struct {
	ID        uint      `gorm:"primarykey" json:"_id"`
	MessageID string    `gorm:"size:64;uniqueIndex;not null" json:"id"`
	Room      string    `gorm:"size:255;index;not null" json:"room"`
	Author    string    `gorm:"size:100;not null" json:"author"`
	Text      string    `gorm:"not null" json:"text"`
	Avatar    string    `gorm:"size:1024" json:"avatar"`
	Timestamp time.Time `gorm:"index" json:"timestamp"`
}

// TableName returns the table name for Message model.
func (Message) TableName() string {
	return "messages"
}

// Room is a directory entry for a named, persistent room.
type Room struct {
	ID        string      `gorm:"primarykey;size:36" json:"id"`
	Name      string      `gorm:"size:100;uniqueIndex;not null" json:"name"`
	Type      AccessClass `gorm:"size:16;not null;default:open" json:"type"`
	CreatedBy string      `gorm:"size:255;not null" json:"createdBy"`
	CreatedAt time.Time   `json:"createdAt"`
}

// TableName returns the table name for Room model.
func (Room) TableName() string {
	return "chat_rooms"
}

// Profile is the authoritative account record consulted to enrich a session.
type Profile struct {
	Email    string `gorm:"primarykey;size:255" json:"email"`
	Username string `gorm:"size:100;not null" json:"username"`
	Avatar   string `gorm:"size:1024" json:"avatar"`
	Role     string `gorm:"size:16" json:"role"`
}

// TableName returns the table name for Profile model.
func (Profile) TableName() string {
	return "users"
}
