package chat

import "strings"

// Privilege is the capability level of a session.
type Privilege string

const (
	PrivilegeStandard Privilege = "standard"
	PrivilegeElevated Privilege = "elevated"
)

// privilegeOf maps an account role onto a privilege level.
func privilegeOf(role string) Privilege {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "admin", "elevated":
		return PrivilegeElevated
	}
	return PrivilegeStandard
}

// Identity is the profile a client presents when it joins the server.
type Identity struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Avatar   string `json:"avatar"`
}

// Session is the server-side record of one live connection.
type Session struct {
	ConnID    string
	Username  string
	Email     string
	Role      string
	Privilege Privilege
	Avatar    string
	Room      string
}

// Elevated reports whether the session may moderate.
func (s Session) Elevated() bool {
	return s.Privilege == PrivilegeElevated
}

// SessionView is the presence entry published to clients.
type SessionView struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email,omitempty"`
	Role     string `json:"role,omitempty"`
	Avatar   string `json:"avatar"`
	Room     string `json:"room,omitempty"`
}

func (s Session) view() SessionView {
	return SessionView{
		ID:       s.ConnID,
		Username: s.Username,
		Email:    s.Email,
		Role:     s.Role,
		Avatar:   s.Avatar,
		Room:     s.Room,
	}
}
