package chat

import (
	"encoding/json"
	"time"
)

// Event tags an envelope on the wire.
type Event string

// Client to server.
const (
	EventJoinServer          Event = "join_server"
	EventJoinRoom            Event = "join_room"
	EventLeaveRoom           Event = "leave_room"
	EventSendMessage         Event = "send_message"
	EventDeleteMessage       Event = "delete_message"
	EventInitiatePrivateChat Event = "initiate_private_chat"
	EventKickUser            Event = "kick_user"
)

// Server to client.
const (
	EventConnected          Event = "connected"
	EventActiveUsers        Event = "active_users"
	EventSystemMessage      Event = "system_message"
	EventReceiveMessage     Event = "receive_message"
	EventMessageDeleted     Event = "message_deleted"
	EventPrivateChatStarted Event = "private_chat_started"
	EventKicked             Event = "kicked"
)

// Envelope is one frame on the duplex connection.
type Envelope struct {
	Event Event           `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// encode marshals payload into a complete envelope frame.
func encode(event Event, payload any) ([]byte, error) {
	env := Envelope{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		env.Data = data
	}
	return json.Marshal(&env)
}

type SendMessageRequest struct {
	Room      string    `json:"room"`
	Author    string    `json:"author"` // informational, the session name is authoritative
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

type DeleteMessageRequest struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
}

type PrivateChatRequest struct {
	TargetName string `json:"targetName"`
	// TargetUsername is the older field name.
	TargetUsername string `json:"targetUsername,omitempty"`
}

func (r PrivateChatRequest) target() string {
	if r.TargetName != "" {
		return r.TargetName
	}
	return r.TargetUsername
}

// Notice types carried by system messages.
const (
	NoticeSuccess = "success"
	NoticeError   = "error"
)

type SystemMessage struct {
	Text string `json:"text"`
	Type string `json:"type"`
	Room string `json:"room,omitempty"`
}

// Message is a chat message as delivered to clients.
type Message struct {
	ID        string    `json:"id"`
	Room      string    `json:"room"`
	Author    string    `json:"author"`
	Text      string    `json:"text"`
	Avatar    string    `json:"avatar"`
	Timestamp time.Time `json:"timestamp"`
}

type PrivateChatStarted struct {
	RoomName  string `json:"roomName"`
	Initiator string `json:"initiator"`
}

type Connected struct {
	ConnectionID string `json:"connectionId"`
}
