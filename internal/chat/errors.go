package chat

import "fmt"

// FailureKind classifies a rejected client event.
type FailureKind int

const (
	AccessDenied FailureKind = iota + 1
	TargetUnavailable
	NotMember
	Forbidden
	InvalidPayload
	NotRegistered
)

// Failure is returned by event handlers when the requester should be told
// that its event was refused. It never affects other connections.
type Failure struct {
	Kind   FailureKind
	Room   string
	Detail string
}

func (f *Failure) Error() string {
	return fmt.Sprintf("chat: %s", f.text())
}

func (f *Failure) text() string {
	switch f.Kind {
	case AccessDenied:
		return "ACCESS DENIED: COMMAND CLEARANCE REQUIRED."
	case TargetUnavailable:
		return "TARGET OFFLINE: " + f.Detail
	case NotMember:
		return "NOT IN ROOM: " + f.Room
	case Forbidden:
		return "COMMAND CLEARANCE REQUIRED."
	case NotRegistered:
		return "JOIN SERVER FIRST."
	}
	return "MALFORMED TRANSMISSION: " + f.Detail
}

func (f *Failure) notice() SystemMessage {
	return SystemMessage{Text: f.text(), Type: NoticeError, Room: f.Room}
}

func invalid(format string, args ...any) *Failure {
	return &Failure{Kind: InvalidPayload, Detail: fmt.Sprintf(format, args...)}
}
