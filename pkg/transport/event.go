package transport

import (
	"errors"

	"github.com/gorilla/websocket"
)

// ErrConnectionClosed is returned by Next and Send once the connection is closed.
var ErrConnectionClosed = errors.New("connection closed")

// Close status codes used by the harness.
const (
	CloseNormal         = websocket.CloseNormalClosure
	CloseGoingAway      = websocket.CloseGoingAway
	CloseAbnormal       = websocket.CloseAbnormalClosure
	ClosePolicyViolated = websocket.ClosePolicyViolation
)

// EventType distinguishes the events a connection yields.
type EventType uint8

const (
	// EventMessage is a complete text or binary data message.
	EventMessage EventType = iota
	// EventPing is a ping that has already been answered with a pong.
	EventPing
	// EventClose ends the connection. It is always the last event.
	EventClose
)

// String returns the event type name.
func (t EventType) String() string {
	switch t {
	case EventMessage:
		return "message"
	case EventPing:
		return "ping"
	case EventClose:
		return "close"
	default:
		return "unknown"
	}
}

// Event is one thing that happened on a connection.
type Event struct {
	Type EventType

	// Data is the message or ping payload.
	Data []byte

	// Binary is set for binary messages.
	Binary bool

	// CloseCode and CloseReason describe a close event. A connection that
	// ended without a close frame reports CloseAbnormal.
	CloseCode   int
	CloseReason string

	// Err is the read error behind an abnormal close.
	Err error
}

// Abnormal reports whether a close event ended without a close handshake.
func (e Event) Abnormal() bool {
	return e.Type == EventClose && e.Err != nil
}

// closeEvent converts the error that ended the read loop into a close event.
func closeEvent(err error) Event {
	var ce *websocket.CloseError
	if errors.As(err, &ce) && ce.Code != websocket.CloseAbnormalClosure {
		return Event{Type: EventClose, CloseCode: ce.Code, CloseReason: ce.Text}
	}
	return Event{Type: EventClose, CloseCode: CloseAbnormal, Err: err}
}
