package log

import "time"

// Event represents one protocol event captured on a test connection.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// ConnectionID uniquely identifies the connection (UUID).
	ConnectionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"4,keyasint"`

	// Phase is the harness phase the connection was opened for
	// (e.g. "case-run").
	Phase string `cbor:"5,keyasint,omitempty"`

	// Case is the test case number, 0 for connections not tied to a case.
	Case int `cbor:"6,keyasint,omitempty"`

	// URL is the endpoint the connection was opened to.
	URL string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Frame       *FrameEvent       `cbor:"10,keyasint,omitempty"` // Data messages
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Connection/case state
	ControlMsg  *ControlMsgEvent  `cbor:"12,keyasint,omitempty"` // Ping/pong/close
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a text or binary data message.
	CategoryMessage Category = 0
	// CategoryControl indicates a control frame (ping/pong/close).
	CategoryControl Category = 1
	// CategoryState indicates a state change.
	CategoryState Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryControl:
		return "CONTROL"
	case CategoryState:
		return "STATE"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MaxFrameData is the number of payload bytes kept in a FrameEvent.
// Longer payloads are truncated and flagged.
const MaxFrameData = 256

// FrameEvent captures a data message.
type FrameEvent struct {
	// Size is the full payload size in bytes.
	Size int `cbor:"1,keyasint"`

	// Binary is set for binary messages, unset for text.
	Binary bool `cbor:"2,keyasint,omitempty"`

	// Data is the payload (may be truncated for large messages).
	Data []byte `cbor:"3,keyasint,omitempty"`

	// Truncated indicates if Data was truncated.
	Truncated bool `cbor:"4,keyasint,omitempty"`
}

// NewFrameEvent builds a FrameEvent, keeping at most MaxFrameData bytes of
// the payload.
func NewFrameEvent(data []byte, binary bool) *FrameEvent {
	fe := &FrameEvent{Size: len(data), Binary: binary}
	if len(data) > MaxFrameData {
		fe.Data = append([]byte(nil), data[:MaxFrameData]...)
		fe.Truncated = true
	} else if len(data) > 0 {
		fe.Data = append([]byte(nil), data...)
	}
	return fe
}

// StateChangeEvent captures connection and case lifecycle events.
type StateChangeEvent struct {
	// Entity being changed.
	Entity StateEntity `cbor:"1,keyasint"`

	// OldState is the previous state (may be empty).
	OldState string `cbor:"2,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"3,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"4,keyasint,omitempty"`
}

// StateEntity indicates what entity changed state.
type StateEntity uint8

const (
	// StateEntityConnection indicates a connection state change.
	StateEntityConnection StateEntity = 0
	// StateEntityCase indicates a test case state change.
	StateEntityCase StateEntity = 1
)

// String returns the state entity name.
func (s StateEntity) String() string {
	switch s {
	case StateEntityConnection:
		return "CONNECTION"
	case StateEntityCase:
		return "CASE"
	default:
		return "UNKNOWN"
	}
}

// ControlMsgEvent captures WebSocket control frames.
type ControlMsgEvent struct {
	// Type of control message.
	Type ControlMsgType `cbor:"1,keyasint"`

	// Size is the control payload length.
	Size int `cbor:"2,keyasint,omitempty"`

	// CloseCode is the status code of a close frame.
	CloseCode int `cbor:"3,keyasint,omitempty"`

	// CloseReason is the reason text of a close frame.
	CloseReason string `cbor:"4,keyasint,omitempty"`
}

// ControlMsgType indicates the type of control message.
type ControlMsgType uint8

const (
	// ControlMsgPing indicates a ping frame.
	ControlMsgPing ControlMsgType = 0
	// ControlMsgPong indicates a pong frame.
	ControlMsgPong ControlMsgType = 1
	// ControlMsgClose indicates a close frame.
	ControlMsgClose ControlMsgType = 2
)

// String returns the control message type name.
func (c ControlMsgType) String() string {
	switch c {
	case ControlMsgPing:
		return "PING"
	case ControlMsgPong:
		return "PONG"
	case ControlMsgClose:
		return "CLOSE"
	default:
		return "UNKNOWN"
	}
}

// ErrorEventData captures errors.
type ErrorEventData struct {
	// Message is the error message.
	Message string `cbor:"1,keyasint"`

	// Context describes what operation was being performed.
	Context string `cbor:"2,keyasint,omitempty"`
}
