package mock

// Message is a data message the server sends during a case run.
type Message struct {
	// Data is the payload.
	Data []byte

	// Binary selects a binary frame instead of a text frame.
	Binary bool
}

// Text returns a text message.
func Text(s string) Message {
	return Message{Data: []byte(s)}
}

// Binary returns a binary message.
func Binary(b []byte) Message {
	return Message{Data: b, Binary: true}
}

// Case represents one test case served by the mock fuzzing server.
type Case struct {
	// ID is the case identifier reported by getCaseInfo (e.g. "1.1.1").
	ID string

	// Description is reported by getCaseInfo.
	Description string

	// Behavior is reported by getCaseStatus ("OK", "FAILED", ...).
	Behavior string

	// Pings are sent before the messages of the run phase.
	Pings [][]byte

	// Messages are sent one at a time during the run phase; the server
	// waits for each echo before sending the next.
	Messages []Message

	// CloseCode ends the run phase (default: 1000).
	CloseCode int

	// CloseReason accompanies CloseCode.
	CloseReason string

	// Abnormal drops the TCP connection at the end of the run phase
	// instead of sending a close frame.
	Abnormal bool

	// Hold keeps the run-phase connection open until the client closes it.
	Hold bool

	// RawInfo replaces the getCaseInfo JSON when non-empty.
	RawInfo string

	// RawStatus replaces the getCaseStatus JSON when non-empty.
	RawStatus string
}

// NewCase creates a case with the given id and verdict that echoes one
// text message.
func NewCase(id, behavior string) *Case {
	return &Case{
		ID:          id,
		Description: "Send text message with payload of id " + id + ".",
		Behavior:    behavior,
		Messages:    []Message{Text("Hello, world!")},
	}
}
