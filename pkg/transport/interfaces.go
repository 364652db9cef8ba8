package transport

import "context"

// Dialer opens WebSocket connections.
// Implemented by Client.
type Dialer interface {
	// Dial performs the opening handshake with the given ws:// or wss:// URL.
	Dial(ctx context.Context, url string) (Conn, error)
}

// Conn is an established WebSocket connection.
// Implemented by ClientConn.
type Conn interface {
	// ID returns the connection's unique identifier.
	ID() string

	// Next blocks until the next event arrives or ctx is done. After the
	// close event has been returned, Next returns ErrConnectionClosed.
	Next(ctx context.Context) (Event, error)

	// Send writes one data message, text or binary. The write deadline is
	// the earlier of ctx's deadline and the configured write timeout.
	Send(ctx context.Context, data []byte, binary bool) error

	// Close sends a close frame with the given status code, closes the
	// socket and waits for the reader goroutine to exit.
	Close(code int, reason string) error
}

var (
	_ Dialer = (*Client)(nil)
	_ Conn   = (*ClientConn)(nil)
)
