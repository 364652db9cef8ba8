package transport

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	// DefaultMaxMessageSize bounds a single incoming message. Test suites
	// send messages of up to 16 MiB.
	DefaultMaxMessageSize = 64 << 20

	defaultHandshakeTimeout = 10 * time.Second
	defaultWriteTimeout     = 10 * time.Second
)

// ClientConfig configures a WebSocket client.
type ClientConfig struct {
	// InsecureSkipVerify accepts any server certificate on wss:// URLs.
	// Test-suite servers usually run with self-signed certificates.
	InsecureSkipVerify bool

	// HandshakeTimeout bounds the opening handshake (default: 10s).
	HandshakeTimeout time.Duration

	// WriteTimeout bounds a single write (default: 10s).
	WriteTimeout time.Duration

	// MaxMessageSize is the largest accepted message (default: 64 MiB).
	MaxMessageSize int64
}

// Client dials WebSocket connections.
type Client struct {
	config ClientConfig
	dialer *websocket.Dialer
}

// NewClient creates a new client.
func NewClient(config ClientConfig) *Client {
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = defaultHandshakeTimeout
	}
	if config.WriteTimeout == 0 {
		config.WriteTimeout = defaultWriteTimeout
	}
	if config.MaxMessageSize == 0 {
		config.MaxMessageSize = DefaultMaxMessageSize
	}

	return &Client{
		config: config,
		dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: config.HandshakeTimeout,
			TLSClientConfig: &tls.Config{
				MinVersion:         tls.VersionTLS12,
				InsecureSkipVerify: config.InsecureSkipVerify, //nolint:gosec // self-signed test servers
			},
		},
	}
}

// Dial performs the opening handshake and starts the connection's reader.
func (c *Client) Dial(ctx context.Context, url string) (Conn, error) {
	ws, resp, err := c.dialer.DialContext(ctx, url, nil)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket handshake with %s failed (HTTP %d): %w", url, resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket dial %s: %w", url, err)
	}

	return newClientConn(ws, c.config), nil
}

// ClientConn is an established connection.
type ClientConn struct {
	ws           *websocket.Conn
	id           string
	writeTimeout time.Duration

	events     chan Event
	done       chan struct{}
	readerDone chan struct{}

	closeOnce sync.Once
	closeErr  error
	writeMu   sync.Mutex
}

func newClientConn(ws *websocket.Conn, config ClientConfig) *ClientConn {
	c := &ClientConn{
		ws:           ws,
		id:           uuid.NewString(),
		writeTimeout: config.WriteTimeout,
		events:       make(chan Event),
		done:         make(chan struct{}),
		readerDone:   make(chan struct{}),
	}
	ws.SetReadLimit(config.MaxMessageSize)
	ws.SetPingHandler(c.handlePing)
	go c.readLoop()
	return c
}

// ID returns the connection's UUID.
func (c *ClientConn) ID() string {
	return c.id
}

// readLoop is the only goroutine reading from the socket. It is also the
// only sender on c.events and closes it on exit.
func (c *ClientConn) readLoop() {
	defer close(c.readerDone)
	defer close(c.events)

	for {
		mt, data, err := c.ws.ReadMessage()
		if err != nil {
			c.emit(closeEvent(err))
			return
		}
		if !c.emit(Event{Type: EventMessage, Data: data, Binary: mt == websocket.BinaryMessage}) {
			return
		}
	}
}

// emit hands an event to Next. It gives up once Close has been called.
func (c *ClientConn) emit(ev Event) bool {
	select {
	case c.events <- ev:
		return true
	case <-c.done:
		return false
	}
}

// handlePing answers a ping the way gorilla's default handler does and
// then reports it. It runs on the reader goroutine.
func (c *ClientConn) handlePing(appData string) error {
	err := c.ws.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(c.writeTimeout))
	c.emit(Event{Type: EventPing, Data: []byte(appData)})

	if err == nil || errors.Is(err, websocket.ErrCloseSent) {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return nil
	}
	return err
}

// Next returns the next event.
func (c *ClientConn) Next(ctx context.Context) (Event, error) {
	select {
	case ev, ok := <-c.events:
		if !ok {
			return Event{}, ErrConnectionClosed
		}
		return ev, nil
	case <-ctx.Done():
		return Event{}, ctx.Err()
	}
}

// Send writes one data message.
func (c *ClientConn) Send(ctx context.Context, data []byte, binary bool) error {
	select {
	case <-c.done:
		return ErrConnectionClosed
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	mt := websocket.TextMessage
	if binary {
		mt = websocket.BinaryMessage
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	deadline := time.Now().Add(c.writeTimeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	if err := c.ws.SetWriteDeadline(deadline); err != nil {
		return err
	}
	return c.ws.WriteMessage(mt, data)
}

// Close sends a close frame (ignored if one was already sent), closes the
// socket and waits for the reader goroutine.
func (c *ClientConn) Close(code int, reason string) error {
	c.closeOnce.Do(func() {
		close(c.done)
		msg := websocket.FormatCloseMessage(code, reason)
		_ = c.ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(c.writeTimeout))
		c.closeErr = c.ws.Close()
		<-c.readerDone
	})
	return c.closeErr
}
