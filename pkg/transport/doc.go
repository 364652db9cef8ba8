// Package transport provides the WebSocket client connections the harness
// drives a test-suite server with.
//
// A connection is consumed as a stream of events rather than through
// callbacks: Next blocks until the server sends a data message, a ping or
// a close, and returns it. Pings are answered with a pong before the ping
// event is delivered. Exactly one goroutine per connection reads from the
// socket and forwards events; it exits when the connection closes and Close
// waits for it, so no goroutine outlives its connection.
//
// Framing, fragmentation, masking and the close handshake are provided by
// github.com/gorilla/websocket.
package transport
