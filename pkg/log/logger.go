package log

// Logger receives protocol events.
// Pass NoopLogger to disable logging.
type Logger interface {
	// Log records a protocol event. Implementations must not block for long:
	// events are emitted from the connection's event loop.
	Log(event Event)
}

// NoopLogger discards all events. Its zero value is ready to use.
type NoopLogger struct{}

// Log discards the event.
func (NoopLogger) Log(Event) {}

var _ Logger = NoopLogger{}
